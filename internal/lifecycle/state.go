package lifecycle

import "fmt"

// GameState is a host game-state machine state.
type GameState uint8

const (
	StateUnknown GameState = iota
	StateInit
	StateInitMenu
	StateInitNetwork
	StateInitConnection
	StateIdle
	StateLoadMenu
	StateMenu
	StateExit
	StateSwapLevel
	StateLoadLevel
	StateLoadModule
	StateLoadSession
	StateUnloadLevel
	StateUnloadModule
	StateUnloadSession
	StatePaused
	StatePrepareRunning
	StateRunning
	StateDisconnect
	StateJoin
	StateSave
	StateStartLoading
	StateStopLoading
	StateStartServer
	StateMovie
	StateInstallation
	StateModReceiving
	StateLobby
	StateBuildStory
	StateGeneratePsoCache
	StateLoadPsoCache
	StateAnalyticsSessionEnd
)

var stateNames = [...]string{
	"Unknown", "Init", "InitMenu", "InitNetwork", "InitConnection", "Idle",
	"LoadMenu", "Menu", "Exit", "SwapLevel", "LoadLevel", "LoadModule",
	"LoadSession", "UnloadLevel", "UnloadModule", "UnloadSession", "Paused",
	"PrepareRunning", "Running", "Disconnect", "Join", "Save", "StartLoading",
	"StopLoading", "StartServer", "Movie", "Installation", "ModReceiving",
	"Lobby", "BuildStory", "GeneratePsoCache", "LoadPsoCache", "AnalyticsSessionEnd",
}

func (s GameState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("GameState(%d)", uint8(s))
}

// ParseGameState looks a state up by name.
func ParseGameState(name string) (GameState, bool) {
	for i, n := range stateNames {
		if n == name {
			return GameState(i), true
		}
	}
	return StateUnknown, false
}

// IsLoadingState reports whether the host shows a loading screen in s.
func IsLoadingState(s GameState) bool {
	switch s {
	case StateInit, StateInitMenu, StateInitNetwork, StateInitConnection,
		StateLoadMenu, StateSwapLevel, StateLoadLevel, StateLoadModule,
		StateLoadSession, StateUnloadLevel, StateUnloadModule, StateUnloadSession,
		StatePrepareRunning, StateInstallation, StateModReceiving:
		return true
	}
	return false
}

package event

// GameStateChanged is emitted by the lifecycle observer for every state
// transition it sees. States are carried by name.
type GameStateChanged struct {
	From string
	To   string
}

// MetadataChanged asks for a rebind against freshly loaded metadata.
type MetadataChanged struct {
	Source string
}

// BindingsRebuilt follows every registry rebuild.
type BindingsRebuilt struct {
	Version uint64
	Missing int
}

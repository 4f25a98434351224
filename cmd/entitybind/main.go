package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/entitybind/entitybind/internal/binding"
	"github.com/entitybind/entitybind/internal/config"
	"github.com/entitybind/entitybind/internal/core/ecs"
	"github.com/entitybind/entitybind/internal/core/event"
	coresys "github.com/entitybind/entitybind/internal/core/system"
	"github.com/entitybind/entitybind/internal/data"
	"github.com/entitybind/entitybind/internal/lifecycle"
	"github.com/entitybind/entitybind/internal/scripting"
	"github.com/entitybind/entitybind/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func run() error {
	// 1. Config + logger
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 2. Host metadata + world
	symbols, err := data.LoadSymbolTable(cfg.Binding.Metadata)
	if err != nil {
		return err
	}
	fixture, err := data.LoadWorldFixture(cfg.World.Fixture)
	if err != nil {
		return err
	}
	ecsWorld, err := fixture.Build(cfg.Engine.BucketBits)
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}
	worldFn := func() *ecs.EntityWorld { return ecsWorld }

	printSection("host world")
	printStat("entity classes", len(ecsWorld.Classes()))
	entities := 0
	for _, c := range ecsWorld.Classes() {
		entities += c.Len()
	}
	printStat("entities", entities)
	printStat("index symbols", symbols.Count())
	fmt.Println()

	// 3. Binding registry, event bus, lifecycle
	reg := binding.NewRegistry(binding.Options{
		Catalog:    binding.DefaultCatalog,
		Symbols:    symbols,
		World:      worldFn,
		CheckLevel: cfg.CheckLevel(),
		Logger:     log.Named("binding"),
	})
	bus := event.NewBus()
	observer := lifecycle.NewObserver(reg, bus, log.Named("lifecycle"))

	// 4. Lua
	if cfg.Scripting.Enabled {
		lua, err := scripting.NewEngine(cfg.Scripting.Dir, reg, worldFn, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("init lua: %w", err)
		}
		defer lua.Close()
		event.Subscribe(bus, func(e event.BindingsRebuilt) { lua.NotifyRebuilt(e.Version, e.Missing) })
		event.Subscribe(bus, func(e event.GameStateChanged) { lua.NotifyStateChanged(e.From, e.To) })
	}

	// 5. Systems
	integrity := system.NewIntegritySystem(reg)
	replication := system.NewReplicationCheckSystem(reg)
	runner := coresys.NewRunner()
	runner.WarnSlowTicks(cfg.Runtime.SlowTick, log.Named("runner"))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(integrity)
	runner.Register(replication)
	runner.Register(system.NewCleanupSystem(ecsWorld, log.Named("cleanup")))

	// 6. Bring the host up to Running; the observer binds on the way.
	observer.OnGameStateChanged(lifecycle.StateUnknown, lifecycle.StateInit)
	observer.OnGameStateChanged(lifecycle.StateInit, lifecycle.StateLoadModule)
	observer.OnGameStateChanged(lifecycle.StateLoadModule, lifecycle.StateRunning)

	tables := reg.Tables()
	printSection("bindings")
	printStat("version", int(tables.Version))
	printStat("missing", len(tables.Missing))
	fmt.Println()

	// 7. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)

	ticker := time.NewTicker(cfg.Runtime.TickRate)
	defer ticker.Stop()
	log.Info("tick loop started", zap.Duration("tick", cfg.Runtime.TickRate), zap.Stringer("check_level", cfg.CheckLevel()))

	ticks := 0
	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Runtime.TickRate)
			ticks++
			if cfg.Runtime.Ticks > 0 && ticks >= cfg.Runtime.Ticks {
				log.Info("tick limit reached", zap.Int("ticks", ticks),
					zap.Int("integrity_issues", integrity.Issues()),
					zap.Int("replication_issues", replication.Issues()))
				return nil
			}
		case <-reloadCh:
			reloadMetadata(cfg.Binding.Metadata, reg, bus, log)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()),
				zap.Int("ticks", ticks),
				zap.Int("integrity_issues", integrity.Issues()),
				zap.Int("replication_issues", replication.Issues()))
			return nil
		}
	}
}

// reloadMetadata swaps in a fresh symbol table and asks for a rebind on the
// next tick. A broken file keeps the current bindings.
func reloadMetadata(path string, reg *binding.Registry, bus *event.Bus, log *zap.Logger) {
	symbols, err := data.LoadSymbolTable(path)
	if err != nil {
		log.Error("reload metadata", zap.Error(err))
		return
	}
	reg.SetSymbols(symbols)
	event.Emit(bus, event.MetadataChanged{Source: path})
	log.Info("metadata reloaded", zap.String("path", path), zap.Int("symbols", symbols.Count()))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

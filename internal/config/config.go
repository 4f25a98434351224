package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/entitybind/entitybind/internal/binding"
)

// EnvPath names the environment variable that overrides DefaultPath.
const (
	EnvPath     = "ENTITYBIND_CONFIG"
	DefaultPath = "config/entitybind.toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Binding   BindingConfig   `toml:"binding"`
	World     WorldConfig     `toml:"world"`
	Runtime   RuntimeConfig   `toml:"runtime"`
	Scripting ScriptingConfig `toml:"scripting"`
	Logging   LoggingConfig   `toml:"logging"`
}

type EngineConfig struct {
	BucketBits uint `toml:"bucket_bits"` // slots per pool bucket = 1 << bucket_bits
}

type BindingConfig struct {
	Metadata   string `toml:"metadata"`    // symbol table YAML
	CheckLevel string `toml:"check_level"` // none | once | always | full
}

type WorldConfig struct {
	Fixture string `toml:"fixture"`
}

type RuntimeConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
	// Ticks stops the loop after this many ticks; 0 runs until signalled.
	Ticks int `toml:"ticks"`
	// SlowTick logs a warning for ticks taking longer; 0 disables it.
	SlowTick time.Duration `toml:"slow_tick"`
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Path returns the config path from the environment, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// CheckLevel parses the configured integrity check level.
func (c *Config) CheckLevel() binding.CheckLevel {
	lvl, _ := binding.ParseCheckLevel(c.Binding.CheckLevel)
	return lvl
}

func (c *Config) validate() error {
	if c.Engine.BucketBits < 1 || c.Engine.BucketBits > 16 {
		return fmt.Errorf("engine.bucket_bits %d outside 1..16", c.Engine.BucketBits)
	}
	if _, err := binding.ParseCheckLevel(c.Binding.CheckLevel); err != nil {
		return fmt.Errorf("binding.check_level: %w", err)
	}
	if c.Runtime.TickRate <= 0 {
		return fmt.Errorf("runtime.tick_rate must be positive")
	}
	if c.Runtime.SlowTick < 0 {
		return fmt.Errorf("runtime.slow_tick must not be negative")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			BucketBits: 6,
		},
		Binding: BindingConfig{
			Metadata:   "data/yaml/symbols.yaml",
			CheckLevel: "once",
		},
		World: WorldConfig{
			Fixture: "data/yaml/world.yaml",
		},
		Runtime: RuntimeConfig{
			TickRate: 200 * time.Millisecond,
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

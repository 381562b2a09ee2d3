// Package config loads and validates the description of a simulated
// system.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache"
	"github.com/sarchlab/memhier/mem/cache/banked"
)

// Config describes the simulated system.
type Config struct {
	Sys    SysConfig    `yaml:"sys"`
	Sim    SimConfig    `yaml:"sim"`
	Memory MemoryConfig `yaml:"memory"`
}

// SysConfig holds the properties shared by the whole system.
type SysConfig struct {
	NumCores int    `yaml:"numCores"`
	LineSize uint64 `yaml:"lineSize"`
}

// SimConfig controls the replay.
type SimConfig struct {
	PhaseLength uint64 `yaml:"phaseLength"`
	Seed        int64  `yaml:"seed"`
}

// MemoryConfig describes every level of the hierarchy.
type MemoryConfig struct {
	Main MainConfig  `yaml:"main"`
	L1I  LevelConfig `yaml:"l1i"`
	L1D  LevelConfig `yaml:"l1d"`
	L2   LevelConfig `yaml:"l2"`
	LLC  LevelConfig `yaml:"llc"`
}

// MainConfig describes main memory.
type MainConfig struct {
	Latency uint64 `yaml:"latency"`
}

// LevelConfig describes one cache level. BankSize only applies to the last
// level and Policy is ignored by L1 levels, which evict at random.
type LevelConfig struct {
	Size     uint64 `yaml:"size"`
	Ways     int    `yaml:"ways"`
	Latency  uint64 `yaml:"latency"`
	Policy   string `yaml:"policy,omitempty"`
	BankSize uint64 `yaml:"bankSize,omitempty"`
}

// Present tells if the level is part of the system.
func (l LevelConfig) Present() bool {
	return l.Size > 0
}

// Default returns a two-core system with a private L2 per core and a
// 2 MiB shared last level.
func Default() Config {
	return Config{
		Sys: SysConfig{NumCores: 2, LineSize: 64},
		Sim: SimConfig{PhaseLength: 10000, Seed: 1},
		Memory: MemoryConfig{
			Main: MainConfig{Latency: 100},
			L1I:  LevelConfig{Size: 32 * mem.KB, Ways: 4, Latency: 3},
			L1D:  LevelConfig{Size: 32 * mem.KB, Ways: 8, Latency: 4},
			L2: LevelConfig{
				Size: 256 * mem.KB, Ways: 8, Latency: 7, Policy: "lru",
			},
			LLC: LevelConfig{
				Size: 2 * mem.MB, Ways: 16, Latency: 15,
				Policy: "lru", BankSize: 1 * mem.MB,
			},
		},
	}
}

// Load reads a YAML file on top of the defaults, applies the environment
// overrides, and validates the result. A .env file in the working
// directory is loaded first.
func Load(path string) (Config, error) {
	if err := LoadDotEnv("."); err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadDotEnv loads the .env file of dir, if there is one. Variables that
// are already set are not overridden.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")

	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// Parse decodes a YAML document on top of the default system and
// simulation settings. Cache levels have no defaults; a level the document
// leaves out is absent.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	cfg.Memory.L1I = LevelConfig{}
	cfg.Memory.L1D = LevelConfig{}
	cfg.Memory.L2 = LevelConfig{}
	cfg.Memory.LLC = LevelConfig{}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	cfg.fillPolicies()

	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) fillPolicies() {
	for _, l := range []*LevelConfig{&c.Memory.L2, &c.Memory.LLC} {
		if l.Policy == "" {
			l.Policy = "lru"
		}
	}

	if c.Memory.LLC.BankSize == 0 {
		c.Memory.LLC.BankSize = 1 * mem.MB
	}
}

// Validate checks the configuration and returns a *mem.ConfigError naming
// the first offending field.
func (c Config) Validate() error {
	if c.Sys.NumCores < 1 {
		return mem.NewConfigError("sys.numCores",
			"need at least one core, got %d", c.Sys.NumCores)
	}

	if c.Sim.PhaseLength == 0 {
		return mem.NewConfigError("sim.phaseLength", "must be positive")
	}

	for _, l := range []struct {
		name     string
		cfg      LevelConfig
		required bool
	}{
		{"memory.l1i", c.Memory.L1I, true},
		{"memory.l1d", c.Memory.L1D, true},
		{"memory.l2", c.Memory.L2, false},
	} {
		if !l.cfg.Present() {
			if l.required {
				return mem.NewConfigError(l.name, "level is required")
			}

			continue
		}

		if err := c.CacheBuilder(l.cfg).Validate(l.name); err != nil {
			return err
		}
	}

	if !c.Memory.LLC.Present() {
		return mem.NewConfigError("memory.llc", "level is required")
	}

	return c.BankedBuilder().Validate("memory.llc")
}

// CacheBuilder returns a builder preset with the geometry of a level.
func (c Config) CacheBuilder(l LevelConfig) cache.Builder {
	b := cache.MakeBuilder().
		WithLineSize(c.Sys.LineSize).
		WithByteSize(l.Size).
		WithWayAssociativity(l.Ways).
		WithLatency(l.Latency).
		WithSeed(c.Sim.Seed)

	if l.Policy != "" {
		b = b.WithReplacementPolicy(l.Policy)
	}

	return b
}

// BankedBuilder returns a builder preset with the last level geometry.
func (c Config) BankedBuilder() banked.Builder {
	l := c.Memory.LLC

	return banked.MakeBuilder().
		WithLineSize(c.Sys.LineSize).
		WithByteSize(l.Size).
		WithBankSize(l.BankSize).
		WithWayAssociativity(l.Ways).
		WithLatency(l.Latency).
		WithReplacementPolicy(l.Policy).
		WithSeed(c.Sim.Seed)
}

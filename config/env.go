package config

import (
	"os"
	"strconv"

	"github.com/sarchlab/memhier/mem"
)

// Environment variables that override scalar fields.
const (
	EnvNumCores    = "MEMHIER_NUM_CORES"
	EnvPhaseLength = "MEMHIER_PHASE_LENGTH"
	EnvSeed        = "MEMHIER_SEED"
	EnvLLCPolicy   = "MEMHIER_LLC_POLICY"
	EnvL2Policy    = "MEMHIER_L2_POLICY"
	EnvMainLatency = "MEMHIER_MAIN_LATENCY"
)

// ApplyEnv overrides fields with the MEMHIER_* environment variables that
// are set.
func (c *Config) ApplyEnv() error {
	if s := os.Getenv(EnvNumCores); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return mem.NewConfigError(EnvNumCores, "%v", err)
		}

		c.Sys.NumCores = n
	}

	if err := envUint(EnvPhaseLength, &c.Sim.PhaseLength); err != nil {
		return err
	}

	if err := envUint(EnvMainLatency, &c.Memory.Main.Latency); err != nil {
		return err
	}

	if s := os.Getenv(EnvSeed); s != "" {
		seed, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return mem.NewConfigError(EnvSeed, "%v", err)
		}

		c.Sim.Seed = seed
	}

	if s := os.Getenv(EnvLLCPolicy); s != "" {
		c.Memory.LLC.Policy = s
	}

	if s := os.Getenv(EnvL2Policy); s != "" {
		c.Memory.L2.Policy = s
	}

	return nil
}

func envUint(name string, field *uint64) error {
	s := os.Getenv(name)
	if s == "" {
		return nil
	}

	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return mem.NewConfigError(name, "%v", err)
	}

	*field = v

	return nil
}

package node

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/services/riscv"
	"github.com/colorfulnotion/pvmhost/storage"
	"github.com/colorfulnotion/pvmhost/types"
)

const (
	DefaultGenesis     = "dev"
	DefaultCyclesLimit = 1 << 30
)

// Config is the node configuration. An empty DataDir keeps the state in
// memory.
type Config struct {
	DataDir        string              `json:"data_dir"`
	Genesis        string              `json:"genesis"`
	LogLevel       string              `json:"log_level"`
	DebugModules   string              `json:"debug_modules"`
	CyclesLimit    uint64              `json:"cycles_limit"`
	CyclesPrice    uint64              `json:"cycles_price"`
	MaxCallDepth   int                 `json:"max_call_depth"`
	StateCacheSize int                 `json:"state_cache_size"`
	CodeCacheSize  int                 `json:"code_cache_size"`
	Telemetry      string              `json:"telemetry"`
	Interpreter    pvm.InterpreterConf `json:"interpreter"`
}

func DefaultConfig() Config {
	return Config{
		Genesis:        DefaultGenesis,
		LogLevel:       "info",
		CyclesLimit:    DefaultCyclesLimit,
		CyclesPrice:    1,
		MaxCallDepth:   types.DefaultMaxCallDepth,
		StateCacheSize: storage.DefaultCacheSize,
		CodeCacheSize:  riscv.DefaultCodeCacheSize,
		Interpreter:    pvm.DefaultInterpreterConf(),
	}
}

// LoadConfig overlays the JSON file at path onto cfg.
func LoadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return cfg.Validate()
}

func (cfg Config) Validate() error {
	if cfg.Genesis == "" {
		return fmt.Errorf("config: genesis is required")
	}
	if cfg.CyclesLimit == 0 {
		return fmt.Errorf("config: cycles_limit must be positive")
	}
	if cfg.MaxCallDepth <= 0 {
		return fmt.Errorf("config: max_call_depth must be positive")
	}
	if cfg.Interpreter.HostCallCycles == 0 || cfg.Interpreter.MaxArgsSize <= 0 || cfg.Interpreter.MaxReturnSize <= 0 {
		return fmt.Errorf("config: interpreter limits must be positive")
	}
	return nil
}

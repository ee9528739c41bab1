package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/policyview/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// ProfilerPort enables the pprof endpoint while the TUI runs. 0 disables it.
	ProfilerPort int

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "policyview", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "policyview")
}

// LogsDir is where per-run log files such as batch logs are written.
func (f *Flags) LogsDir() string {
	return filepath.Join(f.DataDir, "logs")
}

// Package policyview wires the lookup client, history store and
// configuration into the services used by commands and the TUI.
package policyview

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/policyview/internal/core/config"
	"github.com/colonyops/policyview/internal/core/history"
	"github.com/colonyops/policyview/internal/core/lookup"
)

// App is the central entry point for policyview operations.
// Commands and the TUI consume App instead of raw dependencies.
type App struct {
	Config  *config.Config
	Client  *lookup.Client
	History history.Store
	Lookups *LookupService
}

// NewApp constructs an App from explicit dependencies.
func NewApp(cfg *config.Config, client *lookup.Client, store history.Store, logger zerolog.Logger) *App {
	return &App{
		Config:  cfg,
		Client:  client,
		History: store,
		Lookups: NewLookupService(client, store, cfg.History.MaxEntries, logger),
	}
}

// ClientConfig maps the application config onto lookup.Config.
func ClientConfig(cfg *config.Config) lookup.Config {
	return lookup.Config{
		Endpoint:     cfg.Endpoint,
		Timeout:      cfg.RequestTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		UserAgent:    cfg.UserAgent,
	}
}

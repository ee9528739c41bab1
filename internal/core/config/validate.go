package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/policyview/internal/core/styles"
)

// Validate checks the structural rules of the configuration.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("endpoint", c.Endpoint, criterio.StrURL, httpScheme),
		criterio.Run("request_timeout", c.RequestTimeout, criterio.DurMin(0)),
		criterio.Run("max_body_bytes", c.MaxBodyBytes, criterio.Positive[int64]()),
		criterio.Run("history.max_entries", c.History.MaxEntries, criterio.Min(0)),
		criterio.Run("tui.theme", c.TUI.Theme, knownTheme),
		criterio.Run("tui.render", c.TUI.Render, criterio.StrOneOf(RenderMarkdown, RenderPlain)),
	)
}

// ValidateDeep runs Validate and then checks the config file and data
// directory on disk. An empty configPath skips the file check.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

// httpScheme restricts an already valid URL to http and https.
func httpScheme(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

func knownTheme(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q (available: %v)", name, styles.ThemeNames())
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

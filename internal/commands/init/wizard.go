// Package initcmd implements the interactive first-run setup.
package initcmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/policyview/internal/core/config"
	"github.com/colonyops/policyview/internal/core/styles"
	"github.com/colonyops/policyview/internal/printer"
)

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	ConfigPath string
	DataDir    string
	Yes        bool   // skip prompts, use defaults
	Force      bool   // overwrite existing config
	Endpoint   string // preset endpoint (empty = default or prompt)
}

// Answers are the values the wizard writes.
type Answers struct {
	Endpoint       string
	RequestTimeout string
	Theme          string
	Render         string
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions

	// prompt collects answers interactively; replaced in tests.
	prompt  func(*Answers) error
	confirm func(title, description string) (bool, error)
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	return &Wizard{
		opts:    opts,
		prompt:  promptAnswers,
		confirm: confirmOverwrite,
	}
}

// Run executes the wizard.
func (w *Wizard) Run(ctx context.Context) error {
	p := printer.Ctx(ctx)

	if ConfigExists(w.opts.ConfigPath) && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("config exists at %s; use --force to overwrite", w.opts.ConfigPath)
		}

		overwrite, err := w.confirm("Config file already exists", w.opts.ConfigPath+"\nOverwrite? (a backup will be created)")
		if err != nil {
			return err
		}
		if !overwrite {
			p.Infof("Init cancelled")
			return nil
		}
	}

	defaults := config.DefaultConfig()
	answers := Answers{
		Endpoint:       defaults.Endpoint,
		RequestTimeout: defaults.RequestTimeout.String(),
		Theme:          defaults.TUI.Theme,
		Render:         defaults.TUI.Render,
	}
	if w.opts.Endpoint != "" {
		answers.Endpoint = w.opts.Endpoint
	}

	if !w.opts.Yes {
		if err := w.prompt(&answers); err != nil {
			return err
		}
	}

	cfg, err := BuildConfig(answers)
	if err != nil {
		return err
	}
	cfg.DataDir = w.opts.DataDir
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid answers: %w", err)
	}

	backupPath, err := BackupConfig(w.opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("backup config: %w", err)
	}
	if backupPath != "" {
		p.Successf("Backed up config to: %s", backupPath)
	}

	if err := WriteConfig(cfg, w.opts.ConfigPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	p.Successf("Created config: %s", w.opts.ConfigPath)

	if _, err := config.Load(w.opts.ConfigPath, w.opts.DataDir); err != nil {
		p.Errorf("Written config does not load: %v", err)
		return err
	}

	p.Printf("")
	p.Section("Next Steps")
	p.Printf("  1. Start the accounting service at %s", cfg.Endpoint)
	p.Printf("  2. Run 'policyview' to open the lookup form")
	return nil
}

// BuildConfig turns wizard answers into a config.
func BuildConfig(a Answers) (config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Endpoint = a.Endpoint
	cfg.TUI.Theme = a.Theme
	cfg.TUI.Render = a.Render

	if a.RequestTimeout != "" {
		d, err := time.ParseDuration(a.RequestTimeout)
		if err != nil {
			return cfg, fmt.Errorf("request timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return cfg, nil
}

// WriteConfig writes cfg as YAML, creating parent directories.
func WriteConfig(cfg config.Config, path string) error {
	bits, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	header := []byte("# policyview configuration\n")
	return os.WriteFile(path, append(header, bits...), 0o644)
}

func promptAnswers(a *Answers) error {
	themeOpts := make([]huh.Option[string], 0, len(styles.ThemeNames()))
	for _, name := range styles.ThemeNames() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Accounting service endpoint").
			Description("Lookups request {endpoint}/{policy}/{date}").
			Value(&a.Endpoint),
		huh.NewInput().
			Title("Request timeout").
			Description("Go duration, 0 disables the timeout").
			Value(&a.RequestTimeout).
			Validate(func(s string) error {
				_, err := time.ParseDuration(s)
				return err
			}),
		huh.NewSelect[string]().
			Title("Theme").
			Options(themeOpts...).
			Value(&a.Theme),
		huh.NewSelect[string]().
			Title("Result rendering").
			Options(
				huh.NewOption("Styled markdown", config.RenderMarkdown),
				huh.NewOption("Plain markdown", config.RenderPlain),
			).
			Value(&a.Render),
	)).WithTheme(styles.FormTheme()).Run()
}

func confirmOverwrite(title, description string) (bool, error) {
	var overwrite bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Value(&overwrite).
		Run()
	return overwrite, err
}

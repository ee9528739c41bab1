package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/policyview/internal/printer"
	"github.com/colonyops/policyview/pkg/iojson"
)

type ConfigCmd struct {
	flags  *Flags
	format string
}

// NewConfigCmd creates the config command group.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config commands to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "policyview config validate [options]",
				Description: "Validates the configuration file: endpoint URL, timeouts, theme, render mode and data directory.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.validate,
			},
			{
				Name:      "show",
				Usage:     "Print the effective configuration as YAML",
				UsageText: "policyview config show",
				Action:    cmd.show,
			},
		},
	})

	return app
}

// validationIssue is one failed check in JSON output.
type validationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigCmd) validate(ctx context.Context, c *cli.Command) error {
	err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath)
	issues := toIssues(err)

	if cmd.format == "json" {
		out := struct {
			Valid  bool              `json:"valid"`
			File   string            `json:"file"`
			Errors []validationIssue `json:"errors,omitempty"`
		}{
			Valid:  len(issues) == 0,
			File:   cmd.flags.ConfigPath,
			Errors: issues,
		}
		if err := iojson.Write(c.Root().Writer, out); err != nil {
			return err
		}
		if len(issues) > 0 {
			return cli.Exit("", 1)
		}
		return nil
	}

	p := printer.Ctx(ctx)
	cfg := cmd.flags.Config

	if len(issues) == 0 {
		p.Successf("endpoint: %s", cfg.Endpoint)
		p.Successf("request_timeout: %s", cfg.RequestTimeout)
		p.Successf("tui: theme %s, render %s", cfg.TUI.Theme, cfg.TUI.Render)
		p.Successf("data_dir: %s", cfg.DataDir)
		p.Printf("")
		p.Successf("Configuration is valid")
		return nil
	}

	for _, issue := range issues {
		p.Errorf("%s: %s", issue.Field, issue.Message)
	}
	p.Printf("")
	p.Errorf("%d error(s) found", len(issues))
	return cli.Exit("", 1)
}

func (cmd *ConfigCmd) show(_ context.Context, c *cli.Command) error {
	bits, err := yaml.Marshal(cmd.flags.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = c.Root().Writer.Write(bits)
	return err
}

func toIssues(err error) []validationIssue {
	if err == nil {
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return []validationIssue{{Field: "config", Message: err.Error()}}
	}

	issues := make([]validationIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, validationIssue{Field: fe.Field, Message: fe.Err.Error()})
	}
	return issues
}

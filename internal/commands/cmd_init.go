package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	initcmd "github.com/colonyops/policyview/internal/commands/init"
)

type InitCmd struct {
	flags    *Flags
	yes      bool
	force    bool
	endpoint string
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Create a configuration file with an interactive wizard",
		UsageText: "policyview init [options]",
		Description: `Writes ~/.config/policyview/config.yaml after asking for the service
endpoint, request timeout, theme and result rendering.

Use --yes to accept all defaults without prompts.
Use --force to overwrite existing configuration (a .bak copy is kept).`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "accept defaults without prompting",
				Destination: &cmd.yes,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite existing configuration",
				Destination: &cmd.force,
			},
			&cli.StringFlag{
				Name:        "endpoint",
				Usage:       "accounting service base URL",
				Destination: &cmd.endpoint,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(ctx context.Context, _ *cli.Command) error {
	wizard := initcmd.NewWizard(initcmd.WizardOptions{
		ConfigPath: cmd.flags.ConfigPath,
		DataDir:    cmd.flags.DataDir,
		Yes:        cmd.yes,
		Force:      cmd.force,
		Endpoint:   cmd.endpoint,
	})
	return wizard.Run(ctx)
}

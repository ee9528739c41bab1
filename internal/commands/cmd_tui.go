package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/policyview/internal/policyview"
	"github.com/colonyops/policyview/internal/profiler"
	"github.com/colonyops/policyview/internal/tui"
	"github.com/colonyops/policyview/pkg/logutils"
)

type TuiCmd struct {
	flags *Flags
	app   *policyview.App
	build tui.BuildInfo

	policy string
	date   string
	submit bool
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, app *policyview.App, build tui.BuildInfo) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		app:   app,
		build: build,
	}
}

// Flags returns the form prefill flags, shared by the root command and tui.
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy",
			Aliases:     []string{"p"},
			Usage:       "prefill the policy id",
			Destination: &cmd.policy,
		},
		&cli.StringFlag{
			Name:        "date",
			Aliases:     []string{"d"},
			Usage:       "prefill the date (YYYY-MM-DD, defaults to today)",
			Destination: &cmd.date,
		},
		&cli.BoolFlag{
			Name:        "submit",
			Usage:       "look up immediately when the prefilled form is valid",
			Destination: &cmd.submit,
		},
		&cli.IntFlag{
			Name:        "profiler-port",
			Usage:       "enable pprof HTTP endpoint on specified port (e.g., 6060)",
			Sources:     cli.EnvVars("POLICYVIEW_PROFILER_PORT"),
			Destination: &cmd.flags.ProfilerPort,
		},
	}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tui",
		Usage:     "Open the interactive lookup form (default)",
		UsageText: "policyview tui [--policy ID] [--date YYYY-MM-DD] [--submit]",
		Flags:     cmd.Flags(),
		Action:    cmd.run,
	})
	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	if cmd.flags.ProfilerPort > 0 {
		profServer := profiler.New(cmd.flags.ProfilerPort, profiler.WithLogger(logutils.Component(log.Logger, "profiler")))
		if err := profServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := profServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
		log.Info().
			Str("url", fmt.Sprintf("http://%s/debug/pprof/", profServer.Addr())).
			Msg("profiler endpoint available")
	}

	m := tui.New(ctx, tui.Deps{
		Config:    cmd.app.Config,
		Lookup:    cmd.app.Client,
		History:   cmd.app.History,
		Logger:    logutils.Component(log.Logger, "tui"),
		BuildInfo: cmd.build,
	}, tui.Opts{
		Policy:     cmd.policy,
		DateTo:     cmd.date,
		AutoSubmit: cmd.submit,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

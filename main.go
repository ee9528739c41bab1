package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/policyview/internal/commands"
	"github.com/colonyops/policyview/internal/core/config"
	"github.com/colonyops/policyview/internal/core/logging"
	"github.com/colonyops/policyview/internal/core/lookup"
	"github.com/colonyops/policyview/internal/core/styles"
	"github.com/colonyops/policyview/internal/policyview"
	"github.com/colonyops/policyview/internal/printer"
	"github.com/colonyops/policyview/internal/store/jsonfile"
	"github.com/colonyops/policyview/internal/tui"
	"github.com/colonyops/policyview/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func buildInfo() tui.BuildInfo {
	v, c, d := version, commit, date

	// ldflags aren't set for `go install module@version`; Go records the
	// module version and VCS metadata in the binary instead.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	if len(c) > 7 {
		c = c[:7]
	}

	return tui.BuildInfo{Version: v, Commit: c, Date: d}
}

func versionString(b tui.BuildInfo) string {
	return fmt.Sprintf("%s (%s) %s", b.Version, b.Commit, b.Date)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		app       = &policyview.App{}
		build     = buildInfo()
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "policyview",
		Usage:     "Look up policy account statements",
		UsageText: "policyview [global options] command [command options]",
		Description: `policyview queries a policy accounting service for the statement of a
policy as of a given date: GET {endpoint}/{policy}/{date}.

Run 'policyview' with no arguments to open the interactive form.
Run 'policyview lookup ID [DATE]' to print a statement and exit.`,
		Version:               versionString(build),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("POLICYVIEW_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/policyview.log)",
				Sources:     cli.EnvVars("POLICYVIEW_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("POLICYVIEW_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("POLICYVIEW_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			ctx = printer.NewContext(ctx, printer.New(c.Writer, c.ErrWriter))

			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "policyview.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			logger = logger.Hook(logging.ContextHook{})
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				// init rewrites a broken config, so it must still start.
				if c.Args().First() != "init" {
					return ctx, fmt.Errorf("load config: %w", err)
				}
				log.Warn().Err(err).Msg("ignoring invalid config for init")
				defaults := config.DefaultConfig()
				defaults.DataDir = flags.DataDir
				cfg = &defaults
			}
			flags.Config = cfg

			// Validation ensures the theme name is known.
			palette, _ := styles.GetPalette(cfg.TUI.Theme)
			styles.SetTheme(palette)

			var (
				store  = jsonfile.NewHistoryStore(cfg.HistoryFile())
				client = lookup.NewClient(policyview.ClientConfig(cfg), logutils.Component(logger, "lookup"))
			)

			// Commands already hold a pointer to app.
			*app = *policyview.NewApp(cfg, client, store, logutils.Component(logger, "policyview"))

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if app.Client != nil {
				app.Client.Wait()
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, app, build)

	root = tuiCmd.Register(root)
	root = commands.NewLookupCmd(flags, app).Register(root)
	root = commands.NewHistoryCmd(flags, app).Register(root)
	root = commands.NewBatchCmd(flags, app).Register(root)
	root = commands.NewConfigCmd(flags).Register(root)
	root = commands.NewInitCmd(flags).Register(root)

	// TUI flags also work on the root command.
	root.Flags = append(root.Flags, tuiCmd.Flags()...)

	// No subcommand opens the TUI.
	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'policyview --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := root.Run(ctx, os.Args); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		exitCode = 1
	}

	os.Exit(exitCode)
}

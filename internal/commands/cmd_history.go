package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/policyview/internal/core/history"
	"github.com/colonyops/policyview/internal/policyview"
	"github.com/colonyops/policyview/internal/printer"
	"github.com/colonyops/policyview/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags
	app   *policyview.App

	// flags
	jsonOutput bool
	clear      bool
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags, app *policyview.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "List recorded lookups",
		UsageText: "policyview history [--json] [--clear]",
		Description: `Displays recorded lookups, newest first.

Use --json for one JSON object per line. Use --clear to delete all entries.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "clear",
				Usage:       "delete all recorded lookups",
				Destination: &cmd.clear,
			},
		},
		Action: cmd.run,
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show one recorded lookup",
				UsageText: "policyview history show ID",
				Action:    cmd.show,
			},
			{
				Name:      "retry",
				Usage:     "Repeat the most recent failed lookup",
				UsageText: "policyview history retry",
				Action:    cmd.retry,
			},
		},
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.clear {
		if err := cmd.app.History.Clear(ctx); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		p.Successf("History cleared")
		return nil
	}

	entries, err := cmd.app.History.List(ctx)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, e := range entries {
			if err := iojson.WriteLine(out, e); err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
		}
		return nil
	}

	if len(entries) == 0 {
		p.Infof("No lookups recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTIME\tPOLICY\tDATE\tSTATUS")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Timestamp.Local().Format(time.DateTime), e.Policy, e.DateTo, entryStatus(e))
	}
	return w.Flush()
}

func (cmd *HistoryCmd) show(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("missing entry id")
	}

	entry, err := cmd.app.History.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get entry %s: %w", id, err)
	}
	return iojson.Write(c.Root().Writer, entry)
}

func (cmd *HistoryCmd) retry(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	entry, err := cmd.app.History.LastFailed(ctx)
	if errors.Is(err, history.ErrNotFound) {
		p.Infof("No failed lookups")
		return nil
	}
	if err != nil {
		return fmt.Errorf("find failed lookup: %w", err)
	}

	p.Infof("Retrying policy %s as of %s", entry.Policy, entry.DateTo)
	out, err := cmd.app.Lookups.Run(ctx, entry.Policy, entry.DateTo)
	if err != nil {
		p.Errorf("%s", err)
		return cli.Exit("", 1)
	}

	p.Successf("%s returned %d", out.Response.URL, out.Response.StatusCode)
	return nil
}

func entryStatus(e history.Entry) string {
	switch {
	case e.Error != "" && e.StatusCode == 0:
		return "error"
	case e.Failed():
		return fmt.Sprintf("%d", e.StatusCode)
	default:
		return fmt.Sprintf("%d ok", e.StatusCode)
	}
}

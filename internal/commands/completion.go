package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/policyview/internal/policyview"
)

// PolicyCompleter returns a ShellCompleteFunc that suggests recently looked
// up policy ids as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func PolicyCompleter(app *policyview.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.History == nil {
			return
		}
		entries, err := app.History.List(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		seen := make(map[string]bool, len(entries))
		for _, e := range entries {
			if seen[e.Policy] || e.Failed() {
				continue
			}
			seen[e.Policy] = true
			_, _ = fmt.Fprintln(w, e.Policy)
		}
	}
}

package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/policyview/internal/core/form"
	"github.com/colonyops/policyview/internal/core/result"
	"github.com/colonyops/policyview/internal/core/styles"
	"github.com/colonyops/policyview/internal/core/validate"
	"github.com/colonyops/policyview/internal/policyview"
	"github.com/colonyops/policyview/internal/printer"
	"github.com/colonyops/policyview/internal/tui/jsoncolor"
	"github.com/colonyops/policyview/pkg/iojson"
)

// Output formats for lookup.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

var lookupFormats = []string{FormatText, FormatMarkdown, FormatHTML, FormatJSON}

type LookupCmd struct {
	flags *Flags
	app   *policyview.App

	// isTerminal reports whether stdin can drive an interactive prompt.
	isTerminal func() bool
	prompt     func(policy, date *string) error

	// flags
	policy string
	date   string
	format string
}

// NewLookupCmd creates a new lookup command
func NewLookupCmd(flags *Flags, app *policyview.App) *LookupCmd {
	return &LookupCmd{
		flags:      flags,
		app:        app,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		prompt:     promptLookup,
	}
}

// Register adds the lookup command to the application
func (cmd *LookupCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "lookup",
		Usage:     "Fetch a policy statement once and print it",
		UsageText: "policyview lookup [--policy ID] [--date YYYY-MM-DD] [--format text|markdown|html|json] [ID [DATE]]",
		Description: `Validates the policy id and date with the same rules as the form, then
issues GET {endpoint}/{policy}/{date} and prints the result.

Missing values are prompted for when stdin is a terminal. The date defaults
to today.

Formats:
  text      rendered for the terminal (markdown when stdout is not a terminal)
  markdown  the statement converted to markdown
  html      the sanitized server response
  json      request metadata and the parsed statement`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "policy",
				Aliases:     []string{"p"},
				Usage:       "numeric policy id",
				Destination: &cmd.policy,
			},
			&cli.StringFlag{
				Name:        "date",
				Aliases:     []string{"d"},
				Usage:       "statement date (YYYY-MM-DD)",
				Destination: &cmd.date,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (" + strings.Join(lookupFormats, ", ") + ")",
				Value:       FormatText,
				Destination: &cmd.format,
				Validator: func(s string) error {
					if !slices.Contains(lookupFormats, s) {
						return fmt.Errorf("unknown format %q", s)
					}
					return nil
				},
			},
		},
		ShellComplete: PolicyCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

// lookupOutput is the JSON output format for lookup --format json.
type lookupOutput struct {
	URL         string            `json:"url"`
	StatusCode  int               `json:"status_code"`
	ContentType string            `json:"content_type,omitempty"`
	DurationMS  int64             `json:"duration_ms"`
	Statement   *result.Statement `json:"statement,omitempty"`
}

func (cmd *LookupCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() > 0 && cmd.policy == "" {
		cmd.policy = c.Args().Get(0)
	}
	if c.Args().Len() > 1 && cmd.date == "" {
		cmd.date = c.Args().Get(1)
	}

	ctrl := form.New()
	if cmd.date == "" {
		cmd.date = ctrl.DateTo().Value
	}

	if strings.TrimSpace(cmd.policy) == "" && cmd.isTerminal() {
		if err := cmd.prompt(&cmd.policy, &cmd.date); err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
	}

	ctrl.SetPolicy(cmd.policy)
	ctrl.SetDateTo(cmd.date)
	if err := ctrl.Validate(); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	s := ctrl.State()
	out, err := cmd.app.Lookups.Run(ctx, s.Policy.Value, s.DateTo.Value)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	w := c.Root().Writer
	if err := cmd.write(w, out); err != nil {
		return err
	}

	if out.Statement != nil && out.Statement.NotFound && cmd.format != FormatJSON {
		printer.Ctx(ctx).Warnf("%s", out.Statement.Message)
	}
	return nil
}

func (cmd *LookupCmd) write(w io.Writer, out policyview.Outcome) error {
	body := out.Response.Body
	width, tty := terminalWidth(w)

	switch cmd.format {
	case FormatHTML:
		_, err := fmt.Fprintln(w, result.Sanitize(body))
		return err
	case FormatMarkdown:
		return writeMarkdown(w, body)
	case FormatJSON:
		payload := lookupOutput{
			URL:         out.Response.URL,
			StatusCode:  out.Response.StatusCode,
			ContentType: out.Response.ContentType,
			DurationMS:  out.Response.Duration.Milliseconds(),
			Statement:   out.Statement,
		}
		if !tty {
			return iojson.Write(w, payload)
		}
		var buf bytes.Buffer
		if err := iojson.WriteLine(&buf, payload); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, jsoncolor.Colorize(bytes.TrimSpace(buf.Bytes())))
		return err
	default:
		if !tty {
			return writeMarkdown(w, body)
		}
		rendered, err := result.Render(body, width)
		if err != nil {
			return fmt.Errorf("render result: %w", err)
		}
		_, err = fmt.Fprint(w, rendered)
		return err
	}
}

func writeMarkdown(w io.Writer, body string) error {
	md, err := result.Markdown(body)
	if err != nil {
		return err
	}
	if md == "" {
		md = result.Strip(body)
	}
	_, err = fmt.Fprintln(w, md)
	return err
}

// terminalWidth reports the width of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80, true
	}
	return width, true
}

// promptLookup asks for the policy id and date with the form's rules.
func promptLookup(policy, date *string) error {
	if *date == "" {
		*date = validate.FormatDate(time.Now())
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Policy ID").
			Description("Numeric id of an existing policy").
			Value(policy).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return form.ErrPolicyRequired
				}
				return validate.PolicyID(s)
			}),
		huh.NewInput().
			Title("Date To").
			Description("Statement date, YYYY-MM-DD").
			Value(date).
			Validate(validate.Date),
	)).WithTheme(styles.FormTheme()).Run()
}

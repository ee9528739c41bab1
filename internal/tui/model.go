// Package tui implements the Bubble Tea form for looking up policy
// statements.
package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/colonyops/policyview/internal/core/config"
	"github.com/colonyops/policyview/internal/core/form"
	"github.com/colonyops/policyview/internal/core/history"
	"github.com/colonyops/policyview/internal/core/lookup"
	"github.com/colonyops/policyview/internal/core/result"
	"github.com/colonyops/policyview/internal/core/styles"
	fields "github.com/colonyops/policyview/internal/tui/components/form"
)

// Fetcher performs a single lookup. *lookup.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, policy, dateTo string) (lookup.Response, error)
}

// Deps are the services the form talks to.
type Deps struct {
	Config    *config.Config
	Lookup    Fetcher
	History   history.Store // optional
	Logger    zerolog.Logger
	BuildInfo BuildInfo
}

// Opts prefill the form.
type Opts struct {
	Policy     string
	DateTo     string
	AutoSubmit bool // submit on start when the prefilled form is ok
}

// submission is one request handed over by the controller.
type submission struct {
	policy string
	dateTo string
}

// queueSubmitter collects controller submissions so Update can turn them
// into commands.
type queueSubmitter struct {
	mu    sync.Mutex
	queue []submission
}

func (q *queueSubmitter) Submit(_ context.Context, policy, dateTo string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, submission{policy: policy, dateTo: dateTo})
}

func (q *queueSubmitter) drain() []submission {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.queue
	q.queue = nil
	return out
}

// Model is the lookup screen.
type Model struct {
	ctx    context.Context
	deps   Deps
	opts   Opts
	logger zerolog.Logger

	ctrl        *form.Controller
	submitter   *queueSubmitter
	unsubscribe func()

	dialog   *fields.Dialog
	area     *result.Area
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	showHelp bool
	inFlight int
	seq      int
	status   string
	statusOK bool
	width    int
	height   int
	quitting bool
}

// New builds the model. The controller is created here so that its
// submissions flow back into the Bubble Tea loop.
func New(ctx context.Context, deps Deps, opts Opts) Model {
	if deps.Config == nil {
		cfg := config.DefaultConfig()
		deps.Config = &cfg
	}

	sub := &queueSubmitter{}
	ctrl := form.New(form.WithSubmitter(sub))

	policyField := fields.NewTextField(form.FieldPolicy, "Policy ID", "numeric policy id", "")
	dateField := fields.NewTextField(form.FieldDateTo, "Date To", "YYYY-MM-DD", ctrl.DateTo().Value)
	dialog := fields.NewDialog("Policy Statement", policyField, dateField)

	unsubscribe := ctrl.Subscribe(func(form.State) {
		policyField.SetError(ctrl.VisibleError(form.FieldPolicy))
		dateField.SetError(ctrl.VisibleError(form.FieldDateTo))
	})

	if opts.Policy != "" {
		policyField.SetValue(opts.Policy)
		ctrl.SetPolicy(opts.Policy)
	}
	if opts.DateTo != "" {
		dateField.SetValue(opts.DateTo)
		ctrl.SetDateTo(opts.DateTo)
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.CurrentPalette.Primary)),
	)

	vp := viewport.New(80, 10)
	vp.SetContent(styles.TextMutedStyle.Render("Enter a policy id and press enter."))

	return Model{
		ctx:         ctx,
		deps:        deps,
		opts:        opts,
		logger:      deps.Logger,
		ctrl:        ctrl,
		submitter:   sub,
		unsubscribe: unsubscribe,
		dialog:      dialog,
		area:        result.NewArea(),
		viewport:    vp,
		spinner:     sp,
		help:        help.New(),
		keys:        defaultKeyMap(),
	}
}

// Init starts the cursor and, when requested, the first lookup.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.opts.AutoSubmit && m.ctrl.IsValid() {
		cmds = append(cmds, func() tea.Msg { return submitMsg{} })
	}
	return tea.Batch(cmds...)
}

// Controller exposes the form state.
func (m Model) Controller() *form.Controller { return m.ctrl }

// Result exposes the result container.
func (m Model) Result() *result.Area { return m.area }

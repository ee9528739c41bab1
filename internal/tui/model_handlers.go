package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/policyview/internal/core/form"
	"github.com/colonyops/policyview/internal/core/history"
	"github.com/colonyops/policyview/internal/core/lookup"
	"github.com/colonyops/policyview/internal/core/result"
)

// submitMsg asks the model to submit the form.
type submitMsg struct{}

// resultMsg carries a finished lookup.
type resultMsg struct {
	seq    int
	policy string
	dateTo string
	resp   lookup.Response
	err    error
}

// historySavedMsg reports the outcome of recording a lookup.
type historySavedMsg struct {
	err error
}

const minViewportHeight = 3

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		m.renderResult()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case submitMsg:
		return m.submit()
	case resultMsg:
		return m.handleResult(msg)
	case historySavedMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("failed to record lookup")
		}
		return m, nil
	case spinner.TickMsg:
		if m.inFlight == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	_, cmd := m.dialog.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch {
		case msg.String() == "ctrl+c":
			return m.quit()
		case key.Matches(msg, m.keys.Help), msg.String() == "esc":
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	change, cmd := m.dialog.Update(msg)
	if change != nil {
		switch change.Field {
		case form.FieldPolicy:
			m.ctrl.SetPolicy(change.Value)
		case form.FieldDateTo:
			m.ctrl.SetDateTo(change.Value)
		}
	}
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}

// submit runs the controller's submit. An invalid form moves focus to the
// first offending field and sends nothing.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if err := m.ctrl.Submit(m.ctx); err != nil {
		m.statusOK = false
		m.status = err.Error()

		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return m, m.dialog.Focus(fieldErrs[0].Field)
		}
		return m, nil
	}

	var cmds []tea.Cmd
	for _, sub := range m.submitter.drain() {
		m.seq++
		if m.inFlight == 0 {
			cmds = append(cmds, m.spinner.Tick)
		}
		m.inFlight++
		cmds = append(cmds, m.fetchCmd(m.seq, sub))
		m.logger.Debug().Str("policy", sub.policy).Str("date_to", sub.dateTo).Int("seq", m.seq).Msg("lookup submitted")
	}
	m.status = ""
	return m, tea.Batch(cmds...)
}

func (m Model) fetchCmd(seq int, sub submission) tea.Cmd {
	ctx, fetcher := m.ctx, m.deps.Lookup
	return func() tea.Msg {
		resp, err := fetcher.Fetch(ctx, sub.policy, sub.dateTo)
		return resultMsg{seq: seq, policy: sub.policy, dateTo: sub.dateTo, resp: resp, err: err}
	}
}

// handleResult shows whichever response arrives last. Failures leave the
// result panel untouched and only update the status line.
func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	if m.inFlight > 0 {
		m.inFlight--
	}

	saveCmd := m.recordCmd(msg)

	if msg.err != nil {
		m.logger.Warn().Err(msg.err).Str("policy", msg.policy).Str("date_to", msg.dateTo).Int("seq", msg.seq).Msg("lookup failed")
		m.statusOK = false
		m.status = msg.err.Error()
		return m, saveCmd
	}

	m.area.SetHTML(msg.resp.Body)
	m.renderResult()
	m.viewport.GotoTop()
	m.statusOK, m.status = summarize(msg)
	return m, saveCmd
}

func (m Model) recordCmd(msg resultMsg) tea.Cmd {
	store := m.deps.History
	if store == nil {
		return nil
	}

	entry := history.Entry{
		Policy:     msg.policy,
		DateTo:     msg.dateTo,
		URL:        msg.resp.URL,
		StatusCode: msg.resp.StatusCode,
	}
	if msg.err != nil {
		entry.Error = msg.err.Error()
	}

	ctx, maxEntries := m.ctx, m.deps.Config.History.MaxEntries
	return func() tea.Msg {
		return historySavedMsg{err: store.Save(ctx, entry, maxEntries)}
	}
}

// summarize describes a successful response for the status line.
func summarize(msg resultMsg) (bool, string) {
	stmt, err := result.ParseStatement(msg.resp.Body)
	switch {
	case err != nil:
		return true, fmt.Sprintf("policy %s as of %s (%s)", msg.policy, msg.dateTo, msg.resp.Duration.Round(time.Millisecond))
	case stmt.NotFound:
		return false, stmt.Message
	default:
		return true, fmt.Sprintf("policy %s as of %s: %d invoice(s), balance %s",
			msg.policy, msg.dateTo, len(stmt.Invoices), orDash(stmt.Balance))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

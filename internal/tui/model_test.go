package tui

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/policyview/internal/core/config"
	"github.com/colonyops/policyview/internal/core/form"
	"github.com/colonyops/policyview/internal/core/lookup"
	"github.com/colonyops/policyview/internal/store/jsonfile"
	"github.com/colonyops/policyview/pkg/tuitest"
)

const statementHTML = `<h3>Policy Id: 2</h3>
<p>Balance: 1,200</p>
<table>
  <tr><th>Bill Date</th><th>Due Date</th><th>Cancel Date</th><th>Amount Due</th></tr>
  <tr><td>2015-02-01</td><td>2015-03-01</td><td>2015-03-15</td><td>400</td></tr>
  <tr><td>2015-05-01</td><td>2015-06-01</td><td>2015-06-15</td><td>400</td></tr>
</table>`

type call struct {
	policy string
	dateTo string
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []call
	body  string
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, policy, dateTo string) (lookup.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{policy, dateTo})

	resp := lookup.Response{URL: "http://svc/" + policy + "/" + dateTo, StatusCode: 200, Body: f.body}
	if f.err != nil {
		resp.StatusCode = 500
		return resp, f.err
	}
	return resp, nil
}

func newTestModel(t *testing.T, fetcher *fakeFetcher, opts Opts) (Model, *jsonfile.HistoryStore) {
	t.Helper()
	cfg := config.DefaultConfig()
	store := jsonfile.NewHistoryStore(filepath.Join(t.TempDir(), "history.json"))
	m := New(context.Background(), Deps{
		Config:  &cfg,
		Lookup:  fetcher,
		History: store,
		Logger:  zerolog.Nop(),
	}, opts)
	return m, store
}

func update(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

// run executes cmd and any batched commands it expands to.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func resultMsgs(msgs []tea.Msg) []resultMsg {
	var out []resultMsg
	for _, msg := range msgs {
		if rm, ok := msg.(resultMsg); ok {
			out = append(out, rm)
		}
	}
	return out
}

func today() string { return time.Now().Format("2006-01-02") }

func TestModel_TypingDrivesController(t *testing.T) {
	m, _ := newTestModel(t, &fakeFetcher{}, Opts{})
	assert.False(t, m.Controller().IsValid())
	assert.Equal(t, today(), m.Controller().DateTo().Value)

	m, _ = update(t, m, tuitest.Type("12")...)
	assert.Equal(t, "12", m.Controller().Policy().Value)
	assert.True(t, m.Controller().Policy().Touched)
	assert.True(t, m.Controller().IsValid())
	assert.Contains(t, tuitest.StripANSI(m.View()), "● ready")

	m, _ = update(t, m, tuitest.KeyPress('a'))
	assert.False(t, m.Controller().IsValid())
	view := tuitest.StripANSI(m.View())
	assert.Contains(t, view, "must be numeric existing policy id!")
	assert.Contains(t, view, "○ incomplete")

	m, _ = update(t, m, tuitest.KeyBackspace())
	assert.True(t, m.Controller().IsValid())
	assert.NotContains(t, tuitest.StripANSI(m.View()), "must be numeric")
}

func TestModel_UntouchedFieldsShowNoErrors(t *testing.T) {
	m, _ := newTestModel(t, &fakeFetcher{}, Opts{})
	view := tuitest.StripANSI(m.View())
	assert.NotContains(t, view, "must be numeric")
	assert.NotContains(t, view, "must be date like")
}

func TestModel_DateField(t *testing.T) {
	m, _ := newTestModel(t, &fakeFetcher{}, Opts{Policy: "5"})
	require.True(t, m.Controller().IsValid())

	m, _ = update(t, m, tuitest.KeyTab(), tuitest.KeyBackspace())
	assert.Equal(t, form.FieldDateTo, m.dialog.Focused())
	assert.False(t, m.Controller().DateTo().Valid)
	assert.False(t, m.Controller().IsValid())
	assert.Contains(t, tuitest.StripANSI(m.View()), "must be date like YYYY-MM-DD !")
}

func TestModel_SubmitInvalidFocusesFirstInvalidField(t *testing.T) {
	t.Run("empty policy", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		m, _ := newTestModel(t, fetcher, Opts{})

		m, _ = update(t, m, tuitest.KeyTab(), tuitest.KeyEnter())
		assert.Equal(t, form.FieldPolicy, m.dialog.Focused())
		assert.Contains(t, m.status, "policy id is required")
		assert.Zero(t, m.inFlight)
		assert.Empty(t, fetcher.calls)
	})

	t.Run("bad date", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		m, _ := newTestModel(t, fetcher, Opts{Policy: "5", DateTo: "2024-02-30"})

		m, _ = update(t, m, tuitest.KeyEnter())
		assert.Equal(t, form.FieldDateTo, m.dialog.Focused())
		assert.Contains(t, m.status, "must be date like YYYY-MM-DD !")
		assert.Empty(t, fetcher.calls)
	})
}

func TestModel_SubmitShowsResult(t *testing.T) {
	fetcher := &fakeFetcher{body: statementHTML}
	m, store := newTestModel(t, fetcher, Opts{})

	m, cmd := update(t, m, append(tuitest.Type("2"), tuitest.KeyEnter())...)
	assert.Equal(t, 1, m.inFlight)

	results := resultMsgs(run(cmd))
	require.Len(t, results, 1)
	assert.Equal(t, []call{{"2", today()}}, fetcher.calls)

	m, cmd = update(t, m, results[0])
	assert.Zero(t, m.inFlight)
	assert.Equal(t, statementHTML, m.Result().HTML())
	assert.True(t, m.statusOK)
	assert.Contains(t, m.status, "2 invoice(s), balance 1200")

	view := tuitest.StripANSI(m.View())
	assert.Contains(t, view, "Result #1")
	assert.Contains(t, view, "Policy Id: 2")

	msgs := run(cmd)
	require.Len(t, msgs, 1)
	assert.Equal(t, historySavedMsg{}, msgs[0])

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2", entries[0].Policy)
	assert.Equal(t, 200, entries[0].StatusCode)
}

func TestModel_FailureLeavesResultUntouched(t *testing.T) {
	fetcher := &fakeFetcher{body: statementHTML}
	m, store := newTestModel(t, fetcher, Opts{Policy: "2"})

	m, cmd := update(t, m, tuitest.KeyEnter())
	m, _ = update(t, m, resultMsgs(run(cmd))[0])
	require.Equal(t, uint64(1), m.Result().Version())

	fetcher.err = errors.New("connection refused")
	m, cmd = update(t, m, tuitest.KeyEnter())
	m, cmd = update(t, m, resultMsgs(run(cmd))[0])

	assert.Equal(t, uint64(1), m.Result().Version())
	assert.Equal(t, statementHTML, m.Result().HTML())
	assert.False(t, m.statusOK)
	assert.Equal(t, "connection refused", m.status)

	run(cmd)
	last, err := store.LastFailed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "connection refused", last.Error)
}

func TestModel_LastArrivingResponseWins(t *testing.T) {
	m, _ := newTestModel(t, &fakeFetcher{}, Opts{Policy: "1"})
	m.deps.History = nil
	m.inFlight = 2

	m, _ = update(t, m,
		resultMsg{seq: 2, policy: "2", resp: lookup.Response{Body: "<p>second</p>"}},
		resultMsg{seq: 1, policy: "1", resp: lookup.Response{Body: "<p>first</p>"}},
	)

	assert.Equal(t, "<p>first</p>", m.Result().HTML())
	assert.Equal(t, uint64(2), m.Result().Version())
	assert.Zero(t, m.inFlight)
}

func TestModel_NotFoundPage(t *testing.T) {
	fetcher := &fakeFetcher{body: `<div>No Policy found with Policy id: 99</div>`}
	m, _ := newTestModel(t, fetcher, Opts{Policy: "99"})

	m, cmd := update(t, m, tuitest.KeyEnter())
	m, _ = update(t, m, resultMsgs(run(cmd))[0])

	assert.False(t, m.statusOK)
	assert.Equal(t, "No Policy found with Policy id: 99", m.status)
}

func TestModel_AutoSubmit(t *testing.T) {
	m, _ := newTestModel(t, &fakeFetcher{}, Opts{Policy: "3", AutoSubmit: true})
	assert.Contains(t, run(m.Init()), tea.Msg(submitMsg{}))

	m, _ = newTestModel(t, &fakeFetcher{}, Opts{AutoSubmit: true})
	assert.NotContains(t, run(m.Init()), tea.Msg(submitMsg{}))
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := newTestModel(t, &fakeFetcher{}, Opts{})
	m.deps.BuildInfo = BuildInfo{Version: "v1.2.3"}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	view := tuitest.StripANSI(m.View())
	assert.Contains(t, view, "policyview v1.2.3")
	assert.Contains(t, view, "look up statement")

	m, cmd := update(t, m, tuitest.KeyEsc())
	assert.Nil(t, cmd)
	assert.False(t, m.showHelp)
	assert.False(t, m.quitting)
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{tuitest.KeyEsc(), tuitest.KeyCtrlC()} {
		t.Run(key.String(), func(t *testing.T) {
			m, _ := newTestModel(t, &fakeFetcher{}, Opts{})
			m, cmd := update(t, m, key)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.True(t, m.quitting)
			assert.Empty(t, m.View())
		})
	}
}

func TestModel_WindowSize(t *testing.T) {
	m, _ := newTestModel(t, &fakeFetcher{}, Opts{})
	m, _ = update(t, m, tuitest.WindowSize(100, 40))

	assert.Equal(t, 96, m.viewport.Width)
	assert.GreaterOrEqual(t, m.viewport.Height, minViewportHeight)

	m, _ = update(t, m, tuitest.WindowSize(20, 5))
	assert.Equal(t, minViewportHeight, m.viewport.Height)
}

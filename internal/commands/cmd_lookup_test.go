package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLookupCmd(h *harness, tty bool) *LookupCmd {
	cmd := NewLookupCmd(h.flags, h.app)
	cmd.isTerminal = func() bool { return tty }
	return cmd
}

func TestLookupCmd_Formats(t *testing.T) {
	srv := newServer(t)
	h := newHarness(t, srv.URL)

	t.Run("json", func(t *testing.T) {
		require.NoError(t, h.run(newLookupCmd(h, false), "lookup", "--policy", "2", "--date", "2015-04-01", "--format", "json"))

		var got lookupOutput
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
		assert.Equal(t, srv.URL+"/2/2015-04-01", got.URL)
		assert.Equal(t, 200, got.StatusCode)
		require.NotNil(t, got.Statement)
		assert.Equal(t, "2", got.Statement.PolicyID)
		assert.Equal(t, "400", got.Statement.Balance)
		require.Len(t, got.Statement.Invoices, 1)
		assert.Equal(t, "2015-03-15", got.Statement.Invoices[0].CancelDate)
	})

	t.Run("html is sanitized", func(t *testing.T) {
		require.NoError(t, h.run(newLookupCmd(h, false), "lookup", "-p", "3", "-d", "2015-04-01", "-f", "html"))
		assert.Contains(t, h.out.String(), "<table>")
		assert.NotContains(t, h.out.String(), "<script>")
	})

	t.Run("text falls back to markdown off a terminal", func(t *testing.T) {
		require.NoError(t, h.run(newLookupCmd(h, false), "lookup", "--policy", "4", "--date", "2015-04-01"))
		out := h.out.String()
		assert.Contains(t, out, "### Policy Id: 4")
		assert.Contains(t, out, "| Bill Date | Due Date | Cancel Date | Amount Due |")
	})

	t.Run("positional arguments", func(t *testing.T) {
		require.NoError(t, h.run(newLookupCmd(h, false), "lookup", "--format", "markdown", "5", "2015-04-01"))
		assert.Contains(t, h.out.String(), "### Policy Id: 5")
	})

	t.Run("not found page warns", func(t *testing.T) {
		require.NoError(t, h.run(newLookupCmd(h, false), "lookup", "--policy", "99", "--date", "2015-04-01"))
		assert.Contains(t, h.out.String(), "No Policy found with Policy id: 99")
	})

	t.Run("unknown format", func(t *testing.T) {
		err := h.run(newLookupCmd(h, false), "lookup", "--policy", "2", "--format", "xml")
		assert.ErrorContains(t, err, "unknown format")
	})
}

func TestLookupCmd_Validation(t *testing.T) {
	srv := newServer(t)
	h := newHarness(t, srv.URL)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "non numeric policy",
			args:    []string{"lookup", "--policy", "12a"},
			wantErr: "must be numeric existing policy id!",
		},
		{
			name:    "bad date",
			args:    []string{"lookup", "--policy", "12", "--date", "2015-02-30"},
			wantErr: "must be date like YYYY-MM-DD !",
		},
		{
			name:    "missing policy without terminal",
			args:    []string{"lookup"},
			wantErr: "policy id is required",
		},
		{
			name:    "blank policy",
			args:    []string{"lookup", "--policy", "   "},
			wantErr: "must be numeric existing policy id!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.run(newLookupCmd(h, false), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	entries, err := h.store.List(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "invalid input never reaches the service")
}

func TestLookupCmd_Prompt(t *testing.T) {
	srv := newServer(t)
	h := newHarness(t, srv.URL)

	cmd := newLookupCmd(h, true)
	var promptedDate string
	cmd.prompt = func(policy, date *string) error {
		promptedDate = *date
		*policy = "6"
		*date = "2015-04-01"
		return nil
	}

	require.NoError(t, h.run(cmd, "lookup", "--format", "markdown"))
	assert.NotEmpty(t, promptedDate, "prompt is prefilled with today")
	assert.Contains(t, h.out.String(), "### Policy Id: 6")
}

func TestLookupCmd_ServerError(t *testing.T) {
	srv := newServer(t)
	h := newHarness(t, srv.URL)

	err := h.run(newLookupCmd(h, false), "lookup", "--policy", "500", "--date", "2015-04-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	last, err := h.store.LastFailed(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, "500", last.Policy)
}

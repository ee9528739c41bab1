package policyview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/policyview/internal/core/config"
	"github.com/colonyops/policyview/internal/core/lookup"
	"github.com/colonyops/policyview/internal/store/jsonfile"
)

const statementTemplate = `<h3>Policy Id: %s</h3>
<p>Balance: 400</p>
<table>
  <tr><th>Bill Date</th><th>Due Date</th><th>Cancel Date</th><th>Amount Due</th></tr>
  <tr><td>2015-02-01</td><td>2015-03-01</td><td>2015-03-15</td><td>400</td></tr>
</table>`

// newServer mimics the accounting service: /{policy}/{date}.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		switch parts[0] {
		case "500":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "99":
			_, _ = fmt.Fprint(w, `<div class="alert">No Policy found with Policy id: 99</div>`)
		case "7":
			_, _ = fmt.Fprint(w, `<p>maintenance</p>`)
		default:
			_, _ = fmt.Fprintf(w, statementTemplate, parts[0])
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newApp(t *testing.T, endpoint string) (*App, *jsonfile.HistoryStore) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.RequestTimeout = 5 * time.Second
	cfg.DataDir = t.TempDir()

	store := jsonfile.NewHistoryStore(filepath.Join(cfg.DataDir, "history.json"))
	client := lookup.NewClient(ClientConfig(&cfg), zerolog.Nop())
	return NewApp(&cfg, client, store, zerolog.Nop()), store
}

func TestLookupService_Run(t *testing.T) {
	srv := newServer(t)
	app, store := newApp(t, srv.URL)
	ctx := context.Background()

	t.Run("statement", func(t *testing.T) {
		out, err := app.Lookups.Run(ctx, "2", "2015-04-01")
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/2/2015-04-01", out.Response.URL)
		require.NotNil(t, out.Statement)
		assert.Equal(t, "2", out.Statement.PolicyID)
		assert.Equal(t, "400", out.Statement.Balance)
		assert.Len(t, out.Statement.Invoices, 1)
	})

	t.Run("not found page", func(t *testing.T) {
		out, err := app.Lookups.Run(ctx, "99", "2015-04-01")
		require.NoError(t, err)
		require.NotNil(t, out.Statement)
		assert.True(t, out.Statement.NotFound)
	})

	t.Run("page without statement", func(t *testing.T) {
		out, err := app.Lookups.Run(ctx, "7", "2015-04-01")
		require.NoError(t, err)
		assert.Nil(t, out.Statement)
		assert.Equal(t, "<p>maintenance</p>", out.Response.Body)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := app.Lookups.Run(ctx, "500", "2015-04-01")
		require.Error(t, err)
		assert.True(t, lookup.IsStatus(err, http.StatusInternalServerError))
	})

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "500", entries[0].Policy, "newest first")
	assert.True(t, entries[0].Failed())
	assert.Equal(t, "2", entries[3].Policy)
	assert.False(t, entries[3].Failed())
}

func TestLookupService_NilHistory(t *testing.T) {
	srv := newServer(t)
	client := lookup.NewClient(lookup.Config{Endpoint: srv.URL}, zerolog.Nop())
	svc := NewLookupService(client, nil, 10, zerolog.Nop())

	out, err := svc.Run(context.Background(), "3", "2015-04-01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.Response.StatusCode)
}

func TestBatchService_Run(t *testing.T) {
	srv := newServer(t)
	svc := NewBatchService(lookup.Config{Endpoint: srv.URL, Timeout: 5 * time.Second}, zerolog.Nop())

	results := svc.Run(context.Background(), []BatchItem{
		{Policy: "1", DateTo: "2015-04-01"},
		{Policy: "", DateTo: "2015-04-01"},
		{Policy: "abc", DateTo: "2015-13-01"},
		{Policy: "500", DateTo: "2015-04-01"},
		{Policy: "99", DateTo: "2015-04-01"},
		{Policy: "4"},
	})
	require.Len(t, results, 6)

	assert.True(t, results[0].OK())
	require.NotNil(t, results[0].Statement)
	assert.Equal(t, "1", results[0].Statement.PolicyID)

	assert.Equal(t, map[string]string{"policy": "policy id is required"}, results[1].Errors)
	assert.Nil(t, results[1].Statement)

	assert.Equal(t, map[string]string{
		"policy":  "must be numeric existing policy id!",
		"date_to": "must be date like YYYY-MM-DD !",
	}, results[2].Errors)

	assert.Equal(t, ErrNoResponse.Error(), results[3].Error)
	assert.False(t, results[3].OK())

	require.NotNil(t, results[4].Statement)
	assert.True(t, results[4].Statement.NotFound)

	assert.Equal(t, time.Now().Format("2006-01-02"), results[5].DateTo)
	assert.True(t, results[5].OK())
}

func TestBatchService_Empty(t *testing.T) {
	svc := NewBatchService(lookup.Config{Endpoint: "http://127.0.0.1:1"}, zerolog.Nop())
	assert.Empty(t, svc.Run(context.Background(), nil))
}

package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/policyview/internal/core/config"
	"github.com/colonyops/policyview/internal/core/lookup"
	"github.com/colonyops/policyview/internal/policyview"
	"github.com/colonyops/policyview/internal/printer"
	"github.com/colonyops/policyview/internal/store/jsonfile"
)

const statementTemplate = `<h3>Policy Id: %s</h3>
<p>Balance: 400</p>
<table>
  <tr><th>Bill Date</th><th>Due Date</th><th>Cancel Date</th><th>Amount Due</th></tr>
  <tr><td>2015-02-01</td><td>2015-03-01</td><td>2015-03-15</td><td>400</td></tr>
</table>
<script>alert(1)</script>`

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
			_, _ = fmt.Fprint(w, `<div>No Policy found with Policy id: 99</div>`)
		default:
			_, _ = fmt.Fprintf(w, statementTemplate, parts[0])
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	out   *bytes.Buffer
	flags *Flags
	app   *policyview.App
	store *jsonfile.HistoryStore
	ctx   context.Context
}

func newHarness(t *testing.T, endpoint string) *harness {
	t.Helper()
	dataDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.RequestTimeout = 5 * time.Second
	cfg.DataDir = dataDir

	flags := &Flags{
		LogLevel:   "debug",
		ConfigPath: filepath.Join(dataDir, "config.yaml"),
		DataDir:    dataDir,
		Config:     &cfg,
	}

	store := jsonfile.NewHistoryStore(cfg.HistoryFile())
	client := lookup.NewClient(policyview.ClientConfig(&cfg), zerolog.Nop())
	app := policyview.NewApp(&cfg, client, store, zerolog.Nop())

	out := &bytes.Buffer{}
	return &harness{
		out:   out,
		flags: flags,
		app:   app,
		store: store,
		ctx:   printer.NewContext(context.Background(), printer.New(out, out)),
	}
}

// registrar adds one command to a fresh root.
type registrar interface {
	Register(app *cli.Command) *cli.Command
}

// run executes args against a new root holding only cmd. Output replaces
// the previous run's.
func (h *harness) run(cmd registrar, args ...string) error {
	h.out.Reset()
	root := cmd.Register(&cli.Command{
		Name:           "policyview",
		Writer:         h.out,
		ErrWriter:      h.out,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	})
	return root.Run(h.ctx, append([]string{"policyview"}, args...))
}

func (h *harness) lookup(t *testing.T, policy string) {
	t.Helper()
	_, _ = h.app.Lookups.Run(context.Background(), policy, "2015-04-01")
}

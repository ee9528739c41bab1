package policyview

import (
	"context"
	"errors"
	"net/http"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"

	"github.com/colonyops/policyview/internal/core/form"
	"github.com/colonyops/policyview/internal/core/lookup"
	"github.com/colonyops/policyview/internal/core/result"
)

// ErrNoResponse marks a batch item whose submission produced no result.
// The cause is in the log.
var ErrNoResponse = errors.New("no response received (see log)")

// BatchItem is one requested lookup. An empty DateTo means today.
type BatchItem struct {
	Policy string `json:"policy"`
	DateTo string `json:"date_to,omitempty"`
}

// BatchResult is the outcome of one item.
type BatchResult struct {
	Policy    string            `json:"policy"`
	DateTo    string            `json:"date_to"`
	Errors    map[string]string `json:"errors,omitempty"`
	Error     string            `json:"error,omitempty"`
	Statement *result.Statement `json:"statement,omitempty"`
}

// OK reports whether the item produced a response.
func (r BatchResult) OK() bool {
	return r.Error == "" && len(r.Errors) == 0
}

// BatchService submits many lookups at once. Each item gets its own form
// controller and result area; submissions are fire-and-forget and a failed
// request simply leaves its area empty.
type BatchService struct {
	cfg    lookup.Config
	http   *http.Client
	logger zerolog.Logger
}

// NewBatchService creates a batch service.
func NewBatchService(cfg lookup.Config, logger zerolog.Logger) *BatchService {
	return &BatchService{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type pending struct {
	res    BatchResult
	client *lookup.Client
	area   *result.Area
}

// Run submits every valid item, waits for all of them and returns results
// in input order.
func (s *BatchService) Run(ctx context.Context, items []BatchItem) []BatchResult {
	all := make([]*pending, 0, len(items))

	for i, item := range items {
		area := result.NewArea()
		area.OnChange(func(html string) {
			s.logger.Debug().Int("item", i).Int("bytes", len(html)).Msg("result received")
		})
		client := lookup.NewClient(s.cfg, s.logger, lookup.WithHTTPClient(s.http), lookup.WithDisplay(area))
		ctrl := form.New(form.WithSubmitter(client))

		ctrl.SetPolicy(item.Policy)
		if item.DateTo != "" {
			ctrl.SetDateTo(item.DateTo)
		}

		p := &pending{
			res:    BatchResult{Policy: item.Policy, DateTo: ctrl.DateTo().Value},
			client: client,
			area:   area,
		}
		if err := ctrl.Submit(ctx); err != nil {
			p.res.Errors = fieldErrors(err)
		}
		all = append(all, p)
	}

	out := make([]BatchResult, 0, len(all))
	for _, p := range all {
		p.client.Wait()
		if len(p.res.Errors) == 0 {
			p.finish()
		}
		out = append(out, p.res)
	}
	return out
}

func (p *pending) finish() {
	if p.area.Version() == 0 {
		p.res.Error = ErrNoResponse.Error()
		return
	}

	stmt, err := result.ParseStatement(p.area.HTML())
	if err != nil {
		p.res.Error = err.Error()
		return
	}
	p.res.Statement = &stmt
}

func fieldErrors(err error) map[string]string {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"form": err.Error()}
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field] = fe.Err.Error()
	}
	return out
}

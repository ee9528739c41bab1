package policyview

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/policyview/internal/core/history"
	"github.com/colonyops/policyview/internal/core/lookup"
	"github.com/colonyops/policyview/internal/core/result"
)

// Outcome is a completed lookup.
type Outcome struct {
	Response  lookup.Response
	Statement *result.Statement // nil when the page has no statement
}

// LookupService performs single lookups and records them in history.
type LookupService struct {
	client     *lookup.Client
	history    history.Store
	maxEntries int
	logger     zerolog.Logger
}

// NewLookupService creates a lookup service. store may be nil.
func NewLookupService(client *lookup.Client, store history.Store, maxEntries int, logger zerolog.Logger) *LookupService {
	return &LookupService{
		client:     client,
		history:    store,
		maxEntries: maxEntries,
		logger:     logger,
	}
}

// Run fetches the statement for policy as of dateTo. Failing to record
// history is logged and does not fail the lookup.
func (s *LookupService) Run(ctx context.Context, policy, dateTo string) (Outcome, error) {
	resp, err := s.client.Fetch(ctx, policy, dateTo)
	s.record(ctx, policy, dateTo, resp, err)
	if err != nil {
		return Outcome{Response: resp}, err
	}

	out := Outcome{Response: resp}
	stmt, err := result.ParseStatement(resp.Body)
	switch {
	case errors.Is(err, result.ErrNoStatement):
		s.logger.Debug().Str("url", resp.URL).Msg("response has no statement")
	case err != nil:
		return out, fmt.Errorf("parse statement: %w", err)
	default:
		out.Statement = &stmt
	}
	return out, nil
}

func (s *LookupService) record(ctx context.Context, policy, dateTo string, resp lookup.Response, lookupErr error) {
	if s.history == nil {
		return
	}

	entry := history.Entry{
		Policy:     policy,
		DateTo:     dateTo,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
	}
	if lookupErr != nil {
		entry.Error = lookupErr.Error()
	}

	if err := s.history.Save(ctx, entry, s.maxEntries); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record lookup")
	}
}

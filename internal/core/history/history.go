// Package history defines lookup history domain types and interfaces.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("history entry not found")

// Entry records one lookup.
type Entry struct {
	ID         string    `json:"id"`
	Policy     string    `json:"policy"`
	DateTo     string    `json:"date_to"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Failed returns true if the lookup did not produce a 2xx response.
func (e *Entry) Failed() bool {
	return e.Error != "" || e.StatusCode < 200 || e.StatusCode > 299
}

// Store persists lookup history.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	Save(ctx context.Context, entry Entry, maxEntries int) error
	Clear(ctx context.Context) error
	LastFailed(ctx context.Context) (Entry, error)
}

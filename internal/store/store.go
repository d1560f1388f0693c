// Package store persists finished session results.
package store

import (
	"context"
	"errors"
)

// DefaultTable is the table results are inserted into.
const DefaultTable = "game_results"

// Record is one finished session as written to the datastore.
type Record struct {
	ID              string  `json:"id"`
	FirstName       string  `json:"first_name"`
	PSNumber        string  `json:"ps_number"`
	TotalScore      int     `json:"total_score"`
	Percentage      float64 `json:"percentage"`
	PlayTimeSeconds int     `json:"play_time_seconds"`
	Passed          bool    `json:"passed"`
	CompletedAt     string  `json:"completed_at"`
}

// Store inserts result records.
type Store interface {
	Save(ctx context.Context, rec Record) error
}

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown store driver")

// Discard is a Store that drops every record.
type Discard struct{}

// Save implements Store.
func (Discard) Save(context.Context, Record) error { return nil }

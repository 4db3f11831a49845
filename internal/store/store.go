// Package store persists normalized price records.
//
// Storage is append-only: every record of an accepted batch becomes a new row
// or message and nothing is deduplicated at write time.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rideprice/internal/fare"
)

// Batch is the output of one normalization run.
type Batch struct {
	ID        uuid.UUID     `json:"batch_id"`
	Provider  fare.Provider `json:"provider"`
	FetchedAt time.Time     `json:"fetched_at"`
	Records   []fare.Record `json:"records"`
}

// NewBatch stamps records with a fresh batch id and the current UTC time.
func NewBatch(p fare.Provider, records []fare.Record) Batch {
	return Batch{ID: uuid.New(), Provider: p, FetchedAt: time.Now().UTC(), Records: records}
}

// Sink receives batches. Implementations return *fare.StorageError on failure.
type Sink interface {
	Append(ctx context.Context, b Batch) error
}

type tee []Sink

// Tee appends every batch to all sinks. A failing sink does not stop the
// others; their errors are joined.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t tee) Append(ctx context.Context, b Batch) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a Sink that drops every batch.
var Discard Sink = tee(nil)

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"rideprice/internal/fare"
	"rideprice/internal/store"
)

type memSink struct {
	batches []store.Batch
	err     error
}

func (m *memSink) Append(_ context.Context, b store.Batch) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, b)
	return nil
}

func TestNewBatch(t *testing.T) {
	t.Parallel()

	records := []fare.Record{{Provider: fare.Snapp, ServiceKey: "1"}}
	a := store.NewBatch(fare.Snapp, records)
	b := store.NewBatch(fare.Snapp, records)

	require.NotEqual(t, uuid.Nil, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, fare.Snapp, a.Provider)
	require.Equal(t, records, a.Records)
	require.Equal(t, time.UTC, a.FetchedAt.Location())
	require.WithinDuration(t, time.Now(), a.FetchedAt, time.Minute)
}

func TestTee(t *testing.T) {
	t.Parallel()

	// Arrange: one failing sink between two healthy ones
	first, second := &memSink{}, &memSink{}
	failing := &memSink{err: &fare.StorageError{Backend: "postgres", Err: errors.New("down")}}
	sink := store.Tee(first, nil, failing, second)

	// Act
	err := sink.Append(t.Context(), store.NewBatch(fare.Tapsi, nil))

	// Assert: the healthy sinks still received the batch
	var storageErr *fare.StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "postgres", storageErr.Backend)
	require.Len(t, first.batches, 1)
	require.Len(t, second.batches, 1)
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	require.NoError(t, store.Discard.Append(t.Context(), store.NewBatch(fare.Tapsi, nil)))
	require.NoError(t, store.Tee().Append(t.Context(), store.Batch{}))
}

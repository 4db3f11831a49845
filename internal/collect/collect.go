// Package collect fetches, normalizes and stores ride prices.
package collect

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"rideprice/internal/fare"
	"rideprice/internal/metrics"
	"rideprice/internal/provider"
	"rideprice/internal/store"
)

// Result is the outcome for one provider. Records stay valid when only
// StoreErr is set.
type Result struct {
	Provider fare.Provider
	BatchID  uuid.UUID
	Records  []fare.Record
	Err      error
	StoreErr error
}

type resultJSON struct {
	Provider     fare.Provider `json:"provider"`
	BatchID      string        `json:"batch_id,omitempty"`
	Records      []fare.Record `json:"records"`
	Error        string        `json:"error,omitempty"`
	StorageError string        `json:"storage_error,omitempty"`
}

// MarshalJSON renders errors as strings and omits an unset batch id.
// Records is always an array.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Provider: r.Provider, Records: r.Records}
	if r.BatchID != uuid.Nil {
		out.BatchID = r.BatchID.String()
	}
	if out.Records == nil {
		out.Records = []fare.Record{}
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	if r.StoreErr != nil {
		out.StorageError = r.StoreErr.Error()
	}
	return json.Marshal(out)
}

type Collector struct {
	clients    map[fare.Provider]provider.Client
	normalizer fare.Normalizer
	sink       store.Sink
	metrics    *metrics.Registry
	log        zerolog.Logger
}

type Option func(*Collector)

func WithClients(clients ...provider.Client) Option {
	return func(c *Collector) {
		for _, cl := range clients {
			c.clients[cl.Provider()] = cl
		}
	}
}

func WithNormalizer(n fare.Normalizer) Option {
	return func(c *Collector) { c.normalizer = n }
}

// WithSink sets where batches are appended. Without a sink nothing is stored.
func WithSink(s store.Sink) Option {
	return func(c *Collector) { c.sink = s }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(c *Collector) { c.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Collector) { c.log = l }
}

func New(opts ...Option) *Collector {
	c := &Collector{clients: map[fare.Provider]provider.Client{}, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers lists the providers with a configured client, sorted.
func (c *Collector) Providers() []fare.Provider {
	out := make([]fare.Provider, 0, len(c.clients))
	for p := range c.clients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ingest normalizes an already fetched document and, when persist is set,
// appends the batch to the sink.
func (c *Collector) Ingest(ctx context.Context, p fare.Provider, raw []byte, persist bool) Result {
	res := Result{Provider: p}
	records, err := c.normalizer.Normalize(p, raw)
	if err != nil {
		c.metrics.NormalizeFailed(p, err)
		c.log.Warn().Err(err).Str("provider", string(p)).Msg("normalize failed")
		res.Err = err
		return res
	}
	batch := store.NewBatch(p, records)
	res.BatchID = batch.ID
	res.Records = records
	c.metrics.AddRecords(p, len(records))

	if persist && c.sink != nil {
		if err := c.sink.Append(ctx, batch); err != nil {
			var storageErr *fare.StorageError
			if !errors.As(err, &storageErr) {
				err = &fare.StorageError{Backend: "sink", Err: err}
			}
			c.metrics.StoreFailed(p)
			c.log.Error().Err(err).Str("provider", string(p)).Str("batch_id", batch.ID.String()).Msg("store batch failed")
			res.StoreErr = err
		}
	}
	c.log.Debug().Str("provider", string(p)).Str("batch_id", batch.ID.String()).Int("records", len(records)).Msg("normalized")
	return res
}

// Collect fetches every provider concurrently and ingests each document.
// Results follow the order of providers; one provider failing never affects
// the others. An empty list means every configured provider.
func (c *Collector) Collect(ctx context.Context, q provider.Query, providers []fare.Provider) []Result {
	if len(providers) == 0 {
		providers = c.Providers()
	}
	results := make([]Result, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			results[i] = c.fetchOne(ctx, q, p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Collector) fetchOne(ctx context.Context, q provider.Query, p fare.Provider) Result {
	client, ok := c.clients[p]
	if !ok {
		err := &fare.UnsupportedProviderError{Provider: string(p)}
		c.metrics.NormalizeFailed(p, err)
		return Result{Provider: p, Err: err}
	}
	start := time.Now()
	raw, err := client.Fetch(ctx, q)
	c.metrics.ObserveFetch(p, time.Since(start))
	if err != nil {
		c.metrics.NormalizeFailed(p, err)
		c.log.Warn().Err(err).Str("provider", string(p)).Msg("fetch failed")
		return Result{Provider: p, Err: err}
	}
	return c.Ingest(ctx, p, raw, true)
}

// Failed reports whether every result carries an error.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return len(results) > 0
}

// Records flattens the records of all successful results.
func Records(results []Result) []fare.Record {
	var out []fare.Record
	for _, r := range results {
		out = append(out, r.Records...)
	}
	return out
}

package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rideprice/internal/fare"
)

// Registry holds the service metrics. A nil *Registry records nothing.
type Registry struct {
	reg             *prometheus.Registry
	Records         *prometheus.CounterVec
	NormalizeErrors *prometheus.CounterVec
	StoreFailures   *prometheus.CounterVec
	FetchSec        *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rideprice_records_total",
		Help: "Normalized price records produced.",
	}, []string{"provider"})
	normErrs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rideprice_normalize_errors_total",
		Help: "Failed fetch or normalization runs by error kind.",
	}, []string{"provider", "kind"})
	storeFails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rideprice_store_failures_total",
		Help: "Batches the price store rejected.",
	}, []string{"provider"})
	fetchSec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rideprice_fetch_seconds",
		Help:    "Upstream price fetch latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	r.MustRegister(records, normErrs, storeFails, fetchSec)
	return &Registry{
		reg:             r,
		Records:         records,
		NormalizeErrors: normErrs,
		StoreFailures:   storeFails,
		FetchSec:        fetchSec,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) AddRecords(p fare.Provider, n int) {
	if r == nil {
		return
	}
	r.Records.WithLabelValues(string(p)).Add(float64(n))
}

func (r *Registry) NormalizeFailed(p fare.Provider, err error) {
	if r == nil || err == nil {
		return
	}
	r.NormalizeErrors.WithLabelValues(string(p), Kind(err)).Inc()
}

func (r *Registry) StoreFailed(p fare.Provider) {
	if r == nil {
		return
	}
	r.StoreFailures.WithLabelValues(string(p)).Inc()
}

func (r *Registry) ObserveFetch(p fare.Provider, d time.Duration) {
	if r == nil {
		return
	}
	r.FetchSec.WithLabelValues(string(p)).Observe(d.Seconds())
}

// Kind classifies an error for the kind label.
func Kind(err error) string {
	var (
		parseErr       *fare.DocumentParseError
		unsupportedErr *fare.UnsupportedProviderError
		insufficient   *fare.InsufficientDataError
		storageErr     *fare.StorageError
	)
	switch {
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &unsupportedErr):
		return "unsupported"
	case errors.As(err, &insufficient):
		return "insufficient"
	case errors.As(err, &storageErr):
		return "storage"
	default:
		return "fetch"
	}
}

package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"rideprice/internal/fare"
	"rideprice/internal/metrics"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := metrics.NewRegistry()
	r.AddRecords(fare.Tapsi, 3)
	r.AddRecords(fare.Tapsi, 2)
	r.NormalizeFailed(fare.Snapp, &fare.DocumentParseError{Provider: fare.Snapp, Err: errors.New("x")})
	r.NormalizeFailed(fare.Snapp, nil)
	r.StoreFailed(fare.Tapsi)
	r.ObserveFetch(fare.Snapp, 120*time.Millisecond)

	require.InDelta(t, 5, testutil.ToFloat64(r.Records.WithLabelValues("tapsi")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.NormalizeErrors.WithLabelValues("snapp", "parse")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.StoreFailures.WithLabelValues("tapsi")), 0)
	require.Equal(t, 1, testutil.CollectAndCount(r.FetchSec))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `rideprice_records_total{provider="tapsi"} 5`)
}

func TestNilRegistry(t *testing.T) {
	t.Parallel()

	var r *metrics.Registry
	require.NotPanics(t, func() {
		r.AddRecords(fare.Tapsi, 1)
		r.NormalizeFailed(fare.Tapsi, errors.New("x"))
		r.StoreFailed(fare.Tapsi)
		r.ObserveFetch(fare.Tapsi, time.Second)
	})
}

func TestKind(t *testing.T) {
	t.Parallel()

	require.Equal(t, "parse", metrics.Kind(&fare.DocumentParseError{}))
	require.Equal(t, "unsupported", metrics.Kind(&fare.UnsupportedProviderError{}))
	require.Equal(t, "insufficient", metrics.Kind(&fare.InsufficientDataError{}))
	require.Equal(t, "storage", metrics.Kind(&fare.StorageError{}))
	require.Equal(t, "fetch", metrics.Kind(errors.New("timeout")))
}

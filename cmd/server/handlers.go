package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"rideprice/internal/aggregate"
	"rideprice/internal/collect"
	"rideprice/internal/fare"
	"rideprice/internal/metrics"
	"rideprice/internal/provider"
)

type server struct {
	collector *collect.Collector
	log       zerolog.Logger
	timeout   time.Duration
}

func (s *server) routes(reg *metrics.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(limitBody)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if reg != nil {
		r.Method(http.MethodGet, "/metrics", reg.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(withJSONHeaders)
		r.Post("/normalize/{provider}", s.handleNormalize)
		r.Post("/quotes", s.handleQuotes)
	})
	return r
}

// handleNormalize normalizes a raw provider document posted as the body.
func (s *server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	p, err := fare.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res := s.collector.Ingest(r.Context(), p, raw, truthy(r.URL.Query().Get("store")))
	if res.Err != nil {
		writeError(w, statusFor(res.Err), res.Err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type quotesRequest struct {
	Origin         provider.Location `json:"origin"`
	Destination    provider.Location `json:"destination"`
	WaitingMinutes int               `json:"waiting_minutes"`
	Providers      []string          `json:"providers"`
}

type quotesResponse struct {
	Results  []collect.Result `json:"results"`
	Cheapest []aggregate.Best `json:"cheapest"`
}

// handleQuotes fetches live prices from every requested provider.
func (s *server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	var body quotesRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	for _, loc := range []provider.Location{body.Origin, body.Destination} {
		if err := loc.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if body.WaitingMinutes < 0 {
		writeError(w, http.StatusBadRequest, errors.New("waiting_minutes cannot be negative"))
		return
	}
	providers := make([]fare.Provider, 0, len(body.Providers))
	for _, name := range body.Providers {
		providers = append(providers, fare.Provider(strings.ToLower(strings.TrimSpace(name))))
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	q := provider.Query{Origin: body.Origin, Destination: body.Destination, WaitingMinutes: body.WaitingMinutes}
	results := s.collector.Collect(ctx, q, providers)

	resp := quotesResponse{
		Results:  results,
		Cheapest: aggregate.Cheapest(collect.Records(results)),
	}
	if resp.Results == nil {
		resp.Results = []collect.Result{}
	}
	status := http.StatusOK
	if len(results) == 0 || collect.Failed(results) {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch metrics.Kind(err) {
	case "parse":
		return http.StatusBadRequest
	case "unsupported":
		return http.StatusNotFound
	case "insufficient":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

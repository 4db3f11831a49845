// Package app wires configuration into the collector's dependencies.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rideprice/internal/config"
	"rideprice/internal/fare"
	"rideprice/internal/httpx"
	"rideprice/internal/provider"
	"rideprice/internal/provider/coalesce"
	"rideprice/internal/provider/snapp"
	"rideprice/internal/provider/tapsi"
	"rideprice/internal/store"
	"rideprice/internal/store/postgres"
	"rideprice/internal/store/rabbitmq"
)

func Normalizer(cfg config.Config) fare.Normalizer {
	if cfg.Tapsi.StrictTiers {
		return fare.NewNormalizer(fare.WithStrictTiers())
	}
	return fare.NewNormalizer()
}

// Clients builds a client for every enabled provider. Concurrent identical
// queries to the same provider share one upstream call.
func Clients(cfg config.Config, log zerolog.Logger) ([]provider.Client, error) {
	hc := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	var clients []provider.Client
	if cfg.Tapsi.Enabled {
		if cfg.Tapsi.Token == "" {
			log.Warn().Msg("tapsi.enabled=true but TAPSI_TOKEN not set")
		}
		c, err := tapsi.NewClient(cfg.Tapsi.Token, tapsi.WithBaseURL(cfg.Tapsi.Endpoint), tapsi.WithHTTPClient(hc))
		if err != nil {
			return nil, fmt.Errorf("tapsi client: %w", err)
		}
		clients = append(clients, coalesce.New(c))
	}
	if cfg.Snapp.Enabled {
		if cfg.Snapp.Token == "" {
			log.Warn().Msg("snapp.enabled=true but SNAPP_TOKEN not set")
		}
		c, err := snapp.NewClient(cfg.Snapp.Token, snapp.WithBaseURL(cfg.Snapp.Endpoint), snapp.WithHTTPClient(hc))
		if err != nil {
			return nil, fmt.Errorf("snapp client: %w", err)
		}
		clients = append(clients, coalesce.New(c))
	}
	return clients, nil
}

func PostgresConfig(db config.Database) postgres.Config {
	return postgres.Config{
		Host:     db.Host,
		Port:     db.Port,
		User:     db.User,
		Password: db.Password,
		Database: db.Name,
		SSLMode:  db.SSLMode,
	}
}

// OpenSink opens every enabled price store. The returned sink is nil when
// none is enabled. The close func is always safe to call.
func OpenSink(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.Sink, func(), error) {
	var (
		sinks   []store.Sink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.Enabled {
		pool, err := postgres.Connect(ctx, PostgresConfig(cfg.Database))
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, pool.Close)
		s := postgres.New(pool)
		if cfg.Database.Migrate {
			if err := s.Migrate(ctx); err != nil {
				closeAll()
				return nil, func() {}, err
			}
		}
		log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("postgres store enabled")
		sinks = append(sinks, s)
	}

	if cfg.RabbitMQ.Enabled {
		p, err := rabbitmq.Dial(rabbitmq.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
		})
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() {
			if err := p.Close(); err != nil {
				log.Warn().Err(err).Msg("close rabbitmq publisher")
			}
		})
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("rabbitmq publisher enabled")
		sinks = append(sinks, p)
	}

	if len(sinks) == 0 {
		return nil, closeAll, nil
	}
	return store.Tee(sinks...), closeAll, nil
}

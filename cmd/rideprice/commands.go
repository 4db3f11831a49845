package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"rideprice/internal/aggregate"
	"rideprice/internal/app"
	"rideprice/internal/collect"
	"rideprice/internal/fare"
	"rideprice/internal/provider"
	"rideprice/internal/report"
	"rideprice/internal/store"
	"rideprice/internal/store/postgres"
)

var errNoStore = errors.New("--store needs database.enabled or rabbitmq.enabled")

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openSink opens the configured stores when persist is set.
func (rt *runtime) openSink(c *cli.Context, persist bool) (store.Sink, func(), error) {
	if !persist {
		return nil, func() {}, nil
	}
	sink, closeFn, err := app.OpenSink(c.Context, rt.cfg, rt.log)
	if err != nil {
		return nil, closeFn, err
	}
	if sink == nil {
		return nil, closeFn, errNoStore
	}
	return sink, closeFn, nil
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "origin", Usage: "Pickup as lat,lng", Required: true},
		&cli.StringFlag{Name: "destination", Usage: "Drop-off as lat,lng", Required: true},
		&cli.IntFlag{Name: "waiting", Usage: "Waiting time in minutes"},
	}
}

func parseQuery(c *cli.Context) (provider.Query, error) {
	origin, err := provider.ParseLocation(c.String("origin"))
	if err != nil {
		return provider.Query{}, fmt.Errorf("--origin: %w", err)
	}
	dest, err := provider.ParseLocation(c.String("destination"))
	if err != nil {
		return provider.Query{}, fmt.Errorf("--destination: %w", err)
	}
	if c.Int("waiting") < 0 {
		return provider.Query{}, errors.New("--waiting cannot be negative")
	}
	return provider.Query{Origin: origin, Destination: dest, WaitingMinutes: c.Int("waiting")}, nil
}

func (rt *runtime) normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Normalize a saved provider document",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "tapsi or snapp", Required: true},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Value: "-", Usage: "Document path, - for stdin"},
			&cli.BoolFlag{Name: "strict", Usage: "Fail when Tapsi returns fewer than three distinct fares"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
			&cli.BoolFlag{Name: "store", Usage: "Append the records to the configured price stores"},
		},
		Action: func(c *cli.Context) error {
			p, err := fare.ParseProvider(c.String("provider"))
			if err != nil {
				return err
			}
			var raw []byte
			if path := c.String("file"); path == "-" {
				raw, err = io.ReadAll(c.App.Reader)
			} else {
				raw, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			normalizer := app.Normalizer(rt.cfg)
			if c.Bool("strict") {
				normalizer = fare.NewNormalizer(fare.WithStrictTiers())
			}
			sink, closeSink, err := rt.openSink(c, c.Bool("store"))
			defer closeSink()
			if err != nil {
				return err
			}
			collector := collect.New(collect.WithNormalizer(normalizer), collect.WithSink(sink), collect.WithLogger(rt.log))

			res := collector.Ingest(c.Context, p, raw, sink != nil)
			if res.Err != nil {
				return res.Err
			}
			if c.Bool("json") {
				err = writeJSON(c.App.Writer, res)
			} else {
				err = report.Records(c.App.Writer, res.Records)
			}
			if err != nil {
				return err
			}
			return res.StoreErr
		},
	}
}

type fetchOutput struct {
	Results  []collect.Result `json:"results"`
	Cheapest []aggregate.Best `json:"cheapest"`
}

func (rt *runtime) fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch live prices and normalize them",
		Flags: append(queryFlags(),
			&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "Comma-separated providers, empty for all enabled"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of tables"},
			&cli.BoolFlag{Name: "store", Usage: "Append the records to the configured price stores"},
		),
		Action: func(c *cli.Context) error {
			q, err := parseQuery(c)
			if err != nil {
				return err
			}
			providers, err := fare.ParseProviders(c.String("provider"))
			if err != nil {
				return err
			}
			clients, err := app.Clients(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			sink, closeSink, err := rt.openSink(c, c.Bool("store"))
			defer closeSink()
			if err != nil {
				return err
			}
			collector := collect.New(
				collect.WithClients(clients...),
				collect.WithNormalizer(app.Normalizer(rt.cfg)),
				collect.WithSink(sink),
				collect.WithLogger(rt.log),
			)

			results := collector.Collect(c.Context, q, providers)
			cheapest := aggregate.Cheapest(collect.Records(results))

			if c.Bool("json") {
				err = writeJSON(c.App.Writer, fetchOutput{Results: results, Cheapest: cheapest})
			} else {
				err = printResults(c.App.Writer, results, cheapest)
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return errors.New("no provider enabled")
			}
			if collect.Failed(results) {
				return errors.New("every provider failed")
			}
			return nil
		},
	}
}

func printResults(w io.Writer, results []collect.Result, cheapest []aggregate.Best) error {
	for _, res := range results {
		if res.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: %v\n\n", res.Provider, res.Err); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s (batch %s)\n", res.Provider, res.BatchID); err != nil {
			return err
		}
		if err := report.Records(w, res.Records); err != nil {
			return err
		}
		if res.StoreErr != nil {
			if _, err := fmt.Fprintf(w, "not stored: %v\n", res.StoreErr); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	if len(cheapest) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "cheapest per tier"); err != nil {
		return err
	}
	return report.Cheapest(w, cheapest)
}

func (rt *runtime) dumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Save a provider's raw price document, e.g. as a test fixture",
		Flags: append(queryFlags(),
			&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "tapsi or snapp", Required: true},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "Output path, - for stdout"},
		),
		Action: func(c *cli.Context) error {
			p, err := fare.ParseProvider(c.String("provider"))
			if err != nil {
				return err
			}
			q, err := parseQuery(c)
			if err != nil {
				return err
			}
			clients, err := app.Clients(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			var client provider.Client
			for _, cl := range clients {
				if cl.Provider() == p {
					client = cl
				}
			}
			if client == nil {
				return fmt.Errorf("%s is not enabled", p)
			}

			raw, err := client.Fetch(c.Context, q)
			if err != nil {
				return err
			}
			if out := c.String("out"); out != "-" {
				if err := os.WriteFile(out, raw, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				rt.log.Info().Str("provider", string(p)).Str("out", out).Int("bytes", len(raw)).Msg("document saved")
				return nil
			}
			_, err = c.App.Writer.Write(raw)
			return err
		},
	}
}

func (rt *runtime) migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the ride_prices table",
		Action: func(c *cli.Context) error {
			if rt.cfg.Database.User == "" {
				return errors.New("DB_USER and DB_PASSWORD are required")
			}
			pool, err := postgres.Connect(c.Context, app.PostgresConfig(rt.cfg.Database))
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.New(pool).Migrate(c.Context); err != nil {
				return err
			}
			rt.log.Info().Str("database", rt.cfg.Database.Name).Msg("migrated")
			return nil
		},
	}
}

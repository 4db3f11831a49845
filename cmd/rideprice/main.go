// Command rideprice normalizes, fetches and stores ride-hailing prices.
//
// Usage:
//
//	rideprice normalize --provider tapsi --file preview.json
//	rideprice fetch --origin 35.72,51.33 --destination 35.69,51.42
//	rideprice dump --provider snapp --origin ... --destination ... --out snapp.json
//	rideprice migrate
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"rideprice/internal/config"
	"rideprice/internal/logging"
)

var version = "dev"

type runtime struct {
	cfg config.Config
	log zerolog.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	rt := &runtime{log: zerolog.Nop()}
	return &cli.App{
		Name:      "rideprice",
		Usage:     "Normalize ride-hailing price quotes from Tapsi and Snapp",
		Version:   version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to config.json",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "log-pretty",
				Usage: "Human readable logs",
			},
		},
		Before: rt.before,
		Commands: []*cli.Command{
			rt.normalizeCommand(),
			rt.fetchCommand(),
			rt.dumpCommand(),
			rt.migrateCommand(),
		},
	}
}

func (rt *runtime) before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-pretty") {
		cfg.Log.Pretty = c.Bool("log-pretty")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	rt.cfg = cfg
	rt.log = logging.New(c.App.ErrWriter, cfg.Log.Level, cfg.Log.Pretty)
	return nil
}

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var (
	ErrDatabaseCredentials = errors.New("database enabled but DB_USER or DB_PASSWORD is empty")
	ErrRabbitMQURL         = errors.New("rabbitmq enabled but RABBITMQ_URL is empty")
	ErrRequestTimeout      = errors.New("request timeout must be positive")
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Log struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

type Database struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	SSLMode  string `json:"sslmode"`
	Migrate  bool   `json:"migrate"`
}

type RabbitMQ struct {
	Enabled    bool   `json:"enabled"`
	URL        string `json:"url"`
	Exchange   string `json:"exchange"`
	RoutingKey string `json:"routing_key"`
}

type Tapsi struct {
	Enabled     bool   `json:"enabled"`
	Endpoint    string `json:"endpoint"`
	Token       string `json:"token"`
	StrictTiers bool   `json:"strict_tiers"`
}

type Snapp struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
	Token    string `json:"token"`
}

type Config struct {
	Server   Server   `json:"server"`
	Log      Log      `json:"log"`
	Database Database `json:"database"`
	RabbitMQ RabbitMQ `json:"rabbitmq"`
	Tapsi    Tapsi    `json:"tapsi"`
	Snapp    Snapp    `json:"snapp"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Log:    Log{Level: "info"},
		Database: Database{
			Host:    "localhost",
			Port:    5432,
			Name:    "rideprice",
			SSLMode: "disable",
		},
		RabbitMQ: RabbitMQ{
			Exchange:   "rideprice",
			RoutingKey: "prices.normalized",
		},
		Tapsi: Tapsi{Enabled: true, Endpoint: "https://api.tapsi.cab"},
		Snapp: Snapp{Enabled: true, Endpoint: "https://app.snapp.taxi"},
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. A .env file in the working directory is loaded into the
// process environment first; variables already set are kept. Environment
// variables then override file values.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	if c.Server.RequestTimeoutSec <= 0 {
		errs = append(errs, ErrRequestTimeout)
	}
	if c.Database.Enabled && (c.Database.User == "" || c.Database.Password == "") {
		errs = append(errs, ErrDatabaseCredentials)
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		errs = append(errs, ErrRabbitMQURL)
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setInt(&cfg.Server.RequestTimeoutSec, "REQUEST_TIMEOUT_SEC", 1)

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setBool(&cfg.Log.Pretty, "LOG_PRETTY")

	setBool(&cfg.Database.Enabled, "DB_ENABLED")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT", 1)
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")
	setBool(&cfg.Database.Migrate, "DB_MIGRATE")

	setBool(&cfg.RabbitMQ.Enabled, "RABBITMQ_ENABLED")
	setString(&cfg.RabbitMQ.URL, "RABBITMQ_URL")
	setString(&cfg.RabbitMQ.Exchange, "RABBITMQ_EXCHANGE")
	setString(&cfg.RabbitMQ.RoutingKey, "RABBITMQ_ROUTING_KEY")

	setBool(&cfg.Tapsi.Enabled, "TAPSI_ENABLED")
	setString(&cfg.Tapsi.Endpoint, "TAPSI_ENDPOINT")
	setString(&cfg.Tapsi.Token, "TAPSI_TOKEN")
	setBool(&cfg.Tapsi.StrictTiers, "TAPSI_STRICT_TIERS")

	setBool(&cfg.Snapp.Enabled, "SNAPP_ENABLED")
	setString(&cfg.Snapp.Endpoint, "SNAPP_ENDPOINT")
	setString(&cfg.Snapp.Token, "SNAPP_TOKEN")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string, min int) {
	if v := os.Getenv(key); v != "" {
		var x int
		if _, err := fmt.Sscanf(v, "%d", &x); err == nil && x >= min {
			*dst = x
		}
	}
}

func setBool(dst *bool, key string) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		*dst = true
	case "0", "false", "no", "n":
		*dst = false
	}
}

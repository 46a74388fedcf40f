// internal/config/config.go
// Layered configuration: defaults, then a JSON file, then a .env file, then
// the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/erilali/tictactoe/internal/logger"
	"github.com/erilali/tictactoe/internal/lobby"
)

// Duration is a time.Duration written as "50ms" in JSON and the environment.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	Server ServerConfig     `json:"server" envPrefix:"SERVER_"`
	Lobby  LobbyConfig      `json:"lobby" envPrefix:"LOBBY_"`
	NATS   NATSConfig       `json:"nats" envPrefix:"NATS_"`
	Log    logger.LogConfig `json:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Addr            string   `json:"addr" env:"ADDR"`
	Path            string   `json:"path" env:"PATH"` // websocket endpoint
	AllowedOrigins  []string `json:"allowed_origins" env:"ALLOWED_ORIGINS"`
	ShutdownTimeout Duration `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type LobbyConfig struct {
	CursorInterval  Duration `json:"cursor_interval" env:"CURSOR_INTERVAL"`
	ReapInterval    Duration `json:"reap_interval" env:"REAP_INTERVAL"`
	WorldIdleTTL    Duration `json:"world_idle_ttl" env:"WORLD_IDLE_TTL"`
	MaxNameAttempts int      `json:"max_name_attempts" env:"MAX_NAME_ATTEMPTS"`
}

// Lobby converts to the lobby's own configuration.
func (c LobbyConfig) Lobby() lobby.Config {
	return lobby.Config{
		CursorInterval:  time.Duration(c.CursorInterval),
		ReapInterval:    time.Duration(c.ReapInterval),
		WorldIdleTTL:    time.Duration(c.WorldIdleTTL),
		MaxNameAttempts: c.MaxNameAttempts,
	}
}

type NATSConfig struct {
	Enabled       bool   `json:"enabled" env:"ENABLED"`
	URL           string `json:"url" env:"URL"`
	SubjectPrefix string `json:"subject_prefix" env:"SUBJECT_PREFIX"`
}

func Default() Config {
	l := lobby.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:            ":4321",
			Path:            "/connect",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Lobby: LobbyConfig{
			CursorInterval:  Duration(l.CursorInterval),
			ReapInterval:    Duration(l.ReapInterval),
			WorldIdleTTL:    Duration(l.WorldIdleTTL),
			MaxNameAttempts: l.MaxNameAttempts,
		},
		NATS: NATSConfig{
			Enabled:       true,
			URL:           nats.DefaultURL,
			SubjectPrefix: "tictactoe",
		},
		Log: logger.DefaultLogConfig(),
	}
}

// Load builds the configuration. Empty paths skip their layer, and missing
// files are not an error.
func Load(configPath, dotenvPath string) (Config, error) {
	cfg := Default()
	if configPath != "" {
		if err := loadJSON(configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", configPath, err)
		}
	}
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("env file %s: %w", dotenvPath, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	return cfg, cfg.Validate()
}

func loadJSON(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(cfg)
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address is empty"))
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		errs = append(errs, fmt.Errorf("server path %q must start with /", c.Server.Path))
	}
	if c.Lobby.CursorInterval <= 0 {
		errs = append(errs, errors.New("cursor interval must be positive"))
	}
	if c.Lobby.MaxNameAttempts <= 0 {
		errs = append(errs, errors.New("max name attempts must be positive"))
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, errors.New("nats url is empty"))
	}
	return errors.Join(errs...)
}

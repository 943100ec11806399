// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/tvorozhniki/remote"
)

// DefaultPort is the aggregator's listen port.
const DefaultPort = 3000

// DefaultSQLitePath is used when DATABASE_TYPE is sqlite and no URL is given.
const DefaultSQLitePath = "votes.db"

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	TTUser       string
	TTPassword   string
}

// LoadEnv reads .env style files into the process environment. Variables
// that are already set win. A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("tvorozhniki", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL, SQLite path or Tarantool address")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or tarantool)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		switch cfg.DatabaseType {
		case "postgres", "postgresql", "pg":
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		case "tarantool":
			// ttstore picks its default address
		default:
			cfg.DatabaseURL = DefaultSQLitePath
		}
	}

	// Tarantool credentials stay out of argv
	cfg.TTUser = os.Getenv("TT_USER")
	cfg.TTPassword = os.Getenv("TT_PASSWORD")
	if cfg.DatabaseType == "tarantool" && cfg.TTUser == "" {
		return Config{}, errors.New("TT_USER required for tarantool")
	}

	return cfg, nil
}

// ClientConfig configures the voting client. An empty FlushSchedule means
// the flusher's default.
type ClientConfig struct {
	ServerURL     string
	StateDir      string
	Timeout       time.Duration
	FlushSchedule string

	SMTPHost     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

// LoadClientConfig reads the client settings from the environment.
// Command-line flags are applied on top by the caller.
func LoadClientConfig() (ClientConfig, error) {
	cfg := ClientConfig{
		ServerURL:     os.Getenv("VOTE_SERVER_URL"),
		StateDir:      os.Getenv("VOTE_STATE_DIR"),
		FlushSchedule: os.Getenv("VOTE_FLUSH_SCHEDULE"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		MailFrom:      os.Getenv("MAIL_FROM"),
		Timeout:       remote.DefaultTimeout,
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = remote.DefaultURL
	}

	if s := os.Getenv("VOTE_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return ClientConfig{}, fmt.Errorf("invalid VOTE_TIMEOUT %q", s)
		}
		cfg.Timeout = d
	}

	if cfg.StateDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return ClientConfig{}, fmt.Errorf("no state directory: set VOTE_STATE_DIR: %w", err)
		}
		cfg.StateDir = filepath.Join(dir, "tvorozhniki")
	}

	return cfg, nil
}

// Package config builds the process configuration from the environment.
//
// Values come from, in increasing precedence: an optional .env file, the
// process environment and command-line flag overrides. Parsing is done by
// caarlos0/env against a merged variable map so the process environment is
// never mutated.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Mode selects which entrypoint the configuration is validated for.
type Mode string

const (
	// ModeServe connects to the chat gateway and needs a bot token.
	ModeServe Mode = "serve"
	// ModeConsole runs the operator console over stdio.
	ModeConsole Mode = "console"
)

// JournalFile is the journal's file name inside the data directory.
const JournalFile = "journal.db"

// Config is the full runtime configuration.
type Config struct {
	BotToken        string `env:"BOT_TOKEN"`
	BotName         string `env:"BOT_NAME,required,notEmpty"`
	Sigil           string `env:"BOT_COMMAND_SIGIL" envDefault:"$"`
	Passphrase      string `env:"PASSPHRASE,required,notEmpty"`
	AdminPassphrase string `env:"ADMIN_PASSPHRASE,required,notEmpty"`
	DataPath        string `env:"BOT_DATA_PATH,required,notEmpty"`

	GitHubToken   string `env:"GITHUB_TOKEN,required,notEmpty"`
	GitHubUser    string `env:"GITHUB_USER,required,notEmpty"`
	ClickUpToken  string `env:"CLICKUP_TOKEN,required,notEmpty"`
	ClickUpAPIURL string `env:"CLICKUP_API_URL" envDefault:"https://api.clickup.com/api/v2"`
	GitHubAPIURL  string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	// HTTPTimeout of zero leaves requests bounded only by their context.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"0s"`

	JournalEnabled bool   `env:"JOURNAL_ENABLED" envDefault:"true"`
	JournalPath    string `env:"JOURNAL_PATH"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads dotenvPath when it exists, overlays the process environment
// and then the non-empty overrides, and parses the result.
func Load(dotenvPath string, overrides map[string]string) (*Config, error) {
	environ := map[string]string{}
	if dotenvPath != "" {
		fileVars, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", dotenvPath, err)
		}
		for k, v := range fileVars {
			environ[k] = v
		}
	}
	for k, v := range env.ToMap(os.Environ()) {
		environ[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			environ[k] = v
		}
	}
	return Parse(environ)
}

// Parse builds a Config from an explicit variable map.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = filepath.Join(cfg.DataPath, JournalFile)
	}
	return &cfg, nil
}

// Validate checks the rules env tags cannot express.
func (c *Config) Validate(mode Mode) error {
	var errs []error
	if c.Passphrase == c.AdminPassphrase {
		errs = append(errs, errors.New("PASSPHRASE and ADMIN_PASSPHRASE must differ"))
	}
	if strings.TrimSpace(c.Sigil) == "" {
		errs = append(errs, errors.New("BOT_COMMAND_SIGIL must not be blank"))
	}
	if strings.ContainsAny(c.BotName, " \t\n") {
		errs = append(errs, errors.New("BOT_NAME must be a single word"))
	}
	if mode == ModeServe && c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required to serve"))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must not be negative"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// HTTPClient returns the client shared by both REST collaborators.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.HTTPTimeout}
}

// NewLogger builds the process logger. Callers pass stderr: stdout belongs
// to the console transport.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

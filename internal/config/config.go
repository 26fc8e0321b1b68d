// Package config loads server configuration from defaults, an optional YAML
// file and the environment, in that order of precedence. Command-line flags
// are applied on top by the cmd package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmcleod/marketplace/auth"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverBBolt    = "bbolt"
	DriverPostgres = "postgres"
)

// EnvProduction switches on production defaults such as secure cookies.
const EnvProduction = "production"

// Config is the full server configuration.
type Config struct {
	Port  int         `yaml:"port"`
	Env   string      `yaml:"env"`
	Store StoreConfig `yaml:"store"`
	Auth  AuthConfig  `yaml:"auth"`
	Log   LogConfig   `yaml:"log"`

	portErr error
}

// StoreConfig selects and tunes the catalog backend.
type StoreConfig struct {
	Driver       string        `yaml:"driver"`
	DataDir      string        `yaml:"data_dir"`
	DSN          string        `yaml:"dsn"`
	MaxConns     int32         `yaml:"max_conns"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
	EnsureSchema bool          `yaml:"ensure_schema"`
	Seed         bool          `yaml:"seed"`

	dsn *Secret
}

// AuthConfig configures the request gate.
type AuthConfig struct {
	PublicPaths      []string `yaml:"public_paths"`
	MatchMode        string   `yaml:"match_mode"`
	ExcludedPrefixes []string `yaml:"excluded_prefixes"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port: 3000,
		Env:  "development",
		Store: StoreConfig{
			Driver:       DriverMemory,
			DataDir:      "./data",
			MaxConns:     10,
			QueryTimeout: 5 * time.Second,
			PingTimeout:  5 * time.Second,
			EnsureSchema: true,
		},
		Auth: AuthConfig{
			PublicPaths:      append([]string(nil), auth.DefaultPublicPaths...),
			MatchMode:        auth.MatchPrefix.String(),
			ExcludedPrefixes: append([]string(nil), auth.DefaultExcludedPrefixes...),
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds a Config from defaults, the YAML file at path (if non-empty)
// and the process environment. It does not validate: callers layer their
// own overrides (command-line flags) on top and then call Validate once.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.Seal()
	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays environment variables read through lookup.
//
//	PORT, APP_ENV, DATABASE_URL, MARKETPLACE_STORE, MARKETPLACE_DATA_DIR,
//	MARKETPLACE_LOG_LEVEL
//
// A malformed PORT is reported by Validate unless SetPort replaces it.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			c.portErr = fmt.Errorf("invalid PORT %q: %w", v, err)
		} else {
			c.Port = port
			c.portErr = nil
		}
	}
	if v, ok := lookup("APP_ENV"); ok && v != "" {
		c.Env = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Store.DSN = v
		if _, set := lookup("MARKETPLACE_STORE"); !set {
			c.Store.Driver = DriverPostgres
		}
	}
	if v, ok := lookup("MARKETPLACE_STORE"); ok && v != "" {
		c.Store.Driver = v
	}
	if v, ok := lookup("MARKETPLACE_DATA_DIR"); ok && v != "" {
		c.Store.DataDir = v
	}
	if v, ok := lookup("MARKETPLACE_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
}

// SetPort overrides the listen port, discarding any malformed PORT value
// seen by ApplyEnv.
func (c *Config) SetPort(port int) {
	c.Port = port
	c.portErr = nil
}

// Seal moves a plaintext DSN into an encrypted enclave and clears the
// plaintext field. Calling Seal again with an empty DSN is a no-op.
func (c *Config) Seal() {
	if c.Store.DSN == "" {
		return
	}
	c.Store.dsn = NewSecret(c.Store.DSN)
	c.Store.DSN = ""
}

// SealedDSN returns the sealed database DSN, or nil when none is set.
func (s StoreConfig) SealedDSN() *Secret {
	return s.dsn
}

// SetDSN seals dsn as the database DSN.
func (s *StoreConfig) SetDSN(dsn string) {
	s.dsn = NewSecret(dsn)
	s.DSN = ""
}

// Production reports whether production defaults apply.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.portErr != nil {
		errs = append(errs, c.portErr)
	} else if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverBBolt:
		if c.Store.DataDir == "" {
			errs = append(errs, errors.New("bbolt store requires data_dir"))
		}
	case DriverPostgres:
		if c.Store.dsn == nil && c.Store.DSN == "" {
			errs = append(errs, errors.New("postgres store requires a dsn (DATABASE_URL)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if _, err := auth.ParseMatchMode(c.Auth.MatchMode); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PathClassifier builds the gate's classifier from the auth section.
func (a AuthConfig) PathClassifier() (*auth.PathClassifier, error) {
	mode, err := auth.ParseMatchMode(a.MatchMode)
	if err != nil {
		return nil, err
	}
	return auth.NewPathClassifier(a.PublicPaths, mode), nil
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", l.Level)
	}
	return lvl, nil
}

// NewLogger builds a slog.Logger writing to w. Unknown levels fall back to
// info; format "text" selects the text handler, anything else JSON.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := l.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

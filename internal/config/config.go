// Package config loads the settings shared by kudos-api and kudos-web.
//
// Settings come from three layers, later layers winning:
//
//  1. Default()            → values that work for local development
//  2. an optional YAML file (-config kudos.yaml)
//  3. environment variables (DB_PATH, JWT_SECRET, KUDOS_API_PORT, ...)
//
// Example file:
//
//	log:
//	  level: info
//	  format: json
//	api:
//	  port: 8000
//	  db_path: data/kudos.db
//	  token_ttl: 30m
//	  admin_emails: [lead@apex.example]
//	web:
//	  port: 8080
//	  api_base_url: http://localhost:8000
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	Log LogConfig `yaml:"log"`
	API APIConfig `yaml:"api"`
	Web WebConfig `yaml:"web"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// APIConfig configures the REST backend.
type APIConfig struct {
	Port        int           `yaml:"port"`
	DBPath      string        `yaml:"db_path"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	AdminEmails []string      `yaml:"admin_emails"`

	// SlackSigningSecret enables the /slack/* slash commands when set.
	SlackSigningSecret string `yaml:"slack_signing_secret"`

	// SlackBotToken enables direct messages to praise receivers when set.
	SlackBotToken string `yaml:"slack_bot_token"`
	// SlackAPIURL overrides the Slack Web API base, default https://slack.com/api/.
	SlackAPIURL string `yaml:"slack_api_url"`
}

// WebConfig configures the server-rendered client.
type WebConfig struct {
	Port           int           `yaml:"port"`
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CookieSecure   bool          `yaml:"cookie_secure"`
	FlashTTL       time.Duration `yaml:"flash_ttl"`
}

// Default returns the local development configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		API: APIConfig{
			Port:     8000,
			DBPath:   "data/kudos.db",
			TokenTTL: 30 * time.Minute,
		},
		Web: WebConfig{
			Port:           8080,
			APIBaseURL:     "http://localhost:8000",
			RequestTimeout: 10 * time.Second,
			FlashTTL:       3 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty), and the process environment.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q is not a number", key, v)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q is not a duration", key, v)
		}
		*dst = d
		return nil
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if err := num("KUDOS_API_PORT", &c.API.Port); err != nil {
		return err
	}
	str("DB_PATH", &c.API.DBPath)
	str("JWT_SECRET", &c.API.JWTSecret)
	if err := dur("TOKEN_TTL", &c.API.TokenTTL); err != nil {
		return err
	}
	if v, ok := lookup("ADMIN_EMAILS"); ok && v != "" {
		c.API.AdminEmails = splitList(v)
	}
	str("SLACK_SIGNING_SECRET", &c.API.SlackSigningSecret)
	str("SLACK_BOT_TOKEN", &c.API.SlackBotToken)

	if err := num("KUDOS_WEB_PORT", &c.Web.Port); err != nil {
		return err
	}
	str("API_BASE_URL", &c.Web.APIBaseURL)
	if err := dur("API_TIMEOUT", &c.Web.RequestTimeout); err != nil {
		return err
	}
	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: COOKIE_SECURE=%q is not a boolean", v)
		}
		c.Web.CookieSecure = b
	}
	return nil
}

func (c *Config) validate() error {
	var errs []error

	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		errs = append(errs, fmt.Errorf("web.port %d out of range", c.Web.Port))
	}
	if c.API.DBPath == "" {
		errs = append(errs, errors.New("api.db_path is required"))
	}
	if c.API.JWTSecret != "" && len(c.API.JWTSecret) < 16 {
		errs = append(errs, errors.New("api.jwt_secret must be at least 16 characters"))
	}
	if c.API.TokenTTL <= 0 {
		errs = append(errs, errors.New("api.token_ttl must be positive"))
	}
	if u, err := url.Parse(c.Web.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("web.api_base_url %q is not an absolute URL", c.Web.APIBaseURL))
	}
	if c.Web.FlashTTL <= 0 {
		errs = append(errs, errors.New("web.flash_ttl must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel parses Level into a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// NewLogger builds the process logger described by l.
func (l LogConfig) NewLogger() *slog.Logger {
	lvl, err := l.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

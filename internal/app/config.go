package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/vaughan0/go-ini"

	"securelink/internal/domain"
	"securelink/internal/protocol/freshness"
	"securelink/internal/protocol/handshake"
	"securelink/internal/protocol/kx"
	"securelink/internal/services/identity"
	"securelink/internal/services/messenger"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	// node section
	Home     string // state directory, e.g. ~/.securelink
	RelayURL string // relay base URL, e.g. http://127.0.0.1:8080
	Poll     time.Duration
	KDF      string // identity file KDF: argon2id or scrypt

	// protocol section
	Suite            string        // key-agreement suite
	ClockSkew        time.Duration // accepted timestamp distance
	HandshakeTimeout time.Duration // pending handshake lifetime
	MaxPending       int           // concurrent pending handshakes
	CacheTTL         time.Duration // directory key cache lifetime
	DurableReplay    bool          // persist replay tombstones across restarts

	// log section
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json

	HTTP  *http.Client       // optional; defaults to the relay client's own
	Audit domain.SecurityLog // optional sink receiving events besides the log
}

var errIniNotFound = errors.New("not found")

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Home:             "~/.securelink",
		RelayURL:         "http://127.0.0.1:8080",
		Poll:             messenger.DefaultPollInterval,
		KDF:              "argon2id",
		Suite:            kx.Default,
		ClockSkew:        freshness.DefaultSkew,
		HandshakeTimeout: handshake.DefaultTimeout,
		MaxPending:       handshake.DefaultMaxPending,
		CacheTTL:         identity.DefaultCacheTTL,
		DurableReplay:    false,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads settings from an ini file. A missing file leaves the defaults in
// place.
func (c *Config) Load(filename string) error {
	path, err := homedir.Expand(filename)
	if err != nil {
		return err
	}
	cfg, err := ini.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	if v, ok := cfg.Get("node", "home"); ok {
		c.Home = v
	}
	if v, ok := cfg.Get("node", "relay"); ok {
		c.RelayURL = v
	}

	if v, ok := cfg.Get("node", "identity_kdf"); ok {
		c.KDF = v
	}
	if err := iniDuration(cfg, &c.Poll, "node", "poll_interval"); err != nil && err != errIniNotFound {
		return err
	}

	if v, ok := cfg.Get("protocol", "suite"); ok {
		if _, err := kx.Lookup(v); err != nil {
			return fmt.Errorf("[protocol]suite: %w", err)
		}
		c.Suite = v
	}
	for _, d := range []struct {
		key string
		p   *time.Duration
	}{
		{"clock_skew", &c.ClockSkew},
		{"handshake_timeout", &c.HandshakeTimeout},
		{"directory_cache_ttl", &c.CacheTTL},
	} {
		if err := iniDuration(cfg, d.p, "protocol", d.key); err != nil && err != errIniNotFound {
			return err
		}
	}
	if v, ok := cfg.Get("protocol", "max_pending"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("[protocol]max_pending must be a positive integer")
		}
		c.MaxPending = n
	}
	err = iniBool(cfg, &c.DurableReplay, "protocol", "durable_replay")
	if err != nil && err != errIniNotFound {
		return err
	}

	if v, ok := cfg.Get("log", "level"); ok {
		c.LogLevel = v
	}
	if v, ok := cfg.Get("log", "format"); ok {
		c.LogFormat = v
	}
	return nil
}

// LoadEnv applies SECURELINK_* variables, reading a .env file first if one
// exists at dotenv.
func (c *Config) LoadEnv(dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	if v := os.Getenv("SECURELINK_HOME"); v != "" {
		c.Home = v
	}
	if v := os.Getenv("SECURELINK_RELAY"); v != "" {
		c.RelayURL = v
	}
	if v := os.Getenv("SECURELINK_SUITE"); v != "" {
		c.Suite = v
	}
	if v := os.Getenv("SECURELINK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Expand resolves ~ in path settings.
func (c *Config) Expand() error {
	home, err := homedir.Expand(c.Home)
	if err != nil {
		return err
	}
	c.Home = home
	return nil
}

// Logger builds the process logger described by the log section.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("[log]level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("[log]format must be text or json")
	}
}

func iniBool(cfg ini.File, p *bool, section, key string) error {
	v, ok := cfg.Get(section, key)
	if ok {
		switch strings.ToLower(v) {
		case "yes":
			*p = true
			return nil
		case "no":
			*p = false
			return nil
		default:
			return fmt.Errorf("[%v]%v must be yes or no", section, key)
		}
	}
	return errIniNotFound
}

func iniDuration(cfg ini.File, p *time.Duration, section, key string) error {
	v, ok := cfg.Get(section, key)
	if !ok {
		return errIniNotFound
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("[%v]%v must be a positive duration", section, key)
	}
	*p = d
	return nil
}

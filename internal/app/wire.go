package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"securelink/internal/audit"
	"securelink/internal/crypto"
	"securelink/internal/domain"
	"securelink/internal/metrics"
	"securelink/internal/protocol/freshness"
	"securelink/internal/protocol/handshake"
	"securelink/internal/relay"
	"securelink/internal/services/identity"
	"securelink/internal/services/messenger"
	"securelink/internal/sessiontable"
	"securelink/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Config   Config
	Log      *slog.Logger
	Identity *store.IdentityFileStore
	IDs      *identity.Service
	Relay    *relay.HTTP
	Audit    domain.SecurityLog
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, log *slog.Logger) (*Wire, error) {
	if log == nil {
		log = slog.Default()
	}
	identityStore := store.NewIdentityFileStore(cfg.Home)
	if cfg.KDF != "" {
		if err := identityStore.SetKDF(cfg.KDF); err != nil {
			return nil, fmt.Errorf("[node]identity_kdf: %w", err)
		}
	}

	rc := relay.NewHTTP(cfg.RelayURL)
	if cfg.HTTP != nil {
		rc.HTTP = cfg.HTTP
	}

	var sink domain.SecurityLog = audit.NewSlogSink(log)
	if cfg.Audit != nil {
		sink = audit.Multi{sink, cfg.Audit}
	}
	reg := prometheus.NewRegistry()
	return &Wire{
		Config:   cfg,
		Log:      log,
		Identity: identityStore,
		IDs:      identity.New(identityStore),
		Relay:    rc,
		Audit:    sink,
		Registry: reg,
		Metrics:  metrics.New(reg),
	}, nil
}

// Node unlocks the local identity and assembles a node around it.
func (w *Wire) Node(passphrase string, deliver func(domain.DecryptedMessage)) (*Node, error) {
	id, err := w.IDs.LoadIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}

	guardCfg := freshness.Config{Skew: w.Config.ClockSkew}
	if w.Config.DurableReplay {
		guardCfg.Store = store.NewReplayFileStore(w.Config.Home)
	}
	guard, err := freshness.New(guardCfg)
	if err != nil {
		return nil, err
	}

	keys := identity.NewKeyStore(id, w.Relay, w.Config.CacheTTL)
	m, err := handshake.New(handshake.Config{
		Keys:       keys,
		Table:      sessiontable.New(),
		Guard:      guard,
		Suite:      w.Config.Suite,
		Timeout:    w.Config.HandshakeTimeout,
		MaxPending: w.Config.MaxPending,
		Audit:      w.Audit,
		Metrics:    w.Metrics,
		Logger:     w.Log,
	})
	if err != nil {
		return nil, err
	}
	svc, err := messenger.New(messenger.Config{
		Machine:      m,
		Relay:        w.Relay,
		Logger:       w.Log,
		Deliver:      deliver,
		PollInterval: w.Config.Poll,
	})
	if err != nil {
		return nil, err
	}
	return &Node{Identity: id, Keys: keys, Machine: m, Messenger: svc}, nil
}

// Register publishes the local identity key to the relay directory.
func (w *Wire) Register(ctx context.Context, passphrase string) (domain.Username, error) {
	id, err := w.IDs.LoadIdentity(passphrase)
	if err != nil {
		return "", fmt.Errorf("load identity: %w", err)
	}
	if err := w.Relay.PublishPublicKey(ctx, id.UserID, crypto.B64(id.EdPub.Slice())); err != nil {
		return "", fmt.Errorf("publish key: %w", err)
	}
	return id.UserID, nil
}

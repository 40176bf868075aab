package messenger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"securelink/internal/domain"
	"securelink/internal/protocol/handshake"
)

const (
	// DefaultPollInterval is how often Run fetches frames.
	DefaultPollInterval = time.Second

	// DefaultBatch is how many frames one Poll fetches when no limit is given.
	DefaultBatch = 64
)

// Config wires a Service. Machine and Relay are required.
type Config struct {
	Machine      *handshake.Machine
	Relay        domain.Transport
	Logger       *slog.Logger
	PollInterval time.Duration

	// Deliver, when set, receives each decrypted message as Poll produces it.
	Deliver func(domain.DecryptedMessage)

	// NewSessionID returns a fresh session id. Defaults to 16 random bytes, hex.
	NewSessionID func() (domain.SessionID, error)
}

// Service drives one local node.
type Service struct {
	local   domain.Username
	machine *handshake.Machine
	relay   domain.Transport
	log     *slog.Logger
	every   time.Duration
	deliver func(domain.DecryptedMessage)
	newID   func() (domain.SessionID, error)

	// pollMu serialises Poll so a fetch and its ack cover the same frames.
	pollMu sync.Mutex
}

// New returns a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Machine == nil || cfg.Relay == nil {
		return nil, errors.New("messenger: machine and relay are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.NewSessionID == nil {
		cfg.NewSessionID = randomSessionID
	}
	return &Service{
		local:   cfg.Machine.Local(),
		machine: cfg.Machine,
		relay:   cfg.Relay,
		log:     cfg.Logger,
		every:   cfg.PollInterval,
		deliver: cfg.Deliver,
		newID:   cfg.NewSessionID,
	}, nil
}

func randomSessionID() (domain.SessionID, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return domain.SessionID(hex.EncodeToString(b)), nil
}

// Connect opens a session with peer by sending KX_INIT. The session is
// established once the peer's KX_RESPONSE is processed by Poll.
func (s *Service) Connect(ctx context.Context, peer domain.Username) (domain.SessionID, error) {
	id, err := s.newID()
	if err != nil {
		return "", err
	}
	f, err := s.machine.Start(ctx, id, peer)
	if err != nil {
		return "", err
	}
	if err := s.relay.SendFrame(ctx, f); err != nil {
		_ = s.machine.Close(ctx, id)
		return "", fmt.Errorf("send KX_INIT: %w", err)
	}
	s.log.Info("connecting", "peer", string(peer), "session_id", string(id))
	return id, nil
}

// SendMessage encrypts text on an established session and posts it.
func (s *Service) SendMessage(ctx context.Context, id domain.SessionID, text string) error {
	f, err := s.machine.Encrypt(ctx, id, text)
	if err != nil {
		return err
	}
	if err := s.relay.SendFrame(ctx, f); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Poll fetches up to limit frames, applies each one, sends any handshake
// replies, and acknowledges everything fetched. It returns the messages that
// were decrypted. Rejected frames are logged and dropped.
func (s *Service) Poll(ctx context.Context, limit int) ([]domain.DecryptedMessage, error) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if limit <= 0 {
		limit = DefaultBatch
	}
	frames, err := s.relay.FetchFrames(ctx, s.local, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, nil
	}

	var (
		msgs    []domain.DecryptedMessage
		sendErr error
	)
	for _, f := range frames {
		res, err := s.machine.Handle(ctx, f)
		if err != nil {
			s.log.Debug("frame dropped", "kind", string(f.Kind), "from", string(f.From), "err", err)
			continue
		}
		if res.Reply != nil {
			if err := s.relay.SendFrame(ctx, *res.Reply); err != nil {
				sendErr = errors.Join(sendErr, fmt.Errorf("send %s: %w", res.Reply.Kind, err))
			}
		}
		if res.Message != nil {
			msgs = append(msgs, *res.Message)
			if s.deliver != nil {
				s.deliver(*res.Message)
			}
		}
	}
	if err := s.relay.AckFrames(ctx, s.local, len(frames)); err != nil {
		return msgs, errors.Join(sendErr, fmt.Errorf("ack frames: %w", err))
	}
	return msgs, sendErr
}

// Close aborts the session and zeroes its keys.
func (s *Service) Close(id domain.SessionID) error {
	return s.machine.Close(context.Background(), id)
}

// Established reports whether id names an established session.
func (s *Service) Established(id domain.SessionID) bool {
	info, ok := s.machine.Table().Get(id)
	return ok && info.State == domain.StateEstablished
}

// WaitEstablished polls until id is established, the session disappears, or
// ctx is done.
func (s *Service) WaitEstablished(ctx context.Context, id domain.SessionID) error {
	t := time.NewTicker(s.every)
	defer t.Stop()
	for {
		if _, err := s.Poll(ctx, 0); err != nil {
			s.log.Warn("poll failed", "err", err)
		}
		if s.Established(id) {
			return nil
		}
		if _, ok := s.machine.Table().Get(id); !ok {
			return fmt.Errorf("session %s: %w", id, domain.ErrUnknownSession)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Run polls the relay and sweeps expired handshakes until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.NewTicker(s.every)
		defer t.Stop()
		for {
			if _, err := s.Poll(ctx, 0); err != nil && ctx.Err() == nil {
				s.log.Warn("poll failed", "err", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
			}
		}
	})
	g.Go(func() error {
		t := time.NewTicker(s.machine.Timeout() / 4)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				if n := s.machine.Sweep(ctx); n > 0 {
					s.log.Info("expired pending handshakes", "count", n)
				}
			}
		}
	})
	return g.Wait()
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)

package channel

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"securelink/internal/domain"
)

const adLabel = "SPSEK-AD"

// Header carries the envelope metadata bound into the associated data.
type Header struct {
	From      domain.Username
	To        domain.Username
	SessionID domain.SessionID
	Sequence  uint64
	Timestamp string
}

func (h Header) associatedData() []byte {
	return []byte(strings.Join([]string{
		adLabel,
		string(h.SessionID),
		string(h.From),
		string(h.To),
		strconv.FormatUint(h.Sequence, 10),
		h.Timestamp,
	}, "|"))
}

// Seal encrypts plaintext under key and returns the envelope.
func Seal(key []byte, h Header, plaintext []byte) (domain.SecureEnvelope, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return domain.SecureEnvelope{}, err
	}
	iv := make([]byte, aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return domain.SecureEnvelope{}, err
	}
	ct := aead.Seal(nil, iv, plaintext, h.associatedData())
	return domain.SecureEnvelope{
		From:       h.From,
		To:         h.To,
		SessionID:  h.SessionID,
		IV:         iv,
		Ciphertext: ct,
		Sequence:   h.Sequence,
		Timestamp:  h.Timestamp,
	}, nil
}

// Open authenticates and decrypts env under key. Every failure is reported as
// domain.ErrDecryption.
func Open(key []byte, env domain.SecureEnvelope) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	if len(env.IV) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: iv length %d", domain.ErrDecryption, len(env.IV))
	}
	if len(env.Ciphertext) < aead.Overhead() {
		return nil, fmt.Errorf("%w: short ciphertext", domain.ErrDecryption)
	}
	pt, err := aead.Open(nil, env.IV, env.Ciphertext, HeaderOf(env).associatedData())
	if err != nil {
		return nil, domain.ErrDecryption
	}
	return pt, nil
}

// HeaderOf returns the metadata of env.
func HeaderOf(env domain.SecureEnvelope) Header {
	return Header{
		From:      env.From,
		To:        env.To,
		SessionID: env.SessionID,
		Sequence:  env.Sequence,
		Timestamp: env.Timestamp,
	}
}

package canon

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"securelink/internal/domain"
)

const separator = "|"

// ErrAmbiguousField is returned when a field value contains the separator.
var ErrAmbiguousField = errors.New("canon: field contains separator")

// Encode returns the canonical bytes of a handshake body.
func Encode(b domain.HandshakeBody) ([]byte, error) {
	fields := [...]struct {
		name  string
		value string
	}{
		{"type", string(b.Type)},
		{"from", string(b.From)},
		{"to", string(b.To)},
		{"sessionId", string(b.SessionID)},
		{"ephemeralPubA", b.EphemeralPubA},
		{"ephemeralPubB", b.EphemeralPubB},
		{"nonceA", b.NonceA},
		{"nonceB", b.NonceB},
		{"seq", strconv.Itoa(b.Seq)},
		{"ts", b.Timestamp},
	}

	var sb strings.Builder
	for i, f := range fields {
		if strings.Contains(f.value, separator) {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousField, f.name)
		}
		if i > 0 {
			sb.WriteString(separator)
		}
		sb.WriteString(f.value)
	}
	return []byte(sb.String()), nil
}

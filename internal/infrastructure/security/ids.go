package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

const signingSecretBytes = 32

// NewRequestID returns a fresh ULID for tagging one HTTP request.
func NewRequestID() string {
	return ulid.Make().String()
}

// NewRunID returns a ULID stamped with the run time, so run IDs sort the same
// way as the run log.
func NewRunID(ranAt time.Time) string {
	return ulid.MustNew(ulid.Timestamp(ranAt), ulid.DefaultEntropy()).String()
}

// NewSigningSecret returns a random hex secret for HS256 tokens when none is
// configured.
func NewSigningSecret() (string, error) {
	buf := make([]byte, signingSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

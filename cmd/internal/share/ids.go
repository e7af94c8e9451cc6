package share

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewShareID returns a ULID used as the id of an installed share record.
// ULIDs are lexicographically sortable, which keeps log lines easy to correlate.
func NewShareID(now time.Time) string {
	return newULID(now)
}

// NewSessionID returns a ULID used as websocket session id.
// Session ids are always server-generated; client-supplied identity never
// becomes a registry key.
func NewSessionID(now time.Time) string {
	return newULID(now)
}

// NewEnvelopeID returns a ULID used as wire envelope id.
func NewEnvelopeID(now time.Time) string {
	return newULID(now)
}

func newULID(now time.Time) string {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		// ulid.New only fails when the entropy source fails; fall back to
		// monotonic-free randomness so ids stay unique.
		return ulid.Make().String()
	}
	return id.String()
}

// NewRandomHex returns a cryptographically secure random hex string of length 2*nBytes.
// If nBytes <= 0, it defaults to 16 bytes (32 hex chars).
func NewRandomHex(nBytes int) string {
	if nBytes <= 0 {
		nBytes = 16
	}

	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		// In the extremely rare case rand fails, return an empty string.
		// Callers should treat empty as an error-like condition in logs/tests.
		return ""
	}

	return hex.EncodeToString(b)
}

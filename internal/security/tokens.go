package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes (256 bits) keeps tokens unguessable; collisions are negligible,
// so a freshly minted token never aliases a live session.
const sessionTokenBytes = 32

// NewSessionToken mints an opaque session token from crypto/rand, hex encoded.
// Tokens carry no claims; the session authority maps them to sessions and
// revokes them by deleting the mapping.
func NewSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

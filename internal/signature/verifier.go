// Package signature authenticates inbound gateway notifications.
//
// The gateway signs every notification as hex(SHA1(unique_id ++ secret)), no
// delimiter. SHA-1 is the gateway's scheme, not ours to choose; the verifier's
// job is to apply it with a constant-time comparison.
package signature

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Verifier checks notification signatures against a shared secret.
// The secret is injected at construction and read-only afterwards, so a single
// Verifier is safe for concurrent use.
type Verifier struct {
	secret string
}

// NewVerifier creates a verifier bound to the gateway shared secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify reports whether the claimed signature matches the expected signature
// for the given unique_id. An absent unique_id, signature, or secret is an
// automatic rejection, never an error.
func (v *Verifier) Verify(uniqueID, claimed string) bool {
	if uniqueID == "" || claimed == "" || v.secret == "" {
		return false
	}

	sum := sha1.Sum([]byte(uniqueID + v.secret))
	expected := hex.EncodeToString(sum[:])

	// Hex case is not part of the signature; the byte comparison is.
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(claimed))) == 1
}

// Sign computes the signature the gateway would produce for a unique_id.
// Exported for tests and for the batch replay path, which re-signs archived
// reports before feeding them through the dispatcher.
func (v *Verifier) Sign(uniqueID string) string {
	sum := sha1.Sum([]byte(uniqueID + v.secret))
	return hex.EncodeToString(sum[:])
}

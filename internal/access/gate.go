// Package access gates privileged operations behind the shared PIN.
package access

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Gate compares supplied PINs against the configured secret. The comparison
// runs in constant time over fixed-length digests, so neither matching
// prefix length nor PIN length is observable from timing.
type Gate struct {
	digest [sha256.Size]byte
}

// NewGate creates a gate for the configured shared PIN.
func NewGate(pin string) *Gate {
	return &Gate{digest: sha256.Sum256([]byte(pin))}
}

// Check reports whether the supplied PIN matches the configured secret.
// Denied attempts mutate no state; retry limits are the caller's concern.
func (g *Gate) Check(supplied string) bool {
	suppliedDigest := sha256.Sum256([]byte(supplied))
	return subtle.ConstantTimeCompare(g.digest[:], suppliedDigest[:]) == 1
}

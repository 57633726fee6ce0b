package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// fingerprintLen is the number of hex characters kept from the body digest
const fingerprintLen = 16

// Fingerprint returns a fixed-length digest of a message body, used to
// detect content changes under a stable message identity.
func Fingerprint(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// CacheKey derives the summary cache key for a message. Identical
// (provider, messageID, body) triples always map to the same key; editing
// the body orphans the old entry under a new key.
func CacheKey(provider Provider, messageID, body string) string {
	return fmt.Sprintf("%s:%s:%s", provider, messageID, Fingerprint(body))
}

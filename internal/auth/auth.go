// Package auth implements the gateway's credential store: the fixed set of
// API keys accepted from callers, loaded once at startup.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/voicehooks/gateway/internal/domain"
)

// Keystore holds the accepted gateway API keys as SHA-256 hex hashes. It is
// immutable after construction and safe for concurrent use.
type Keystore struct {
	hashes map[string]string // keyhash -> keyhash (for constant-time verify)
}

// NewKeystore builds a keystore from configured keys. Each entry may be either
// a 64-character SHA-256 hex hash (the cmd/keygen output) or a plaintext key,
// which is hashed on load. Empty entries are ignored.
func NewKeystore(keys []string) *Keystore {
	ks := &Keystore{
		hashes: make(map[string]string, len(keys)),
	}

	for _, key := range keys {
		if key == "" {
			continue
		}
		h := key
		if !isHexHash(key) {
			h = HashKey(key)
		}
		ks.hashes[h] = h
	}

	return ks
}

// Len returns the number of configured keys.
func (ks *Keystore) Len() int {
	return len(ks.hashes)
}

// Validate checks a presented API key against the store. A missing, empty, or
// unrecognized key all fail identically with an unauthorized error.
func (ks *Keystore) Validate(apiKey string) error {
	if apiKey == "" {
		return domain.ErrUnauthorized("invalid API key")
	}

	presented := HashKey(apiKey)

	stored, ok := ks.hashes[presented]
	if !ok {
		return domain.ErrUnauthorized("invalid API key")
	}

	// Constant-time comparison to prevent timing attacks
	if subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) != 1 {
		return domain.ErrUnauthorized("invalid API key")
	}

	return nil
}

// HashKey creates a SHA-256 hex hash of an API key for storage in config.
func HashKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

func isHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

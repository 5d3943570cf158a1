package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonSaltLen = 16
	argonKeyLen  = 32
)

// PasswordHasher hashes passwords with argon2id.  Build one at startup and
// share it; it holds no mutable state.
type PasswordHasher struct {
	memory      uint32 // KiB
	iterations  uint32
	parallelism uint8
	dummy       string
}

// NewPasswordHasher returns a hasher using the given cost parameters.
func NewPasswordHasher(memory, iterations uint32, parallelism uint8) (*PasswordHasher, error) {
	h := &PasswordHasher{memory: memory, iterations: iterations, parallelism: parallelism}
	dummy, err := h.Hash("timing-equaliser")
	if err != nil {
		return nil, err
	}
	h.dummy = dummy
	return h, nil
}

// Hash returns an encoded digest in the PHC string format:
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
// A fresh random salt is drawn for every call.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(plain), salt, h.iterations, h.memory, h.parallelism, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.iterations, h.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify reports whether plain matches digest.  Malformed digests yield false.
func (h *PasswordHasher) Verify(plain, digest string) bool {
	p, ok := decodeDigest(digest)
	if !ok {
		return false
	}
	got := argon2.IDKey([]byte(plain), p.salt, p.iterations, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(got, p.key) == 1
}

// VerifyDummy burns one verification against an internal digest and always
// returns false.  Login calls it for unknown usernames.
func (h *PasswordHasher) VerifyDummy(plain string) bool {
	_ = h.Verify(plain, h.dummy)
	return false
}

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func decodeDigest(digest string) (argonParams, bool) {
	var p argonParams
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, false
	}
	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &threads); err != nil {
		return p, false
	}
	// argon2 panics on zero parameters; an oversized memory cost would let a
	// corrupted row stall the process.
	if p.memory == 0 || p.memory > 4*1024*1024 || p.iterations == 0 || p.iterations > 64 || threads == 0 || threads > 255 {
		return p, false
	}
	p.parallelism = uint8(threads)
	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return p, false
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return p, false
	}
	return p, true
}

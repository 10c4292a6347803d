// Package credential turns plaintext secrets into stored representations and
// checks secrets against them. Callers depend on the Verifier interface so the
// hashing algorithm can be swapped without touching the stores or the guard.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Verifier hashes and verifies secrets.
type Verifier interface {
	// Hash returns the one-way representation of secret.
	Hash(secret string) (string, error)
	// Verify reports whether secret matches representation.
	Verify(secret, representation string) bool
}

// ErrUnknownHasher is returned by New for an unsupported algorithm name.
var ErrUnknownHasher = errors.New("unknown password hasher")

// New returns the Verifier registered under name ("bcrypt" or "argon2id").
func New(name string) (Verifier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bcrypt":
		return NewBcrypt(bcrypt.DefaultCost), nil
	case "argon2id", "argon2":
		return NewArgon2ID(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
	}
}

// Bcrypt implements Verifier with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt Verifier. Out-of-range costs fall back to the
// library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(h), nil
}

func (b *Bcrypt) Verify(secret, representation string) bool {
	return bcrypt.CompareHashAndPassword([]byte(representation), []byte(secret)) == nil
}

// Argon2ID implements Verifier with argon2id and a PHC-style encoding:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2ID struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// NewArgon2ID returns an Argon2ID with the parameters used for master keys
// elsewhere in the ecosystem (t=1, 64 MiB, 4 lanes, 32-byte key).
func NewArgon2ID() *Argon2ID {
	return &Argon2ID{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

func (a *Argon2ID) Hash(secret string) (string, error) {
	salt := make([]byte, a.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2id salt: %w", err)
	}
	key := argon2.IDKey([]byte(secret), salt, a.Time, a.Memory, a.Threads, a.KeyLen)
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.Memory, a.Time, a.Threads, enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

func (a *Argon2ID) Verify(secret, representation string) bool {
	parts := strings.Split(representation, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := enc.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}
	got := argon2.IDKey([]byte(secret), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

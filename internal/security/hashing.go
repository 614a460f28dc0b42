package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidHash is returned when a stored hash is not a well-formed argon2id string.
	ErrInvalidHash = errors.New("invalid password hash")
	// ErrPasswordMismatch is returned when the password does not match the stored hash.
	ErrPasswordMismatch = errors.New("password does not match")
)

const (
	saltLength = 16
	keyLength  = 32
)

// Hasher hashes and verifies passwords using argon2id. Callers must not log or
// persist plaintext passwords. Salts are generated internally and embedded in
// the encoded output, so the same password hashes differently on every call.
type Hasher struct {
	MemoryKiB uint32
	Time      uint32
	Threads   uint8
}

// NewHasher returns a Hasher with the given argon2id cost parameters.
// Zero values fall back to 64 MiB memory, 1 iteration, 4 threads.
func NewHasher(memoryKiB, time uint32, threads uint8) *Hasher {
	if memoryKiB == 0 {
		memoryKiB = 64 * 1024
	}
	if time == 0 {
		time = 1
	}
	if threads == 0 {
		threads = 4
	}
	return &Hasher{MemoryKiB: memoryKiB, Time: time, Threads: threads}
}

// Hash produces an argon2id hash of password, encoded in the standard
// $argon2id$v=19$m=...,t=...,p=...$salt$hash form suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey(password, salt, h.Time, h.MemoryKiB, h.Threads, keyLength)
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.MemoryKiB, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
	return encoded, nil
}

// Compare verifies password against the stored encoded hash using a
// constant-time comparison. Returns nil on match, ErrPasswordMismatch on
// mismatch, and ErrInvalidHash for malformed stored hashes. It never panics:
// a corrupt stored hash fails closed rather than crossing into caller logic.
func (h *Hasher) Compare(encoded string, password []byte) error {
	memory, time, threads, salt, key, err := decodeHash(encoded)
	if err != nil {
		return err
	}
	computed := argon2.IDKey(password, salt, time, memory, threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(key, computed) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

func decodeHash(encoded string) (memory, time uint32, threads uint8, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	var p uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &p); err != nil {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	if memory == 0 || time == 0 || p == 0 || p > 255 {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	salt, err = base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	key, err = base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	return memory, time, uint8(p), salt, key, nil
}

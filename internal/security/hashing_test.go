package security

import (
	"errors"
	"strings"
	"testing"
)

// Small parameters keep the test fast; production values come from config.
func testHasher() *Hasher {
	return NewHasher(8*1024, 1, 1)
}

func TestHashAndCompare(t *testing.T) {
	h := testHasher()
	encoded, err := h.Hash([]byte("Abc123!@"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Errorf("encoded hash = %q, want argon2id prefix", encoded)
	}
	if err := h.Compare(encoded, []byte("Abc123!@")); err != nil {
		t.Errorf("Compare with correct password: %v", err)
	}
	if err := h.Compare(encoded, []byte("wrong-password")); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Compare with wrong password = %v, want ErrPasswordMismatch", err)
	}
}

func TestHashIsSalted(t *testing.T) {
	h := testHasher()
	a, err := h.Hash([]byte("same-password"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash([]byte("same-password"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
	if err := h.Compare(a, []byte("same-password")); err != nil {
		t.Errorf("Compare(a): %v", err)
	}
	if err := h.Compare(b, []byte("same-password")); err != nil {
		t.Errorf("Compare(b): %v", err)
	}
}

func TestCompareUsesStoredParameters(t *testing.T) {
	// A hash produced with one parameter set must verify under a Hasher
	// configured differently: parameters are read from the encoded form.
	encoded, err := NewHasher(8*1024, 2, 1).Hash([]byte("pw"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := NewHasher(16*1024, 1, 2).Compare(encoded, []byte("pw")); err != nil {
		t.Errorf("Compare across parameter sets: %v", err)
	}
}

func TestCompareMalformedHashFailsClosed(t *testing.T) {
	h := testHasher()
	malformed := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=8192,t=1,p=1$short",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$!!!",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	}
	for _, m := range malformed {
		if err := h.Compare(m, []byte("pw")); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("Compare(%q) = %v, want ErrInvalidHash", m, err)
		}
	}
}

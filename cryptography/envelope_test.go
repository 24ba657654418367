package cryptography

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	plaintext := make([]byte, 4096)
	rand.Read(plaintext)
	password := []byte("correct horse battery staple")

	sealed, err := Seal(plaintext, password)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if len(sealed) != len(plaintext)+EnvelopeOverhead {
		t.Fatalf("unexpected envelope size: got %d want %d", len(sealed), len(plaintext)+EnvelopeOverhead)
	}

	got, ok, err := Open(sealed, password)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !ok {
		t.Fatalf("expected successful open")
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch")
	}
}

func TestEnvelopeWrongPasswordFails(t *testing.T) {
	plaintext := []byte("hello world")
	sealed, err := Seal(plaintext, []byte("correct password"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	_, ok, err := Open(sealed, []byte("wrong password"))
	if err != nil {
		t.Fatalf("open returned error instead of auth failure: %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to fail authentication")
	}
}

func TestEnvelopeBitFlipFails(t *testing.T) {
	plaintext := []byte("hello world, this is a reasonably long test payload")
	password := []byte("passw0rd")
	sealed, err := Seal(plaintext, password)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	sealed[len(sealed)-1] ^= 0x01 // flip a bit in the ciphertext tail

	_, ok, err := Open(sealed, password)
	if err != nil {
		t.Fatalf("open returned error instead of auth failure: %v", err)
	}
	if ok {
		t.Fatalf("expected tampered envelope to fail authentication")
	}
}

func TestEnvelopeNonceFieldReservedBytesZero(t *testing.T) {
	sealed, err := Seal([]byte("x"), []byte("pw"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	nonceField := sealed[EnvelopeSaltSize : EnvelopeSaltSize+EnvelopeNonceFieldSize]
	for i := EnvelopeGCMNonceSize; i < EnvelopeNonceFieldSize; i++ {
		if nonceField[i] != 0 {
			t.Fatalf("reserved nonce field byte %d not zero", i)
		}
	}
}

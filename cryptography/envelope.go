package cryptography

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// EnvelopeSaltSize is the size of the random PBKDF2 salt.
	EnvelopeSaltSize = 16
	// EnvelopeNonceFieldSize is the size of the on-wire nonce field: a
	// 12-byte AES-GCM nonce followed by 4 reserved zero bytes.
	EnvelopeNonceFieldSize = 16
	// EnvelopeGCMNonceSize is the number of bytes of the nonce field
	// actually used as the AES-GCM nonce.
	EnvelopeGCMNonceSize = 12
	// EnvelopeTagSize is the size of the GCM authentication tag.
	EnvelopeTagSize = 16

	pbkdf2Iterations = 100000
)

// EnvelopeOverhead is the number of bytes the envelope adds beyond the
// plaintext: salt + nonce field + tag.
const EnvelopeOverhead = EnvelopeSaltSize + EnvelopeNonceFieldSize + EnvelopeTagSize

// Seal derives a key from password via PBKDF2-HMAC-SHA256 (100000
// iterations) and encrypts plaintext with AES-256-GCM under an empty
// AAD, producing salt || nonce_field || tag || ciphertext.
func Seal(plaintext, password []byte) ([]byte, error) {
	salt := make([]byte, EnvelopeSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	nonce := make([]byte, EnvelopeGCMNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	key := pbkdf2.Key(password, salt, pbkdf2Iterations, SymKeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ciphertext := sealed[:len(sealed)-EnvelopeTagSize]
	tag := sealed[len(sealed)-EnvelopeTagSize:]

	nonceField := make([]byte, EnvelopeNonceFieldSize)
	copy(nonceField, nonce) // trailing 4 bytes stay zero, reserved

	out := make([]byte, 0, len(salt)+len(nonceField)+len(tag)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonceField...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return out, nil
}

// Open reverses Seal. It returns ErrAuthFailure-compatible errors via
// the caller's own wrapping; Open itself only reports whether the tag
// matched.
func Open(envelope, password []byte) (plaintext []byte, ok bool, err error) {
	if len(envelope) < EnvelopeOverhead {
		return nil, false, nil
	}
	salt := envelope[:EnvelopeSaltSize]
	nonceField := envelope[EnvelopeSaltSize : EnvelopeSaltSize+EnvelopeNonceFieldSize]
	tag := envelope[EnvelopeSaltSize+EnvelopeNonceFieldSize : EnvelopeSaltSize+EnvelopeNonceFieldSize+EnvelopeTagSize]
	ciphertext := envelope[EnvelopeSaltSize+EnvelopeNonceFieldSize+EnvelopeTagSize:]
	nonce := nonceField[:EnvelopeGCMNonceSize]

	key := pbkdf2.Key(password, salt, pbkdf2Iterations, SymKeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, false, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, false, err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	pt, openErr := gcm.Open(nil, nonce, sealed, nil)
	if openErr != nil {
		return nil, false, nil
	}
	return pt, true, nil
}

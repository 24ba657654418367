// Package cryptography groups two layers: the ambient helpers used to
// protect configuration files and the job-history log (chacha20poly1305,
// argon2, HMAC-SHA512), and the fixed AEAD envelope (envelope.go) that
// the pipeline applies once to a whole file before chunking it. The two
// layers intentionally use different algorithms: the envelope's wire
// format is fixed and externally verifiable, while the ambient helpers
// are free to evolve.
package cryptography

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SymKeySize is the size in bytes of every symmetric key this package
// produces or consumes.
const SymKeySize = 32

// Encrypt authenticates and encrypts data under key using
// chacha20poly1305 with a random nonce prepended to the ciphertext.
// This is the ambient encryption used for configuration and log files,
// not the fixed envelope format applied to stored payloads.
func Encrypt(data, key []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(key) != SymKeySize {
		return nil, fmt.Errorf("cryptography: invalid key size")
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, data, nil)
	return append(nonce, ct...), nil
}

// Decrypt reverses Encrypt.
func Decrypt(data, key []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(key) != SymKeySize {
		return nil, fmt.Errorf("cryptography: invalid key size")
	}
	if len(data) < chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("cryptography: ciphertext too short")
	}
	nonce := data[:chacha20poly1305.NonceSize]
	ct := data[chacha20poly1305.NonceSize:]
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ct, nil)
}

// GenRandom returns size cryptographically random bytes.
func GenRandom(size uint) ([]byte, error) {
	if size == 0 {
		return nil, fmt.Errorf("cryptography: invalid size")
	}
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Hash returns the hex-encoded SHA-512 of data.
func Hash(data []byte) string {
	if data == nil {
		return ""
	}
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// VerifyHash reports whether hash is the SHA-512 of data.
func VerifyHash(data []byte, hash string) bool {
	if data == nil && hash == "" {
		return true
	}
	if data == nil || hash == "" {
		return false
	}
	return hash == Hash(data)
}

// HMACBytes computes HMAC-SHA512 of data under skey.
func HMACBytes(data, skey []byte) []byte {
	if len(data) == 0 || len(skey) != SymKeySize {
		return nil
	}
	mac := hmac.New(sha512.New, skey)
	mac.Write(data)
	return mac.Sum(nil)
}

// VerifyHMACBytes reports whether expected matches the HMAC-SHA512 of
// data under skey.
func VerifyHMACBytes(data, skey, expected []byte) bool {
	if len(data) == 0 || len(skey) != SymKeySize || len(expected) == 0 {
		return false
	}
	return hmac.Equal(expected, HMACBytes(data, skey))
}

// SplitWithSalt parses a "<base64-salt>:<password>" string, the
// format the local configuration and log files store a derivable
// password under.
func SplitWithSalt(encoded string) (password, salt []byte, err error) {
	parts := strings.SplitN(encoded, ":", 2)
	if len(parts) < 2 {
		return nil, nil, fmt.Errorf("cryptography: no salt supplied")
	}
	salt, err = base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, err
	}
	return []byte(parts[1]), salt, nil
}

// DeriveKey derives a SymKeySize key from a password and salt using
// argon2id, for ambient (non-envelope) uses such as encrypting the
// local configuration file and the job-history database.
func DeriveKey(password, salt []byte) []byte {
	threads := uint8(runtime.NumCPU())
	if threads == 0 {
		threads = 1
	}
	return argon2.IDKey(password, salt, 3, 32*1024, threads, SymKeySize)
}

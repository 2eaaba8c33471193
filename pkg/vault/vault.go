// Package vault provides authenticated symmetric encryption for
// serialized session credentials at rest.
//
// Tokens are self-describing: each one carries the random salt and
// nonce used to produce it, so decryption needs only the process-wide
// secret. Layout (before base64 encoding):
//
//	salt (64 bytes) ‖ nonce (12 bytes) ‖ GCM tag (16 bytes) ‖ ciphertext
//
// The encryption key is derived per-token from the secret and the salt
// with PBKDF2-SHA512, so no two tokens ever share a derived key.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 64
	keyLength  = 32
	iterations = 100000
)

// ErrNoSecret is returned by New when the long-term secret is empty.
// An empty secret must fail startup, never silently disable encryption.
var ErrNoSecret = errors.New("vault: encryption secret is required")

// ErrDecryptFailed is returned for any token that cannot be decrypted:
// truncation, corruption, tampering, or a secret change. Callers match
// it with errors.Is; the wrapped detail is for logs only.
var ErrDecryptFailed = errors.New("vault: decryption failed")

// Vault encrypts and decrypts credential blobs with a long-term secret
// held for the lifetime of the process.
type Vault struct {
	secret []byte
}

// New creates a Vault from the process-wide encryption secret.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Vault{secret: []byte(secret)}, nil
}

// Encrypt seals plaintext into a base64 token. Every call draws a fresh
// salt and nonce, so encrypting the same plaintext twice yields
// different tokens.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("vault: generate salt: %w", err)
	}

	aead, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: generate nonce: %w", err)
	}

	// Seal appends the tag after the ciphertext; the token format
	// carries the tag first, so split and reorder.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	tagStart := len(sealed) - aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	token := make([]byte, 0, len(salt)+len(nonce)+len(tag)+len(ciphertext))
	token = append(token, salt...)
	token = append(token, nonce...)
	token = append(token, tag...)
	token = append(token, ciphertext...)

	return base64.StdEncoding.EncodeToString(token), nil
}

// Decrypt opens a token produced by Encrypt. The authentication tag is
// verified before any plaintext is released; a mismatch fails closed
// with ErrDecryptFailed.
func (v *Vault) Decrypt(token string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed base64: %v", ErrDecryptFailed, err)
	}

	if len(raw) < saltLength {
		return nil, fmt.Errorf("%w: token too short", ErrDecryptFailed)
	}
	salt := raw[:saltLength]

	aead, err := v.aead(salt)
	if err != nil {
		return nil, err
	}

	header := saltLength + aead.NonceSize() + aead.Overhead()
	if len(raw) < header {
		return nil, fmt.Errorf("%w: token too short", ErrDecryptFailed)
	}

	nonce := raw[saltLength : saltLength+aead.NonceSize()]
	tag := raw[saltLength+aead.NonceSize() : header]
	ciphertext := raw[header:]

	// Reassemble into Go's ciphertext‖tag ordering for Open.
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecryptFailed)
	}

	return plaintext, nil
}

// aead builds the AES-256-GCM cipher for a given salt.
func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(v.secret, salt, iterations, keyLength, sha512.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: create gcm: %w", err)
	}

	return aead, nil
}

// Package crypto opens and seals the encrypted envelopes archived content is stored in.
//
// An envelope is the hex encoding of salt(64) | iv(16) | tag(16) | ciphertext.
// The AES-256-GCM key is derived per envelope with PBKDF2-SHA512 over the salt.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/pbkdf2"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

const (
	saltLength       = 64
	ivLength         = 16
	tagLength        = 16
	keyLength        = 32
	pbkdf2Iterations = 100000

	headerLength = saltLength + ivLength + tagLength
)

// ErrMalformedEnvelope is returned when ciphertext cannot be parsed.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Codec seals and opens envelopes with a shared secret.
type Codec struct {
	secret []byte
}

// NewCodec builds a codec for the given secret.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("encryption secret required")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// IsEnvelope reports whether s looks like a sealed envelope rather than plaintext.
func IsEnvelope(s string) bool {
	if len(s) < headerLength*2 || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// Open decrypts an envelope.
func (c *Codec) Open(envelope string) (string, error) {
	raw, err := hex.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(raw) < headerLength {
		return "", ErrMalformedEnvelope
	}
	salt := raw[:saltLength]
	iv := raw[saltLength : saltLength+ivLength]
	tag := raw[saltLength+ivLength : headerLength]
	ciphertext := raw[headerLength:]

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}
	sealed := make([]byte, 0, len(ciphertext)+tagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plain, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open envelope: %w", err)
	}
	return string(plain), nil
}

// Seal encrypts plaintext into a new envelope.
func (c *Codec) Seal(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	iv := make([]byte, ivLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagLength], sealed[len(sealed)-tagLength:]

	out := make([]byte, 0, headerLength+len(ciphertext))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return hex.EncodeToString(out), nil
}

func (c *Codec) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.secret, salt, pbkdf2Iterations, keyLength, sha512.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivLength)
}

// Reveal returns the plaintext of a field that may or may not be sealed.
func (c *Codec) Reveal(field string) (string, error) {
	if !IsEnvelope(field) {
		return field, nil
	}
	return c.Open(field)
}

// OpenMessage decodes stored message content into its payload. Stored content is
// either an envelope around the JSON payload, the JSON payload itself, or bare text.
func (c *Codec) OpenMessage(stored string) (*domain.MessagePayload, error) {
	plain, err := c.Reveal(stored)
	if err != nil {
		return nil, err
	}
	payload := &domain.MessagePayload{}
	trimmed := strings.TrimSpace(plain)
	if !strings.HasPrefix(trimmed, "{") {
		payload.Content = plain
		return payload, nil
	}
	if err := json.Unmarshal([]byte(trimmed), payload); err != nil {
		return nil, fmt.Errorf("decode message payload: %w", err)
	}
	return payload, nil
}

// SealMessage encodes and seals a payload for storage.
func (c *Codec) SealMessage(payload *domain.MessagePayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return c.Seal(string(raw))
}

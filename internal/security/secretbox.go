package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrDecrypt = errors.New("decryption failed")

// SecretBox encrypts third-party API credentials for storage. The
// encryption is reversible (AES-GCM, random nonce per call) because
// the plaintext has to come back out to call the provider; this is
// deliberately not a hash.
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox derives a 256-bit key from the configured secret.
// Any non-empty string works as key material; it is hashed first so
// operators are not forced to supply exactly 32 bytes.
func NewSecretBox(key string) (*SecretBox, error) {
	if key == "" {
		return nil, errors.New("encryption key is required")
	}

	sum := sha256.Sum256([]byte(key))

	block, err := aes.NewCipher(sum[:])

	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)

	if err != nil {
		return nil, err
	}

	return &SecretBox{aead: aead}, nil
}

// Seal returns "nonce:ciphertext", both base64.
func (b *SecretBox) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())

	_, err := rand.Read(nonce)

	if err != nil {
		return "", err
	}

	sealed := b.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(nonce) + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

func (b *SecretBox) Open(encoded string) (string, error) {
	nonceB64, sealedB64, ok := strings.Cut(encoded, ":")

	if !ok {
		return "", ErrDecrypt
	}

	nonce, err := base64.StdEncoding.DecodeString(nonceB64)

	if err != nil || len(nonce) != b.aead.NonceSize() {
		return "", ErrDecrypt
	}

	sealed, err := base64.StdEncoding.DecodeString(sealedB64)

	if err != nil {
		return "", ErrDecrypt
	}

	plain, err := b.aead.Open(nil, nonce, sealed, nil)

	if err != nil {
		return "", ErrDecrypt
	}

	return string(plain), nil
}

// GenerateDeviceKey returns an opaque 64-char hex key for iot devices.
func GenerateDeviceKey() (string, error) {
	buf := make([]byte, 32)

	_, err := rand.Read(buf)

	if err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

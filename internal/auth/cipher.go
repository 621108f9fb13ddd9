package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ProfileCipher seals and opens the admin profile blob with AES-GCM. The
// key is derived with argon2id from a secret and salt injected through
// configuration; the algorithm choice lives entirely in this constructor.
type ProfileCipher struct {
	key []byte
}

// NewProfileCipher derives the symmetric key from the configured secret.
func NewProfileCipher(secret, salt string) (*ProfileCipher, error) {
	if secret == "" {
		return nil, errors.New("profile secret is required")
	}
	key := argon2.IDKey([]byte(secret), []byte(salt), 1, 64*1024, 4, 32)
	return &ProfileCipher{key: key}, nil
}

// Seal encrypts the payload and returns base64(nonce || ciphertext).
func (c *ProfileCipher) Seal(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aesgcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decodes and decrypts a blob produced by Seal.
func (c *ProfileCipher) Open(blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decode blob: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(raw) < aesgcm.NonceSize() {
		return nil, errors.New("blob too short")
	}
	nonce, ciphertext := raw[:aesgcm.NonceSize()], raw[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return plaintext, nil
}

package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

type Crypter struct {
	key []byte
}

// NewCrypter derives a 32 byte AES key from the passphrase.
func NewCrypter(key string) (*Crypter, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("key length must be >= 32 bytes, got %d", len(key))
	}
	k := sha256.Sum256([]byte(key))
	return &Crypter{key: k[:]}, nil
}

func (c *Crypter) Encrypt(data []byte) ([]byte, error) {
	aesgcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return aesgcm.Seal(nonce, nonce, data, nil), nil
}

// Decrypt accepts raw ciphertext with the nonce prefix
func (c *Crypter) Decrypt(data []byte) ([]byte, error) {
	aesgcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := aesgcm.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

func (c *Crypter) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

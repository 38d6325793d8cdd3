package broker

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the size of the AES-256 key in bytes.
	KeySize = 32
	// PBKDF2Iterations is the number of iterations for key derivation.
	PBKDF2Iterations = 100000
)

var (
	ErrInvalidKey        = errors.New("invalid encryption key: must be at least 32 characters")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrDecryptionFailed  = errors.New("decryption failed")
)

// Encryptor encrypts secret-store values at rest. Every secret ID gets its own
// derived key, so a value sealed for one ID cannot be opened under another.
type Encryptor struct {
	masterKey []byte
}

// NewEncryptor creates a new Encryptor with the given master secret.
// The secret should be at least 32 characters.
func NewEncryptor(secret string) (*Encryptor, error) {
	if len(secret) < 32 {
		return nil, ErrInvalidKey
	}
	hash := sha256.Sum256([]byte(secret))
	return &Encryptor{masterKey: hash[:]}, nil
}

// DeriveKey derives the AES key for a secret ID using PBKDF2.
func (e *Encryptor) DeriveKey(secretID string) []byte {
	salt := "secret:" + secretID
	return pbkdf2.Key(e.masterKey, []byte(salt), PBKDF2Iterations, KeySize, sha256.New)
}

func (e *Encryptor) gcm(secretID string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.DeriveKey(secretID))
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt encrypts plaintext with AES-256-GCM under the key for secretID and
// returns the ciphertext and the random nonce.
func (e *Encryptor) Encrypt(plaintext, secretID string) (ciphertext, nonce []byte, err error) {
	gcm, err := e.gcm(secretID)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext = gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return ciphertext, nonce, nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(ciphertext, nonce []byte, secretID string) (string, error) {
	if len(ciphertext) == 0 || len(nonce) == 0 {
		return "", ErrInvalidCiphertext
	}

	gcm, err := e.gcm(secretID)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// Seal encrypts plaintext and returns nonce||ciphertext as base64, a form
// suitable for a single text column or environment variable.
func (e *Encryptor) Seal(plaintext, secretID string) (string, error) {
	ciphertext, nonce, err := e.Encrypt(plaintext, secretID)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(append(nonce, ciphertext...)), nil
}

// Open reverses Seal.
func (e *Encryptor) Open(sealed, secretID string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	gcm, err := e.gcm(secretID)
	if err != nil {
		return "", err
	}
	if len(raw) <= gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	n := gcm.NonceSize()
	return e.Decrypt(raw[n:], raw[:n], secretID)
}

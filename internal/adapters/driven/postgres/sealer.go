package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// sealVersion is the version byte of the sealed payload format
	sealVersion = 0x01

	// nonceSize is the AES-GCM nonce size (12 bytes is standard)
	nonceSize = 12

	// keySize is the required key size for AES-256
	keySize = 32
)

var (
	// ErrInvalidKeySize is returned when the encryption key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")

	// ErrInvalidBlobSize is returned when a sealed payload is too small.
	ErrInvalidBlobSize = errors.New("sealed payload is too small")

	// ErrUnsupportedVersion is returned when the payload version is not supported.
	ErrUnsupportedVersion = errors.New("unsupported sealed payload version")

	// ErrDecryptionFailed is returned when opening fails (wrong key or tampered data).
	ErrDecryptionFailed = errors.New("failed to open sealed payload")
)

// PayloadSealer encrypts archive payloads at rest with AES-256-GCM.
// The sealed format is: version(1) || nonce(12) || ciphertext(N)
type PayloadSealer struct {
	gcm cipher.AEAD
}

// NewPayloadSealer creates a sealer with the given 32-byte key.
func NewPayloadSealer(key []byte) (*PayloadSealer, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &PayloadSealer{gcm: gcm}, nil
}

// Seal encrypts a payload. Every call uses a fresh random nonce.
func (s *PayloadSealer) Seal(payload []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, 1+nonceSize, 1+nonceSize+len(payload)+s.gcm.Overhead())
	blob[0] = sealVersion
	copy(blob[1:], nonce)

	return s.gcm.Seal(blob, nonce, payload, nil), nil
}

// Open decrypts a sealed payload
func (s *PayloadSealer) Open(blob []byte) ([]byte, error) {
	if len(blob) < 1+nonceSize+s.gcm.Overhead() {
		return nil, ErrInvalidBlobSize
	}
	if blob[0] != sealVersion {
		return nil, fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, blob[0])
	}

	payload, err := s.gcm.Open(nil, blob[1:1+nonceSize], blob[1+nonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return payload, nil
}

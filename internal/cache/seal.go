package cache

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

const (
	sealKeySize  = 32
	sealKeyFile  = "seal.key"
	hkdfInfoSeal = "burnoutctl-credential-seal"
)

// ErrSealCorrupt indicates a sealed value that cannot be opened with the
// local key, usually a key file replaced underneath an existing store.
var ErrSealCorrupt = errors.New("sealed credential cannot be opened")

// loadOrCreateSealKey returns the local sealing key, creating it with 0600
// permissions on first use.
func loadOrCreateSealKey(dir string) ([]byte, error) {
	path := filepath.Join(dir, sealKeyFile)

	raw, err := os.ReadFile(path)
	if err == nil {
		if len(raw) != sealKeySize {
			return nil, fmt.Errorf("seal key %s has unexpected size %d", path, len(raw))
		}

		return deriveSealKey(raw)
	}

	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read seal key: %w", err)
	}

	raw = make([]byte, sealKeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate seal key: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write seal key: %w", err)
	}

	return deriveSealKey(raw)
}

// deriveSealKey stretches the stored key material with HKDF-SHA256 so the
// on-disk file is never used directly as the cipher key.
func deriveSealKey(material []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, material, nil, []byte(hkdfInfoSeal))

	key := make([]byte, sealKeySize)
	if _, err := r.Read(key); err != nil {
		return nil, fmt.Errorf("seal key derivation failed: %w", err)
	}

	return key, nil
}

// seal encrypts plaintext with AES-256-GCM; output is nonce||ciphertext.
func seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts a value produced by seal.
func open(key, sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, ErrSealCorrupt
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrSealCorrupt
	}

	return plaintext, nil
}

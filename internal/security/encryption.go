// Package security implements the symmetric protection layer:
// AES-256-GCM authenticated encryption with per-call random nonces,
// whole-document JSON encryption, chunked encryption for large inputs
// and scrypt passphrase key derivation.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "healthvault/internal/errors"
	"healthvault/pkg/contracts/domain"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// NonceSize is the GCM-standard 96-bit nonce length. Every
	// encryption call draws a fresh nonce; reuse under one key breaks
	// both confidentiality and integrity.
	NonceSize = 12
)

// Key is an opaque 256-bit symmetric key handle, usable for encrypt and
// decrypt and exportable to a raw base64 form. It lives only in memory;
// persistence is the caller's concern.
type Key struct {
	raw     []byte
	cleared bool
}

// GenerateKey draws a fresh 256-bit key from the system CSPRNG.
func GenerateKey() (*Key, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &Key{raw: raw}, nil
}

// ImportKey reconstructs a key from its base64 raw-byte export.
func ImportKey(encoded string) (*Key, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid key encoding: %w", err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("invalid key length: got %d bytes, want %d", len(raw), KeySize)
	}
	return &Key{raw: raw}, nil
}

// Export returns the raw key bytes in base64. Round-trips through
// ImportKey.
func (k *Key) Export() string {
	return base64.StdEncoding.EncodeToString(k.raw)
}

// Clear wipes the key material. The handle is unusable afterwards.
func (k *Key) Clear() {
	for i := range k.raw {
		k.raw[i] = 0
	}
	k.cleared = true
}

func (k *Key) aead() (cipher.AEAD, error) {
	if k == nil || k.cleared {
		return nil, errors.New("key has been cleared")
	}
	block, err := aes.NewCipher(k.raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt seals the plaintext under a fresh random 12-byte IV drawn
// inside the call. Callers never supply the IV on this path, which
// makes nonce reuse impossible by construction. The returned ciphertext
// includes the GCM authentication tag.
func Encrypt(plaintext []byte, key *Key) (ciphertext, iv []byte, err error) {
	gcm, err := key.aead()
	if err != nil {
		return nil, nil, err
	}

	iv = make([]byte, NonceSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nil, iv, plaintext, nil), iv, nil
}

// Decrypt opens a ciphertext produced by Encrypt. Tag verification
// failure (tampered ciphertext, wrong key or wrong IV) surfaces as the
// authentication sentinel, never as garbage plaintext.
func Decrypt(ciphertext, iv []byte, key *Key) ([]byte, error) {
	gcm, err := key.aead()
	if err != nil {
		return nil, err
	}
	if len(iv) != NonceSize {
		return nil, fmt.Errorf("%w: invalid IV length %d", apperrors.ErrAuthentication, len(iv))
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrAuthentication, err)
	}
	return plaintext, nil
}

// EncryptJSON serializes a value to JSON and seals the UTF-8 bytes.
func EncryptJSON(v interface{}, key *Key) (domain.EncryptedBlob, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return domain.EncryptedBlob{}, fmt.Errorf("failed to serialize payload: %w", err)
	}

	ciphertext, iv, err := Encrypt(plaintext, key)
	if err != nil {
		return domain.EncryptedBlob{}, err
	}

	return domain.EncryptedBlob{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// DecryptJSON opens a blob and decodes the plaintext into out. The two
// failure modes stay distinguishable: a bad tag reports the
// authentication sentinel, a plaintext that authenticates but does not
// decode reports the deserialization sentinel.
func DecryptJSON(blob domain.EncryptedBlob, key *Key, out interface{}) error {
	ciphertext, err := base64.StdEncoding.DecodeString(blob.Ciphertext)
	if err != nil {
		return fmt.Errorf("%w: bad ciphertext encoding: %v", apperrors.ErrDeserialization, err)
	}
	iv, err := base64.StdEncoding.DecodeString(blob.IV)
	if err != nil {
		return fmt.Errorf("%w: bad iv encoding: %v", apperrors.ErrDeserialization, err)
	}

	plaintext, err := Decrypt(ciphertext, iv, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDeserialization, err)
	}
	return nil
}

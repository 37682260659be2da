package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"sealbox/internal/domain"
)

const (
	// KeySize is the symmetric key size used throughout the core.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the AEAD nonce size.
	NonceSize = chacha20poly1305.NonceSize
)

// RandomKey returns a fresh 32-byte symmetric key.
func RandomKey() ([]byte, error) {
	k := make([]byte, KeySize)
	if _, err := rand.Read(k); err != nil {
		return nil, err
	}
	return k, nil
}

// Seal encrypts plaintext under key with a fresh random nonce, binding
// ad as associated data. The nonce is prefixed to the returned slice.
func Seal(key, plaintext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, err
	}
	return aead.Seal(out, out[:NonceSize], plaintext, ad), nil
}

// Open decrypts a nonce-prefixed ciphertext produced by Seal. A failed
// tag check returns domain.ErrAuthentication and no plaintext.
func Open(key, box, ad []byte) ([]byte, error) {
	if len(box) < NonceSize {
		return nil, fmt.Errorf("ciphertext too short: %w", domain.ErrAuthentication)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, box[:NonceSize], box[NonceSize:], ad)
	if err != nil {
		return nil, domain.ErrAuthentication
	}
	return pt, nil
}

// SealDetached is Seal with the nonce returned separately, for wire
// formats that carry the nonce as its own field.
func SealDetached(key, plaintext, ad []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	return nonce, aead.Seal(nil, nonce, plaintext, ad), nil
}

// OpenDetached reverses SealDetached.
func OpenDetached(key, nonce, ciphertext, ad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("bad nonce size: %w", domain.ErrAuthentication)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, domain.ErrAuthentication
	}
	return pt, nil
}

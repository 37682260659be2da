package domain

import (
	"encoding/base64"
	"fmt"
)

// Keys serialize as unpadded URL-safe base64 so JSON stays compact and
// copy-pasteable.

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// IsZero reports whether the key is all zeros (unset).
func (p X25519Public) IsZero() bool {
	var zero X25519Public
	return p == zero
}

// MarshalText implements encoding.TextMarshaler.
func (p X25519Public) MarshalText() ([]byte, error) { return encodeKey(p[:]) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *X25519Public) UnmarshalText(b []byte) error { return decodeKey(p[:], b) }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// MarshalText implements encoding.TextMarshaler.
func (k X25519Private) MarshalText() ([]byte, error) { return encodeKey(k[:]) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *X25519Private) UnmarshalText(b []byte) error { return decodeKey(k[:], b) }

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// MarshalText implements encoding.TextMarshaler.
func (p Ed25519Public) MarshalText() ([]byte, error) { return encodeKey(p[:]) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Ed25519Public) UnmarshalText(b []byte) error { return decodeKey(p[:], b) }

// Ed25519Private is an Ed25519 signing private key (seed plus public half).
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// MarshalText implements encoding.TextMarshaler.
func (k Ed25519Private) MarshalText() ([]byte, error) { return encodeKey(k[:]) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Ed25519Private) UnmarshalText(b []byte) error { return decodeKey(k[:], b) }

func encodeKey(k []byte) ([]byte, error) {
	out := make([]byte, base64.RawURLEncoding.EncodedLen(len(k)))
	base64.RawURLEncoding.Encode(out, k)
	return out, nil
}

func decodeKey(dst, b []byte) error {
	raw, err := base64.RawURLEncoding.DecodeString(string(b))
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("bad key length %d, want %d", len(raw), len(dst))
	}
	copy(dst, raw)
	return nil
}

// KeyPair is an X25519 key pair. The private half never leaves the
// owning device except through explicit serialization.
type KeyPair struct {
	Pub  X25519Public  `json:"pub"`
	Priv X25519Private `json:"priv"`
}

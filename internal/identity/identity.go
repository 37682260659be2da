// Package identity owns a device's long-term key material: the X25519
// and Ed25519 identity pairs, the rotating signed prekey, and the
// one-time prekey pool consumed by published bundles.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
)

const (
	// DefaultOneTimeKeyCount is the pool size a fresh device starts with.
	DefaultOneTimeKeyCount = 100

	// LowWaterMark is the pool size below which callers should
	// schedule a Replenish.
	LowWaterMark = 5

	// SignedPreKeyMaxAge is how long a signed prekey should serve
	// before rotation.
	SignedPreKeyMaxAge = 30 * 24 * time.Hour
)

// Generate creates a complete DeviceIdentity: identity and signing
// pairs, a signed prekey with its signature, and oneTimeKeyCount
// one-time prekeys with unique random IDs. No I/O.
func Generate(deviceID string, oneTimeKeyCount int) (domain.DeviceIdentity, error) {
	idPriv, idPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.DeviceIdentity{}, err
	}
	signPriv, signPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.DeviceIdentity{}, err
	}

	id := domain.DeviceIdentity{
		V:            domain.IdentityFormatVersion,
		DeviceID:     deviceID,
		IdentityPub:  idPub,
		IdentityPriv: idPriv,
		SigningPub:   signPub,
		SigningPriv:  signPriv,
		CreatedAt:    time.Now().UTC(),
	}
	if err := RotateSignedPreKey(&id); err != nil {
		return domain.DeviceIdentity{}, err
	}
	if _, err := Replenish(&id, oneTimeKeyCount); err != nil {
		return domain.DeviceIdentity{}, err
	}
	return id, nil
}

// CreateBundle snapshots the public half of id into a distributable
// bundle, consuming the first available one-time prekey in insertion
// order. With an empty pool the bundle is still produced (the handshake
// degrades to 3-DH) and ErrNoOneTimeKeys is returned alongside it so
// the caller can replenish.
func CreateBundle(id *domain.DeviceIdentity) (domain.PreKeyBundle, error) {
	b := domain.PreKeyBundle{
		V:               domain.BundleFormatVersion,
		DeviceID:        id.DeviceID,
		IdentityKey:     id.IdentityPub,
		SigningKey:      id.SigningPub,
		SignedPreKey:    id.SignedPreKeyPub,
		SignedPreKeySig: id.SignedPreKeySig,
	}
	if len(id.OneTimePreKeys) == 0 {
		return b, domain.ErrNoOneTimeKeys
	}

	otk := id.OneTimePreKeys[0]
	id.OneTimePreKeys = id.OneTimePreKeys[1:]

	pub := otk.Pub
	b.OneTimePreKey = &pub
	b.OneTimePreKeyID = otk.ID
	return b, nil
}

// ConsumeOneTimePreKey removes and returns the private half of the
// one-time prekey the initiator targeted. Used when accepting a
// handshake. ok is false when the ID is unknown (already consumed or
// never issued).
func ConsumeOneTimePreKey(id *domain.DeviceIdentity, keyID string) (domain.X25519Private, bool) {
	for i, otk := range id.OneTimePreKeys {
		if otk.ID == keyID {
			id.OneTimePreKeys = append(id.OneTimePreKeys[:i], id.OneTimePreKeys[i+1:]...)
			return otk.Priv, true
		}
	}
	return domain.X25519Private{}, false
}

// Replenish tops the one-time prekey pool up to target, generating only
// the deficit. Idempotent at or above target.
func Replenish(id *domain.DeviceIdentity, target int) (added int, err error) {
	for len(id.OneTimePreKeys) < target {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return added, err
		}
		keyID, err := newKeyID("otk")
		if err != nil {
			return added, err
		}
		id.OneTimePreKeys = append(id.OneTimePreKeys, domain.OneTimePreKey{
			ID:   keyID,
			Pub:  pub,
			Priv: priv,
		})
		added++
	}
	return added, nil
}

// RotateSignedPreKey atomically replaces the signed prekey pair and its
// signature. The old pair is discarded; peers holding bundles signed
// against it will fail the handshake after propagation delay, which is
// the intended eventual-consistency behaviour.
func RotateSignedPreKey(id *domain.DeviceIdentity) error {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return err
	}
	sig := crypto.SignEd25519(id.SigningPriv, pub.Slice())

	id.SignedPreKeyPriv = priv
	id.SignedPreKeyPub = pub
	id.SignedPreKeySig = sig
	return nil
}

// Fingerprint returns the canonical display fingerprint of a public key.
func Fingerprint(pub domain.X25519Public) string {
	return crypto.Fingerprint(pub.Slice())
}

// newKeyID returns "<prefix>-" plus 16 hex chars of randomness.
func newKeyID(prefix string) (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(b[:])), nil
}

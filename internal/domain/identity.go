package domain

import "time"

// IdentityFormatVersion is the serialized DeviceIdentity format version.
const IdentityFormatVersion = 1

// OneTimePreKey is a single-use prekey pair held locally until it is
// placed into a published bundle.
type OneTimePreKey struct {
	ID   string        `json:"id"`
	Pub  X25519Public  `json:"pub"`
	Priv X25519Private `json:"priv"`
}

// DeviceIdentity holds a device's long-term key material: the X25519
// identity pair used for Diffie-Hellman, the Ed25519 pair used to sign
// prekeys, the current signed prekey, and the one-time prekey pool.
//
// One-time prekeys are kept in insertion order; CreateBundle consumes
// the first available pair. Callers that need uniform randomness must
// shuffle upstream.
type DeviceIdentity struct {
	V        int    `json:"v"`
	DeviceID string `json:"device_id"`

	IdentityPub  X25519Public   `json:"identity_pub"`
	IdentityPriv X25519Private  `json:"identity_priv"`
	SigningPub   Ed25519Public  `json:"signing_pub"`
	SigningPriv  Ed25519Private `json:"signing_priv"`

	SignedPreKeyPub  X25519Public  `json:"signed_pre_key_pub"`
	SignedPreKeyPriv X25519Private `json:"signed_pre_key_priv"`
	SignedPreKeySig  []byte        `json:"signed_pre_key_sig"`

	OneTimePreKeys []OneTimePreKey `json:"one_time_pre_keys"`

	CreatedAt time.Time `json:"created_at"`
}

// BundleFormatVersion is the prekey bundle wire format version.
const BundleFormatVersion = 1

// PreKeyBundle is a public-only snapshot of a device's prekeys, safe to
// hand to a delivery service. The signing key rides along because the
// Diffie-Hellman identity is X25519 and cannot verify the signed prekey
// signature itself.
type PreKeyBundle struct {
	V        int    `json:"v"`
	DeviceID string `json:"device_id"`

	IdentityKey X25519Public  `json:"identity_key"`
	SigningKey  Ed25519Public `json:"signing_key"`

	SignedPreKey    X25519Public `json:"signed_pre_key"`
	SignedPreKeySig []byte       `json:"signed_pre_key_sig"`

	OneTimePreKey   *X25519Public `json:"one_time_pre_key,omitempty"`
	OneTimePreKeyID string        `json:"one_time_pre_key_id,omitempty"`
}

// HandshakeMessage carries the initiator-side X3DH parameters the first
// envelope must deliver so the responder can mirror the key agreement.
type HandshakeMessage struct {
	DeviceID string `json:"device_id"`

	IdentityKey X25519Public  `json:"identity_key"`
	SigningKey  Ed25519Public `json:"signing_key"`
	Ephemeral   X25519Public  `json:"ephemeral"`

	OneTimePreKeyID string `json:"one_time_pre_key_id,omitempty"`
}

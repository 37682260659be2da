// Package sealed provides stateless hybrid encryption to a recipient's
// long-term public key: ephemeral ECDH, a keyed hash of the shared
// secret, then AEAD. One ephemeral key per message, no ratchet, no
// forward secrecy beyond the ephemeral's single use. Intended for
// opportunistic encryption (wrapping file offers, bundle material)
// where no ratchet session exists yet, not for conversations.
package sealed

import (
	"sealbox/internal/crypto"
	"sealbox/internal/domain"
	"sealbox/internal/util/memzero"
)

// Seal encrypts plaintext to recipient. The ephemeral public key is
// bound into the AEAD associated data and returned with the message.
func Seal(recipient domain.X25519Public, plaintext []byte) (domain.SealedMessage, error) {
	eph, err := crypto.GenerateKeyPair()
	if err != nil {
		return domain.SealedMessage{}, err
	}
	key, err := sharedKey(eph.Priv, recipient)
	if err != nil {
		return domain.SealedMessage{}, err
	}
	defer memzero.Zero(key)

	ct, err := crypto.Seal(key, plaintext, eph.Pub.Slice())
	if err != nil {
		return domain.SealedMessage{}, err
	}
	memzero.Zero(eph.Priv[:])
	return domain.SealedMessage{EphemeralKey: eph.Pub, Ciphertext: ct}, nil
}

// Open decrypts a sealed message with the recipient's static private
// key. A tampered ciphertext or wrong key fails authentication.
func Open(recipientPriv domain.X25519Private, msg domain.SealedMessage) ([]byte, error) {
	key, err := sharedKey(recipientPriv, msg.EphemeralKey)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	return crypto.Open(key, msg.Ciphertext, msg.EphemeralKey.Slice())
}

func sharedKey(priv domain.X25519Private, pub domain.X25519Public) ([]byte, error) {
	dh, err := crypto.DH(priv, pub)
	if err != nil {
		return nil, err
	}
	key := crypto.Derive(dh[:], nil, crypto.LabelSealed, crypto.KeySize)
	memzero.Zero(dh[:])
	return key, nil
}

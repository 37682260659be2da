package x3dh

import (
	"sealbox/internal/crypto"
	"sealbox/internal/domain"
	"sealbox/internal/util/memzero"
)

// Session is the handshake output: a root key seeding the Double
// Ratchet and the first symmetric chain key. Consume it immediately;
// it holds live key material.
type Session struct {
	RootKey  []byte
	ChainKey []byte
}

// Initiator runs the sender side of X3DH against a peer's bundle.
//
// The signed prekey signature is verified before any DH computation;
// an invalid signature aborts with domain.ErrInvalidSignature. A bundle
// without a one-time prekey degrades to three DH terms.
func Initiator(
	ourIdentityPriv domain.X25519Private,
	ourEphemeralPriv domain.X25519Private,
	bundle domain.PreKeyBundle,
) (Session, error) {
	if !crypto.VerifyEd25519(bundle.SigningKey, bundle.SignedPreKey.Slice(), bundle.SignedPreKeySig) {
		return Session{}, domain.ErrInvalidSignature
	}

	dh1, err := crypto.DH(ourIdentityPriv, bundle.SignedPreKey) // DH(IKa, SPKb)
	if err != nil {
		return Session{}, err
	}
	dh2, err := crypto.DH(ourEphemeralPriv, bundle.IdentityKey) // DH(EKa, IKb)
	if err != nil {
		return Session{}, err
	}
	dh3, err := crypto.DH(ourEphemeralPriv, bundle.SignedPreKey) // DH(EKa, SPKb)
	if err != nil {
		return Session{}, err
	}

	concat := make([]byte, 0, 32*4)
	concat = append(concat, dh1[:]...)
	concat = append(concat, dh2[:]...)
	concat = append(concat, dh3[:]...)
	memzero.Zero(dh1[:])
	memzero.Zero(dh2[:])
	memzero.Zero(dh3[:])

	if bundle.OneTimePreKey != nil {
		dh4, err := crypto.DH(ourEphemeralPriv, *bundle.OneTimePreKey) // DH(EKa, OPKb)
		if err != nil {
			memzero.Zero(concat)
			return Session{}, err
		}
		concat = append(concat, dh4[:]...)
		memzero.Zero(dh4[:])
	}

	return derive(concat), nil
}

// Responder computes the mirror image of Initiator from the receiver's
// key material. Each DH term pairs the same two keys as on the sender
// side, so both parties derive an identical session.
func Responder(
	ourIdentityPriv domain.X25519Private,
	ourSignedPreKeyPriv domain.X25519Private,
	ourOneTimePriv *domain.X25519Private,
	theirIdentityPub domain.X25519Public,
	theirEphemeralPub domain.X25519Public,
) (Session, error) {
	dh1, err := crypto.DH(ourSignedPreKeyPriv, theirIdentityPub) // DH(IKa, SPKb)
	if err != nil {
		return Session{}, err
	}
	dh2, err := crypto.DH(ourIdentityPriv, theirEphemeralPub) // DH(EKa, IKb)
	if err != nil {
		return Session{}, err
	}
	dh3, err := crypto.DH(ourSignedPreKeyPriv, theirEphemeralPub) // DH(EKa, SPKb)
	if err != nil {
		return Session{}, err
	}

	concat := make([]byte, 0, 32*4)
	concat = append(concat, dh1[:]...)
	concat = append(concat, dh2[:]...)
	concat = append(concat, dh3[:]...)
	memzero.Zero(dh1[:])
	memzero.Zero(dh2[:])
	memzero.Zero(dh3[:])

	if ourOneTimePriv != nil {
		dh4, err := crypto.DH(*ourOneTimePriv, theirEphemeralPub) // DH(EKa, OPKb)
		if err != nil {
			memzero.Zero(concat)
			return Session{}, err
		}
		concat = append(concat, dh4[:]...)
		memzero.Zero(dh4[:])
	}

	return derive(concat), nil
}

// derive splits 64 bytes of HKDF output into root and chain keys and
// wipes the DH concatenation.
func derive(concat []byte) Session {
	root, chain := crypto.Derive2(concat, nil, crypto.LabelX3DH)
	memzero.Zero(concat)
	return Session{RootKey: root, ChainKey: chain}
}

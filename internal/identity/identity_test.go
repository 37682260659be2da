package identity

import (
	"bytes"
	"errors"
	"testing"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
)

func mustGenerate(t *testing.T, count int) domain.DeviceIdentity {
	t.Helper()
	id, err := Generate("device-1", count)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return id
}

func TestGenerate(t *testing.T) {
	id := mustGenerate(t, 10)

	if len(id.OneTimePreKeys) != 10 {
		t.Fatalf("want 10 one-time prekeys, got %d", len(id.OneTimePreKeys))
	}
	if !crypto.VerifyEd25519(id.SigningPub, id.SignedPreKeyPub.Slice(), id.SignedPreKeySig) {
		t.Fatal("signed prekey signature does not verify")
	}
	if id.CreatedAt.IsZero() {
		t.Fatal("CreatedAt unset")
	}

	seen := make(map[string]bool)
	for _, otk := range id.OneTimePreKeys {
		if seen[otk.ID] {
			t.Fatalf("duplicate prekey id %q", otk.ID)
		}
		seen[otk.ID] = true
	}
}

func TestCreateBundleConsumesFirstPreKey(t *testing.T) {
	id := mustGenerate(t, 3)
	first := id.OneTimePreKeys[0]

	b, err := CreateBundle(&id)
	if err != nil {
		t.Fatalf("CreateBundle: %v", err)
	}
	if len(id.OneTimePreKeys) != 2 {
		t.Fatalf("pool not decremented: %d", len(id.OneTimePreKeys))
	}
	if b.OneTimePreKeyID != first.ID || b.OneTimePreKey == nil || *b.OneTimePreKey != first.Pub {
		t.Fatal("bundle does not carry the first prekey")
	}
	if b.IdentityKey != id.IdentityPub || b.SignedPreKey != id.SignedPreKeyPub {
		t.Fatal("bundle public keys wrong")
	}
}

func TestCreateBundleEmptyPoolDegrades(t *testing.T) {
	id := mustGenerate(t, 0)

	b, err := CreateBundle(&id)
	if !errors.Is(err, domain.ErrNoOneTimeKeys) {
		t.Fatalf("want ErrNoOneTimeKeys, got %v", err)
	}
	// The bundle is still usable for a 3-DH handshake.
	if b.OneTimePreKey != nil || b.OneTimePreKeyID != "" {
		t.Fatal("degraded bundle carries a prekey")
	}
	if b.SignedPreKey != id.SignedPreKeyPub {
		t.Fatal("degraded bundle missing signed prekey")
	}
}

func TestConsumeOneTimePreKey(t *testing.T) {
	id := mustGenerate(t, 2)
	target := id.OneTimePreKeys[1]

	priv, ok := ConsumeOneTimePreKey(&id, target.ID)
	if !ok || priv != target.Priv {
		t.Fatal("consume returned wrong key")
	}
	if len(id.OneTimePreKeys) != 1 {
		t.Fatal("pool not decremented")
	}
	if _, ok := ConsumeOneTimePreKey(&id, target.ID); ok {
		t.Fatal("prekey consumed twice")
	}
}

func TestReplenishIdempotent(t *testing.T) {
	id := mustGenerate(t, 7)

	added, err := Replenish(&id, 5)
	if err != nil || added != 0 {
		t.Fatalf("replenish above target: added=%d err=%v", added, err)
	}
	added, err = Replenish(&id, 12)
	if err != nil || added != 5 {
		t.Fatalf("replenish deficit: added=%d err=%v", added, err)
	}
	if len(id.OneTimePreKeys) != 12 {
		t.Fatalf("pool size %d, want 12", len(id.OneTimePreKeys))
	}
}

func TestRotateSignedPreKey(t *testing.T) {
	id := mustGenerate(t, 1)
	oldPub := id.SignedPreKeyPub
	oldSig := append([]byte(nil), id.SignedPreKeySig...)

	if err := RotateSignedPreKey(&id); err != nil {
		t.Fatalf("RotateSignedPreKey: %v", err)
	}
	if id.SignedPreKeyPub == oldPub {
		t.Fatal("signed prekey unchanged")
	}
	if bytes.Equal(id.SignedPreKeySig, oldSig) {
		t.Fatal("signature unchanged")
	}
	if !crypto.VerifyEd25519(id.SigningPub, id.SignedPreKeyPub.Slice(), id.SignedPreKeySig) {
		t.Fatal("new signature does not verify")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	id := mustGenerate(t, 5)

	raw, err := Marshal(id)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if back.DeviceID != id.DeviceID ||
		back.IdentityPriv != id.IdentityPriv ||
		back.SigningPriv != id.SigningPriv ||
		back.SignedPreKeyPriv != id.SignedPreKeyPriv {
		t.Fatal("key material did not round-trip")
	}
	if !back.CreatedAt.Equal(id.CreatedAt) {
		t.Fatal("timestamp did not round-trip")
	}
	if len(back.OneTimePreKeys) != len(id.OneTimePreKeys) {
		t.Fatal("prekey pool did not round-trip")
	}
	for i := range id.OneTimePreKeys {
		if back.OneTimePreKeys[i] != id.OneTimePreKeys[i] {
			t.Fatalf("prekey %d did not round-trip", i)
		}
	}
}

func TestBundleRoundTrip(t *testing.T) {
	id := mustGenerate(t, 1)
	b, err := CreateBundle(&id)
	if err != nil {
		t.Fatalf("CreateBundle: %v", err)
	}

	raw, err := MarshalBundle(b)
	if err != nil {
		t.Fatalf("MarshalBundle: %v", err)
	}
	back, err := UnmarshalBundle(raw)
	if err != nil {
		t.Fatalf("UnmarshalBundle: %v", err)
	}
	if back.IdentityKey != b.IdentityKey ||
		back.SignedPreKey != b.SignedPreKey ||
		back.OneTimePreKeyID != b.OneTimePreKeyID ||
		!bytes.Equal(back.SignedPreKeySig, b.SignedPreKeySig) {
		t.Fatal("bundle did not round-trip")
	}
	if back.OneTimePreKey == nil || *back.OneTimePreKey != *b.OneTimePreKey {
		t.Fatal("one-time prekey did not round-trip")
	}
}

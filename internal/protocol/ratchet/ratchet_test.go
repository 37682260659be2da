package ratchet_test

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"sealbox/internal/domain"
	"sealbox/internal/protocol/ratchet"
)

// pair initializes two convergent ratchets from a simulated X3DH
// output: Alice initiates, Bob responds.
func pair(t *testing.T) (alice, bob domain.RatchetState) {
	t.Helper()
	root := make([]byte, 32)
	chain := make([]byte, 32)
	if _, err := rand.Read(root); err != nil {
		t.Fatalf("rand: %v", err)
	}
	if _, err := rand.Read(chain); err != nil {
		t.Fatalf("rand: %v", err)
	}

	alice, err := ratchet.Initialize(root, chain, true)
	if err != nil {
		t.Fatalf("Initialize(initiator): %v", err)
	}
	bob, err = ratchet.Initialize(root, chain, false)
	if err != nil {
		t.Fatalf("Initialize(responder): %v", err)
	}
	return alice, bob
}

func encryptN(t *testing.T, st domain.RatchetState, msgs ...string) ([]domain.EncryptedMessage, domain.RatchetState) {
	t.Helper()
	out := make([]domain.EncryptedMessage, 0, len(msgs))
	for _, m := range msgs {
		enc, next, err := ratchet.Encrypt(st, []byte(m))
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", m, err)
		}
		out = append(out, enc)
		st = next
	}
	return out, st
}

func TestHeaderWireLayout(t *testing.T) {
	var key domain.X25519Public
	for i := range key {
		key[i] = byte(i)
	}
	h := domain.RatchetHeader{RatchetKey: key, PreviousCounter: 0x01020304, MessageNumber: 0x0a0b0c0d}

	b := ratchet.EncodeHeader(h)
	if len(b) != domain.HeaderSize {
		t.Fatalf("header length %d, want %d", len(b), domain.HeaderSize)
	}
	if !bytes.Equal(b[:32], key[:]) {
		t.Fatal("public key bytes wrong")
	}
	if binary.LittleEndian.Uint32(b[32:36]) != 0x01020304 {
		t.Fatal("previous counter not little-endian")
	}
	if binary.LittleEndian.Uint32(b[36:40]) != 0x0a0b0c0d {
		t.Fatal("message number not little-endian")
	}

	back, err := ratchet.DecodeHeader(b)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if back != h {
		t.Fatal("header did not round-trip")
	}

	if _, err := ratchet.DecodeHeader(b[:39]); err == nil {
		t.Fatal("truncated header accepted")
	}
}

func TestRoundTrip(t *testing.T) {
	alice, bob := pair(t)

	msgs, _ := encryptN(t, alice, "hello bob")
	pt, _, err := ratchet.Decrypt(bob, msgs[0])
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(pt) != "hello bob" {
		t.Fatalf("got %q", pt)
	}
}

func TestStateNotMutatedInPlace(t *testing.T) {
	alice, bob := pair(t)

	msgs, _ := encryptN(t, alice, "one")

	// Decrypt twice from the same pre-decrypt state value: both must
	// succeed, proving Decrypt returned a new state instead of
	// consuming the old one.
	for i := 0; i < 2; i++ {
		pt, _, err := ratchet.Decrypt(bob, msgs[0])
		if err != nil {
			t.Fatalf("Decrypt pass %d: %v", i, err)
		}
		if string(pt) != "one" {
			t.Fatalf("pass %d got %q", i, pt)
		}
	}
}

func TestReplayRejected(t *testing.T) {
	alice, bob := pair(t)

	msgs, _ := encryptN(t, alice, "once only")
	_, bob, err := ratchet.Decrypt(bob, msgs[0])
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	// The advanced state holds neither the chain position nor a cached
	// key for the consumed message.
	if _, _, err := ratchet.Decrypt(bob, msgs[0]); err == nil {
		t.Fatal("replayed message accepted")
	}
}

func TestConversationConvergence(t *testing.T) {
	alice, bob := pair(t)

	// Several full turns, each direction triggering DH ratchet steps.
	for turn := 0; turn < 5; turn++ {
		msgs, nextAlice := encryptN(t, alice, fmt.Sprintf("a->b %d", turn))
		alice = nextAlice
		pt, nextBob, err := ratchet.Decrypt(bob, msgs[0])
		if err != nil {
			t.Fatalf("turn %d a->b: %v", turn, err)
		}
		if string(pt) != fmt.Sprintf("a->b %d", turn) {
			t.Fatalf("turn %d got %q", turn, pt)
		}
		bob = nextBob

		reply, nextBob2 := encryptN(t, bob, fmt.Sprintf("b->a %d", turn))
		bob = nextBob2
		pt, nextAlice2, err := ratchet.Decrypt(alice, reply[0])
		if err != nil {
			t.Fatalf("turn %d b->a: %v", turn, err)
		}
		if string(pt) != fmt.Sprintf("b->a %d", turn) {
			t.Fatalf("turn %d got %q", turn, pt)
		}
		alice = nextAlice2
	}

	if len(alice.Skipped) != 0 || len(bob.Skipped) != 0 {
		t.Fatal("in-order conversation left skipped keys behind")
	}
}

func TestOutOfOrderWithinChain(t *testing.T) {
	orders := [][]int{{0, 2, 1}, {2, 1, 0}, {1, 2, 0}}
	for _, order := range orders {
		t.Run(fmt.Sprintf("%v", order), func(t *testing.T) {
			alice, bob := pair(t)
			msgs, _ := encryptN(t, alice, "m0", "m1", "m2")

			want := []string{"m0", "m1", "m2"}
			for _, idx := range order {
				pt, next, err := ratchet.Decrypt(bob, msgs[idx])
				if err != nil {
					t.Fatalf("Decrypt m%d: %v", idx, err)
				}
				if string(pt) != want[idx] {
					t.Fatalf("m%d got %q", idx, pt)
				}
				bob = next
			}
			if len(bob.Skipped) != 0 {
				t.Fatalf("skipped cache not drained: %d", len(bob.Skipped))
			}
		})
	}
}

func TestOutOfOrderAcrossChains(t *testing.T) {
	alice, bob := pair(t)

	// Alice sends two; only the first arrives before the turn.
	msgs, alice := encryptN(t, alice, "early", "late")

	pt, bob, err := ratchet.Decrypt(bob, msgs[0])
	if err != nil || string(pt) != "early" {
		t.Fatalf("first: %v %q", err, pt)
	}

	// Bob replies, forcing a DH ratchet step on both sides.
	reply, bob := encryptN(t, bob, "turn")
	pt, alice, err = ratchet.Decrypt(alice, reply[0])
	if err != nil || string(pt) != "turn" {
		t.Fatalf("reply: %v %q", err, pt)
	}

	// Alice continues in a fresh chain; Bob decrypts the new chain
	// first, then the straggler from the old chain.
	newChain, _ := encryptN(t, alice, "fresh")
	pt, bob, err = ratchet.Decrypt(bob, newChain[0])
	if err != nil || string(pt) != "fresh" {
		t.Fatalf("fresh: %v %q", err, pt)
	}
	if len(bob.Skipped) == 0 {
		t.Fatal("no key cached for the straggler")
	}

	pt, bob, err = ratchet.Decrypt(bob, msgs[1])
	if err != nil || string(pt) != "late" {
		t.Fatalf("straggler: %v %q", err, pt)
	}
	if len(bob.Skipped) != 0 {
		t.Fatal("straggler key not consumed")
	}
}

func TestSkippedKeyConsumedExactlyOnce(t *testing.T) {
	alice, bob := pair(t)
	msgs, _ := encryptN(t, alice, "m0", "m1")

	// Decrypt m1 first; m0's key lands in the cache.
	if _, next, err := ratchet.Decrypt(bob, msgs[1]); err != nil {
		t.Fatalf("m1: %v", err)
	} else {
		bob = next
	}
	if len(bob.Skipped) != 1 {
		t.Fatalf("want 1 cached key, got %d", len(bob.Skipped))
	}

	if _, next, err := ratchet.Decrypt(bob, msgs[0]); err != nil {
		t.Fatalf("m0: %v", err)
	} else {
		bob = next
	}
	if len(bob.Skipped) != 0 {
		t.Fatal("cached key not deleted")
	}
	if _, _, err := ratchet.Decrypt(bob, msgs[0]); err == nil {
		t.Fatal("cached key regenerated")
	}
}

func TestTamperDetection(t *testing.T) {
	alice, bob := pair(t)
	msgs, _ := encryptN(t, alice, "integrity")
	msg := msgs[0]

	// Flip one bit at a time across header and ciphertext.
	for i := 0; i < len(msg.Header); i++ {
		mangled := domain.EncryptedMessage{
			Header:     append([]byte(nil), msg.Header...),
			Ciphertext: msg.Ciphertext,
		}
		mangled.Header[i] ^= 0x80
		if pt, _, err := ratchet.Decrypt(bob, mangled); err == nil {
			t.Fatalf("tampered header byte %d yielded %q", i, pt)
		}
	}
	for i := 0; i < len(msg.Ciphertext); i++ {
		mangled := domain.EncryptedMessage{
			Header:     msg.Header,
			Ciphertext: append([]byte(nil), msg.Ciphertext...),
		}
		mangled.Ciphertext[i] ^= 0x80
		_, _, err := ratchet.Decrypt(bob, mangled)
		if err == nil {
			t.Fatalf("tampered ciphertext byte %d accepted", i)
		}
	}
}

func TestAuthFailureLeavesStateUsable(t *testing.T) {
	alice, bob := pair(t)
	msgs, _ := encryptN(t, alice, "good")

	bad := domain.EncryptedMessage{
		Header:     msgs[0].Header,
		Ciphertext: append([]byte(nil), msgs[0].Ciphertext...),
	}
	bad.Ciphertext[len(bad.Ciphertext)-1] ^= 0x01

	_, after, err := ratchet.Decrypt(bob, bad)
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("want ErrAuthentication, got %v", err)
	}

	// The returned state is the untouched input; the real message
	// still decrypts.
	if pt, _, err := ratchet.Decrypt(after, msgs[0]); err != nil || string(pt) != "good" {
		t.Fatalf("state corrupted by failed decrypt: %v %q", err, pt)
	}
}

func TestForwardSecrecyAfterRatchetSteps(t *testing.T) {
	alice, bob := pair(t)

	old, alice := encryptN(t, alice, "past")
	pt, bob, err := ratchet.Decrypt(bob, old[0])
	if err != nil || string(pt) != "past" {
		t.Fatalf("initial: %v %q", err, pt)
	}

	// Drive several DH ratchet steps.
	for i := 0; i < 3; i++ {
		reply, nextBob := encryptN(t, bob, "b")
		bob = nextBob
		if _, next, err := ratchet.Decrypt(alice, reply[0]); err != nil {
			t.Fatalf("b->a %d: %v", i, err)
		} else {
			alice = next
		}
		fwd, nextAlice := encryptN(t, alice, "a")
		alice = nextAlice
		if _, next, err := ratchet.Decrypt(bob, fwd[0]); err != nil {
			t.Fatalf("a->b %d: %v", i, err)
		} else {
			bob = next
		}
	}

	// No recomputation from the current state recovers the old
	// message key.
	if _, _, err := ratchet.Decrypt(bob, old[0]); err == nil {
		t.Fatal("old message key recoverable after ratchet steps")
	}
}

func TestEncryptBeforeFirstReceive(t *testing.T) {
	_, bob := pair(t)
	if _, _, err := ratchet.Encrypt(bob, []byte("too early")); !errors.Is(err, ratchet.ErrSendChainUninitialised) {
		t.Fatalf("want ErrSendChainUninitialised, got %v", err)
	}
}

func TestExcessiveGapRejected(t *testing.T) {
	alice, bob := pair(t)

	msgs, _ := encryptN(t, alice, "m0")
	header, err := ratchet.DecodeHeader(msgs[0].Header)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	header.MessageNumber = 5000
	forged := domain.EncryptedMessage{Header: ratchet.EncodeHeader(header), Ciphertext: msgs[0].Ciphertext}

	if _, _, err := ratchet.Decrypt(bob, forged); !errors.Is(err, ratchet.ErrTooManySkipped) {
		t.Fatalf("want ErrTooManySkipped, got %v", err)
	}
}

func TestSkippedCacheEvictionAtCap(t *testing.T) {
	alice, bob := pair(t)

	msgs := make([]domain.EncryptedMessage, 1003)
	for i := range msgs {
		enc, next, err := ratchet.Encrypt(alice, []byte("m"))
		if err != nil {
			t.Fatalf("Encrypt %d: %v", i, err)
		}
		msgs[i] = enc
		alice = next
	}

	// Jumping straight to message 1000 caches exactly the cap.
	_, bob, err := ratchet.Decrypt(bob, msgs[1000])
	if err != nil {
		t.Fatalf("Decrypt 1000: %v", err)
	}
	if len(bob.Skipped) != 1000 {
		t.Fatalf("cache holds %d keys, want 1000", len(bob.Skipped))
	}

	// One more skip at a full cache evicts a single entry to make room.
	_, bob, err = ratchet.Decrypt(bob, msgs[1002])
	if err != nil {
		t.Fatalf("Decrypt 1002: %v", err)
	}
	if len(bob.Skipped) != 1000 {
		t.Fatalf("cache grew past the cap: %d", len(bob.Skipped))
	}

	// The just-skipped key is cached; exactly one older key is gone.
	if _, _, err := ratchet.Decrypt(bob, msgs[1001]); err != nil {
		t.Fatalf("Decrypt 1001: %v", err)
	}
	evicted := 0
	for i := 0; i < 1000; i++ {
		if _, _, err := ratchet.Decrypt(bob, msgs[i]); err != nil {
			evicted++
		}
	}
	if evicted != 1 {
		t.Fatalf("%d cached keys lost, want exactly 1", evicted)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	alice, bob := pair(t)
	msgs, _ := encryptN(t, alice, "m0", "m1", "m2")

	// Create a skipped key, then persist and restore the state.
	_, bob, err := ratchet.Decrypt(bob, msgs[2])
	if err != nil {
		t.Fatalf("m2: %v", err)
	}
	snap := ratchet.Clone(bob)

	raw, err := snap.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var restored domain.RatchetState
	if err := restored.UnmarshalJSON(raw); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}

	pt, _, err := ratchet.Decrypt(restored, msgs[0])
	if err != nil || string(pt) != "m0" {
		t.Fatalf("restored state cannot use cached keys: %v %q", err, pt)
	}
}

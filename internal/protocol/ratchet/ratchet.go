package ratchet

import (
	"errors"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
	"sealbox/internal/util/memzero"
)

// maxSkipped caps both the number of message keys derived in a single
// gap and the size of the skipped-key cache.
const maxSkipped = 1000

var (
	// ErrSendChainUninitialised is returned when encrypting before any
	// chain material exists on the sending side.
	ErrSendChainUninitialised = errors.New("sending chain is uninitialised")

	// ErrTooManySkipped is returned when a header demands deriving more
	// than maxSkipped keys in one jump.
	ErrTooManySkipped = errors.New("message gap exceeds skipped-key limit")
)

// Initialize builds a fresh ratchet state from an X3DH-derived root and
// chain key. The initiator seeds its sending chain with the chain key;
// the responder seeds its receiving chain. The peer's ratchet public key
// is learned from the first received header.
func Initialize(rootKey, chainKey []byte, initiator bool) (domain.RatchetState, error) {
	pair, err := crypto.GenerateKeyPair()
	if err != nil {
		return domain.RatchetState{}, err
	}
	st := domain.RatchetState{
		RootKey:        dup(rootKey),
		SendingRatchet: pair,
		Skipped:        make(map[domain.SkippedKeyID][]byte),
	}
	if initiator {
		st.Sending.ChainKey = dup(chainKey)
	} else {
		st.Receiving.ChainKey = dup(chainKey)
	}
	return st, nil
}

// Encrypt derives the next message key from the sending chain, builds a
// header carrying the current ratchet public key, and seals plaintext
// with the header as associated data and a fresh random nonce.
//
// The input state is not mutated; the advanced state is returned and
// must be persisted by the caller before the message is sent.
func Encrypt(st domain.RatchetState, plaintext []byte) (domain.EncryptedMessage, domain.RatchetState, error) {
	next := clone(st)

	if len(next.Sending.ChainKey) == 0 {
		// Responder's first send: one DH ratchet step against the
		// peer key learned from the first received header.
		if !next.PeerRatchetSet {
			return domain.EncryptedMessage{}, st, ErrSendChainUninitialised
		}
		if err := stepSending(&next); err != nil {
			return domain.EncryptedMessage{}, st, err
		}
	}

	header := domain.RatchetHeader{
		RatchetKey:      next.SendingRatchet.Pub,
		PreviousCounter: next.PreviousCounter,
		MessageNumber:   next.Sending.MessageNumber,
	}
	hb := EncodeHeader(header)

	mk := chainStep(&next.Sending)
	ct, err := crypto.Seal(mk, plaintext, hb)
	memzero.Zero(mk)
	if err != nil {
		return domain.EncryptedMessage{}, st, err
	}

	return domain.EncryptedMessage{Header: hb, Ciphertext: ct}, next, nil
}

// Decrypt resolves the message key for msg and opens it, verifying the
// header as associated data before any plaintext is returned.
//
// The key is taken from the skipped cache when the message was already
// passed over, or derived by walking the receiving chain forward while
// caching every intermediate key; a header carrying an unseen ratchet
// public key first triggers a DH ratchet step. On any error the input
// state is returned unchanged.
func Decrypt(st domain.RatchetState, msg domain.EncryptedMessage) ([]byte, domain.RatchetState, error) {
	header, err := DecodeHeader(msg.Header)
	if err != nil {
		return nil, st, err
	}
	next := clone(st)

	// A key cached during an earlier gap is consumed exactly once.
	skipID := domain.SkippedKeyID{RatchetKey: header.RatchetKey, MessageNumber: header.MessageNumber}
	if mk, ok := next.Skipped[skipID]; ok {
		pt, err := crypto.Open(mk, msg.Ciphertext, msg.Header)
		if err != nil {
			return nil, st, err
		}
		memzero.Zero(mk)
		delete(next.Skipped, skipID)
		return pt, next, nil
	}

	switch {
	case !next.PeerRatchetSet && len(next.Receiving.ChainKey) > 0:
		// First header after the handshake: the receiving chain is
		// already seeded by X3DH, so only record the peer's key.
		next.PeerRatchetKey = header.RatchetKey
		next.PeerRatchetSet = true

	case !next.PeerRatchetSet || next.PeerRatchetKey != header.RatchetKey:
		// New ratchet key: close out the old chain, then step.
		if err := skipUntil(&next, header.PreviousCounter); err != nil {
			return nil, st, err
		}
		if err := stepReceiving(&next, header.RatchetKey); err != nil {
			return nil, st, err
		}
	}

	if err := skipUntil(&next, header.MessageNumber); err != nil {
		return nil, st, err
	}

	mk := chainStep(&next.Receiving)
	pt, err := crypto.Open(mk, msg.Ciphertext, msg.Header)
	memzero.Zero(mk)
	if err != nil {
		return nil, st, err
	}
	return pt, next, nil
}

// stepSending performs the sending half of a DH ratchet step: a new
// local ratchet pair and a new sending chain from the advanced root.
func stepSending(st *domain.RatchetState) error {
	pair, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	dh, err := crypto.DH(pair.Priv, st.PeerRatchetKey)
	if err != nil {
		return err
	}
	newRoot, sendCK := crypto.Derive2(dh[:], st.RootKey, crypto.LabelRootChain)
	memzero.Zero(dh[:])
	memzero.Zero(st.RootKey)

	st.PreviousCounter = st.Sending.MessageNumber
	st.RootKey = newRoot
	st.SendingRatchet = pair
	st.Sending = domain.ChainState{ChainKey: sendCK}
	return nil
}

// stepReceiving performs a full DH ratchet step for a newly observed
// peer key: derive the new receiving chain, then immediately rotate the
// local ratchet pair and derive the next sending chain.
func stepReceiving(st *domain.RatchetState, peer domain.X25519Public) error {
	dh, err := crypto.DH(st.SendingRatchet.Priv, peer)
	if err != nil {
		return err
	}
	rootAfterRecv, recvCK := crypto.Derive2(dh[:], st.RootKey, crypto.LabelRootChain)
	memzero.Zero(dh[:])

	pair, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	dh2, err := crypto.DH(pair.Priv, peer)
	if err != nil {
		return err
	}
	newRoot, sendCK := crypto.Derive2(dh2[:], rootAfterRecv, crypto.LabelRootChain)
	memzero.Zero(dh2[:])
	memzero.Zero(rootAfterRecv)
	memzero.Zero(st.RootKey)

	st.PeerRatchetKey = peer
	st.PeerRatchetSet = true
	st.RootKey = newRoot
	st.Receiving = domain.ChainState{ChainKey: recvCK}
	st.PreviousCounter = st.Sending.MessageNumber
	st.SendingRatchet = pair
	st.Sending = domain.ChainState{ChainKey: sendCK}
	return nil
}

// skipUntil walks the receiving chain forward to position target,
// caching every intermediate message key so late arrivals can still be
// decrypted. The cache is capped; an arbitrary entry is evicted when
// full.
func skipUntil(st *domain.RatchetState, target uint32) error {
	if st.Receiving.MessageNumber >= target {
		return nil
	}
	if len(st.Receiving.ChainKey) == 0 {
		return nil
	}
	if target-st.Receiving.MessageNumber > maxSkipped {
		return ErrTooManySkipped
	}
	for st.Receiving.MessageNumber < target {
		n := st.Receiving.MessageNumber
		mk := chainStep(&st.Receiving)
		if len(st.Skipped) >= maxSkipped {
			for k := range st.Skipped {
				memzero.Zero(st.Skipped[k])
				delete(st.Skipped, k)
				break
			}
		}
		st.Skipped[domain.SkippedKeyID{RatchetKey: st.PeerRatchetKey, MessageNumber: n}] = mk
	}
	return nil
}

// chainStep derives the current message key and advances the chain key,
// using distinct KDF labels for the two outputs.
func chainStep(c *domain.ChainState) []byte {
	mk := crypto.Derive(c.ChainKey, nil, crypto.LabelMessage, 32)
	nextCK := crypto.Derive(c.ChainKey, nil, crypto.LabelChainNext, 32)
	memzero.Zero(c.ChainKey)
	c.ChainKey = nextCK
	c.MessageNumber++
	return mk
}

// Clone deep-copies a ratchet state, for snapshotting and persistence.
func Clone(st domain.RatchetState) domain.RatchetState {
	return clone(st)
}

// clone deep-copies a ratchet state so the caller's value stays valid.
func clone(st domain.RatchetState) domain.RatchetState {
	out := st
	out.RootKey = dup(st.RootKey)
	out.Sending.ChainKey = dup(st.Sending.ChainKey)
	out.Receiving.ChainKey = dup(st.Receiving.ChainKey)
	out.Skipped = make(map[domain.SkippedKeyID][]byte, len(st.Skipped))
	for k, v := range st.Skipped {
		out.Skipped[k] = dup(v)
	}
	return out
}

func dup(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

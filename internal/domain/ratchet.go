package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

// HeaderSize is the fixed wire size of a serialized RatchetHeader:
// 32-byte ratchet public key, 4-byte little-endian previous counter,
// 4-byte little-endian message number.
const HeaderSize = 40

// RatchetHeader is transmitted in the clear alongside every ciphertext
// and authenticated as AEAD associated data.
type RatchetHeader struct {
	RatchetKey      X25519Public `json:"ratchet_key"`
	PreviousCounter uint32       `json:"previous_counter"`
	MessageNumber   uint32       `json:"message_number"`
}

// ChainState is one symmetric KDF chain: the current chain key and the
// number of message keys already derived from it.
type ChainState struct {
	ChainKey      []byte `json:"chain_key,omitempty"`
	MessageNumber uint32 `json:"message_number"`
}

// SkippedKeyID identifies a derived-but-unused message key by the
// ratchet public key of its chain and its position in that chain.
type SkippedKeyID struct {
	RatchetKey    X25519Public
	MessageNumber uint32
}

// RatchetState is the full Double Ratchet state for one peer. Every
// Encrypt/Decrypt consumes a state value and returns a new one; the
// caller owns persistence between calls.
type RatchetState struct {
	RootKey []byte `json:"root_key"`

	Sending   ChainState `json:"sending"`
	Receiving ChainState `json:"receiving"`

	SendingRatchet KeyPair      `json:"sending_ratchet"`
	PeerRatchetKey X25519Public `json:"peer_ratchet_key"`
	PeerRatchetSet bool         `json:"peer_ratchet_set"`

	PreviousCounter uint32 `json:"previous_counter"`

	Skipped map[SkippedKeyID][]byte `json:"-"`
}

type skippedEntry struct {
	RatchetKey    X25519Public `json:"ratchet_key"`
	MessageNumber uint32       `json:"message_number"`
	MessageKey    []byte       `json:"message_key"`
}

// MarshalJSON flattens the skipped-key map into a sorted list so that
// snapshots round-trip and serialize deterministically.
func (s RatchetState) MarshalJSON() ([]byte, error) {
	type alias RatchetState
	entries := make([]skippedEntry, 0, len(s.Skipped))
	for id, mk := range s.Skipped {
		entries = append(entries, skippedEntry{
			RatchetKey:    id.RatchetKey,
			MessageNumber: id.MessageNumber,
			MessageKey:    mk,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		c := bytes.Compare(entries[i].RatchetKey[:], entries[j].RatchetKey[:])
		if c != 0 {
			return c < 0
		}
		return entries[i].MessageNumber < entries[j].MessageNumber
	})
	return json.Marshal(struct {
		alias
		Skipped []skippedEntry `json:"skipped,omitempty"`
	}{alias(s), entries})
}

// UnmarshalJSON restores the skipped-key map from its list form.
func (s *RatchetState) UnmarshalJSON(data []byte) error {
	type alias RatchetState
	var aux struct {
		alias
		Skipped []skippedEntry `json:"skipped,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = RatchetState(aux.alias)
	s.Skipped = make(map[SkippedKeyID][]byte, len(aux.Skipped))
	for _, e := range aux.Skipped {
		s.Skipped[SkippedKeyID{RatchetKey: e.RatchetKey, MessageNumber: e.MessageNumber}] = e.MessageKey
	}
	return nil
}

// EncryptedMessage is the on-the-wire unit: the fixed-layout header and
// the ciphertext with its 12-byte random nonce prefixed.
type EncryptedMessage struct {
	Header     []byte `json:"header"`
	Ciphertext []byte `json:"ciphertext"`
}

// SealedMessage is the output of the hybrid single-shot primitive: the
// sender's ephemeral public key and a nonce-prefixed ciphertext.
type SealedMessage struct {
	EphemeralKey X25519Public `json:"ephemeral_key"`
	Ciphertext   []byte       `json:"ciphertext"`
}

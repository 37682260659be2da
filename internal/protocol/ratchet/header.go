package ratchet

import (
	"encoding/binary"
	"fmt"

	"sealbox/internal/domain"
)

// EncodeHeader serializes a header into its fixed 40-byte wire layout:
// 32-byte ratchet public key, 4-byte little-endian previous counter,
// 4-byte little-endian message number. The layout is bit-compatible
// between peers and authenticated as AEAD associated data.
func EncodeHeader(h domain.RatchetHeader) []byte {
	out := make([]byte, domain.HeaderSize)
	copy(out, h.RatchetKey.Slice())
	binary.LittleEndian.PutUint32(out[32:36], h.PreviousCounter)
	binary.LittleEndian.PutUint32(out[36:40], h.MessageNumber)
	return out
}

// DecodeHeader parses a 40-byte wire header.
func DecodeHeader(b []byte) (domain.RatchetHeader, error) {
	if len(b) != domain.HeaderSize {
		return domain.RatchetHeader{}, fmt.Errorf("bad header length %d", len(b))
	}
	var h domain.RatchetHeader
	copy(h.RatchetKey[:], b[:32])
	h.PreviousCounter = binary.LittleEndian.Uint32(b[32:36])
	h.MessageNumber = binary.LittleEndian.Uint32(b[36:40])
	return h, nil
}

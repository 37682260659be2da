package session

import (
	"encoding/json"

	"sealbox/internal/domain"
	"sealbox/internal/protocol/sealed"
)

// EncryptFile runs the whole sender-side pipeline for an in-memory
// file: optional LZ4 compression, stream start, split, per-chunk
// encryption. The offer records whether the payload was compressed.
func (s *Session) EncryptFile(fileID string, data []byte, compressed bool) (domain.FileOffer, []domain.EncryptedChunk, error) {
	payload := data
	if compressed {
		var err error
		if payload, err = compress(data); err != nil {
			return domain.FileOffer{}, nil, err
		}
	}

	offer, err := s.StartFileEncryption(fileID, uint64(len(payload)))
	if err != nil {
		return domain.FileOffer{}, nil, err
	}
	offer.Size = uint64(len(data))
	offer.Compressed = compressed

	pieces := SplitIntoChunks(payload)
	chunks := make([]domain.EncryptedChunk, 0, len(pieces))
	for i, piece := range pieces {
		ec, err := s.EncryptFileChunk(fileID, uint32(i), piece, i == len(pieces)-1)
		if err != nil {
			return domain.FileOffer{}, nil, err
		}
		chunks = append(chunks, ec)
	}

	s.mu.Lock()
	delete(s.streams, fileID)
	s.mu.Unlock()
	return offer, chunks, nil
}

// DecryptFile runs the receiver-side pipeline: stream start, per-chunk
// verification in the given (arbitrary) order, assembly, optional
// decompression.
func (s *Session) DecryptFile(offer domain.FileOffer, chunks []domain.EncryptedChunk) ([]byte, error) {
	if err := s.StartFileDecryption(offer.FileID, offer.Key, offer.TotalChunks); err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if err := s.DecryptFileChunk(offer.FileID, c); err != nil {
			return nil, err
		}
	}
	data, err := s.AssembleFile(offer.FileID)
	if err != nil {
		return nil, err
	}
	if offer.Compressed {
		return decompress(data)
	}
	return data, nil
}

// SealOffer wraps a file offer for a recipient with the hybrid
// single-shot primitive, for delivery before a ratchet session exists.
func SealOffer(recipient domain.X25519Public, offer domain.FileOffer) (domain.SealedMessage, error) {
	raw, err := json.Marshal(offer)
	if err != nil {
		return domain.SealedMessage{}, err
	}
	return sealed.Seal(recipient, raw)
}

// OpenOffer unwraps a sealed file offer.
func OpenOffer(recipientPriv domain.X25519Private, msg domain.SealedMessage) (domain.FileOffer, error) {
	raw, err := sealed.Open(recipientPriv, msg)
	if err != nil {
		return domain.FileOffer{}, err
	}
	var offer domain.FileOffer
	if err := json.Unmarshal(raw, &offer); err != nil {
		return domain.FileOffer{}, err
	}
	return offer, nil
}

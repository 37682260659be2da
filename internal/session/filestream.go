package session

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
	"sealbox/internal/util/memzero"
)

// StartFileEncryption opens a sender-side stream for a file of size
// bytes: a fresh random per-file key and the fixed-size chunk count.
// The returned offer must reach the receiver out of band, typically
// sealed with SealOffer or sent through the established ratchet.
func (s *Session) StartFileEncryption(fileID string, size uint64) (domain.FileOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.streams[fileID]; exists {
		return domain.FileOffer{}, fmt.Errorf("file stream %q already started", fileID)
	}
	key, err := crypto.RandomKey()
	if err != nil {
		return domain.FileOffer{}, err
	}
	total := uint32((size + domain.ChunkSize - 1) / domain.ChunkSize)

	s.streams[fileID] = &domain.FileStreamState{
		FileID:      fileID,
		TotalChunks: total,
		Key:         key,
	}
	s.log.WithFields(logrus.Fields{
		"file_id": fileID,
		"size":    size,
		"chunks":  total,
	}).Debug("file encryption started")

	// The offer gets its own copy; Cleanup zeroes the stream's key.
	return domain.FileOffer{
		FileID:      fileID,
		Key:         append([]byte(nil), key...),
		TotalChunks: total,
		Size:        size,
	}, nil
}

// SplitIntoChunks partitions data into ChunkSize pieces in order; the
// final piece is short unless the size divides evenly. The returned
// slices alias data.
func SplitIntoChunks(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	chunks := make([][]byte, 0, (len(data)+domain.ChunkSize-1)/domain.ChunkSize)
	for off := 0; off < len(data); off += domain.ChunkSize {
		end := off + domain.ChunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}

// EncryptFileChunk seals one chunk under the stream's file key with a
// fresh random nonce, binding the chunk index as associated data so a
// chunk cannot be replayed at another position.
func (s *Session) EncryptFileChunk(fileID string, index uint32, chunk []byte, isLast bool) (domain.EncryptedChunk, error) {
	s.mu.Lock()
	stream, ok := s.streams[fileID]
	s.mu.Unlock()
	if !ok {
		return domain.EncryptedChunk{}, domain.ErrUnknownFileStream
	}
	if index >= stream.TotalChunks {
		return domain.EncryptedChunk{}, fmt.Errorf("chunk index %d out of range (total %d)", index, stream.TotalChunks)
	}

	nonce, ct, err := crypto.SealDetached(stream.Key, chunk, chunkAD(index))
	if err != nil {
		return domain.EncryptedChunk{}, err
	}
	return domain.EncryptedChunk{
		ChunkID:       index,
		EncryptedData: ct,
		Nonce:         nonce,
		IsLast:        isLast,
	}, nil
}

// StartFileDecryption opens a receiver-side stream from an out-of-band
// delivered file key and expected chunk count.
func (s *Session) StartFileDecryption(fileID string, key []byte, totalChunks uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.streams[fileID]; exists {
		return fmt.Errorf("file stream %q already started", fileID)
	}
	s.streams[fileID] = &domain.FileStreamState{
		FileID:      fileID,
		TotalChunks: totalChunks,
		Received:    make(map[uint32][]byte),
		Key:         append([]byte(nil), key...),
	}
	return nil
}

// DecryptFileChunk verifies and stores one chunk, in any arrival order.
// A chunk whose index does not match its associated data fails
// authentication.
func (s *Session) DecryptFileChunk(fileID string, chunk domain.EncryptedChunk) error {
	s.mu.Lock()
	stream, ok := s.streams[fileID]
	s.mu.Unlock()
	if !ok {
		return domain.ErrUnknownFileStream
	}
	if stream.Received == nil {
		return fmt.Errorf("file stream %q is not open for decryption", fileID)
	}
	if chunk.ChunkID >= stream.TotalChunks {
		return fmt.Errorf("chunk index %d out of range (total %d)", chunk.ChunkID, stream.TotalChunks)
	}

	pt, err := crypto.OpenDetached(stream.Key, chunk.Nonce, chunk.EncryptedData, chunkAD(chunk.ChunkID))
	if err != nil {
		return err
	}

	s.mu.Lock()
	stream.Received[chunk.ChunkID] = pt
	s.mu.Unlock()
	return nil
}

// AssembleFile concatenates all received chunks in index order and
// closes the stream. Before every chunk has arrived it fails with an
// IncompleteFileError carrying the received/expected counts.
func (s *Session) AssembleFile(fileID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, ok := s.streams[fileID]
	if !ok {
		return nil, domain.ErrUnknownFileStream
	}
	if stream.Received == nil {
		return nil, fmt.Errorf("file stream %q is not open for decryption", fileID)
	}
	if uint32(len(stream.Received)) != stream.TotalChunks {
		return nil, &domain.IncompleteFileError{
			FileID:   fileID,
			Received: uint32(len(stream.Received)),
			Expected: stream.TotalChunks,
		}
	}

	var size int
	for _, c := range stream.Received {
		size += len(c)
	}
	out := make([]byte, 0, size)
	for i := uint32(0); i < stream.TotalChunks; i++ {
		out = append(out, stream.Received[i]...)
	}

	memzero.Zero(stream.Key)
	delete(s.streams, fileID)

	s.log.WithFields(logrus.Fields{
		"file_id": fileID,
		"bytes":   len(out),
	}).Debug("file assembled")
	return out, nil
}

// chunkAD is the 4-byte little-endian chunk index used as AEAD
// associated data.
func chunkAD(index uint32) []byte {
	var ad [4]byte
	binary.LittleEndian.PutUint32(ad[:], index)
	return ad[:]
}

package domain

// ChunkSize is the fixed plaintext size of a file chunk.
const ChunkSize = 64 * 1024

// FileStreamState tracks one in-flight file transfer on either side.
// Received maps chunk index to decrypted plaintext; assembly is only
// valid once every index below TotalChunks is present.
type FileStreamState struct {
	FileID      string
	TotalChunks uint32
	Received    map[uint32][]byte
	Key         []byte
}

// EncryptedChunk is the wire form of a single file chunk. The chunk
// index is bound into the AEAD associated data, so a chunk cannot be
// substituted at a different position.
type EncryptedChunk struct {
	ChunkID       uint32 `json:"chunk_id"`
	EncryptedData []byte `json:"encrypted_data"`
	Nonce         []byte `json:"nonce"`
	IsLast        bool   `json:"is_last"`
}

// FileOffer is the out-of-band metadata a sender delivers (sealed with
// the hybrid primitive, or through an established ratchet) so the
// receiver can start decrypting chunks.
type FileOffer struct {
	FileID      string `json:"file_id"`
	Key         []byte `json:"key"`
	TotalChunks uint32 `json:"total_chunks"`
	Size        uint64 `json:"size"`
	Compressed  bool   `json:"compressed,omitempty"`
}

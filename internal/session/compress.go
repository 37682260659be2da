package session

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var (
	// ErrCompressionFailed is returned when LZ4 framing fails.
	ErrCompressionFailed = errors.New("compression failed")
	// ErrDecompressionFailed is returned on a corrupt LZ4 frame.
	ErrDecompressionFailed = errors.New("decompression failed")
)

// Writer/reader pools keep large-file transfers from reallocating LZ4
// state per call.
var compressorPool = sync.Pool{
	New: func() interface{} { return lz4.NewWriter(nil) },
}

var decompressorPool = sync.Pool{
	New: func() interface{} { return lz4.NewReader(nil) },
}

// compress frames data with LZ4. Applied to the whole file before
// chunking, so chunk boundaries stay independent of the codec.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := compressorPool.Get().(*lz4.Writer)
	defer compressorPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, ErrCompressionFailed
	}
	if err := w.Close(); err != nil {
		return nil, ErrCompressionFailed
	}
	return buf.Bytes(), nil
}

// decompress reverses compress.
func decompress(data []byte) ([]byte, error) {
	r := decompressorPool.Get().(*lz4.Reader)
	defer decompressorPool.Put(r)
	r.Reset(bytes.NewReader(data))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, ErrDecompressionFailed
	}
	return buf.Bytes(), nil
}

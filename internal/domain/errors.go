package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature is returned when a signed prekey signature
	// does not verify under the claimed signing key.
	ErrInvalidSignature = errors.New("invalid signed prekey signature")

	// ErrAuthentication is returned when an AEAD tag fails to verify.
	// No plaintext is ever returned alongside it.
	ErrAuthentication = errors.New("message authentication failed")

	// ErrSessionNotEstablished is returned when a session operation is
	// attempted before a handshake has run. Programmer error; not
	// recoverable by retrying.
	ErrSessionNotEstablished = errors.New("session not established")

	// ErrUnknownFileStream is returned when a chunk operation names a
	// file ID that was never started.
	ErrUnknownFileStream = errors.New("unknown file stream")

	// ErrNoOneTimeKeys signals an empty one-time prekey pool. Bundle
	// creation degrades to a bundle without one; callers should
	// schedule replenishment.
	ErrNoOneTimeKeys = errors.New("one-time prekey pool exhausted")

	// ErrWrongPassphrase is returned when an encrypted store blob
	// cannot be opened, from a bad passphrase or corruption.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted data")
)

// IncompleteFileError reports an assembly attempt before every chunk
// has arrived. Recoverable: wait for more chunks and retry.
type IncompleteFileError struct {
	FileID   string
	Received uint32
	Expected uint32
}

func (e *IncompleteFileError) Error() string {
	return fmt.Sprintf("file %s incomplete: %d of %d chunks received", e.FileID, e.Received, e.Expected)
}

// Package session is the SDK surface of the protocol core. It
// orchestrates identity, the X3DH handshake, and the Double Ratchet
// into per-peer sessions, and streams large files in independently
// encrypted chunks that reassemble in any arrival order.
//
// The package performs no network or disk I/O; callers deliver the
// opaque bundles, handshake messages, ciphertexts and chunks it
// produces, and persist ratchet snapshots between calls.
package session

// Package x3dh implements the Extended Triple Diffie-Hellman key
// agreement: a one-shot handshake deriving a shared root and chain key
// from a peer's published prekey bundle, without the peer being online.
//
// The signed prekey signature check is the MITM-prevention checkpoint;
// it runs before any key derivation and is never skipped. A missing
// one-time prekey degrades the handshake to three DH terms instead of
// failing.
package x3dh

// Package store persists the device identity and per-peer ratchet
// snapshots as passphrase-encrypted files: scrypt-derived key,
// ChaCha20-Poly1305 envelope, atomic temp-file-then-rename writes.
package store

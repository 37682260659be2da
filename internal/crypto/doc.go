// Package crypto wraps the primitives the protocol core is built on.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie-Hellman (GenerateX25519, DH)
//   - Ed25519 key generation, signing and verification
//   - ChaCha20-Poly1305 AEAD with a random nonce prefixed to the
//     ciphertext (Seal, Open)
//   - HKDF-SHA256 with fixed domain-separation labels (Derive, Derive2)
//   - Grouped public-key fingerprints for out-of-band verification
//
// All functions operate on the fixed-size array types in internal/domain
// to avoid accidental reallocations. Callers should treat returned
// secrets as sensitive and wipe them when practical.
package crypto

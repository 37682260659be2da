// Package ratchet implements the Double Ratchet: a fast symmetric
// key-derivation chain per message layered over a slower Diffie-Hellman
// ratchet that renews forward secrecy whenever the conversation turns.
//
// Every operation consumes a state value and returns a new, fully
// formed one; the previous state stays valid, which makes snapshotting,
// persistence and replay-proof testing straightforward. A state must
// not be fed to two concurrent calls: serialize per session.
package ratchet

// Package domain defines the data models shared by the protocol core.
// It contains plain types (key material, wire formats, protocol state)
// and the error taxonomy only; no behaviour beyond trivial accessors.
package domain

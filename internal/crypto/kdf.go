package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KDF labels. Distinct, non-invertible labels per purpose; reusing one
// label for both the chain advance and the message key would break
// forward secrecy.
const (
	LabelX3DH      = "sealbox/x3dh/v1"
	LabelRootChain = "sealbox/dr/rk"
	LabelChainNext = "sealbox/dr/ck"
	LabelMessage   = "sealbox/dr/msg"
	LabelSealed    = "sealbox/sealed/v1"
)

// Derive runs HKDF-SHA256 over ikm with the given label and returns
// outLen bytes. A nil salt means a zero salt of hash length.
func Derive(ikm, salt []byte, label string, outLen int) []byte {
	r := hkdf.New(sha256.New, ikm, salt, []byte(label))
	out := make([]byte, outLen)
	// The KDF stream cannot run dry at these lengths.
	_, _ = io.ReadFull(r, out)
	return out
}

// Derive2 splits a 64-byte Derive output into two 32-byte keys.
func Derive2(ikm, salt []byte, label string) (a, b []byte) {
	out := Derive(ikm, salt, label, 64)
	return out[:32], out[32:]
}

package identity

import (
	"encoding/json"
	"fmt"

	"sealbox/internal/domain"
)

// Marshal serializes a DeviceIdentity to JSON. Key material is base64
// encoded by the standard library; CreatedAt is RFC 3339. The result
// round-trips losslessly through Unmarshal, one-time prekeys included.
func Marshal(id domain.DeviceIdentity) ([]byte, error) {
	return json.Marshal(id)
}

// Unmarshal restores a DeviceIdentity serialized by Marshal.
func Unmarshal(data []byte) (domain.DeviceIdentity, error) {
	var id domain.DeviceIdentity
	if err := json.Unmarshal(data, &id); err != nil {
		return domain.DeviceIdentity{}, err
	}
	if id.V > domain.IdentityFormatVersion {
		return domain.DeviceIdentity{}, fmt.Errorf("unsupported identity format version %d", id.V)
	}
	return id, nil
}

// MarshalBundle serializes a PreKeyBundle for distribution.
func MarshalBundle(b domain.PreKeyBundle) ([]byte, error) {
	return json.Marshal(b)
}

// UnmarshalBundle restores a PreKeyBundle received from a peer.
func UnmarshalBundle(data []byte) (domain.PreKeyBundle, error) {
	var b domain.PreKeyBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.PreKeyBundle{}, err
	}
	if b.V > domain.BundleFormatVersion {
		return domain.PreKeyBundle{}, fmt.Errorf("unsupported bundle format version %d", b.V)
	}
	return b, nil
}

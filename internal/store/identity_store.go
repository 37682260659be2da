package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"sealbox/internal/domain"
	"sealbox/internal/identity"
)

const identityFilename = "identity.json.enc"

// IdentityFileStore persists the device identity to disk, sealed under
// a passphrase-derived key.
type IdentityFileStore struct {
	dir string
	mu  sync.Mutex
	log *logrus.Entry
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{
		dir: dir,
		log: logrus.WithField("component", "identity-store"),
	}
}

// Save serializes and encrypts the identity, replacing any previous one
// atomically.
func (s *IdentityFileStore) Save(passphrase string, id domain.DeviceIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := identity.Marshal(id)
	if err != nil {
		return err
	}
	N, r, p := scryptParamsDefault()
	ct, err := encrypt(passphrase, raw, N, r, p)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(s.dir, identityFilename), ct, 0o600); err != nil {
		return err
	}
	s.log.WithField("device_id", id.DeviceID).Debug("identity saved")
	return nil
}

// Load decrypts and deserializes the identity.
func (s *IdentityFileStore) Load(passphrase string) (domain.DeviceIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, identityFilename))
	if err != nil {
		return domain.DeviceIdentity{}, err
	}
	pt, err := decrypt(passphrase, b)
	if err != nil {
		return domain.DeviceIdentity{}, err
	}
	return identity.Unmarshal(pt)
}

// Exists reports whether an identity file is present.
func (s *IdentityFileStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(filepath.Join(s.dir, identityFilename))
	return err == nil
}

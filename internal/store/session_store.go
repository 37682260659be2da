package store

import (
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"sync"

	"sealbox/internal/domain"
)

// SessionFileStore persists per-peer ratchet snapshots, sealed the same
// way as the identity. The ratchet core never persists implicitly; a
// caller snapshots after each encrypt/decrypt and hands the state here.
type SessionFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewSessionFileStore returns a SessionFileStore rooted at dir.
func NewSessionFileStore(dir string) *SessionFileStore {
	return &SessionFileStore{dir: dir}
}

// Save writes the ratchet state for peer.
func (s *SessionFileStore) Save(passphrase, peer string, st domain.RatchetState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	N, r, p := scryptParamsDefault()
	ct, err := encrypt(passphrase, raw, N, r, p)
	if err != nil {
		return err
	}
	return writeFile(s.path(peer), ct, 0o600)
}

// Load reads the ratchet state for peer. ok is false when none is
// stored.
func (s *SessionFileStore) Load(passphrase, peer string) (st domain.RatchetState, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path(peer))
	if err != nil || b == nil {
		return domain.RatchetState{}, false, err
	}
	pt, err := decrypt(passphrase, b)
	if err != nil {
		return domain.RatchetState{}, false, err
	}
	if err := json.Unmarshal(pt, &st); err != nil {
		return domain.RatchetState{}, false, err
	}
	return st, true, nil
}

// path keeps arbitrary peer names filesystem-safe.
func (s *SessionFileStore) path(peer string) string {
	return filepath.Join(s.dir, "session-"+hex.EncodeToString([]byte(peer))+".json.enc")
}

package session

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
	"sealbox/internal/identity"
	"sealbox/internal/protocol/ratchet"
	"sealbox/internal/protocol/x3dh"
	"sealbox/internal/util/memzero"
)

// Session is the per-peer protocol endpoint: one Double Ratchet state
// (absent before the handshake) plus any in-flight file streams.
//
// All methods serialize on an internal mutex; a ratchet state must not
// see two concurrent encrypt/decrypt calls. Independent sessions share
// nothing and run fully in parallel.
type Session struct {
	mu      sync.Mutex
	peer    string
	state   *domain.RatchetState
	streams map[string]*domain.FileStreamState
	log     *logrus.Entry
}

// New returns an empty session for peer. It cannot encrypt or decrypt
// until Initiate or Accept has run.
func New(peer string) *Session {
	return &Session{
		peer:    peer,
		streams: make(map[string]*domain.FileStreamState),
		log:     logrus.WithFields(logrus.Fields{"component": "session", "peer": peer}),
	}
}

// Initiate runs the X3DH sender flow against the peer's bundle and
// seeds the ratchet. The returned HandshakeMessage must reach the peer
// with (or before) the first encrypted message so it can mirror the
// agreement.
func (s *Session) Initiate(our *domain.DeviceIdentity, bundle domain.PreKeyBundle) (domain.HandshakeMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eph, err := crypto.GenerateKeyPair()
	if err != nil {
		return domain.HandshakeMessage{}, err
	}
	agreed, err := x3dh.Initiator(our.IdentityPriv, eph.Priv, bundle)
	if err != nil {
		return domain.HandshakeMessage{}, err
	}
	memzero.Zero(eph.Priv[:])

	st, err := ratchet.Initialize(agreed.RootKey, agreed.ChainKey, true)
	if err != nil {
		return domain.HandshakeMessage{}, err
	}
	memzero.Zero(agreed.RootKey)
	memzero.Zero(agreed.ChainKey)
	s.state = &st

	s.log.WithField("one_time_pre_key", bundle.OneTimePreKeyID != "").Debug("session initiated")

	return domain.HandshakeMessage{
		DeviceID:        our.DeviceID,
		IdentityKey:     our.IdentityPub,
		SigningKey:      our.SigningPub,
		Ephemeral:       eph.Pub,
		OneTimePreKeyID: bundle.OneTimePreKeyID,
	}, nil
}

// Accept runs the X3DH responder flow for an incoming handshake,
// consuming the targeted one-time prekey from our identity.
func (s *Session) Accept(our *domain.DeviceIdentity, hs domain.HandshakeMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var otkPriv *domain.X25519Private
	if hs.OneTimePreKeyID != "" {
		priv, ok := identity.ConsumeOneTimePreKey(our, hs.OneTimePreKeyID)
		if !ok {
			return fmt.Errorf("one-time prekey %q not held locally", hs.OneTimePreKeyID)
		}
		otkPriv = &priv
	}

	agreed, err := x3dh.Responder(our.IdentityPriv, our.SignedPreKeyPriv, otkPriv, hs.IdentityKey, hs.Ephemeral)
	if otkPriv != nil {
		memzero.Zero(otkPriv[:])
	}
	if err != nil {
		return err
	}

	st, err := ratchet.Initialize(agreed.RootKey, agreed.ChainKey, false)
	if err != nil {
		return err
	}
	memzero.Zero(agreed.RootKey)
	memzero.Zero(agreed.ChainKey)
	s.state = &st

	s.log.WithField("device", hs.DeviceID).Debug("session accepted")
	return nil
}

// EncryptMessage encrypts plaintext under the session ratchet.
func (s *Session) EncryptMessage(plaintext []byte) (domain.EncryptedMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return domain.EncryptedMessage{}, domain.ErrSessionNotEstablished
	}
	msg, next, err := ratchet.Encrypt(*s.state, plaintext)
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	s.state = &next
	return msg, nil
}

// DecryptMessage decrypts a message under the session ratchet. A failed
// authentication leaves the ratchet state untouched.
func (s *Session) DecryptMessage(msg domain.EncryptedMessage) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, domain.ErrSessionNotEstablished
	}
	pt, next, err := ratchet.Decrypt(*s.state, msg)
	if err != nil {
		return nil, err
	}
	s.state = &next
	return pt, nil
}

// Established reports whether a handshake has completed.
func (s *Session) Established() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != nil
}

// Snapshot returns a deep copy of the current ratchet state for
// persistence. The session keeps evolving independently.
func (s *Session) Snapshot() (domain.RatchetState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return domain.RatchetState{}, domain.ErrSessionNotEstablished
	}
	return ratchet.Clone(*s.state), nil
}

// Restore replaces the session's ratchet state with a persisted one.
// The caller's value is deep-copied, mirroring Snapshot.
func (s *Session) Restore(st domain.RatchetState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := ratchet.Clone(st)
	s.state = &c
}

// Cleanup drops the ratchet state and all in-flight file streams,
// wiping what key material it can reach. Best effort only; the runtime
// may hold copies.
func (s *Session) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil {
		memzero.Zero(s.state.RootKey)
		memzero.Zero(s.state.Sending.ChainKey)
		memzero.Zero(s.state.Receiving.ChainKey)
		for k := range s.state.Skipped {
			memzero.Zero(s.state.Skipped[k])
		}
		s.state = nil
	}
	for id, stream := range s.streams {
		memzero.Zero(stream.Key)
		delete(s.streams, id)
	}
	s.log.Debug("session cleaned up")
}

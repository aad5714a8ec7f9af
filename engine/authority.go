package engine

import (
	"bytes"
	"sync"
)

// AuthorityConfig holds the verification key of the attesting committee.
type AuthorityConfig struct {
	VerificationKey []byte
}

// AuthorityStore is the singleton authority config guarded by the admin address.
// Rotation overwrites the key in place; there is no history.
type AuthorityStore struct {
	mu    sync.RWMutex
	admin Address
	cfg   *AuthorityConfig
}

func NewAuthorityStore(admin Address) *AuthorityStore {
	return &AuthorityStore{admin: admin}
}

func (s *AuthorityStore) Admin() Address {
	return s.admin
}

// SetKey installs or replaces the verification key. The bytes are not
// validated here; a malformed key surfaces as ErrInvalidAuthorityKey on use.
func (s *AuthorityStore) SetKey(caller Address, key []byte) error {
	if caller != s.admin {
		return ErrNotAdmin
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = &AuthorityConfig{VerificationKey: bytes.Clone(key)}
	return nil
}

// Load returns a copy of the config, or false when no key was ever set.
func (s *AuthorityStore) Load() (AuthorityConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return AuthorityConfig{}, false
	}
	return AuthorityConfig{VerificationKey: bytes.Clone(s.cfg.VerificationKey)}, true
}

func (s *AuthorityStore) HasKey() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg != nil
}

// KeyLen returns the stored key length, 0 when absent.
func (s *AuthorityStore) KeyLen() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return 0
	}
	return uint64(len(s.cfg.VerificationKey))
}

func (s *AuthorityStore) Checkpoint() func() {
	s.mu.RLock()
	saved := s.cfg
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.cfg = saved
		s.mu.Unlock()
	}
}

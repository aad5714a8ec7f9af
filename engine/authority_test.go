package engine

import (
	"bytes"
	"errors"
	"testing"
)

type stubVerifier struct {
	keyErr error
	ok     bool
}

func (s stubVerifier) ValidatePublicKey([]byte) error   { return s.keyErr }
func (s stubVerifier) VerifyNormal(_, _, _ []byte) bool { return s.ok }

func TestAuthorityStoreCheckpoint(t *testing.T) {
	s := NewAuthorityStore("0xa")
	restore := s.Checkpoint()
	if err := s.SetKey("0xa", []byte{1}); err != nil {
		t.Fatal(err)
	}
	restore()
	if s.HasKey() {
		t.Errorf("restore did not remove the key")
	}

	key := []byte{1, 2, 3}
	if err := s.SetKey("0xa", key); err != nil {
		t.Fatal(err)
	}
	key[0] = 9
	cfg, ok := s.Load()
	if !ok || !bytes.Equal(cfg.VerificationKey, []byte{1, 2, 3}) {
		t.Errorf("store aliases caller bytes: %v", cfg.VerificationKey)
	}
	if s.KeyLen() != 3 {
		t.Errorf("key len %d", s.KeyLen())
	}
}

func TestAssertAuthorized(t *testing.T) {
	cfg := AuthorityConfig{VerificationKey: []byte{1}}
	if err := AssertAuthorized(stubVerifier{keyErr: errors.New("bad")}, nil, nil, cfg); !errors.Is(err, ErrInvalidAuthorityKey) {
		t.Errorf("got %v", err)
	}
	if err := AssertAuthorized(stubVerifier{}, nil, nil, cfg); !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("got %v", err)
	}
	if err := AssertAuthorized(stubVerifier{ok: true}, nil, nil, cfg); err != nil {
		t.Errorf("got %v", err)
	}
}

func TestAbortCodeOf(t *testing.T) {
	if AbortCodeOf(nil) != AbortNone {
		t.Errorf("nil error has a code")
	}
	if AbortCodeOf(ErrNotAdmin) != AbortNotAdmin {
		t.Errorf("not admin")
	}
	wrapped := errors.Join(errors.New("context"), ErrPoolNotFound)
	if AbortCodeOf(wrapped) != AbortPoolNotFound {
		t.Errorf("wrapped pool error")
	}
}

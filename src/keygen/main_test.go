package main

import (
	"bytes"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/fomc-rates/treasury-gate/bls"
	"github.com/fomc-rates/treasury-gate/engine"
)

func TestGenerateAndSign(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "authority.json")
	generate(path)
	sk, err := loadKey(path)
	if err != nil {
		t.Fatal(err)
	}
	claim, err := parseClaim("25:false")
	if err != nil {
		t.Fatal(err)
	}
	if claim.Magnitude != 25 || claim.Increase {
		t.Errorf("unexpected claim %+v", claim)
	}
	sig, err := sk.Sign(claim.Message())
	if err != nil {
		t.Fatal(err)
	}
	if !(bls.Scheme{}).VerifyNormal(engine.EncodeMovement(25, false), sig, sk.PublicKey()) {
		t.Errorf("signature from stored key does not verify")
	}
	if bytes.Equal(sk.PublicKey(), make([]byte, bls.PublicKeySize)) {
		t.Errorf("empty public key %s", hex.EncodeToString(sk.PublicKey()))
	}
	if _, err = parseClaim("25"); err == nil {
		t.Errorf("malformed claim accepted")
	}
}

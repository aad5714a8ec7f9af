package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fomc-rates/treasury-gate/bls"
	"github.com/fomc-rates/treasury-gate/engine"
)

// KeyFile is the on-disk authority key pair.
type KeyFile struct {
	SecretKey string `json:"secret_key"`
	PublicKey string `json:"public_key"`
}

func loadKey(path string) (*bls.SecretKey, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf KeyFile
	if err = json.Unmarshal(content, &kf); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(kf.SecretKey)
	if err != nil {
		return nil, err
	}
	return bls.SecretKeyFromBytes(raw)
}

func generate(path string) {
	sk, err := bls.GenerateKey()
	if err != nil {
		panic(err.Error())
	}
	content, err := json.MarshalIndent(KeyFile{
		SecretKey: hex.EncodeToString(sk.Bytes()),
		PublicKey: hex.EncodeToString(sk.PublicKey()),
	}, "", "  ")
	if err != nil {
		panic(err.Error())
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		panic(err.Error())
	}
	if err = os.WriteFile(path, content, 0o600); err != nil {
		panic(err.Error())
	}
	fmt.Println("authority key written to", path)
	fmt.Println("public key:", hex.EncodeToString(sk.PublicKey()))
}

// parseClaim reads "magnitude:increase", e.g. "25:false".
func parseClaim(s string) (engine.RateMovementClaim, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return engine.RateMovementClaim{}, fmt.Errorf("claim must be magnitude:increase, got %q", s)
	}
	magnitude, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return engine.RateMovementClaim{}, err
	}
	increase, err := strconv.ParseBool(parts[1])
	if err != nil {
		return engine.RateMovementClaim{}, err
	}
	return engine.RateMovementClaim{Magnitude: magnitude, Increase: increase}, nil
}

func main() {
	keyPath := flag.String("key", "keys/authority.json", "authority key file")
	sign := flag.String("sign", "", "sign a claim given as magnitude:increase with the stored key")
	flag.Parse()

	if *sign == "" {
		generate(*keyPath)
		return
	}

	sk, err := loadKey(*keyPath)
	if err != nil {
		panic(err.Error())
	}
	claim, err := parseClaim(*sign)
	if err != nil {
		panic(err.Error())
	}
	sig, err := sk.Sign(claim.Message())
	if err != nil {
		panic(err.Error())
	}
	fmt.Println("claim:", claim.String())
	fmt.Println("message:", hex.EncodeToString(claim.Message()))
	fmt.Println("signature:", hex.EncodeToString(sig))
	fmt.Println("decision:", engine.Decide(claim.Magnitude, claim.Increase).Describe(engine.AssetPair{A: "A", B: "B"}))
}

package engine

// Verifier is the pairing-based signature primitive.
type Verifier interface {
	// ValidatePublicKey fails when key is not a well formed public key.
	ValidatePublicKey(key []byte) error
	// VerifyNormal checks a single (non-aggregate) signature over msg.
	VerifyNormal(msg, signature, publicKey []byte) bool
}

// AssertAuthorized checks that signature over message was produced by the
// key in cfg. It has no side effects.
func AssertAuthorized(v Verifier, message, signature []byte, cfg AuthorityConfig) error {
	if err := v.ValidatePublicKey(cfg.VerificationKey); err != nil {
		return ErrInvalidAuthorityKey
	}
	if !v.VerifyNormal(message, signature, cfg.VerificationKey) {
		return ErrVerificationFailed
	}
	return nil
}

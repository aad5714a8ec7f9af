package engine

// EntryVersion enumerates every movement entrypoint ever published. Only
// the latest is live; older ones keep their parameters so existing callers
// still decode, but they always fail with ErrDisabled.
type EntryVersion uint8

const (
	// EntryUnsigned accepted claims with no attestation at all.
	EntryUnsigned EntryVersion = iota + 1
	// EntryRawKey took message, signature and public key from the caller.
	EntryRawKey
	// EntryVerify only checked a signature and reported the result.
	EntryVerify
	// EntryAttested is the live, authority-gated path.
	EntryAttested
)

func (v EntryVersion) String() string {
	switch v {
	case EntryUnsigned:
		return "unsigned"
	case EntryRawKey:
		return "raw_key"
	case EntryVerify:
		return "verify"
	case EntryAttested:
		return "attested"
	default:
		return "unknown"
	}
}

// EntryCall is one decoded entrypoint invocation.
type EntryCall interface {
	Version() EntryVersion
}

type UnsignedMovementCall struct {
	Caller    Address
	Magnitude uint64
	Increase  bool
}

type RawKeyMovementCall struct {
	Caller    Address
	Magnitude uint64
	Increase  bool
	Message   []byte
	Signature []byte
	PublicKey []byte
}

type VerifyCall struct {
	Message   []byte
	Signature []byte
	PublicKey []byte
}

type MovementCall struct {
	Caller    Address
	Magnitude uint64
	Increase  bool
	Signature []byte
	// Notional routes the movement through the notional ledger instead of the venue.
	Notional bool
}

func (UnsignedMovementCall) Version() EntryVersion { return EntryUnsigned }
func (RawKeyMovementCall) Version() EntryVersion   { return EntryRawKey }
func (VerifyCall) Version() EntryVersion           { return EntryVerify }
func (MovementCall) Version() EntryVersion         { return EntryAttested }

// Live reports whether calls of this version may execute.
func (v EntryVersion) Live() bool {
	return v == EntryAttested
}

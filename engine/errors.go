package engine

import "errors"

var (
	ErrNotAdmin            = errors.New("caller is not the admin")
	ErrInvalidAuthorityKey = errors.New("invalid authority key")
	ErrVerificationFailed  = errors.New("attestation verification failed")
	ErrPoolNotFound        = errors.New("pool not found")
	ErrDisabled            = errors.New("entrypoint disabled")
	ErrSwapFailed          = errors.New("swap failed")
)

// AbortCode is the categorical reason a call aborted.
type AbortCode string

const (
	AbortNone                AbortCode = ""
	AbortNotAdmin            AbortCode = "NotAdmin"
	AbortInvalidAuthorityKey AbortCode = "InvalidAuthorityKey"
	AbortVerificationFailed  AbortCode = "VerificationFailed"
	AbortPoolNotFound        AbortCode = "PoolNotFound"
	AbortDisabled            AbortCode = "Disabled"
	AbortVenue               AbortCode = "Venue"
)

var abortCodes = []struct {
	err  error
	code AbortCode
}{
	{ErrNotAdmin, AbortNotAdmin},
	{ErrInvalidAuthorityKey, AbortInvalidAuthorityKey},
	{ErrVerificationFailed, AbortVerificationFailed},
	{ErrPoolNotFound, AbortPoolNotFound},
	{ErrDisabled, AbortDisabled},
}

// AbortCodeOf maps err to its abort code. Errors raised by the venue
// itself map to AbortVenue.
func AbortCodeOf(err error) AbortCode {
	if err == nil {
		return AbortNone
	}
	for _, c := range abortCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return AbortVenue
}

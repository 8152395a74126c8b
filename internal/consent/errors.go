package consent

import "errors"

var (
	// ErrMalformedToken means the string could not be parsed into claims
	// plus signature.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature means the recomputed HMAC did not match.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrTokenExpired means expires_at is not in the future.
	ErrTokenExpired = errors.New("token expired")
	// ErrScopeMismatch means the token is valid but does not grant the
	// requested scope.
	ErrScopeMismatch = errors.New("scope mismatch")
	// ErrUnknownScope means a scope value is not part of the enumeration.
	ErrUnknownScope = errors.New("unknown scope")
	// ErrInvalidArgument covers bad inputs to Issue.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrWeakSecret means the signing secret is shorter than the minimum.
	ErrWeakSecret = errors.New("signing secret too short")
)

// Reason returns the stable human-readable reason string for a validation
// error. Callers branch on the error value; the reason is for responses
// and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, ErrMalformedToken):
		return "malformed token"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid signature"
	case errors.Is(err, ErrTokenExpired):
		return "token expired"
	case errors.Is(err, ErrScopeMismatch):
		return "scope mismatch"
	default:
		return err.Error()
	}
}

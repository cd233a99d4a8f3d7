package staking

import "errors"

var (
	// ErrNotOwner is returned when a non-owner calls an owner-only operation.
	ErrNotOwner = errors.New("Ownable: caller is not the owner")
	// ErrAlreadyAttached is returned when creating a pool for an asset that already has one.
	ErrAlreadyAttached = errors.New("Token already attached")
	// ErrTokenNotAllowed is returned when no pool exists for the given asset.
	ErrTokenNotAllowed = errors.New("Token not yet allowed")
	// ErrInvalidAmount is returned for nil, zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be a positive integer")
	// ErrInsufficientBalance is returned when a withdrawal exceeds the deposited balance.
	ErrInsufficientBalance = errors.New("Insufficient balance")
	// ErrTransferFailed wraps a failed custody or treasury transfer.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrOracleUnavailable wraps a failed upstream oracle read.
	ErrOracleUnavailable = errors.New("oracle unavailable")
)

// ErrorKind classifies engine errors into the four failure categories
// callers are expected to branch on.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindAuthorization
	KindValidation
	KindState
	KindExternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Kind reports the failure category of err, unwrapping as needed.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotOwner):
		return KindAuthorization
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrTokenNotAllowed):
		return KindValidation
	case errors.Is(err, ErrAlreadyAttached), errors.Is(err, ErrInsufficientBalance):
		return KindState
	case errors.Is(err, ErrTransferFailed), errors.Is(err, ErrOracleUnavailable):
		return KindExternal
	default:
		return KindUnknown
	}
}

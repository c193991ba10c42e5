package analysis

import (
	"insight/pkg/errors"
)

// Error kinds reported in events and API responses
const (
	KindUnsupportedInputKind  = "unsupported_input_kind"
	KindInvalidOption         = "invalid_option"
	KindInvalidInput          = "invalid_input"
	KindTransportFailure      = "transport_failure"
	KindUnsupportedCapability = "unsupported_capability"
	KindNotFound              = "not_found"
	KindInternal              = "internal"
)

// ErrorKind classifies err for callers and diagnostics
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, errors.ErrUnsupportedInputKind):
		return KindUnsupportedInputKind
	case errors.Is(err, errors.ErrInvalidOption):
		return KindInvalidOption
	case errors.Is(err, errors.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, errors.ErrTransportFailure):
		return KindTransportFailure
	case errors.Is(err, errors.ErrUnsupportedCapability):
		return KindUnsupportedCapability
	case errors.Is(err, errors.ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// IsCallerError reports whether err was caused by the request itself
func IsCallerError(err error) bool {
	switch ErrorKind(err) {
	case KindUnsupportedInputKind, KindInvalidOption, KindInvalidInput, KindUnsupportedCapability, KindNotFound:
		return true
	}
	return false
}

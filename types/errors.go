package types

import "errors"

// Error types
type X402Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Err       error  `json:"-"`
}

func (e *X402Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *X402Error) Unwrap() error {
	return e.Err
}

// Is matches any X402Error carrying the same code.
func (e *X402Error) Is(target error) bool {
	t, ok := target.(*X402Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Common error codes
const (
	ErrInvalidPayload      = "INVALID_PAYMENT_FORMAT"
	ErrUnsupportedNetwork  = "UNSUPPORTED_NETWORK"
	ErrNotYetMined         = "TRANSACTION_NOT_FOUND"
	ErrNetworkError        = "NETWORK_ERROR"
	ErrExecutionFailed     = "TRANSACTION_FAILED"
	ErrTransferNotFound    = "TRANSFER_NOT_FOUND"
	ErrMalformedTransfer   = "MALFORMED_TRANSFER"
	ErrAmbiguousTransfer   = "AMBIGUOUS_TRANSFER"
	ErrRecipientMismatch   = "RECIPIENT_MISMATCH"
	ErrInsufficientAmount  = "INSUFFICIENT_AMOUNT"
	ErrUnknownResource     = "UNKNOWN_RESOURCE"
	ErrInvalidRequirements = "INVALID_REQUIREMENTS"
	ErrConfigError         = "CONFIG_ERROR"
)

var retryableCodes = map[string]bool{
	ErrNotYetMined:  true,
	ErrNetworkError: true,
}

// NewError builds an X402Error; retryability follows from the code.
func NewError(code, message string) *X402Error {
	return &X402Error{Code: code, Message: message, Retryable: retryableCodes[code]}
}

// WrapError builds an X402Error around an underlying cause.
func WrapError(code, message string, err error) *X402Error {
	e := NewError(code, message)
	e.Err = err
	return e
}

// ErrorCode extracts the X402Error code from err, or "" if there is none.
func ErrorCode(err error) string {
	var xe *X402Error
	if errors.As(err, &xe) {
		return xe.Code
	}
	return ""
}

// IsRetryable reports whether the caller may succeed by retrying later.
func IsRetryable(err error) bool {
	var xe *X402Error
	if errors.As(err, &xe) {
		return xe.Retryable
	}
	return false
}

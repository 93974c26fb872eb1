package errors

import "net/http"

// Stable machine-readable error kinds. Clients switch on these; messages are
// free to change.
const (
	KindNotFound           = "not_found"
	KindInsufficientStock  = "insufficient_stock"
	KindOutOfStock         = "out_of_stock"
	KindAlreadyVerified    = "already_verified"
	KindCodeMismatch       = "code_mismatch"
	KindCodeExpired        = "code_expired"
	KindEmailNotVerified   = "email_not_verified"
	KindInvalidCredentials = "invalid_credentials"
	KindEmptyCart          = "empty_cart"
	KindInconsistentCart   = "inconsistent_cart"
	KindConflict           = "conflict"
	KindInvalidSession     = "invalid_session"
	KindValidation         = "validation"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Kind       string
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func NotFound(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Kind: KindNotFound, Message: message, StatusCode: http.StatusNotFound}
}

func Validation(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Kind: KindValidation, Message: message, StatusCode: http.StatusBadRequest}
}

func Conflict(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Kind: KindConflict, Message: message, StatusCode: http.StatusConflict}
}

// IsKind reports whether err is an ErrorWithStatusCode carrying the given kind.
func IsKind(err error, kind string) bool {
	e, ok := err.(*ErrorWithStatusCode)
	return ok && e.Kind == kind
}

// IsNotFound is the most common kind check at service level.
func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

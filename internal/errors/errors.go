package errors

import "fmt"

// ErrorCode represents a MuseApp error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrBusy           ErrorCode = "BUSY"            // 409
	ErrBadFormat      ErrorCode = "BAD_FORMAT"      // 422
	ErrStorage        ErrorCode = "STORAGE"         // 507
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// MuseumError represents a structured error with code, status, and details.
type MuseumError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *MuseumError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *MuseumError {
	return &MuseumError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing item, blob, or save record.
func NewNotFound(identifier string) *MuseumError {
	return &MuseumError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewBusy creates a 409 error for operations that conflict with an exclusive
// flow already in flight (an import during ingestion and vice versa).
func NewBusy(msg string) *MuseumError {
	return &MuseumError{
		Code:    ErrBusy,
		Status:  409,
		Message: msg,
	}
}

// NewBadFormat creates a 422 error for a save whose structure cannot be
// understood: missing manifest, unparseable top-level JSON, unknown layout.
func NewBadFormat(msg string) *MuseumError {
	return &MuseumError{
		Code:    ErrBadFormat,
		Status:  422,
		Message: msg,
	}
}

// NewStorage creates a 507 error for blob-store or save-record write failures.
func NewStorage(err error) *MuseumError {
	msg := "storage failure"
	if err != nil {
		msg = err.Error()
	}
	return &MuseumError{
		Code:    ErrStorage,
		Status:  507,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *MuseumError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &MuseumError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a MuseumError with the given code.
func Is(err error, code ErrorCode) bool {
	if mErr, ok := err.(*MuseumError); ok {
		return mErr.Code == code
	}
	return false
}

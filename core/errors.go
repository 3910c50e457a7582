package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldError is a shorthand for a ValidationError on a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{Err: errors.New(msg), Fields: []FieldError{{Field: field, Error: msg}}}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// StorageError reports a failed blob or record write.
// The request is aborted; whatever was written before stays written.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (err StorageError) Error() string { return err.Op + ": " + err.Err.Error() }
func (err StorageError) Unwrap() error { return err.Err }

// NotificationError reports a failed email delivery.
// It never fails an operation whose record is already persisted.
type NotificationError struct {
	Op  string
	Err error
}

func NewNotificationError(op string, err error) error {
	return &NotificationError{Op: op, Err: err}
}

func (err NotificationError) Error() string { return err.Op + ": " + err.Err.Error() }
func (err NotificationError) Unwrap() error { return err.Err }

// IsNotificationError reports whether err is, or wraps, a NotificationError.
func IsNotificationError(err error) bool {
	var nErr *NotificationError
	return errors.As(err, &nErr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

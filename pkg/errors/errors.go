package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the class of failure seen during a crawl
type ErrorType string

const (
	ErrorTypePageLoad     ErrorType = "page_load"
	ErrorTypeRowParse     ErrorType = "row_parse"
	ErrorTypeDetailFetch  ErrorType = "detail_fetch"
	ErrorTypeFieldMissing ErrorType = "field_missing"
	ErrorTypeUpload       ErrorType = "upload"
	ErrorTypeStartup      ErrorType = "startup"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error carries the failure class along with the operation and target URL
type Error struct {
	Type ErrorType
	Op   string
	URL  string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a typed error
func New(t ErrorType, op, url string, err error) *Error {
	return &Error{Type: t, Op: op, URL: url, Err: err}
}

// TypeOf returns the class of the first typed error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain contains a typed error of class t
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsFatal reports whether err should end the process.
// Only startup failures are fatal; everything else is logged and skipped.
func IsFatal(err error) bool {
	return IsType(err, ErrorTypeStartup)
}

package secrets

import (
	"errors"
	"fmt"
)

// ErrorPrefix starts every error message returned by this package.
const ErrorPrefix = "Secret Helpers Error:"

// Error kinds. Use errors.Is to test which one an error carries.
var (
	ErrInvalidArgument = errors.New("secret name must be a non-empty string")
	ErrFetch           = errors.New("unable to get the secret value")
	ErrEmptySecret     = errors.New("secret value is empty")
	ErrParse           = errors.New("secret value is not valid JSON")
)

// Error describes a failed secret operation. Kind is one of the package
// sentinels; Err is the underlying cause, if any.
type Error struct {
	Op   string
	Name string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", ErrorPrefix, e.Kind)
	if e.Name != "" {
		msg = fmt.Sprintf("%s %s for %q", ErrorPrefix, e.Kind, e.Name)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	// An empty secret is a failed fetch as far as callers are concerned.
	if e.Kind == ErrEmptySecret {
		errs = append(errs, ErrFetch)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(op, name string, kind, err error) *Error {
	return &Error{Op: op, Name: name, Kind: kind, Err: err}
}

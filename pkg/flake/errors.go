package flake

import (
	"errors"
	"fmt"
)

var (
	// ErrSequenceOverflow indicates more than 65536 ids were requested from
	// one generator within a single millisecond.
	ErrSequenceOverflow = errors.New("flake: sequence overflow")
	// ErrMalformedID indicates input that does not decode to an id.
	ErrMalformedID = errors.New("flake: malformed id")
	// ErrNilSource indicates a generator was requested without a node source.
	ErrNilSource = errors.New("flake: nil node source")
)

// MalformedError describes an input that failed to decode.
type MalformedError struct {
	Form  string
	Input string
	Err   error
}

func (e *MalformedError) Error() string {
	msg := fmt.Sprintf("flake: malformed %s id %q", e.Form, e.Input)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformedID }

func (e *MalformedError) Unwrap() error { return e.Err }

func malformed(form, input string, err error) error {
	return &MalformedError{Form: form, Input: input, Err: err}
}

func malformedLen(form string, got, want int) error {
	return &MalformedError{
		Form:  form,
		Input: fmt.Sprintf("%d bytes", got),
		Err:   fmt.Errorf("want %d bytes", want),
	}
}

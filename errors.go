package zmachine

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedHeader   = errors.New("malformed story header")
	ErrOutOfBounds       = errors.New("address out of bounds")
	ErrReadOnlyViolation = errors.New("write to read-only memory")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrStackOverflow     = errors.New("stack overflow")
	ErrInvalidLocal      = errors.New("invalid local variable")
	ErrAbbreviationCycle = errors.New("abbreviations nested too deep")
	ErrOutputOverflow    = errors.New("decoded text exceeds output limit")
	ErrUnsupportedOpcode = errors.New("unsupported opcode")
	ErrNoInput           = errors.New("no input available")
	ErrInvalidObject     = errors.New("invalid object reference")
	ErrDivisionByZero    = errors.New("division by zero")
)

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrMalformedHeader, "MalformedHeader"},
	{ErrOutOfBounds, "OutOfBounds"},
	{ErrReadOnlyViolation, "ReadOnlyViolation"},
	{ErrStackUnderflow, "StackUnderflow"},
	{ErrStackOverflow, "StackOverflow"},
	{ErrInvalidLocal, "InvalidLocal"},
	{ErrAbbreviationCycle, "AbbreviationCycle"},
	{ErrOutputOverflow, "OutputOverflow"},
	{ErrUnsupportedOpcode, "UnsupportedOpcode"},
	{ErrNoInput, "NoInput"},
	{ErrInvalidObject, "InvalidObject"},
	{ErrDivisionByZero, "DivisionByZero"},
}

// ErrorKind names the taxonomy entry err belongs to, or "Unknown".
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Unknown"
}

// IsRecoverable reports whether err leaves the machine usable: the caller
// may retry, truncate or continue.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrAbbreviationCycle) ||
		errors.Is(err, ErrOutputOverflow)
}

// A Fault is a fatal error raised while executing one instruction. It
// carries enough to reproduce the failure against the same story file.
type Fault struct {
	Session string
	PC      uint32
	Opcode  uint8
	Err     error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("zmachine: %s at pc=0x%05X opcode=0x%02X: %v", f.Kind(), f.PC, f.Opcode, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Kind returns the error kind, e.g. "StackUnderflow".
func (f *Fault) Kind() string {
	return ErrorKind(f.Err)
}

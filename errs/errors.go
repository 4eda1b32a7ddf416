// Package errs holds the error kinds shared by the codec, block and
// container layers.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure. A Kind is itself an error so callers can match
// with errors.Is(err, errs.Decode).
type Kind uint8

const (
	Unknown Kind = iota

	// Decode is a malformed compressed stream or block chain.
	Decode

	// CorruptContainer is a container whose header or project data cannot
	// be trusted.
	CorruptContainer

	// SegmentationInvariant is an internal consistency failure while
	// splitting a stream into blocks.
	SegmentationInvariant

	// StoreFull means the block store ran out of block ids.
	StoreFull

	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case Decode:
		return "decode error"
	case CorruptContainer:
		return "corrupt container"
	case SegmentationInvariant:
		return "segmentation invariant violation"
	case StoreFull:
		return "block store full"
	case InvalidArgument:
		return "invalid argument"
	default:
		return "unknown error"
	}
}

// Error implements error.
func (k Kind) Error() string { return k.String() }

func (k Kind) With(v ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprint(v...), Slot: -1, Offset: -1}
}

func (k Kind) WithFormat(format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)

	e := &Error{Kind: k, Message: err.Error(), Slot: -1, Offset: -1}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		e.Cause = u.Unwrap()
	}
	return e
}

// Wrap attaches the kind to err. A nil err stays nil.
func (k Kind) Wrap(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) && e.Kind == k {
		return err
	}

	return &Error{Kind: k, Message: err.Error(), Cause: err, Slot: -1, Offset: -1}
}

// Error is a classified failure with optional location context.
type Error struct {
	Kind    Kind
	Message string

	// Slot is the project slot involved, -1 when not applicable.
	Slot int
	// Offset is the byte offset (in the stream or block being read), -1
	// when not applicable.
	Offset int

	Cause error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())

	if e.Slot >= 0 {
		fmt.Fprintf(&sb, " [slot %d]", e.Slot)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&sb, " [offset 0x%x]", e.Offset)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}

	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches a bare Kind against the error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) AtSlot(slot int) *Error {
	e.Slot = slot
	return e
}

func (e *Error) AtOffset(offset int) *Error {
	e.Offset = offset
	return e
}

// WithSlot returns err annotated with slot when it is an *Error without one,
// otherwise err unchanged.
func WithSlot(err error, slot int) error {
	var e *Error
	if errors.As(err, &e) && e.Slot < 0 {
		e.Slot = slot
	}
	return err
}

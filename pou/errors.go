package pou

import "fmt"

// ValidationKind enumerates pre-codec validation failures.
type ValidationKind int

const (
	// EmptyName is returned when the POU name is empty after trimming.
	EmptyName ValidationKind = iota + 1
)

// ValidationError is returned by Validate when a POU fails a pre-codec check.
type ValidationError struct {
	Kind ValidationKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyName:
		return "pou: validation failed: name is empty"
	default:
		return "pou: validation failed"
	}
}

// EncodingError wraps a string that could not be GBK-encoded during Encode.
type EncodingError struct {
	Field string
	Cause error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("pou: cannot encode field %s: %s", e.Field, e.Cause)
}

func (e *EncodingError) Unwrap() error { return e.Cause }

// TrailingGarbageError is returned by Decode when the 64-byte tail guard is
// not all zeros.
type TrailingGarbageError struct {
	Offset int
}

func (e *TrailingGarbageError) Error() string {
	return fmt.Sprintf("pou: trailing garbage at offset %d", e.Offset)
}

// DecodingError wraps a Decode-time failure at a named field, mirroring
// EncodingError's shape for the decode direction.
type DecodingError struct {
	Field string
	Cause error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("pou: cannot decode field %s: %s", e.Field, e.Cause)
}

func (e *DecodingError) Unwrap() error { return e.Cause }

// ClassSignatureError is returned when a resolved MFC class name doesn't
// match the signature Decode expected at that position in the stream.
type ClassSignatureError struct {
	Want string
	Got  string
}

func (e *ClassSignatureError) Error() string {
	return fmt.Sprintf("pou: expected class signature %s, got %s", e.Want, e.Got)
}

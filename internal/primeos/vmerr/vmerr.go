// Package vmerr defines the fatal error taxonomy shared by PrimeOS's
// codec and VM core: a Kind/Message/Cause shape, with Error/Unwrap/Is,
// where Kind enumerates the errors the codec and VM core can raise.
package vmerr

import "fmt"

// Kind identifies a fatal PrimeOS error.
type Kind int

const (
	// Unknown is the zero value; never returned deliberately.
	Unknown Kind = iota

	// DecodeChecksum: a chunk's stored checksum exponent does not match
	// the recomputed one.
	DecodeChecksum
	// DecodeNoOpcode: no payload prime matches an entry in OPCODE_PRIME.
	DecodeNoOpcode
	// DecodeAmbiguous: more than one opcode prime is present.
	DecodeAmbiguous
	// DecodeForeign: an extra prime appears that is neither an opcode
	// prime nor one of the chosen opcode's operand primes.
	DecodeForeign
	// DecodeBadOperand: an operand prime's exponent is missing or zero
	// where the opcode requires it present.
	DecodeBadOperand

	// StackUnderflow: a consuming opcode found too few stack values.
	StackUnderflow
	// StackOverflow: a push exceeded the implementation's safe stack cap.
	StackOverflow

	// ArithmeticOverflow: Add/Sub/Mul overflowed signed 64-bit range.
	ArithmeticOverflow
	// DivisionByZero: Mod by zero.
	DivisionByZero
	// NegativeRandomBound: OpRandom with n <= 0.
	NegativeRandomBound

	// AddressOutOfRange: Jump/JumpIfZero/PeekChunk/PokeChunk with an
	// address outside [0, len).
	AddressOutOfRange

	// EncodingError: BuildChunk given a malformed argument frame, or
	// Build() called with a mismatched/negative operand vector.
	EncodingError
)

// String renders a Kind for logging and snapshot error fields.
func (k Kind) String() string {
	switch k {
	case DecodeChecksum:
		return "DecodeError::Checksum"
	case DecodeNoOpcode:
		return "DecodeError::NoOpcode"
	case DecodeAmbiguous:
		return "DecodeError::Ambiguous"
	case DecodeForeign:
		return "DecodeError::Foreign"
	case DecodeBadOperand:
		return "DecodeError::BadOperand"
	case StackUnderflow:
		return "StackUnderflow"
	case StackOverflow:
		return "StackOverflow"
	case ArithmeticOverflow:
		return "ArithmeticOverflow"
	case DivisionByZero:
		return "DivisionByZero"
	case NegativeRandomBound:
		return "NegativeRandomBound"
	case AddressOutOfRange:
		return "AddressOutOfRange"
	case EncodingError:
		return "EncodingError"
	default:
		return "Unknown"
	}
}

// Error is PrimeOS's fatal error type: every condition in it halts the
// VM and is surfaced unchanged through the controller's snapshot.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error that also carries an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("primeos %s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("primeos %s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

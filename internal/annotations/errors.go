package annotations

import "fmt"

// ErrorCode identifies a class of annotation invariant violation
type ErrorCode string

// Invariant violation codes (ANN001-099)
const (
	// ErrEvenOperandCount indicates a record whose operand count is not odd
	ErrEvenOperandCount ErrorCode = "ANN001"
	// ErrPropertyNotString indicates a name position holding something other than an MDString
	ErrPropertyNotString ErrorCode = "ANN002"
	// ErrValueNotConstantInt indicates a value position holding something other than a ConstantInt
	ErrValueNotConstantInt ErrorCode = "ANN003"
	// ErrUnexpectedFlagValue indicates a boolean marker recorded with a value other than 1
	ErrUnexpectedFlagValue ErrorCode = "ANN004"
	// ErrAnonymousSymbol indicates a texture, surface or sampler with no name
	ErrAnonymousSymbol ErrorCode = "ANN005"
	// ErrNilRecord indicates a nil entry in the annotation list
	ErrNilRecord ErrorCode = "ANN006"
	// ErrNotFunctionOrCall indicates a no-return query on a value that is neither
	ErrNotFunctionOrCall ErrorCode = "ANN007"
	// ErrZeroAlignment indicates a packed alignment entry whose alignment is 0
	ErrZeroAlignment ErrorCode = "ANN008"
)

// InvariantError describes a violated structural or consistency invariant in
// annotation metadata. These are produced by upstream miscompilations and are
// fatal when assertions are enabled.
type InvariantError struct {
	Code     ErrorCode
	Message  string
	Subject  string
	Property string
}

// Error implements the error interface
func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Subject != "" {
		msg += fmt.Sprintf(" (subject %q", e.Subject)
		if e.Property != "" {
			msg += fmt.Sprintf(", property %q", e.Property)
		}
		msg += ")"
	} else if e.Property != "" {
		msg += fmt.Sprintf(" (property %q)", e.Property)
	}
	return msg
}

func newInvariantError(code ErrorCode, format string, args ...any) *InvariantError {
	return &InvariantError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// withSubject sets the subject name for the error
func (e *InvariantError) withSubject(name string) *InvariantError {
	e.Subject = name
	return e
}

// withProperty sets the property name for the error
func (e *InvariantError) withProperty(name string) *InvariantError {
	e.Property = name
	return e
}

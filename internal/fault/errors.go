// Package fault defines the error taxonomy shared by every cqlbridge layer.
//
// Errors carry a Code so callers can branch on the category without string
// matching:
//   - SCHEMA: missing table/view or key metadata, unsupported column type
//   - FORMAT: malformed temporal literal or malformed row identifier
//   - TYPE_CONVERSION: value does not match the declared column type
//   - UNSATISFIABLE_PREDICATE: the predicate set cannot be pushed to the store
//   - EXECUTION: the store rejected or timed out a statement
//
// No layer retries. Every failure propagates to the immediate caller.
package fault

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Code categorizes bridge errors.
type Code string

const (
	// CodeSchema indicates missing or unusable schema metadata.
	CodeSchema Code = "SCHEMA"

	// CodeFormat indicates a malformed textual literal.
	CodeFormat Code = "FORMAT"

	// CodeTypeConversion indicates a value that does not fit its column type.
	CodeTypeConversion Code = "TYPE_CONVERSION"

	// CodeUnsatisfiable indicates a predicate set the store cannot answer.
	CodeUnsatisfiable Code = "UNSATISFIABLE_PREDICATE"

	// CodeExecution indicates a failed statement execution.
	CodeExecution Code = "EXECUTION"
)

// ErrUnsatisfiable is returned by the query compiler when the predicate set
// cannot be answered without a scan the caller has not allowed, or when a key
// column is compared against null. Callers treat it as an empty result.
var ErrUnsatisfiable = &Error{
	Code:    CodeUnsatisfiable,
	Message: "predicate set is not satisfiable by the store",
}

// Error is a categorized bridge error.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Column names the affected column, when there is one.
	Column string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Column != "" {
		msg = fmt.Sprintf("%s (column=%s)", msg, e.Column)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code, so
// errors.Is(err, ErrUnsatisfiable) matches any unsatisfiable error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewSchemaError creates a SCHEMA error.
func NewSchemaError(format string, args ...any) *Error {
	return &Error{Code: CodeSchema, Message: fmt.Sprintf(format, args...)}
}

// NewFormatError creates a FORMAT error for the literal that failed to parse.
func NewFormatError(literal string, reason string) *Error {
	return &Error{Code: CodeFormat, Message: fmt.Sprintf("%s: %q", reason, literal)}
}

// NewTypeConversionError creates a TYPE_CONVERSION error.
func NewTypeConversionError(value any, typeName string, cause error) *Error {
	return &Error{
		Code:    CodeTypeConversion,
		Message: fmt.Sprintf("cannot convert %T(%v) to %s", value, value, typeName),
		Err:     cause,
	}
}

// NewExecutionError wraps a store failure.
func NewExecutionError(statement string, cause error) *Error {
	return &Error{
		Code:    CodeExecution,
		Message: fmt.Sprintf("statement failed: %s", statement),
		Err:     cause,
	}
}

// WithColumn returns a copy of err annotated with the column name when err is
// an *Error; other errors are wrapped with the column name as context.
func WithColumn(err error, column string) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Column == "" {
		cp := *fe
		cp.Column = column
		return &cp
	}
	return errors.Wrapf(err, "column %s", column)
}

func hasCode(err error, code Code) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// IsSchemaError reports whether err is a SCHEMA error.
func IsSchemaError(err error) bool { return hasCode(err, CodeSchema) }

// IsFormatError reports whether err is a FORMAT error.
func IsFormatError(err error) bool { return hasCode(err, CodeFormat) }

// IsTypeConversionError reports whether err is a TYPE_CONVERSION error.
func IsTypeConversionError(err error) bool { return hasCode(err, CodeTypeConversion) }

// IsUnsatisfiable reports whether err is an UNSATISFIABLE_PREDICATE error.
func IsUnsatisfiable(err error) bool { return hasCode(err, CodeUnsatisfiable) }

// IsExecutionError reports whether err is an EXECUTION error.
func IsExecutionError(err error) bool { return hasCode(err, CodeExecution) }

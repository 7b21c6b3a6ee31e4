package fault

import (
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewTypeConversionError("x", "int", errors.New("invalid syntax"))
	assert.Equal(t, `TYPE_CONVERSION: cannot convert string(x) to int: invalid syntax`, err.Error())

	withCol := WithColumn(err, "age")
	assert.Equal(t, `TYPE_CONVERSION: cannot convert string(x) to int (column=age): invalid syntax`, withCol.Error())
	assert.Empty(t, err.Column, "WithColumn must not mutate its input")
}

func TestWithColumn_ForeignError(t *testing.T) {
	err := WithColumn(io.ErrUnexpectedEOF, "body")
	assert.Equal(t, "column body: unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.NoError(t, WithColumn(nil, "body"))
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	tests := map[string]struct {
		err   error
		check func(error) bool
	}{
		"schema":     {NewSchemaError("table %s.%s does not exist", "ks", "t"), IsSchemaError},
		"format":     {NewFormatError("2024-13-01", "month out of range"), IsFormatError},
		"conversion": {NewTypeConversionError(1.5, "int", nil), IsTypeConversionError},
		"execution":  {NewExecutionError("SELECT 1", io.EOF), IsExecutionError},
		"unsat":      {ErrUnsatisfiable, IsUnsatisfiable},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			wrapped := errors.Wrap(tt.err, "context")
			assert.True(t, tt.check(wrapped))
			assert.False(t, IsSchemaError(errors.New("plain")))
		})
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	other := &Error{Code: CodeUnsatisfiable, Message: "null key"}
	assert.True(t, errors.Is(errors.Wrap(other, "compile"), ErrUnsatisfiable))
	assert.False(t, errors.Is(NewSchemaError("x"), ErrUnsatisfiable))
	assert.True(t, errors.Is(NewExecutionError("SELECT 1", io.EOF), io.EOF))
}

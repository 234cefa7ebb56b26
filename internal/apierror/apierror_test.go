package apierror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMessage(t *testing.T) {
	e := New("Response timeout")
	assert.Equal(t, "Response timeout", e.Error())
}

func TestInvalidCoordinates(t *testing.T) {
	e := InvalidCoordinates(5, -1)
	assert.Equal(t, "Invalid coordinates (5, -1)", e.Error())
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(cause, "could not save history")
	assert.Contains(t, e.Error(), "could not save history")
	assert.Contains(t, e.Error(), "disk full")
	assert.ErrorIs(t, e, cause)
}

func TestWrapNilCause(t *testing.T) {
	e := Wrap(nil, "Unknown command: foo")
	assert.Equal(t, "Unknown command: foo", e.Error())
}

package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIOError_WrapsCause(t *testing.T) {
	err := NewIOError(OpConnect, "failed to connect", fs.ErrNotExist)

	assert.True(t, IsIO(err))
	assert.False(t, IsRemote(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, fs.ErrNotExist, err.IOError())

	_, ok := err.RemoteMessage()
	assert.False(t, ok)
	assert.Equal(t, "IO error (connect): failed to connect (caused by: file does not exist)", err.Error())
}

func TestIOError_WithoutCause(t *testing.T) {
	err := NewIOError(OpRead, "connection closed", nil)

	assert.EqualError(t, err, "IO error (read): connection closed")
	assert.EqualError(t, err.IOError(), "connection closed")
	assert.Nil(t, err.Unwrap())
}

func TestRemoteError_CarriesMessageOnly(t *testing.T) {
	err := NewRemoteError("no such window")

	assert.True(t, IsRemote(err))
	assert.False(t, IsIO(err))
	assert.Nil(t, err.IOError())
	assert.Nil(t, err.Unwrap())

	msg, ok := err.RemoteMessage()
	assert.True(t, ok)
	assert.Equal(t, "no such window", msg)
	assert.EqualError(t, err, "niri error: no such window")
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("listing windows: %w", NewRemoteError("denied"))

	msg, ok := RemoteMessage(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "denied", msg)

	_, ok = RemoteMessage(io.EOF)
	assert.False(t, ok)
	assert.False(t, IsIO(stderrors.New("plain")))
}

func TestNilError(t *testing.T) {
	var err *Error
	assert.Equal(t, "no error", err.Error())
	assert.Nil(t, err.IOError())
}

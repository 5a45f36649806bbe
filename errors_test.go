package mq

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendError_Error(t *testing.T) {
	assert.Equal(t, "queue not found", NewBackendError(404, "queue not found").Error())
	assert.Equal(t, "Unknown error #7", NewBackendError(7, "").Error())
}

func TestEnvironmentError(t *testing.T) {
	cause := errors.New("connection refused")

	err := &EnvironmentError{Op: "dial", Err: cause}
	assert.Equal(t, "dial: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "connection refused", (&EnvironmentError{Err: cause}).Error())
}

func TestErrorSlot(t *testing.T) {
	tt := []struct {
		Name     string
		Err      error
		Expected func(t *testing.T, s *errorSlot)
	}{
		{
			Name: "Clear",
			Expected: func(t *testing.T, s *errorSlot) {
				assert.False(t, s.failed())
				assert.NoError(t, s.err())
				assert.Equal(t, "Success", s.message())
			},
		},
		{
			Name: "SystemError",
			Err:  &EnvironmentError{Op: "open", Err: errors.New("permission denied")},
			Expected: func(t *testing.T, s *errorSlot) {
				assert.True(t, s.failed())
				assert.Nil(t, s.backend)
				assert.Equal(t, "open: permission denied", s.message())
			},
		},
		{
			Name: "BackendError",
			Err:  NewBackendError(320, "connection forced"),
			Expected: func(t *testing.T, s *errorSlot) {
				assert.True(t, s.failed())
				assert.Nil(t, s.syserr)
				assert.Equal(t, 320, s.backend.Code)
				assert.Equal(t, "connection forced", s.message())
			},
		},
		{
			Name: "WrappedBackendError",
			Err:  fmt.Errorf("publish: %w", NewBackendError(312, "")),
			Expected: func(t *testing.T, s *errorSlot) {
				assert.Nil(t, s.syserr)
				assert.Equal(t, "Unknown error #312", s.message())
			},
		},
		{
			Name: "Sentinel",
			Err:  ErrInvalidState,
			Expected: func(t *testing.T, s *errorSlot) {
				assert.ErrorIs(t, s.err(), ErrInvalidState)
				assert.Equal(t, ErrInvalidState.Error(), s.message())
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			var s errorSlot
			s.set(tc.Err)
			tc.Expected(t, &s)
		})
	}
}

func TestErrorSlot_MessageCached(t *testing.T) {
	var s errorSlot
	s.set(errors.New("first"))
	assert.Equal(t, "first", s.message())

	// the rendered text is kept until the slot changes.
	s.syserr = errors.New("changed underneath")
	assert.Equal(t, "first", s.message())

	s.set(errors.New("second"))
	assert.Equal(t, "second", s.message())

	s.reset()
	assert.Equal(t, "Success", s.message())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "recv", Recv.String())
	assert.Equal(t, "send", Send.String())
	assert.Equal(t, "unknown", State(9).String())

	assert.Equal(t, "incoming", Incoming.String())
	assert.Equal(t, "outgoing", Outgoing.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

package mq

import "errors"

// errorSlot the single error state held by a connection.
// it is either clear, holds a system error or holds an engine error, never more than one.
type errorSlot struct {
	syserr  error         // any error which is not an engine error.
	backend *BackendError // an engine specific error.

	msg      string // the rendered message.
	rendered bool   // whether msg is current.
}

// reset clears the slot.
func (s *errorSlot) reset() {
	s.syserr, s.backend = nil, nil
	s.rendered = false
}

// set records err, replacing whatever was held before.
// a nil err clears the slot.
func (s *errorSlot) set(err error) {
	s.reset()
	if err == nil {
		return
	}

	var be *BackendError
	if errors.As(err, &be) {
		s.backend = be
		return
	}

	s.syserr = err
}

// failed whether the slot holds an error.
func (s *errorSlot) failed() bool {
	return s.syserr != nil || s.backend != nil
}

// err returns the held error or nil.
func (s *errorSlot) err() error {
	if s.syserr != nil {
		return s.syserr
	}
	if s.backend != nil {
		return s.backend
	}
	return nil
}

// message renders the held error, the rendered text is kept until the slot next changes.
func (s *errorSlot) message() string {
	if s.rendered {
		return s.msg
	}

	switch {
	case s.syserr != nil:
		s.msg = s.syserr.Error()
	case s.backend != nil:
		s.msg = s.backend.Error()
	default:
		s.msg = "Success"
	}

	s.rendered = true
	return s.msg
}

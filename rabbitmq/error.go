package rabbitmq

import (
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/jacklaaa89/mq"
)

// toError converts an error from amqp091 to the mq error model.
// protocol errors carry an AMQP reply code and become engine errors, anything
// else, such as a failed dial, is reported as an environment error.
func toError(op string, err error) error {
	if err == nil {
		return nil
	}

	var ae *amqp091.Error
	if errors.As(err, &ae) {
		return mq.NewBackendError(ae.Code, ae.Reason)
	}

	// errors which already belong to the mq model are passed through as is.
	var be *mq.BackendError
	if errors.As(err, &be) || errors.Is(err, mq.ErrInvalidState) || errors.Is(err, mq.ErrUnsupported) {
		return err
	}

	return &mq.EnvironmentError{Op: op, Err: err}
}

// recoverable whether a dial or channel failure is worth retrying.
// server side protocol errors which are flagged as unrecoverable, such as
// bad credentials or a missing vhost, are not.
func recoverable(err error) bool {
	var ae *amqp091.Error
	if errors.As(err, &ae) {
		return ae.Recover
	}
	return true
}

// retryable marks err as permanent for backoff when it is not recoverable.
func retryable(err error) error {
	if err == nil || recoverable(err) {
		return err
	}
	return backoff.Permanent(err)
}

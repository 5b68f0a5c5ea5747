package manager

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// InvalidConnectionReason is the reason carried by the error IsValid returns.
const InvalidConnectionReason = "Invalid connection"

// newInvalidConnectionError builds the error returned for a connection that
// must not be checked out: a client-side hard error with code connection-forced.
func newInvalidConnectionError() *amqp.Error {
	return &amqp.Error{
		Code:    amqp.ConnectionForced,
		Reason:  InvalidConnectionReason,
		Server:  false,
		Recover: false,
	}
}

// IsInvalidConnection reports whether err was produced by IsValid, as opposed
// to being raised by the broker or the dial.
func IsInvalidConnection(err error) bool {
	var amqpErr *amqp.Error
	if !errors.As(err, &amqpErr) {
		return false
	}
	return !amqpErr.Server &&
		amqpErr.Code == amqp.ConnectionForced &&
		amqpErr.Reason == InvalidConnectionReason
}

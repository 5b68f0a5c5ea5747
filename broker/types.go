package broker

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyOpened = errors.New("connection already opened")
)

// State is the lifecycle state of a Connection.
type State int32

const (
	StateInitial State = iota
	StateConnecting
	StateConnected
	StateClosing
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Conn is the subset of *amqp.Connection used by Connection.
type Conn interface {
	Channel() (*amqp.Channel, error)
	IsClosed() bool
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// DialFunc establishes a connection to address. It blocks for the whole
// handshake and is run off the caller's goroutine by Open.
type DialFunc func(address string, options amqp.Config) (Conn, error)

// DefaultDial dials with amqp.DialConfig.
func DefaultDial(address string, options amqp.Config) (Conn, error) {
	conn, err := amqp.DialConfig(address, options)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

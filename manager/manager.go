package manager

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rickgao/amqppool/broker"
	"github.com/rickgao/amqppool/pool"
)

var _ pool.Manager[*broker.Connection] = (*ConnectionManager)(nil)

// ConnectionManager creates and classifies broker connections for a pool.
// All fields are set by New and never modified, so a single manager can be
// shared by any number of goroutines.
type ConnectionManager struct {
	address string
	options amqp.Config
	dial    broker.DialFunc
}

// Option configures a ConnectionManager.
type Option func(*ConnectionManager)

// WithDialer replaces the function used to establish connections.
func WithDialer(dial broker.DialFunc) Option {
	return func(m *ConnectionManager) {
		if dial != nil {
			m.dial = dial
		}
	}
}

// New creates a manager for the broker at address. options is copied; later
// changes to the caller's value do not affect the manager. No I/O is performed.
func New(address string, options amqp.Config, opts ...Option) *ConnectionManager {
	m := &ConnectionManager{
		address: address,
		options: cloneOptions(options),
		dial:    broker.DefaultDial,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Address returns the broker address connections are made to.
func (m *ConnectionManager) Address() string {
	return m.address
}

// Options returns a copy of the connection options.
func (m *ConnectionManager) Options() amqp.Config {
	return cloneOptions(m.options)
}

// Connect establishes a new connection and blocks until the handshake has
// finished. Dial errors are returned as is. The manager applies no timeout of
// its own; ctx is the caller's means to bound the wait.
func (m *ConnectionManager) Connect(ctx context.Context) (*broker.Connection, error) {
	return broker.Dial(ctx, m.dial, m.address, cloneOptions(m.options))
}

// IsValid returns nil if conn may be checked out, and an invalid-connection
// error otherwise.
func (m *ConnectionManager) IsValid(conn *broker.Connection) error {
	if conn != nil && validForCheckout(conn.State()) {
		return nil
	}
	return newInvalidConnectionError()
}

// HasBroken reports whether conn can never be used again.
func (m *ConnectionManager) HasBroken(conn *broker.Connection) bool {
	if conn == nil {
		return true
	}
	return broken(conn.State())
}

// validForCheckout and broken list every state explicitly. A state added to
// broker.State must be given a case in both.
func validForCheckout(s broker.State) bool {
	switch s {
	case broker.StateInitial, broker.StateConnecting, broker.StateConnected:
		return true
	case broker.StateClosing, broker.StateClosed, broker.StateError:
		return false
	default:
		return false
	}
}

func broken(s broker.State) bool {
	switch s {
	case broker.StateClosed, broker.StateError:
		return true
	case broker.StateInitial, broker.StateConnecting, broker.StateConnected, broker.StateClosing:
		return false
	default:
		return false
	}
}

// cloneOptions deep-copies the parts of amqp.Config the client may mutate
// during a dial.
func cloneOptions(o amqp.Config) amqp.Config {
	c := o
	if o.SASL != nil {
		c.SASL = append([]amqp.Authentication(nil), o.SASL...)
	}
	if o.TLSClientConfig != nil {
		c.TLSClientConfig = o.TLSClientConfig.Clone()
	}
	c.Properties = cloneTable(o.Properties)
	return c
}

func cloneTable(t amqp.Table) amqp.Table {
	if t == nil {
		return nil
	}
	out := make(amqp.Table, len(t))
	for k, v := range t {
		if nested, ok := v.(amqp.Table); ok {
			v = cloneTable(nested)
		}
		out[k] = v
	}
	return out
}

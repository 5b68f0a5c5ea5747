package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection is a single AMQP connection with lifecycle tracking.
type Connection struct {
	id      uuid.UUID
	address string

	state atomic.Int32

	mu   sync.RWMutex
	conn Conn
	err  *amqp.Error
}

// New creates a Connection in StateInitial. No I/O is performed.
func New(address string) *Connection {
	c := &Connection{
		id:      uuid.New(),
		address: address,
	}
	c.state.Store(int32(StateInitial))
	return c
}

// Dial creates a Connection and opens it.
func Dial(ctx context.Context, dial DialFunc, address string, options amqp.Config) (*Connection, error) {
	c := New(address)
	if err := c.Open(ctx, dial, options); err != nil {
		return nil, err
	}
	return c, nil
}

type dialResult struct {
	conn Conn
	err  error
}

// Open runs dial on its own goroutine and blocks until it finishes or ctx is done.
//
// A dial error is returned unchanged and leaves the connection in StateError.
// If ctx ends first, ctx.Err() is returned, the connection moves to StateClosed
// and a connection that arrives later is closed.
func (c *Connection) Open(ctx context.Context, dial DialFunc, options amqp.Config) error {
	if !c.state.CompareAndSwap(int32(StateInitial), int32(StateConnecting)) {
		return ErrAlreadyOpened
	}
	if dial == nil {
		dial = DefaultDial
	}

	done := make(chan dialResult, 1)
	go func() {
		conn, err := dial(c.address, options)
		done <- dialResult{conn: conn, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			c.setState(StateError)
			return r.err
		}
		c.attach(r.conn)
		return nil
	case <-ctx.Done():
		c.setState(StateClosed)
		go func() {
			if r := <-done; r.err == nil {
				r.conn.Close()
			}
		}()
		return ctx.Err()
	}
}

func (c *Connection) attach(conn Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	notify := conn.NotifyClose(make(chan *amqp.Error, 1))
	c.state.CompareAndSwap(int32(StateConnecting), int32(StateConnected))
	go c.watch(notify)
}

// watch records how the underlying connection went away.
func (c *Connection) watch(notify <-chan *amqp.Error) {
	amqpErr, ok := <-notify
	if ok && amqpErr != nil {
		c.mu.Lock()
		c.err = amqpErr
		c.mu.Unlock()
		c.setState(StateError)
		return
	}
	// Graceful close. Close() may already have moved the state on.
	c.state.CompareAndSwap(int32(StateConnected), int32(StateClosed))
	c.state.CompareAndSwap(int32(StateClosing), int32(StateClosed))
}

func (c *Connection) setState(s State) {
	c.state.Store(int32(s))
}

// ID returns the unique ID assigned when the connection was created.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Address returns the broker address this connection was created for.
func (c *Connection) Address() string {
	return c.address
}

// State returns the current lifecycle state. It is read fresh on every call:
// a connection the client already reports as closed is never Connected.
func (c *Connection) State() State {
	s := State(c.state.Load())
	if s != StateConnected {
		return s
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn != nil && conn.IsClosed() {
		return StateClosed
	}
	return s
}

// Err returns the error the connection was closed with, if any.
func (c *Connection) Err() *amqp.Error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Channel opens a new channel on the connection.
func (c *Connection) Channel() (*amqp.Channel, error) {
	if c.State() != StateConnected {
		return nil, ErrNotConnected
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	return conn.Channel()
}

// Close gracefully closes the connection. Closing a connection that is
// already closed, errored or never opened is a no-op.
func (c *Connection) Close() error {
	if !c.state.CompareAndSwap(int32(StateConnected), int32(StateClosing)) {
		c.state.CompareAndSwap(int32(StateInitial), int32(StateClosed))
		return nil
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	err := conn.Close()
	c.state.CompareAndSwap(int32(StateClosing), int32(StateClosed))
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

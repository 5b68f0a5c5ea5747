// Package brokertest provides in-memory fakes for testing code built on package broker.
package brokertest

import (
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rickgao/amqppool/broker"
)

// ErrNoChannels is returned by Conn.Channel; the fake does not speak the protocol.
var ErrNoChannels = errors.New("brokertest: channels are not supported")

// Conn is a fake broker.Conn whose closure is driven by the test.
type Conn struct {
	mu      sync.Mutex
	closed  bool
	closes  int
	notify  []chan *amqp.Error
	onClose chan struct{}
}

// NewConn returns an open fake connection.
func NewConn() *Conn {
	return &Conn{}
}

var _ broker.Conn = (*Conn)(nil)

// Channel always fails.
func (c *Conn) Channel() (*amqp.Channel, error) {
	if c.IsClosed() {
		return nil, amqp.ErrClosed
	}
	return nil, ErrNoChannels
}

// IsClosed reports whether the fake has been closed, failed or dropped.
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// NotifyClose registers receiver the way *amqp.Connection does: it gets the
// close error, if any, and is then closed. On a closed connection receiver is
// closed immediately.
func (c *Conn) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(receiver)
		return receiver
	}
	c.notify = append(c.notify, receiver)
	return receiver
}

// BlockClose makes the next Close calls wait until the returned func is called.
func (c *Conn) BlockClose() (release func()) {
	gate := make(chan struct{})
	c.mu.Lock()
	c.onClose = gate
	c.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Close gracefully closes the fake.
func (c *Conn) Close() error {
	c.mu.Lock()
	gate := c.onClose
	c.closes++
	c.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !c.shutdown(nil) {
		return amqp.ErrClosed
	}
	return nil
}

// Closes returns how many times Close was called.
func (c *Conn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// Fail closes the fake with err, as if the server or transport had failed.
func (c *Conn) Fail(err *amqp.Error) {
	c.shutdown(err)
}

// Drop marks the fake closed without notifying listeners.
func (c *Conn) Drop() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Conn) shutdown(err *amqp.Error) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	receivers := c.notify
	c.notify = nil
	c.mu.Unlock()

	for _, ch := range receivers {
		if err != nil {
			ch <- err
		}
		close(ch)
	}
	return true
}

// Dialer is a broker.DialFunc source that records every dial.
type Dialer struct {
	// Err, when set, is returned instead of a connection.
	Err error
	// Gate, when set, holds each dial until it is closed or receives a value.
	Gate chan struct{}
	// Started, when set, receives the address of every dial as it starts.
	Started chan string

	mu        sync.Mutex
	conns     []*Conn
	options   []amqp.Config
	addresses []string
}

// Dial implements broker.DialFunc.
func (d *Dialer) Dial(address string, options amqp.Config) (broker.Conn, error) {
	if d.Started != nil {
		d.Started <- address
	}
	if d.Gate != nil {
		<-d.Gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.addresses = append(d.addresses, address)
	d.options = append(d.options, options)
	if d.Err != nil {
		return nil, d.Err
	}
	conn := NewConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

// Conns returns the connections handed out so far.
func (d *Dialer) Conns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Conn(nil), d.conns...)
}

// Options returns the options each dial received.
func (d *Dialer) Options() []amqp.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]amqp.Config(nil), d.options...)
}

// Addresses returns the address each dial received.
func (d *Dialer) Addresses() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.addresses...)
}

// SetErr changes the error returned by subsequent dials.
func (d *Dialer) SetErr(err error) {
	d.mu.Lock()
	d.Err = err
	d.mu.Unlock()
}

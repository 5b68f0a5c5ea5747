// Package broker wraps an AMQP 0-9-1 connection with an observable lifecycle state.
//
// The underlying client only reports whether a connection is closed. Connection
// adds the full lifecycle a pool needs to classify its resources:
//   - Initial: created, not yet dialed
//   - Connecting: dial in flight
//   - Connected: handshake complete
//   - Closing: graceful close in flight
//   - Closed: closed by the client or gracefully by the server
//   - Error: dial failed or the server/transport closed the connection with an error
package broker

// Package driver abstracts Modbus TCP and RTU transports behind one
// interface, so the connection manager and run engine never depend on the
// wire protocol directly.
package driver

import (
	"context"
	"fmt"

	"github.com/hollysys/plc-comm-forge/comm/model"
)

// ConnectionKey identifies a physical connection for pooling purposes. It
// deliberately excludes timing/retry fields: two profiles differing only in
// timeout_ms share the same key (spec §9).
type ConnectionKey string

// RawReadData is the untyped result of one Modbus read: either a register
// buffer (Holding/Input) or a bit buffer (Coil/Discrete).
type RawReadData struct {
	Registers []uint16
	Bits      []bool
}

// ConnectedClient is an opaque handle returned by Connect and threaded back
// through ReadWithClient; its concrete type is driver-specific.
type ConnectedClient interface {
	Close() error
}

// CommDriver is implemented once per transport (TCP, RTU, Mock).
type CommDriver interface {
	// ConnectionKey returns the pool lookup key for profile.
	ConnectionKey(profile model.ConnectionProfile) ConnectionKey

	// Connect establishes a new client for profile.
	Connect(ctx context.Context, profile model.ConnectionProfile) (ConnectedClient, error)

	// ReadWithClient issues the Modbus function matching job.ReadArea.
	ReadWithClient(ctx context.Context, client ConnectedClient, job model.ReadJob) (RawReadData, error)
}

// DriverError wraps a transport or protocol-level failure. Both connection
// failures and Modbus exception responses surface as Comm; Timeout is
// produced by callers wrapping an operation in a deadline, not by the
// driver itself.
type DriverError struct {
	Comm    string
	Timeout bool
}

func (e *DriverError) Error() string {
	if e.Timeout {
		return "driver: timeout"
	}
	return fmt.Sprintf("driver: comm error: %s", e.Comm)
}

// NewCommError builds a DriverError carrying a transport/protocol message.
func NewCommError(format string, args ...any) *DriverError {
	return &DriverError{Comm: fmt.Sprintf(format, args...)}
}

// ErrTimeout is a DriverError signalling a timed-out operation.
var ErrTimeout = &DriverError{Timeout: true}

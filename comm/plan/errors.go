// Package plan builds deterministic Modbus read plans from connection
// profiles and points, with no I/O.
package plan

import "fmt"

// ErrKind enumerates why plan building failed for a point or channel.
type ErrKind int

const (
	// UnknownChannel is returned when a point references a channel_name no
	// profile declares.
	UnknownChannel ErrKind = iota + 1
	// AreaTypeMismatch is returned when a point's data type cannot be read
	// from its channel's read area (e.g. Bool on Holding).
	AreaTypeMismatch
	// AddressOutOfRange is returned when a point's absolute span does not
	// fit within its channel's address range.
	AddressOutOfRange
	// AddressConflict is returned when two explicit-offset points on the
	// same channel overlap.
	AddressConflict
)

func (k ErrKind) String() string {
	switch k {
	case UnknownChannel:
		return "UnknownChannel"
	case AreaTypeMismatch:
		return "AreaTypeMismatch"
	case AddressOutOfRange:
		return "AddressOutOfRange"
	case AddressConflict:
		return "AddressConflict"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// PointError names the point a PlanError concerns.
type PointError struct {
	Kind        ErrKind
	ChannelName string
	PointKey    string
	HmiName     string
	Reason      string
}

func (e PointError) Error() string {
	return fmt.Sprintf("plan: %s on channel %q point %q: %s", e.Kind, e.ChannelName, e.HmiName, e.Reason)
}

// PlanError aggregates every point-level failure found while building a
// plan; the whole plan fails, but every offending point is listed.
type PlanError struct {
	Errors []PointError
}

func (e *PlanError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("plan: %d point(s) failed, first: %s", len(e.Errors), e.Errors[0].Error())
}

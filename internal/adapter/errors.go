package adapter

import (
	"errors"
	"fmt"
	"time"
)

// ErrClosed is returned by bus operations on a device that is not open.
var ErrClosed = errors.New("adapter: device not open")

// CodeUnspecified is the DeviceError code for failures that carry no status
// of their own, such as a host bus error.
const CodeUnspecified byte = 0x96

// TimeoutError indicates that no matching response arrived in time.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timeout waiting for response after %v", e.Op, e.Timeout)
}

// DeviceError is an explicit failure reported by the adapter or the target.
type DeviceError struct {
	Op      string
	Code    byte
	Message string
	// Err is the transport error behind the failure, if any.
	Err error
}

func (e *DeviceError) Error() string {
	msg := fmt.Sprintf("%s failed: %s (0x%02X)", e.Op, e.Message, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeviceError) Unwrap() error { return e.Err }

// UnsupportedError indicates an operation the active transport cannot do.
type UnsupportedError struct {
	Device string
	Op     string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Device, e.Op)
}

// ConfigError indicates a parameter outside the supported range.
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Param, e.Value, e.Reason)
}

// FormatError indicates a response that is too short or otherwise malformed.
type FormatError struct {
	Op     string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Op, e.Reason)
}

// IsTimeout reports whether err is or wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsUnsupported reports whether err is or wraps an *UnsupportedError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

package packet

import "fmt"

// ErrorCode is the status byte carried by ERROR and SMB_ERROR responses.
type ErrorCode byte

const (
	ErrUnknownTag  ErrorCode = 0x80
	ErrQueueFull   ErrorCode = 0x81 // listed by the firmware docs, never sent
	ErrBadCRC      ErrorCode = 0x83
	ErrBadPEC      ErrorCode = 0x91
	ErrTimeout     ErrorCode = 0x92
	ErrNack        ErrorCode = 0x93
	ErrUnspecified ErrorCode = 0x96
)

var errorCodes = map[ErrorCode]struct{ name, message string }{
	ErrUnknownTag:  {"UNKNOWN_TAG", "Unknown packet tag sent to EV2400"},
	ErrQueueFull:   {"QUEUE_FULL", "EV2400 packet Queue full"},
	ErrBadCRC:      {"BAD_CRC", "Bad CRC sent to EV2400"},
	ErrBadPEC:      {"BAD_PEC", "Bad PEC"},
	ErrTimeout:     {"TIMEOUT", "The transaction timed out"},
	ErrNack:        {"NACK", "Nack received"},
	ErrUnspecified: {"UNSPECIFIED", "Unspecified error occurred"},
}

// Name returns the short constant-style name of the code.
func (c ErrorCode) Name() string {
	if e, ok := errorCodes[c]; ok {
		return e.name
	}
	return "UNKNOWN"
}

// Message returns a human-readable description of the code.
func (c ErrorCode) Message() string {
	if e, ok := errorCodes[c]; ok {
		return e.message
	}
	return fmt.Sprintf("unspecified error, code 0x%02X", byte(c))
}

// Package packet implements the EV2400 frame format.
//
// Frame structure:
//
//	[HDR 0xAA][TAG][ID_L][ID_H][RETRY][PLEN][PAYLOAD...][CRC8][TLR 0x55]
//
// The CRC covers TAG through the last payload byte. Frames are built for
// outbound requests with Encode and rebuilt from inbound fragments with a
// Decoder.
package packet

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	Header  = 0xAA
	Trailer = 0x55

	// PreambleSize is the number of bytes up to and including PLEN. Once
	// that many bytes are known the full frame length is known.
	PreambleSize = 6
	// PostambleSize covers CRC8 and the trailer.
	PostambleSize = 2
	MetadataSize  = PreambleSize + PostambleSize

	MaxPayloadSize = 0xFF
	MaxFrameSize   = MetadataSize + MaxPayloadSize
)

// Byte offsets inside a frame.
const (
	offHeader = 0
	offTag    = 1
	offID     = 2
	offRetry  = 4
	offLength = 5
	offData   = 6
)

// Packet is one decoded or to-be-encoded frame.
type Packet struct {
	Tag     Tag
	ID      uint16
	Retry   byte
	Payload []byte

	// Fields below are filled by Decode and checked by Validate. Encode
	// ignores them and always writes canonical values.
	Header  byte
	Length  byte
	CRC     byte
	Trailer byte

	raw []byte
}

// New returns a packet ready to be encoded.
func New(tag Tag, payload []byte, id uint16, retry byte) *Packet {
	p := &Packet{
		Tag:     tag,
		ID:      id,
		Retry:   retry,
		Payload: append([]byte(nil), payload...),
		Header:  Header,
		Trailer: Trailer,
	}
	p.Length = byte(len(p.Payload))
	return p
}

// FrameError reports a frame that violates the wire format.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return "invalid frame: " + e.Reason
}

func frameErrorf(format string, args ...any) error {
	return &FrameError{Reason: fmt.Sprintf(format, args...)}
}

// Encode returns the canonical bytes for a frame.
func Encode(tag Tag, payload []byte, id uint16, retry byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, frameErrorf("payload length %d exceeds maximum %d bytes", len(payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, MetadataSize+len(payload))
	frame = append(frame, Header, byte(tag))
	frame = binary.LittleEndian.AppendUint16(frame, id)
	frame = append(frame, retry, byte(len(payload)))
	frame = append(frame, payload...)
	frame = append(frame, CRC8(frame[offTag:]), Trailer)

	return frame, nil
}

// Encode serializes p, refreshing Length and CRC from the current fields.
func (p *Packet) Encode() ([]byte, error) {
	frame, err := Encode(p.Tag, p.Payload, p.ID, p.Retry)
	if err != nil {
		return nil, err
	}
	p.Header = Header
	p.Length = byte(len(p.Payload))
	p.CRC = frame[len(frame)-2]
	p.Trailer = Trailer
	p.raw = frame
	return frame, nil
}

// Bytes returns the wire bytes the packet was decoded from or last encoded to.
func (p *Packet) Bytes() []byte {
	return p.raw
}

// Decode parses a complete frame and validates it.
func Decode(frame []byte) (*Packet, error) {
	if len(frame) < MetadataSize {
		return nil, frameErrorf("frame too short: got %d bytes, minimum is %d", len(frame), MetadataSize)
	}
	p := fromRaw(frame)
	if want := MetadataSize + int(p.Length); len(frame) != want {
		return nil, frameErrorf("frame length mismatch: got %d bytes, expected %d", len(frame), want)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// fromRaw splits a frame of exactly MetadataSize+PLEN bytes into fields.
func fromRaw(frame []byte) *Packet {
	raw := append([]byte(nil), frame...)
	n := len(raw)
	return &Packet{
		Header:  raw[offHeader],
		Tag:     Tag(raw[offTag]),
		ID:      binary.LittleEndian.Uint16(raw[offID:]),
		Retry:   raw[offRetry],
		Length:  raw[offLength],
		Payload: raw[offData : n-PostambleSize],
		CRC:     raw[n-2],
		Trailer: raw[n-1],
		raw:     raw,
	}
}

// Validate checks magic bytes, payload length and CRC.
func Validate(p *Packet) error {
	if p.Header != Header {
		return frameErrorf("header was 0x%02X, expected 0x%02X", p.Header, Header)
	}
	if p.Trailer != Trailer {
		return frameErrorf("trailer was 0x%02X, expected 0x%02X", p.Trailer, Trailer)
	}
	if len(p.Payload) > MaxPayloadSize {
		return frameErrorf("payload length %d exceeds maximum %d bytes", len(p.Payload), MaxPayloadSize)
	}
	if int(p.Length) != len(p.Payload) {
		return frameErrorf("payload length (%d) did not match actual (%d)", p.Length, len(p.Payload))
	}
	if want := p.checksum(); p.CRC != want {
		return frameErrorf("CRC 0x%02X is incorrect, should be 0x%02X", p.CRC, want)
	}
	return nil
}

func (p *Packet) checksum() byte {
	buf := make([]byte, 0, PreambleSize-1+len(p.Payload))
	buf = append(buf, byte(p.Tag))
	buf = binary.LittleEndian.AppendUint16(buf, p.ID)
	buf = append(buf, p.Retry, p.Length)
	buf = append(buf, p.Payload...)
	return CRC8(buf)
}

// OK reports whether the packet is something other than an error response.
func (p *Packet) OK() bool {
	return !p.Tag.IsError()
}

// ErrorCode returns the status code carried by an error response. SMB_ERROR
// puts the code after the failing command byte; ERROR puts it first. The
// second result is false when the packet is not an error or has no code.
func (p *Packet) ErrorCode() (ErrorCode, bool) {
	if p.OK() {
		return 0, false
	}
	idx := 0
	if p.Tag == TagSMBError {
		idx = 1
	}
	if idx >= len(p.Payload) {
		if len(p.Payload) == 0 {
			return 0, false
		}
		idx = len(p.Payload) - 1
	}
	return ErrorCode(p.Payload[idx]), true
}

func (p *Packet) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-21s", p.Tag.String())
	if p.ID != 0 {
		fmt.Fprintf(&b, " <%d>", p.ID)
	}
	fmt.Fprintf(&b, " (%02X): [", byte(p.Tag))
	for i, v := range p.Payload {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	b.WriteString("]")
	if code, ok := p.ErrorCode(); ok {
		fmt.Fprintf(&b, " (%s)", code.Name())
	}
	return b.String()
}

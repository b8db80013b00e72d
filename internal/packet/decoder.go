package packet

import "errors"

// ErrIncomplete is returned by Decoder.Packet before a full frame arrived.
var ErrIncomplete = errors.New("packet: frame incomplete")

// Decoder accumulates one frame from arbitrarily sized fragments.
//
// The total frame length becomes known once the preamble (through PLEN) is
// buffered. Feed never consumes bytes past the end of the current frame, so
// callers can tell how much of a fragment belonged to it. A Decoder is not
// safe for concurrent use.
type Decoder struct {
	buf   []byte
	total int
}

// Feed appends as much of p as the current frame needs and returns the
// number of bytes consumed. It consumes nothing once the frame is complete.
func (d *Decoder) Feed(p []byte) int {
	consumed := 0

	if d.total == 0 {
		need := PreambleSize - len(d.buf)
		if need > len(p) {
			need = len(p)
		}
		d.buf = append(d.buf, p[:need]...)
		p = p[need:]
		consumed += need
		if len(d.buf) < PreambleSize {
			return consumed
		}
		d.total = MetadataSize + int(d.buf[offLength])
	}

	need := d.total - len(d.buf)
	if need > len(p) {
		need = len(p)
	}
	d.buf = append(d.buf, p[:need]...)
	return consumed + need
}

// Complete reports whether a full frame is buffered.
func (d *Decoder) Complete() bool {
	return d.total > 0 && len(d.buf) == d.total
}

// Buffered returns the number of bytes held for the current frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Expected returns the total frame length, or 0 while it is still unknown.
func (d *Decoder) Expected() int {
	return d.total
}

// Packet returns the buffered frame after validating it. It does not reset
// the decoder.
func (d *Decoder) Packet() (*Packet, error) {
	if !d.Complete() {
		return nil, ErrIncomplete
	}
	p := fromRaw(d.buf)
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Reset discards any partial frame.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.total = 0
}

// Package stream carries EV2400 frames over fixed-size HID reports.
//
// Each report is laid out as
//
//	[MARKER 0x3F][COUNT][DATA (COUNT bytes)][zero padding]
//
// A frame longer than one report's data area is split across consecutive
// reports. Inbound reports are reassembled into one frame at a time; the
// controller never interleaves two frames, so a single reassembly buffer is
// enough.
package stream

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"bqlink/internal/packet"
)

const (
	// Marker is the first byte of every report. It doubles as the HID
	// report ID on the EV2400.
	Marker = 0x3F

	DefaultChunkSize  = 62
	DefaultReportSize = 64

	envelopeSize = 2
)

// SendFunc writes one padded report to the transport.
type SendFunc func(report []byte) error

// PacketFunc receives every complete, valid inbound packet.
type PacketFunc func(p *packet.Packet)

type config struct {
	chunkSize  int
	reportSize int
	logger     *slog.Logger
	trace      bool
}

func defaultConfig() config {
	return config{
		chunkSize:  DefaultChunkSize,
		reportSize: DefaultReportSize,
		logger:     slog.Default(),
	}
}

// Option configures a Stream.
type Option func(*config)

// WithChunkSize sets the maximum number of frame bytes per report.
// Values outside 1-255 are ignored.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 && n <= 0xFF {
			c.chunkSize = n
		}
	}
}

// WithReportSize sets the padded size of outbound reports. It is raised to
// fit the chunk size if needed.
func WithReportSize(n int) Option {
	return func(c *config) {
		if n > envelopeSize {
			c.reportSize = n
		}
	}
}

// WithLogger sets the logger for dropped reports and packet traces.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTrace enables debug logging of every packet in both directions.
func WithTrace(enabled bool) Option {
	return func(c *config) {
		c.trace = enabled
	}
}

// Stream frames outbound packets and reassembles inbound ones.
//
// Send may be called from the caller's goroutine while Feed runs on the
// transport's reader goroutine. Feed itself must not be called
// concurrently; the reassembly buffer belongs to whoever delivers reports.
// Other goroutines discard a partial frame through RequestReset.
type Stream struct {
	send     SendFunc
	onPacket PacketFunc
	cfg      config

	dec   packet.Decoder
	reset atomic.Bool
}

// New returns a Stream that writes reports with send and hands complete
// packets to onPacket.
func New(send SendFunc, onPacket PacketFunc, opts ...Option) *Stream {
	if send == nil {
		panic("stream: send cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.reportSize < cfg.chunkSize+envelopeSize {
		cfg.reportSize = cfg.chunkSize + envelopeSize
	}

	return &Stream{
		send:     send,
		onPacket: onPacket,
		cfg:      cfg,
	}
}

// Send encodes p and writes it as one or more reports, in order.
func (s *Stream) Send(p *packet.Packet) error {
	frame, err := p.Encode()
	if err != nil {
		return err
	}
	s.tracePacket(p, true)

	for off := 0; off < len(frame); off += s.cfg.chunkSize {
		end := min(off+s.cfg.chunkSize, len(frame))
		report := make([]byte, s.cfg.reportSize)
		report[0] = Marker
		report[1] = byte(end - off)
		copy(report[envelopeSize:], frame[off:end])

		if err := s.send(report); err != nil {
			return fmt.Errorf("send report: %w", err)
		}
	}

	return nil
}

// Feed consumes one inbound report.
//
// Empty reports are ignored. While no frame is in progress, a report whose
// data does not start with the frame header is treated as line noise and
// dropped. When a frame completes it is validated; invalid frames are
// logged and discarded, and the buffer starts over either way.
func (s *Stream) Feed(report []byte) {
	log := s.cfg.logger

	if s.reset.Swap(false) && s.dec.Buffered() > 0 {
		log.Debug("partial frame discarded", "buffered", s.dec.Buffered())
		s.dec.Reset()
	}

	if len(report) < envelopeSize {
		log.Debug("short report dropped", "len", len(report))
		return
	}
	if report[0] != Marker {
		log.Debug("report with unexpected marker dropped", "marker", fmt.Sprintf("0x%02X", report[0]))
		return
	}

	n := int(report[1])
	if n == 0 {
		return
	}
	if n > len(report)-envelopeSize {
		log.Warn("report count exceeds report size", "count", n, "len", len(report))
		s.dec.Reset()
		return
	}
	data := report[envelopeSize : envelopeSize+n]

	if s.dec.Buffered() == 0 && data[0] != packet.Header {
		log.Debug("garbage data dropped, no frame header", "first", fmt.Sprintf("0x%02X", data[0]))
		return
	}

	if used := s.dec.Feed(data); used < len(data) {
		log.Debug("bytes past frame end dropped", "count", len(data)-used)
	}
	if !s.dec.Complete() {
		return
	}

	p, err := s.dec.Packet()
	s.dec.Reset()
	if err != nil {
		log.Warn("invalid frame dropped", "error", err)
		return
	}

	s.tracePacket(p, false)
	if s.onPacket != nil {
		s.onPacket(p)
	}
}

// RequestReset asks the next Feed to drop any partially assembled frame
// before it looks at its report. It is safe to call from any goroutine.
func (s *Stream) RequestReset() {
	s.reset.Store(true)
}

// Pending returns the number of bytes buffered for a partial frame.
func (s *Stream) Pending() int {
	return s.dec.Buffered()
}

func (s *Stream) tracePacket(p *packet.Packet, outgoing bool) {
	if !s.cfg.trace {
		return
	}
	dir := "<--"
	if outgoing {
		dir = "-->"
	}
	s.cfg.logger.Debug("packet", "dir", dir, "packet", p.String())
}

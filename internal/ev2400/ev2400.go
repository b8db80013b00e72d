// Package ev2400 drives a TI EV2400-style interface board.
//
// The board speaks a framed request/response protocol carried in 64-byte
// HID reports. Every request gets a fresh 16-bit id; only the reply with
// that id resolves it. One request is outstanding at a time.
package ev2400

import (
	"fmt"
	"math"
	"sync"

	"bqlink/internal/adapter"
	"bqlink/internal/packet"
	"bqlink/internal/stream"
)

// ClockBaseKHz is the reference clock the I2C divider applies to.
const ClockBaseKHz = 4000

// MaxBoardNameSize includes the length prefix.
const MaxBoardNameSize = 32

// single-wire reads are retried by the board itself
const singleWireRetry = 2

const capabilities = adapter.CapI2C | adapter.CapSMBus | adapter.CapHDQ | adapter.CapDQ | adapter.CapBitrate

// EV2400 is an adapter.Device backed by a Transport. All methods are safe
// to call from multiple goroutines; requests are serialized.
type EV2400 struct {
	tr  Transport
	cfg config

	mu      sync.Mutex
	open    bool
	stream  *stream.Stream
	resp    chan *packet.Packet
	lastID  uint16
	bitrate int
}

// New returns a closed EV2400 using tr.
func New(tr Transport, opts ...Option) *EV2400 {
	if tr == nil {
		panic("ev2400: transport cannot be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &EV2400{tr: tr, cfg: cfg}
}

func (d *EV2400) Name() string {
	if s, ok := d.tr.(fmt.Stringer); ok {
		return fmt.Sprintf("EV2400(%s)", s)
	}
	return "EV2400"
}

func (d *EV2400) Capabilities() adapter.Capabilities { return capabilities }

// Open acquires the transport and starts the reader. If no bitrate has
// been chosen yet the bus is set to 100 kHz. Any failure after the
// transport is acquired releases it again.
func (d *EV2400) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return nil
	}

	d.resp = make(chan *packet.Packet, d.cfg.queueSize)
	d.stream = stream.New(d.tr.Write, d.received,
		stream.WithLogger(d.cfg.logger),
		stream.WithTrace(d.cfg.trace),
	)
	if err := d.tr.Open(d.stream.Feed); err != nil {
		return fmt.Errorf("open %s: %w", d.Name(), err)
	}
	d.open = true

	if d.bitrate == 0 {
		if _, err := d.setBitrate(adapter.Bitrate100KHz); err != nil {
			d.open = false
			if cerr := d.tr.Close(); cerr != nil {
				d.cfg.logger.Warn("release after failed open", "device", d.Name(), "err", cerr)
			}
			return err
		}
	}
	d.cfg.logger.Debug("device opened", "device", d.Name(), "bitrate", d.bitrate)
	return nil
}

// Close releases the transport. Closing a closed device does nothing.
func (d *EV2400) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return nil
	}
	d.open = false
	return d.tr.Close()
}

func (d *EV2400) do(tag packet.Tag, payload []byte, retry byte, expect bool) (*packet.Packet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transact(tag, payload, retry, expect)
}

func (d *EV2400) request(tag packet.Tag, payload ...byte) (*packet.Packet, error) {
	return d.do(tag, payload, 0, true)
}

func (d *EV2400) command(tag packet.Tag, payload ...byte) error {
	_, err := d.do(tag, payload, 0, false)
	return err
}

func short(tag packet.Tag, got, want int) error {
	return &adapter.FormatError{
		Op:     tag.String(),
		Reason: fmt.Sprintf("payload has %d bytes, need %d", got, want),
	}
}

func statusError(tag packet.Tag, status byte) error {
	return &adapter.DeviceError{
		Op:      tag.String(),
		Code:    status,
		Message: packet.ErrorCode(status).Message(),
	}
}

// SetBitrate programs the nearest divider of the 4 MHz base clock and
// returns the rate it yields.
func (d *EV2400) SetBitrate(khz int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setBitrate(khz)
}

func (d *EV2400) setBitrate(khz int) (int, error) {
	if err := adapter.CheckBitrate(khz); err != nil {
		return 0, err
	}
	div := int(math.Round(float64(ClockBaseKHz) / float64(khz)))
	if _, err := d.transact(packet.TagSetI2CSpeed, le16(uint16(div)), 0, false); err != nil {
		return 0, err
	}
	d.bitrate = int(math.Round(float64(ClockBaseKHz) / float64(div)))
	return d.bitrate, nil
}

// Bitrate returns the effective bus clock, or 0 before the first Open.
func (d *EV2400) Bitrate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bitrate
}

// SetSMBDivider programs the SMBus clock divider directly.
func (d *EV2400) SetSMBDivider(div uint16) error {
	return d.command(packet.TagSetSMBSpeed, le16(div)...)
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

// smbRead returns the data between the echoed command byte and the
// trailing status byte.
func (d *EV2400) smbRead(tag packet.Tag, addr, cmd byte) ([]byte, error) {
	rsp, err := d.request(tag, addr, cmd)
	if err != nil {
		return nil, err
	}
	pl := rsp.Payload
	if len(pl) < 3 {
		return nil, short(tag, len(pl), 3)
	}
	if status := pl[len(pl)-1]; status != 0 {
		return nil, statusError(tag, status)
	}
	return pl[1 : len(pl)-1], nil
}

func (d *EV2400) SMBReadByte(addr, cmd byte) (byte, error) {
	data, err := d.smbRead(packet.TagSMBReadByte, addr, cmd)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

func (d *EV2400) SMBReadWord(addr, cmd byte) (uint16, error) {
	data, err := d.smbRead(packet.TagSMBReadWord, addr, cmd)
	if err != nil {
		return 0, err
	}
	if len(data) < 2 {
		return 0, short(packet.TagSMBReadWord, len(data)+2, 4)
	}
	return uint16(data[0]) | uint16(data[1])<<8, nil
}

// SMBReadBlock returns the block with its length byte.
func (d *EV2400) SMBReadBlock(addr, cmd byte) ([]byte, error) {
	return d.smbRead(packet.TagSMBReadBlock, addr, cmd)
}

func (d *EV2400) SMBCommand(addr, cmd byte) error {
	return d.command(packet.TagSMBCommand, addr, cmd)
}

func (d *EV2400) SMBWriteByte(addr, cmd, value byte) error {
	return d.command(packet.TagSMBWriteByte, addr, cmd, value)
}

func (d *EV2400) SMBWriteWord(addr, cmd byte, value uint16) error {
	return d.command(packet.TagSMBWriteWord, addr, cmd, byte(value), byte(value>>8))
}

func (d *EV2400) SMBWriteBlock(addr, cmd byte, data []byte) error {
	if len(data) > packet.MaxPayloadSize-3 {
		return &adapter.ConfigError{Param: "block length", Value: len(data), Reason: "does not fit in one frame"}
	}
	return d.command(packet.TagSMBWriteBlock, append([]byte{addr, cmd, byte(len(data))}, data...)...)
}

// Transaction runs one I2C_TRANSACTION. With adapter.SizedRead the board
// reads a length byte first and the reply keeps it.
func (d *EV2400) Transaction(addr byte, w []byte, readLen int) ([]byte, error) {
	var flags byte
	n := readLen
	if readLen == adapter.SizedRead {
		flags |= 0x01
		n = 0
	}
	if n < 0 || n > 0xFF {
		return nil, &adapter.ConfigError{Param: "read length", Value: readLen, Reason: "must be 0-255 or SizedRead"}
	}
	if len(w) > packet.MaxPayloadSize-4 {
		return nil, &adapter.ConfigError{Param: "write length", Value: len(w), Reason: "does not fit in one frame"}
	}

	payload := append([]byte{addr, flags, byte(n), byte(len(w))}, w...)
	rsp, err := d.do(packet.TagI2CTransaction, payload, 0, true)
	if err != nil {
		return nil, err
	}
	if len(rsp.Payload) < n {
		return nil, short(packet.TagI2CTransaction, len(rsp.Payload), n)
	}
	return rsp.Payload, nil
}

// I2CReadBlock reads n bytes from register reg of the target at addr.
func (d *EV2400) I2CReadBlock(addr, reg byte, n int) ([]byte, error) {
	tag := packet.TagI2CReadData
	rsp, err := d.request(tag, addr, reg, byte(n))
	if err != nil {
		return nil, err
	}
	pl := rsp.Payload
	if len(pl) < 3+n {
		return nil, short(tag, len(pl), 3+n)
	}
	if status := pl[len(pl)-1]; status != 0 {
		return nil, statusError(tag, status)
	}
	return pl[2 : len(pl)-1], nil
}

func (d *EV2400) I2CWriteBlock(addr, reg byte, data []byte) error {
	if len(data) > packet.MaxPayloadSize-3 {
		return &adapter.ConfigError{Param: "block length", Value: len(data), Reason: "does not fit in one frame"}
	}
	return d.command(packet.TagI2CWriteData, append([]byte{addr, reg, byte(len(data))}, data...)...)
}

// singleWireByte reads one register over HDQ or DQ. The reply echoes the
// register first.
func (d *EV2400) singleWireByte(tag packet.Tag, reg byte) (byte, error) {
	rsp, err := d.do(tag, []byte{reg}, singleWireRetry, true)
	if err != nil {
		return 0, err
	}
	if len(rsp.Payload) < 2 {
		return 0, short(tag, len(rsp.Payload), 2)
	}
	return rsp.Payload[1], nil
}

func (d *EV2400) HDQReadByte(reg byte) (byte, error) {
	return d.singleWireByte(packet.TagHDQ8Read, reg)
}

func (d *EV2400) HDQWriteByte(reg, value byte) error {
	return d.command(packet.TagHDQ8Write, reg, value)
}

// HDQReadBlock returns up to n bytes from reg, prefixed with the count the
// board actually read.
func (d *EV2400) HDQReadBlock(reg byte, n int) ([]byte, error) {
	tag := packet.TagHDQ8ReadBlock
	if n < 0 || n > 0xFF {
		return nil, &adapter.ConfigError{Param: "read length", Value: n, Reason: "must be 0-255"}
	}
	rsp, err := d.do(tag, []byte{reg, byte(n)}, singleWireRetry, true)
	if err != nil {
		return nil, err
	}
	if len(rsp.Payload) == 0 {
		return nil, &adapter.FormatError{Op: tag.String(), Reason: "HDQ read returned no bytes"}
	}
	if len(rsp.Payload) < n {
		return nil, short(tag, len(rsp.Payload), n)
	}
	return rsp.Payload, nil
}

func (d *EV2400) HDQWriteBlock(reg byte, data []byte) error {
	if len(data) > packet.MaxPayloadSize-2 {
		return &adapter.ConfigError{Param: "block length", Value: len(data), Reason: "does not fit in one frame"}
	}
	return d.command(packet.TagHDQ8WriteBlock, append([]byte{reg, byte(len(data))}, data...)...)
}

func (d *EV2400) HDQBreak() error {
	return d.command(packet.TagHDQ8Break)
}

func (d *EV2400) DQReadByte(reg byte) (byte, error) {
	return d.singleWireByte(packet.TagDQRead, reg)
}

func (d *EV2400) DQWriteByte(reg, value byte) error {
	return d.command(packet.TagDQWrite, reg, value)
}

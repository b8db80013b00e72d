// Package adapter presents one bus API over every supported transport.
//
// Upper layers talk to an *Adapter and never to a driver directly. The
// Adapter checks the driver's capability set before each call, so a missing
// feature surfaces as an *UnsupportedError rather than a type assertion
// failure. SMBus operations fall back to raw transactions on transports
// without native SMBus support, and every self-describing block read has
// its length byte removed here, in one place.
package adapter

import (
	"fmt"
	"time"
)

// Adapter wraps a Device. Like the Device, it is not safe for concurrent
// use; callers serialize access to one handle.
type Adapter struct {
	dev Device
}

// New returns an Adapter for dev.
func New(dev Device) *Adapter {
	if dev == nil {
		panic("adapter: device cannot be nil")
	}
	return &Adapter{dev: dev}
}

func (a *Adapter) String() string {
	return fmt.Sprintf("Adapter<%s>", a.dev.Name())
}

// Device returns the underlying driver, for transport-specific calls.
func (a *Adapter) Device() Device { return a.dev }

func (a *Adapter) Open() error  { return a.dev.Open() }
func (a *Adapter) Close() error { return a.dev.Close() }

// Capabilities returns the driver's capability set.
func (a *Adapter) Capabilities() Capabilities { return a.dev.Capabilities() }

// Supports reports whether the driver has every capability in c.
func (a *Adapter) Supports(c Capabilities) bool {
	return a.dev.Capabilities().Has(c)
}

func (a *Adapter) unsupported(op string) error {
	return &UnsupportedError{Device: a.dev.Name(), Op: op}
}

// SetBitrate programs the bus clock and returns the effective rate.
func (a *Adapter) SetBitrate(khz int) (int, error) {
	c, ok := a.dev.(Clocked)
	if !ok || !a.Supports(CapBitrate) {
		return 0, a.unsupported("bitrate")
	}
	if err := CheckBitrate(khz); err != nil {
		return 0, err
	}
	return c.SetBitrate(khz)
}

// Bitrate returns the last effective bus clock, or 0 if unknown.
func (a *Adapter) Bitrate() int {
	if c, ok := a.dev.(Clocked); ok {
		return c.Bitrate()
	}
	return 0
}

// Delay waits d, on the adapter when it can time delays itself.
func (a *Adapter) Delay(d time.Duration) {
	if dl, ok := a.dev.(Delayer); ok {
		dl.Delay(d)
		return
	}
	time.Sleep(d)
}

func (a *Adapter) rawBus(op string) (RawBus, error) {
	rb, ok := a.dev.(RawBus)
	if !ok || !a.Supports(CapI2C) {
		return nil, a.unsupported(op)
	}
	return rb, nil
}

func (a *Adapter) smBus() (SMBus, bool) {
	sb, ok := a.dev.(SMBus)
	return sb, ok && a.Supports(CapSMBus)
}

// RawTransaction writes w to addr and reads readLen bytes back. Pass
// SizedRead when the target prefixes its data with a length byte; the
// returned data then excludes that byte.
func (a *Adapter) RawTransaction(addr byte, w []byte, readLen int) ([]byte, error) {
	const op = "raw transaction"
	if readLen < SizedRead {
		return nil, &ConfigError{Param: "read length", Value: readLen, Reason: "must be >= 0 or SizedRead"}
	}
	rb, err := a.rawBus(op)
	if err != nil {
		return nil, err
	}
	data, err := rb.Transaction(addr, w, readLen)
	if err != nil {
		return nil, err
	}
	if readLen == SizedRead {
		return StripBlock(op, data)
	}
	if len(data) < readLen {
		return nil, &FormatError{Op: op, Reason: fmt.Sprintf("got %d bytes, expected %d", len(data), readLen)}
	}
	return data, nil
}

func (a *Adapter) rawRead(op string, addr, cmd byte, n int) ([]byte, error) {
	rb, err := a.rawBus(op)
	if err != nil {
		return nil, err
	}
	data, err := rb.Transaction(addr, []byte{cmd}, n)
	if err != nil {
		return nil, err
	}
	if len(data) < n {
		return nil, &FormatError{Op: op, Reason: fmt.Sprintf("got %d bytes, expected %d", len(data), n)}
	}
	return data, nil
}

func (a *Adapter) rawWrite(op string, addr byte, w []byte) error {
	rb, err := a.rawBus(op)
	if err != nil {
		return err
	}
	_, err = rb.Transaction(addr, w, 0)
	return err
}

// SMBCommand sends a command byte with no data.
func (a *Adapter) SMBCommand(addr, cmd byte) error {
	if sb, ok := a.smBus(); ok {
		return sb.SMBCommand(addr, cmd)
	}
	return a.rawWrite("smbus command", addr, []byte{cmd})
}

// SMBReadByte reads one byte from cmd.
func (a *Adapter) SMBReadByte(addr, cmd byte) (byte, error) {
	if sb, ok := a.smBus(); ok {
		return sb.SMBReadByte(addr, cmd)
	}
	data, err := a.rawRead("smbus read byte", addr, cmd, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// SMBReadWord reads a little-endian word from cmd.
func (a *Adapter) SMBReadWord(addr, cmd byte) (uint16, error) {
	if sb, ok := a.smBus(); ok {
		return sb.SMBReadWord(addr, cmd)
	}
	data, err := a.rawRead("smbus read word", addr, cmd, 2)
	if err != nil {
		return 0, err
	}
	return uint16(data[0]) | uint16(data[1])<<8, nil
}

// SMBReadBlock reads a length-prefixed block from cmd and returns the data
// without the length byte.
func (a *Adapter) SMBReadBlock(addr, cmd byte) ([]byte, error) {
	const op = "smbus read block"
	var (
		block []byte
		err   error
	)
	if sb, ok := a.smBus(); ok {
		block, err = sb.SMBReadBlock(addr, cmd)
	} else {
		var rb RawBus
		if rb, err = a.rawBus(op); err != nil {
			return nil, err
		}
		block, err = rb.Transaction(addr, []byte{cmd}, SizedRead)
	}
	if err != nil {
		return nil, err
	}
	return StripBlock(op, block)
}

// SMBWriteByte writes one byte to cmd.
func (a *Adapter) SMBWriteByte(addr, cmd, value byte) error {
	if sb, ok := a.smBus(); ok {
		return sb.SMBWriteByte(addr, cmd, value)
	}
	return a.rawWrite("smbus write byte", addr, []byte{cmd, value})
}

// SMBWriteWord writes a little-endian word to cmd.
func (a *Adapter) SMBWriteWord(addr, cmd byte, value uint16) error {
	if sb, ok := a.smBus(); ok {
		return sb.SMBWriteWord(addr, cmd, value)
	}
	return a.rawWrite("smbus write word", addr, []byte{cmd, byte(value), byte(value >> 8)})
}

// SMBWriteBlock writes [cmd][len][data...].
func (a *Adapter) SMBWriteBlock(addr, cmd byte, data []byte) error {
	if len(data) > 0xFF {
		return &ConfigError{Param: "block length", Value: len(data), Reason: "must fit in one byte"}
	}
	if sb, ok := a.smBus(); ok {
		return sb.SMBWriteBlock(addr, cmd, data)
	}
	w := make([]byte, 0, len(data)+2)
	w = append(w, cmd, byte(len(data)))
	w = append(w, data...)
	return a.rawWrite("smbus write block", addr, w)
}

// I2CReadBlock reads n bytes starting at register reg.
func (a *Adapter) I2CReadBlock(addr, reg byte, n int) ([]byte, error) {
	if n < 0 || n > 0xFF {
		return nil, &ConfigError{Param: "read length", Value: n, Reason: "must be 0-255"}
	}
	if rb, ok := a.dev.(RegisterBus); ok && a.Supports(CapI2C) {
		return rb.I2CReadBlock(addr, reg, n)
	}
	return a.rawRead("i2c read block", addr, reg, n)
}

// I2CWriteBlock writes data starting at register reg.
func (a *Adapter) I2CWriteBlock(addr, reg byte, data []byte) error {
	if rb, ok := a.dev.(RegisterBus); ok && a.Supports(CapI2C) {
		return rb.I2CWriteBlock(addr, reg, data)
	}
	return a.rawWrite("i2c write block", addr, append([]byte{reg}, data...))
}

func (a *Adapter) hdq(op string) (HDQBus, error) {
	hb, ok := a.dev.(HDQBus)
	if !ok || !a.Supports(CapHDQ) {
		return nil, a.unsupported(op)
	}
	return hb, nil
}

// HDQReadByte reads one HDQ register.
func (a *Adapter) HDQReadByte(reg byte) (byte, error) {
	hb, err := a.hdq("HDQ")
	if err != nil {
		return 0, err
	}
	return hb.HDQReadByte(reg)
}

// HDQWriteByte writes one HDQ register.
func (a *Adapter) HDQWriteByte(reg, value byte) error {
	hb, err := a.hdq("HDQ")
	if err != nil {
		return err
	}
	return hb.HDQWriteByte(reg, value)
}

// HDQReadBlock reads up to n bytes from reg and returns them without the
// length byte the adapter prefixes.
func (a *Adapter) HDQReadBlock(reg byte, n int) ([]byte, error) {
	const op = "HDQ read block"
	hb, err := a.hdq(op)
	if err != nil {
		return nil, err
	}
	block, err := hb.HDQReadBlock(reg, n)
	if err != nil {
		return nil, err
	}
	return StripBlock(op, block)
}

// HDQWriteBlock writes data starting at reg.
func (a *Adapter) HDQWriteBlock(reg byte, data []byte) error {
	hb, err := a.hdq("HDQ")
	if err != nil {
		return err
	}
	return hb.HDQWriteBlock(reg, data)
}

// HDQBreak sends an HDQ break to reset the bus.
func (a *Adapter) HDQBreak() error {
	hb, err := a.hdq("HDQ")
	if err != nil {
		return err
	}
	return hb.HDQBreak()
}

// DQReadByte reads one DQ register.
func (a *Adapter) DQReadByte(reg byte) (byte, error) {
	db, ok := a.dev.(DQBus)
	if !ok || !a.Supports(CapDQ) {
		return 0, a.unsupported("DQ")
	}
	return db.DQReadByte(reg)
}

// DQWriteByte writes one DQ register.
func (a *Adapter) DQWriteByte(reg, value byte) error {
	db, ok := a.dev.(DQBus)
	if !ok || !a.Supports(CapDQ) {
		return a.unsupported("DQ")
	}
	return db.DQWriteByte(reg, value)
}

// StripBlock removes the leading length byte of a self-describing block and
// returns exactly that many data bytes.
func StripBlock(op string, block []byte) ([]byte, error) {
	if len(block) == 0 {
		return nil, &FormatError{Op: op, Reason: "empty block, no length byte"}
	}
	n := int(block[0])
	if n > len(block)-1 {
		return nil, &FormatError{Op: op, Reason: fmt.Sprintf("block length %d exceeds %d bytes received", n, len(block)-1)}
	}
	return append([]byte(nil), block[1:1+n]...), nil
}

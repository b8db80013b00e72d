package adapter

import (
	"strings"
	"time"
)

// SizedRead is passed as a read length when the target sends its own length
// byte first, as in an SMBus block read.
const SizedRead = -1

// MaxBitrateKHz is the fastest bus clock any supported transport runs.
const MaxBitrateKHz = 400

// Standard bus clocks.
const (
	Bitrate100KHz = 100
	Bitrate400KHz = 400
)

// Capabilities is the set of bus features a transport provides.
type Capabilities uint16

const (
	CapI2C     Capabilities = 1 << iota // raw write/read transactions
	CapSMBus                            // native SMBus commands
	CapHDQ                              // HDQ single-wire bus
	CapDQ                               // DQ single-wire bus
	CapBitrate                          // configurable bus clock
)

var capNames = []struct {
	c    Capabilities
	name string
}{
	{CapI2C, "i2c"},
	{CapSMBus, "smbus"},
	{CapHDQ, "hdq"},
	{CapDQ, "dq"},
	{CapBitrate, "bitrate"},
}

// Has reports whether every capability in o is present.
func (c Capabilities) Has(o Capabilities) bool {
	return c&o == o
}

func (c Capabilities) String() string {
	var names []string
	for _, n := range capNames {
		if c.Has(n.c) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Device is a transport driver. Open and Close follow exclusive-ownership
// semantics: Open on an open device and Close on a closed one are no-ops.
// A Device serves one caller at a time.
type Device interface {
	Name() string
	Open() error
	Close() error
	Capabilities() Capabilities
}

// RawBus performs raw bus transactions. Addresses are 8-bit (write)
// addresses. readLen 0 is a write-only transaction, an empty w is a
// read-only one, and SizedRead returns the block with its length byte.
type RawBus interface {
	Transaction(addr byte, w []byte, readLen int) ([]byte, error)
}

// SMBus is implemented by transports with native SMBus commands.
// SMBReadBlock returns the block with its length byte.
type SMBus interface {
	SMBCommand(addr, cmd byte) error
	SMBReadByte(addr, cmd byte) (byte, error)
	SMBReadWord(addr, cmd byte) (uint16, error)
	SMBReadBlock(addr, cmd byte) ([]byte, error)
	SMBWriteByte(addr, cmd, value byte) error
	SMBWriteWord(addr, cmd byte, value uint16) error
	SMBWriteBlock(addr, cmd byte, data []byte) error
}

// RegisterBus is implemented by transports with native register block
// access. Others get it built from Transaction.
type RegisterBus interface {
	I2CReadBlock(addr, reg byte, n int) ([]byte, error)
	I2CWriteBlock(addr, reg byte, data []byte) error
}

// HDQBus drives the HDQ single-wire bus. HDQReadBlock returns the block
// with its length byte.
type HDQBus interface {
	HDQReadByte(reg byte) (byte, error)
	HDQWriteByte(reg, value byte) error
	HDQReadBlock(reg byte, n int) ([]byte, error)
	HDQWriteBlock(reg byte, data []byte) error
	HDQBreak() error
}

// DQBus drives the DQ single-wire bus.
type DQBus interface {
	DQReadByte(reg byte) (byte, error)
	DQWriteByte(reg, value byte) error
}

// Clocked devices have a configurable bus clock. SetBitrate returns the
// rate actually programmed, which may differ from the request.
type Clocked interface {
	SetBitrate(khz int) (int, error)
	Bitrate() int
}

// Delayer is implemented by devices that can time delays on the adapter.
type Delayer interface {
	Delay(d time.Duration)
}

// CheckBitrate validates a requested bus clock.
func CheckBitrate(khz int) error {
	if khz <= 0 {
		return &ConfigError{Param: "bitrate", Value: khz, Reason: "must be positive"}
	}
	if khz > MaxBitrateKHz {
		return &ConfigError{Param: "bitrate", Value: khz, Reason: "should be <= 400 kHz"}
	}
	return nil
}

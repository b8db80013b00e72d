// Package direct talks to the gauge over a host I2C bus through periph.io.
//
// Callers pass 8-bit (write) addresses as the gauge documentation lists
// them; the driver shifts them to the 7-bit form periph expects.
package direct

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"bqlink/internal/adapter"
)

// MaxBlockSize is the largest SMBus block. Sized reads fetch the length
// byte plus this many bytes.
const MaxBlockSize = 32

const capabilities = adapter.CapI2C | adapter.CapBitrate

// Option configures a Direct.
type Option func(*Direct)

// WithLogger sets the logger for bus lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(d *Direct) {
		if l != nil {
			d.logger = l
		}
	}
}

// Direct is an adapter.Device on a periph.io I2C bus.
type Direct struct {
	name   string
	open   func() (i2c.BusCloser, error)
	logger *slog.Logger

	mu      sync.Mutex
	bus     i2c.Bus
	closer  io.Closer
	bitrate int
}

// New returns a closed Direct for the registered bus name. An empty name
// selects the first bus.
func New(name string, opts ...Option) *Direct {
	d := &Direct{
		name:   name,
		logger: slog.Default(),
	}
	d.open = func() (i2c.BusCloser, error) {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("host init: %w", err)
		}
		return i2creg.Open(d.name)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FromBus wraps a bus the caller already owns. Close leaves it open.
func FromBus(bus i2c.Bus, opts ...Option) *Direct {
	d := &Direct{
		name:   bus.String(),
		logger: slog.Default(),
	}
	d.open = func() (i2c.BusCloser, error) {
		return nopCloser{bus}, nil
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type nopCloser struct{ i2c.Bus }

func (nopCloser) Close() error { return nil }

func (d *Direct) Name() string {
	if d.name == "" {
		return "i2c"
	}
	return fmt.Sprintf("i2c(%s)", d.name)
}

func (d *Direct) Capabilities() adapter.Capabilities { return capabilities }

// Open acquires the bus and applies a bitrate chosen before Open.
func (d *Direct) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bus != nil {
		return nil
	}
	bus, err := d.open()
	if err != nil {
		return fmt.Errorf("open %s: %w", d.Name(), err)
	}

	if d.bitrate != 0 {
		if err := bus.SetSpeed(physic.Frequency(d.bitrate) * physic.KiloHertz); err != nil {
			if cerr := bus.Close(); cerr != nil {
				d.logger.Warn("release after failed open", "bus", d.Name(), "err", cerr)
			}
			return fmt.Errorf("open %s: set speed: %w", d.Name(), err)
		}
	}

	d.bus = bus
	d.closer = bus
	d.logger.Debug("bus opened", "bus", d.Name())
	return nil
}

// Close releases the bus. Closing a closed device does nothing.
func (d *Direct) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bus == nil {
		return nil
	}
	err := d.closer.Close()
	d.bus = nil
	d.closer = nil
	return err
}

// Transaction writes w and reads readLen bytes in one combined transfer.
// With adapter.SizedRead it reads up to a full block and returns the length
// byte followed by that many bytes.
func (d *Direct) Transaction(addr byte, w []byte, readLen int) ([]byte, error) {
	const op = "i2c transaction"

	n := readLen
	sized := readLen == adapter.SizedRead
	if sized {
		n = 1 + MaxBlockSize
	}
	if n < 0 {
		return nil, &adapter.ConfigError{Param: "read length", Value: readLen, Reason: "must be >= 0 or SizedRead"}
	}
	if n == 0 && len(w) == 0 {
		return nil, &adapter.ConfigError{Param: "transaction", Value: "empty", Reason: "nothing to write or read"}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bus == nil {
		return nil, adapter.ErrClosed
	}

	var r []byte
	if n > 0 {
		r = make([]byte, n)
	}
	dev := &i2c.Dev{Addr: uint16(addr >> 1), Bus: d.bus}
	if err := dev.Tx(w, r); err != nil {
		return nil, &adapter.DeviceError{
			Op:      op,
			Code:    adapter.CodeUnspecified,
			Message: fmt.Sprintf("transfer to 0x%02X failed", addr),
			Err:     err,
		}
	}

	if sized {
		if int(r[0]) > MaxBlockSize {
			return nil, &adapter.FormatError{Op: op, Reason: fmt.Sprintf("block length %d exceeds %d", r[0], MaxBlockSize)}
		}
		return r[:1+int(r[0])], nil
	}
	return r, nil
}

// SetBitrate sets the bus clock. Before Open the rate is remembered and
// applied when the bus is acquired.
func (d *Direct) SetBitrate(khz int) (int, error) {
	if err := adapter.CheckBitrate(khz); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bus != nil {
		if err := d.bus.SetSpeed(physic.Frequency(khz) * physic.KiloHertz); err != nil {
			return 0, &adapter.DeviceError{
				Op:      "set bitrate",
				Code:    adapter.CodeUnspecified,
				Message: "bus refused clock",
				Err:     err,
			}
		}
	}
	d.bitrate = khz
	return khz, nil
}

func (d *Direct) Bitrate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bitrate
}

func (d *Direct) Delay(t time.Duration) { time.Sleep(t) }

// Enumerate lists the I2C buses registered with periph.
func Enumerate(opts ...Option) ([]adapter.Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	var devs []adapter.Device
	for _, ref := range i2creg.All() {
		devs = append(devs, New(ref.Name, opts...))
	}
	return devs, nil
}

// Driver returns the registry entry for host I2C buses.
func Driver(opts ...Option) adapter.Driver {
	return adapter.Driver{
		Name: "direct",
		Enumerate: func() ([]adapter.Device, error) {
			return Enumerate(opts...)
		},
	}
}

package ev2400

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sstallion/go-hid"

	"bqlink/internal/adapter"
	"bqlink/internal/stream"
)

// USB identifiers of the EV2400 in application mode.
const (
	VendorID  = 0x0451
	ProductID = 0x0037
)

const readPoll = 100 * time.Millisecond

// Transport moves whole reports between the host and the controller.
// Open starts delivering inbound reports to onReport from a single
// goroutine until Close returns.
type Transport interface {
	Open(onReport func(report []byte)) error
	Write(report []byte) error
	Close() error
	Serial() (string, error)
}

// HIDTransport is a Transport over a hidapi device path.
type HIDTransport struct {
	path   string
	serial string
	logger *slog.Logger

	mu   sync.Mutex
	dev  *hid.Device
	stop chan struct{}
	done chan struct{}
}

// NewHIDTransport returns a transport for the HID device at path. serial
// may be empty; it is then read from the device once open.
func NewHIDTransport(path, serial string, logger *slog.Logger) *HIDTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &HIDTransport{path: path, serial: serial, logger: logger}
}

func (t *HIDTransport) String() string { return t.path }

func (t *HIDTransport) Open(onReport func(report []byte)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev != nil {
		return nil
	}
	if err := hid.Init(); err != nil {
		return fmt.Errorf("could not init hid: %w", err)
	}
	dev, err := hid.OpenPath(t.path)
	if err != nil {
		return fmt.Errorf("could not open hid device %s: %w", t.path, err)
	}

	t.dev = dev
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.readLoop(dev, onReport, t.stop, t.done)
	return nil
}

func (t *HIDTransport) readLoop(dev *hid.Device, onReport func([]byte), stop, done chan struct{}) {
	defer close(done)

	buf := make([]byte, stream.DefaultReportSize)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := dev.ReadWithTimeout(buf, readPoll)
		if errors.Is(err, hid.ErrTimeout) {
			continue
		}
		if err != nil {
			select {
			case <-stop:
			default:
				t.logger.Error("hid read failed, reader stopped", "path", t.path, "err", err)
			}
			return
		}
		if n == 0 {
			continue
		}
		onReport(append([]byte(nil), buf[:n]...))
	}
}

func (t *HIDTransport) Write(report []byte) error {
	t.mu.Lock()
	dev := t.dev
	t.mu.Unlock()

	if dev == nil {
		return adapter.ErrClosed
	}
	n, err := dev.Write(report)
	if err != nil {
		return err
	}
	if n < len(report) {
		return fmt.Errorf("short hid write: %d of %d bytes", n, len(report))
	}
	return nil
}

// Close stops the reader and releases the device. It waits for the reader
// to exit, which takes at most one read poll.
func (t *HIDTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return nil
	}
	close(t.stop)
	<-t.done
	err := t.dev.Close()
	t.dev = nil
	return err
}

func (t *HIDTransport) Serial() (string, error) {
	if t.serial != "" {
		return t.serial, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dev == nil {
		return "", adapter.ErrClosed
	}
	s, err := t.dev.GetSerialNbr()
	if err != nil {
		return "", err
	}
	t.serial = s
	return s, nil
}

// Enumerate lists attached EV2400s without opening them.
func Enumerate(opts ...Option) ([]adapter.Device, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("could not init hid: %w", err)
	}

	var devs []adapter.Device
	err := hid.Enumerate(VendorID, ProductID, func(info *hid.DeviceInfo) error {
		cfg.logger.Debug("found ev2400", "path", info.Path, "serial", info.SerialNbr, "product", info.ProductStr)
		tr := NewHIDTransport(info.Path, info.SerialNbr, cfg.logger)
		devs = append(devs, New(tr, opts...))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate hid devices: %w", err)
	}
	return devs, nil
}

// Driver returns the registry entry for EV2400 adapters.
func Driver(opts ...Option) adapter.Driver {
	return adapter.Driver{
		Name: "ev2400",
		Enumerate: func() ([]adapter.Device, error) {
			return Enumerate(opts...)
		},
	}
}

// Exit releases hidapi's global state. Call it once at shutdown.
func Exit() error {
	return hid.Exit()
}

package adapter

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoDevice is returned by OpenFirst when no driver yields a usable device.
var ErrNoDevice = errors.New("adapter: no communication devices available")

// Driver is a named transport family. Enumerate lists the devices of that
// family currently attached; it must not open them.
type Driver struct {
	Name      string
	Enumerate func() ([]Device, error)
}

// Registry holds the available drivers in registration order. It is an
// explicit value; callers build one at startup and pass it where needed.
type Registry struct {
	mu      sync.Mutex
	drivers []Driver
}

// NewRegistry returns a Registry holding drivers.
func NewRegistry(drivers ...Driver) (*Registry, error) {
	r := &Registry{}
	for _, d := range drivers {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a driver. Names must be unique.
func (r *Registry) Register(d Driver) error {
	if d.Name == "" || d.Enumerate == nil {
		return fmt.Errorf("adapter: driver needs a name and an enumerate func")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, have := range r.drivers {
		if have.Name == d.Name {
			return fmt.Errorf("adapter: driver %q already registered", d.Name)
		}
	}
	r.drivers = append(r.drivers, d)
	return nil
}

// Drivers returns the registered driver names.
func (r *Registry) Drivers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.drivers))
	for i, d := range r.drivers {
		names[i] = d.Name
	}
	return names
}

// Enumerate lists devices from every driver. A failing driver does not hide
// the others; its error is joined into the returned error.
func (r *Registry) Enumerate() ([]Device, error) {
	r.mu.Lock()
	drivers := append([]Driver(nil), r.drivers...)
	r.mu.Unlock()

	var (
		devs []Device
		errs []error
	)
	for _, d := range drivers {
		found, err := d.Enumerate()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Name, err))
			continue
		}
		devs = append(devs, found...)
	}
	return devs, errors.Join(errs...)
}

// OpenFirst opens the first device that accepts Open, trying drivers in
// registration order.
func (r *Registry) OpenFirst() (*Adapter, error) {
	devs, enumErr := r.Enumerate()

	errs := []error{ErrNoDevice}
	if enumErr != nil {
		errs = append(errs, enumErr)
	}
	for _, dev := range devs {
		if err := dev.Open(); err != nil {
			errs = append(errs, fmt.Errorf("open %s: %w", dev.Name(), err))
			continue
		}
		return New(dev), nil
	}
	return nil, errors.Join(errs...)
}

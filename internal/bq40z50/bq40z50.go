// Package bq40z50 reads the standard Smart Battery registers of a BQ40Z50
// family gauge through any adapter transport.
package bq40z50

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Addr is the gauge's 8-bit SMBus address.
const Addr = 0x16

// Smart Battery command codes.
const (
	RegTemperature        = 0x08
	RegVoltage            = 0x09
	RegCurrent            = 0x0A
	RegMaxError           = 0x0C
	RegRelativeSOC        = 0x0D
	RegRemainingCapacity  = 0x0F
	RegFullChargeCapacity = 0x10
	RegCycleCount         = 0x17
	RegManufactureDate    = 0x1B
	RegSerialNumber       = 0x1C
	RegDeviceName         = 0x21
	RegManufacturerAccess = 0x44
)

// ShutdownCmd is the ManufacturerBlockAccess subcommand that ships the pack.
var ShutdownCmd = []byte{0x10, 0x00}

// The gauge needs both shutdown writes, this far apart.
const shutdownGap = 500 * time.Millisecond

// Bus is the part of adapter.Adapter the gauge needs.
type Bus interface {
	SMBReadWord(addr, cmd byte) (uint16, error)
	SMBWriteBlock(addr, cmd byte, data []byte) error
	Delay(d time.Duration)
}

type Status struct {
	Voltage            physic.ElectricPotential `json:"voltage"`
	Current            physic.ElectricCurrent   `json:"current"`
	Temperature        physic.Temperature       `json:"temperature"`
	MaxErrorPct        int                      `json:"max_error_pct"`
	RelativeSOCPct     int                      `json:"rsoc_pct"`
	RemainingMAh       int                      `json:"remaining_mah"`
	FullChargeMAh      int                      `json:"full_charge_mah"`
	CycleCount         int                      `json:"cycle_count"`
	SerialNumber       int                      `json:"serial_number"`
	DeviceName         uint16                   `json:"device_name"`
	ManufactureDateRaw uint16                   `json:"manufacture_date_raw"`
}

type BQ40Z50 struct {
	bus    Bus
	addr   byte
	settle time.Duration
}

// NewBQ40Z50 returns a gauge client at the default address. settle is the
// pause between consecutive register reads; zero reads back to back.
func NewBQ40Z50(bus Bus, settle time.Duration) *BQ40Z50 {
	return &BQ40Z50{bus: bus, addr: Addr, settle: settle}
}

// WithAddr returns a copy of b talking to a different address.
func (b *BQ40Z50) WithAddr(addr byte) *BQ40Z50 {
	c := *b
	c.addr = addr
	return &c
}

// Init checks the gauge answers by reading its voltage.
func (b *BQ40Z50) Init() error {
	_, err := b.bus.SMBReadWord(b.addr, RegVoltage)
	return err
}

func (b *BQ40Z50) readWord(reg byte) (uint16, error) {
	v, err := b.bus.SMBReadWord(b.addr, reg)
	if err != nil {
		return 0, err
	}
	if b.settle > 0 {
		b.bus.Delay(b.settle)
	}
	return v, nil
}

// GetStatus reads every register of Status. Temperature comes off the wire
// in 0.1 K. The first failing read aborts the snapshot.
func (b *BQ40Z50) GetStatus() (*Status, error) {
	var raw [11]uint16
	regs := [11]byte{
		RegVoltage, RegCurrent, RegTemperature, RegMaxError, RegRelativeSOC,
		RegRemainingCapacity, RegFullChargeCapacity, RegCycleCount,
		RegSerialNumber, RegDeviceName, RegManufactureDate,
	}
	for i, reg := range regs {
		v, err := b.readWord(reg)
		if err != nil {
			return nil, err
		}
		raw[i] = v
	}

	return &Status{
		Voltage:            physic.ElectricPotential(raw[0]) * physic.MilliVolt,
		Current:            physic.ElectricCurrent(int16(raw[1])) * physic.MilliAmpere,
		Temperature:        physic.Temperature(raw[2]) * 100 * physic.MilliKelvin,
		MaxErrorPct:        int(raw[3]),
		RelativeSOCPct:     int(raw[4]),
		RemainingMAh:       int(raw[5]),
		FullChargeMAh:      int(raw[6]),
		CycleCount:         int(raw[7]),
		SerialNumber:       int(raw[8]),
		DeviceName:         raw[9],
		ManufactureDateRaw: raw[10],
	}, nil
}

// Shutdown sends the shutdown subcommand twice through ManufacturerAccess.
// The pack stops answering shortly after.
func (b *BQ40Z50) Shutdown() error {
	if err := b.bus.SMBWriteBlock(b.addr, RegManufacturerAccess, ShutdownCmd); err != nil {
		return err
	}
	b.bus.Delay(shutdownGap)
	return b.bus.SMBWriteBlock(b.addr, RegManufacturerAccess, ShutdownCmd)
}

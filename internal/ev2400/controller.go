package ev2400

import (
	"fmt"

	"bqlink/internal/adapter"
	"bqlink/internal/packet"
)

// Version returns the board firmware version, e.g. "v1.02".
func (d *EV2400) Version() (string, error) {
	rsp, err := d.request(packet.TagGetVersion)
	if err != nil {
		return "", err
	}
	if len(rsp.Payload) < 2 {
		return "", short(packet.TagGetVersion, len(rsp.Payload), 2)
	}
	return fmt.Sprintf("v%d.%02d", rsp.Payload[0], rsp.Payload[1]), nil
}

// BoardName returns the user-assigned board name.
func (d *EV2400) BoardName() (string, error) {
	rsp, err := d.request(packet.TagBoardName)
	if err != nil {
		return "", err
	}
	pl := rsp.Payload
	if len(pl) > 0 && int(pl[0]) <= len(pl)-1 {
		return string(pl[1 : 1+int(pl[0])]), nil
	}
	return string(pl), nil
}

// SetBoardName stores name on the board, length-prefixed.
func (d *EV2400) SetBoardName(name string) error {
	if len(name)+1 > MaxBoardNameSize {
		return &adapter.ConfigError{Param: "board name", Value: name, Reason: fmt.Sprintf("at most %d bytes", MaxBoardNameSize-1)}
	}
	return d.command(packet.TagBoardName, append([]byte{byte(len(name))}, name...)...)
}

// BoardType returns the raw board type record.
func (d *EV2400) BoardType() ([]byte, error) {
	rsp, err := d.request(packet.TagBoardType)
	if err != nil {
		return nil, err
	}
	return rsp.Payload, nil
}

// EnterFirmwareUpdateMode asks the board for its unlock code and sends it
// back, which drops the board into its ROM bootloader. The board leaves
// the bus, so the device should be closed afterwards.
func (d *EV2400) EnterFirmwareUpdateMode() error {
	rsp, err := d.request(packet.TagReturnToROMReq)
	if err != nil {
		return err
	}
	if len(rsp.Payload) < 2 {
		return short(packet.TagReturnToROMReq, len(rsp.Payload), 2)
	}
	return d.command(packet.TagReturnToROM, rsp.Payload[:2]...)
}

// EnableFastMode toggles the board's fast-mode bus characteristics.
func (d *EV2400) EnableFastMode(on bool) error {
	var mode byte
	if on {
		mode = 0x02
	}
	return d.command(packet.TagSetCharacteristics, mode, 0x02, 0, 0, 0, 0)
}

// SetPWM configures the PWM output. A zero period keeps the board's
// current period; zero duty and period turn the output off.
func (d *EV2400) SetPWM(duty, period uint16) error {
	if period != 0 && period <= duty {
		return &adapter.ConfigError{Param: "pwm period", Value: period, Reason: "must exceed duty"}
	}
	var settings []byte
	if duty != 0 || period != 0 {
		settings = le16(duty)
		if period != 0 {
			settings = append(settings, le16(period)...)
		}
	}
	return d.command(packet.TagPWMConfig, settings...)
}

// SetVoutWithTimeout drives the switched output for a limited time. The
// settings record is passed through unchanged.
func (d *EV2400) SetVoutWithTimeout(settings [4]byte) error {
	return d.command(packet.TagSetVoutTimeout, settings[:]...)
}

// GPIO sends a raw GPIO_RW record and returns the board's reply.
func (d *EV2400) GPIO(settings []byte) ([]byte, error) {
	rsp, err := d.request(packet.TagGPIO, settings...)
	if err != nil {
		return nil, err
	}
	return rsp.Payload, nil
}

// SerialNumber returns the USB serial number of the board.
func (d *EV2400) SerialNumber() (string, error) {
	return d.tr.Serial()
}

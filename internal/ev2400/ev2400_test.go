package ev2400

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"bqlink/internal/adapter"
	"bqlink/internal/packet"
	"bqlink/internal/stream"
)

// fakeController decodes the reports the driver writes and answers each
// request synchronously with whatever handler returns.
type fakeController struct {
	handler  func(req *packet.Packet) []*packet.Packet
	onReport func([]byte)
	rx, tx   *stream.Stream
	requests []*packet.Packet
	opened   int
	closed   int
	openErr  error
}

func newFake(handler func(req *packet.Packet) []*packet.Packet) *fakeController {
	f := &fakeController{handler: handler}
	f.rx = stream.New(func([]byte) error { return nil }, f.handle)
	f.tx = stream.New(func(r []byte) error {
		f.onReport(r)
		return nil
	}, nil)
	return f
}

func (f *fakeController) Open(onReport func([]byte)) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.onReport = onReport
	f.opened++
	return nil
}

func (f *fakeController) Write(report []byte) error {
	f.rx.Feed(report)
	return nil
}

func (f *fakeController) Close() error {
	f.closed++
	return nil
}

func (f *fakeController) Serial() (string, error) { return "EV2400-TEST", nil }

func (f *fakeController) handle(req *packet.Packet) {
	f.requests = append(f.requests, req)
	if f.handler == nil {
		return
	}
	for _, rsp := range f.handler(req) {
		_ = f.tx.Send(rsp)
	}
}

func (f *fakeController) last() *packet.Packet {
	return f.requests[len(f.requests)-1]
}

func reply(req *packet.Packet, tag packet.Tag, payload ...byte) []*packet.Packet {
	return []*packet.Packet{packet.New(tag, payload, req.ID, 0)}
}

// answer replies to every request of tag with payload and ignores the rest.
func answer(tag, rspTag packet.Tag, payload ...byte) func(*packet.Packet) []*packet.Packet {
	return func(req *packet.Packet) []*packet.Packet {
		if req.Tag != tag {
			return nil
		}
		return reply(req, rspTag, payload...)
	}
}

const testTimeout = 50 * time.Millisecond

func openDevice(t *testing.T, handler func(*packet.Packet) []*packet.Packet) (*EV2400, *fakeController) {
	t.Helper()
	f := newFake(handler)
	d := New(f,
		WithTimeout(testTimeout),
		WithGraceWait(5*time.Millisecond),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err := d.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d, f
}

func TestOpenProgramsDefaultBitrate(t *testing.T) {
	d, f := openDevice(t, nil)

	if len(f.requests) != 1 {
		t.Fatalf("Open sent %d requests, want 1", len(f.requests))
	}
	req := f.requests[0]
	if req.Tag != packet.TagSetI2CSpeed || !bytes.Equal(req.Payload, []byte{40, 0}) {
		t.Errorf("Open sent %v, want SET_I2C_SPEED [28, 00]", req)
	}
	if req.ID != 1 {
		t.Errorf("first packet id = %d, want 1", req.ID)
	}
	if d.Bitrate() != 100 {
		t.Errorf("Bitrate() = %d, want 100", d.Bitrate())
	}

	if err := d.Open(); err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	if f.opened != 1 || len(f.requests) != 1 {
		t.Errorf("second Open touched the transport: opened=%d requests=%d", f.opened, len(f.requests))
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if f.closed != 1 {
		t.Errorf("transport closed %d times, want 1", f.closed)
	}
}

func TestOpenReleasesOnFailure(t *testing.T) {
	f := newFake(answer(packet.TagSetI2CSpeed, packet.TagError, byte(packet.ErrUnknownTag)))
	d := New(f, WithGraceWait(5*time.Millisecond), WithLogger(slog.New(slog.DiscardHandler)))

	err := d.Open()
	var de *adapter.DeviceError
	if !errors.As(err, &de) || de.Code != byte(packet.ErrUnknownTag) {
		t.Fatalf("Open() error = %v, want DeviceError 0x80", err)
	}
	if f.closed != 1 {
		t.Errorf("transport not released after failed open")
	}
	if _, err := d.SMBReadWord(0x16, 0x09); !errors.Is(err, adapter.ErrClosed) {
		t.Errorf("request after failed open: error = %v, want ErrClosed", err)
	}

	boom := errors.New("device busy")
	g := newFake(nil)
	g.openErr = boom
	if err := New(g).Open(); !errors.Is(err, boom) {
		t.Errorf("Open() error = %v, want wrapped %v", err, boom)
	}
}

func TestRequestOnClosedDevice(t *testing.T) {
	d := New(newFake(nil))
	if _, err := d.Version(); !errors.Is(err, adapter.ErrClosed) {
		t.Errorf("Version() error = %v, want ErrClosed", err)
	}
}

func TestSetBitrate(t *testing.T) {
	tests := []struct {
		khz     int
		want    int
		divider []byte
	}{
		{100, 100, []byte{40, 0}},
		{400, 400, []byte{10, 0}},
		{300, 308, []byte{13, 0}},
		{250, 250, []byte{16, 0}},
		{1, 1, []byte{0xA0, 0x0F}},
	}

	for _, tt := range tests {
		d, f := openDevice(t, nil)

		got, err := d.SetBitrate(tt.khz)
		if err != nil {
			t.Fatalf("SetBitrate(%d) error = %v", tt.khz, err)
		}
		if got != tt.want || d.Bitrate() != tt.want {
			t.Errorf("SetBitrate(%d) = %d, Bitrate() = %d, want %d", tt.khz, got, d.Bitrate(), tt.want)
		}
		if req := f.last(); req.Tag != packet.TagSetI2CSpeed || !bytes.Equal(req.Payload, tt.divider) {
			t.Errorf("SetBitrate(%d) sent %v, want divider % X", tt.khz, req, tt.divider)
		}
	}

	d, f := openDevice(t, nil)
	sent := len(f.requests)
	for _, khz := range []int{0, -1, 401} {
		_, err := d.SetBitrate(khz)
		var ce *adapter.ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("SetBitrate(%d) error = %v, want ConfigError", khz, err)
		}
	}
	if len(f.requests) != sent {
		t.Errorf("rejected bitrate reached the bus")
	}
	if d.Bitrate() != 100 {
		t.Errorf("rejected bitrate changed Bitrate() to %d", d.Bitrate())
	}
}

func TestPacketIDsWrap(t *testing.T) {
	d, f := openDevice(t, answer(packet.TagGetVersion, packet.TagVersionRsp, 1, 2))
	d.lastID = 0xFFFE

	for range 3 {
		if _, err := d.Version(); err != nil {
			t.Fatalf("Version() error = %v", err)
		}
	}

	var ids []uint16
	for _, req := range f.requests[1:] {
		ids = append(ids, req.ID)
	}
	want := []uint16{0xFFFF, 0x0000, 0x0001}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}
}

func TestTimeoutThenLateReplyDiscarded(t *testing.T) {
	var calls int
	var firstID uint16
	d, _ := openDevice(t, func(req *packet.Packet) []*packet.Packet {
		if req.Tag != packet.TagGetVersion {
			return nil
		}
		calls++
		if calls == 1 {
			firstID = req.ID
			return nil
		}
		// The reply to the timed-out request shows up first.
		return []*packet.Packet{
			packet.New(packet.TagVersionRsp, []byte{9, 9}, firstID, 0),
			packet.New(packet.TagVersionRsp, []byte{1, 2}, req.ID, 0),
		}
	})

	_, err := d.Version()
	var te *adapter.TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("Version() error = %v, want TimeoutError", err)
	}
	if te.Timeout != testTimeout {
		t.Errorf("TimeoutError.Timeout = %v, want %v", te.Timeout, testTimeout)
	}

	v, err := d.Version()
	if err != nil {
		t.Fatalf("Version() after timeout error = %v", err)
	}
	if v != "v1.02" {
		t.Errorf("Version() = %q, want v1.02", v)
	}
}

func TestTimeoutDiscardsPartialReply(t *testing.T) {
	var f *fakeController
	var calls int
	d, f := openDevice(t, func(req *packet.Packet) []*packet.Packet {
		if req.Tag != packet.TagGetVersion {
			return nil
		}
		calls++
		if calls > 1 {
			return reply(req, packet.TagVersionRsp, 1, 2)
		}
		// Only the first report of a long reply makes it through.
		frame, err := packet.New(packet.TagVersionRsp, make([]byte, 100), req.ID, 0).Encode()
		if err != nil {
			t.Fatal(err)
		}
		r := make([]byte, stream.DefaultReportSize)
		r[0] = stream.Marker
		r[1] = stream.DefaultChunkSize
		copy(r[2:], frame[:stream.DefaultChunkSize])
		f.onReport(r)
		return nil
	})

	if _, err := d.Version(); !adapter.IsTimeout(err) {
		t.Fatalf("Version() error = %v, want timeout", err)
	}
	v, err := d.Version()
	if err != nil {
		t.Fatalf("Version() after lost report error = %v", err)
	}
	if v != "v1.02" {
		t.Errorf("Version() = %q, want v1.02", v)
	}
}

func TestMismatchedIDNeverReturned(t *testing.T) {
	d, _ := openDevice(t, func(req *packet.Packet) []*packet.Packet {
		if req.Tag != packet.TagGetVersion {
			return nil
		}
		return []*packet.Packet{packet.New(packet.TagVersionRsp, []byte{1, 2}, req.ID+1, 0)}
	})

	if _, err := d.Version(); !adapter.IsTimeout(err) {
		t.Errorf("Version() error = %v, want timeout", err)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		tag      packet.Tag
		payload  []byte
		wantCode byte
		wantMsg  string
	}{
		{"nack", packet.TagError, []byte{0x93}, 0x93, "Nack received"},
		{"smb error code after command", packet.TagSMBError, []byte{0x09, 0x92}, 0x92, "The transaction timed out"},
		{"no code", packet.TagError, nil, 0x96, "Unspecified error occurred"},
		{"unknown code", packet.TagError, []byte{0x42}, 0x42, "unspecified error, code 0x42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := openDevice(t, answer(packet.TagSMBReadWord, tt.tag, tt.payload...))

			_, err := d.SMBReadWord(0x16, 0x09)
			var de *adapter.DeviceError
			if !errors.As(err, &de) {
				t.Fatalf("error = %v, want DeviceError", err)
			}
			if de.Code != tt.wantCode || de.Message != tt.wantMsg {
				t.Errorf("DeviceError = {0x%02X %q}, want {0x%02X %q}", de.Code, de.Message, tt.wantCode, tt.wantMsg)
			}
			if de.Op != "SMB_RD_WORD" {
				t.Errorf("DeviceError.Op = %q", de.Op)
			}
		})
	}
}

func TestSMBReads(t *testing.T) {
	t.Run("word", func(t *testing.T) {
		d, f := openDevice(t, answer(packet.TagSMBReadWord, packet.TagSMBReadWordRsp, 0x09, 0x34, 0x12, 0x00))
		v, err := d.SMBReadWord(0x16, 0x09)
		if err != nil || v != 0x1234 {
			t.Fatalf("SMBReadWord() = %#x, %v", v, err)
		}
		if !bytes.Equal(f.last().Payload, []byte{0x16, 0x09}) {
			t.Errorf("request payload = % X", f.last().Payload)
		}
	})

	t.Run("byte", func(t *testing.T) {
		d, _ := openDevice(t, answer(packet.TagSMBReadByte, packet.TagSMBReadByteRsp, 0x0D, 0x55, 0x00))
		v, err := d.SMBReadByte(0x16, 0x0D)
		if err != nil || v != 0x55 {
			t.Fatalf("SMBReadByte() = %#x, %v", v, err)
		}
	})

	t.Run("block stripped by facade", func(t *testing.T) {
		d, _ := openDevice(t, answer(packet.TagSMBReadBlock, packet.TagSMBReadBlockRsp, 0x20, 0x03, 'b', 'q', '4', 0x00))

		raw, err := d.SMBReadBlock(0x16, 0x20)
		if err != nil || !bytes.Equal(raw, []byte{0x03, 'b', 'q', '4'}) {
			t.Fatalf("SMBReadBlock() = % X, %v", raw, err)
		}
		got, err := adapter.New(d).SMBReadBlock(0x16, 0x20)
		if err != nil || string(got) != "bq4" {
			t.Fatalf("Adapter.SMBReadBlock() = %q, %v", got, err)
		}
	})

	t.Run("status", func(t *testing.T) {
		d, _ := openDevice(t, answer(packet.TagSMBReadWord, packet.TagSMBReadWordRsp, 0x09, 0x00, 0x00, 0x93))
		_, err := d.SMBReadWord(0x16, 0x09)
		var de *adapter.DeviceError
		if !errors.As(err, &de) || de.Code != 0x93 {
			t.Errorf("error = %v, want DeviceError 0x93", err)
		}
	})

	t.Run("short", func(t *testing.T) {
		d, _ := openDevice(t, answer(packet.TagSMBReadWord, packet.TagSMBReadWordRsp, 0x09, 0x00))
		_, err := d.SMBReadWord(0x16, 0x09)
		var fe *adapter.FormatError
		if !errors.As(err, &fe) {
			t.Errorf("error = %v, want FormatError", err)
		}
	})
}

func TestFireAndForget(t *testing.T) {
	d, f := openDevice(t, nil)

	if err := d.SMBWriteWord(0x16, 0x00, 0xBEEF); err != nil {
		t.Fatalf("SMBWriteWord() error = %v", err)
	}
	req := f.last()
	if req.Tag != packet.TagSMBWriteWord || !bytes.Equal(req.Payload, []byte{0x16, 0x00, 0xEF, 0xBE}) {
		t.Errorf("sent %v", req)
	}

	if err := d.SMBWriteBlock(0x16, 0x44, []byte{0x10, 0x00}); err != nil {
		t.Fatalf("SMBWriteBlock() error = %v", err)
	}
	if !bytes.Equal(f.last().Payload, []byte{0x16, 0x44, 0x02, 0x10, 0x00}) {
		t.Errorf("block payload = % X", f.last().Payload)
	}

	if err := d.SMBCommand(0x16, 0x7F); err != nil || f.last().Tag != packet.TagSMBCommand {
		t.Errorf("SMBCommand() error = %v, sent %v", err, f.last())
	}
}

func TestFireAndForgetSurfacesErrorReply(t *testing.T) {
	d, _ := openDevice(t, answer(packet.TagSMBWriteByte, packet.TagSMBError, 0x03, 0x93))

	err := d.SMBWriteByte(0x16, 0x03, 0x01)
	var de *adapter.DeviceError
	if !errors.As(err, &de) || de.Code != 0x93 {
		t.Errorf("SMBWriteByte() error = %v, want DeviceError 0x93", err)
	}
}

func TestTransaction(t *testing.T) {
	d, f := openDevice(t, answer(packet.TagI2CTransaction, packet.TagI2CReadRsp, 0x34, 0x12))

	got, err := d.Transaction(0x16, []byte{0x09}, 2)
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}
	if !bytes.Equal(got, []byte{0x34, 0x12}) {
		t.Errorf("Transaction() = % X", got)
	}
	if want := []byte{0x16, 0x00, 0x02, 0x01, 0x09}; !bytes.Equal(f.last().Payload, want) {
		t.Errorf("request payload = % X, want % X", f.last().Payload, want)
	}

	if _, err := d.Transaction(0x16, []byte{0x20}, adapter.SizedRead); err != nil {
		t.Fatalf("sized Transaction() error = %v", err)
	}
	if want := []byte{0x16, 0x01, 0x00, 0x01, 0x20}; !bytes.Equal(f.last().Payload, want) {
		t.Errorf("sized request payload = % X, want % X", f.last().Payload, want)
	}

	if _, err := d.Transaction(0x16, nil, 256); err == nil {
		t.Error("Transaction() with read length 256 succeeded")
	}
}

func TestTransactionShortReply(t *testing.T) {
	d, _ := openDevice(t, answer(packet.TagI2CTransaction, packet.TagI2CReadRsp, 0x34))

	got, err := adapter.New(d).RawTransaction(0x16, []byte{0x09}, 2)
	var fe *adapter.FormatError
	if !errors.As(err, &fe) {
		t.Errorf("RawTransaction(readLen=2) = % X, %v, want FormatError", got, err)
	}
}

func TestI2CRegisterBlocks(t *testing.T) {
	d, f := openDevice(t, answer(packet.TagI2CReadData, packet.TagI2CReadRsp, 0xAA, 0x3E, 0x01, 0x02, 0x00))

	got, err := d.I2CReadBlock(0xAA, 0x3E, 2)
	if err != nil || !bytes.Equal(got, []byte{0x01, 0x02}) {
		t.Fatalf("I2CReadBlock() = % X, %v", got, err)
	}
	if _, err := d.I2CReadBlock(0xAA, 0x3E, 4); err == nil {
		t.Error("I2CReadBlock() accepted a short reply")
	}

	if err := d.I2CWriteBlock(0xAA, 0x3E, []byte{0x05}); err != nil {
		t.Fatalf("I2CWriteBlock() error = %v", err)
	}
	if want := []byte{0xAA, 0x3E, 0x01, 0x05}; !bytes.Equal(f.last().Payload, want) {
		t.Errorf("write payload = % X, want % X", f.last().Payload, want)
	}
}

func TestSingleWire(t *testing.T) {
	d, f := openDevice(t, func(req *packet.Packet) []*packet.Packet {
		switch req.Tag {
		case packet.TagHDQ8Read:
			return reply(req, packet.TagHDQ8ReadRsp, req.Payload[0], 0x5A)
		case packet.TagDQRead:
			return reply(req, packet.TagDQReadRsp, req.Payload[0], 0xA5)
		case packet.TagHDQ8ReadBlock:
			return reply(req, packet.TagHDQ8ReadBlockRsp, 0x02, 0x11, 0x22)
		}
		return nil
	})
	a := adapter.New(d)

	v, err := a.HDQReadByte(0x08)
	if err != nil || v != 0x5A {
		t.Fatalf("HDQReadByte() = %#x, %v", v, err)
	}
	if f.last().Retry != 2 {
		t.Errorf("HDQ read retry = %d, want 2", f.last().Retry)
	}

	v, err = a.DQReadByte(0x08)
	if err != nil || v != 0xA5 {
		t.Fatalf("DQReadByte() = %#x, %v", v, err)
	}

	block, err := a.HDQReadBlock(0x3E, 2)
	if err != nil || !bytes.Equal(block, []byte{0x11, 0x22}) {
		t.Fatalf("HDQReadBlock() = % X, %v", block, err)
	}
	if !bytes.Equal(f.last().Payload, []byte{0x3E, 0x02}) {
		t.Errorf("block request payload = % X", f.last().Payload)
	}

	writes := []struct {
		name string
		call func() error
		tag  packet.Tag
		want []byte
	}{
		{"hdq byte", func() error { return a.HDQWriteByte(0x08, 0x01) }, packet.TagHDQ8Write, []byte{0x08, 0x01}},
		{"hdq block", func() error { return a.HDQWriteBlock(0x3E, []byte{0x01, 0x02}) }, packet.TagHDQ8WriteBlock, []byte{0x3E, 0x02, 0x01, 0x02}},
		{"hdq break", a.HDQBreak, packet.TagHDQ8Break, nil},
		{"dq byte", func() error { return a.DQWriteByte(0x08, 0x7F) }, packet.TagDQWrite, []byte{0x08, 0x7F}},
	}
	for _, w := range writes {
		if err := w.call(); err != nil {
			t.Errorf("%s: error = %v", w.name, err)
			continue
		}
		if req := f.last(); req.Tag != w.tag || !bytes.Equal(req.Payload, w.want) {
			t.Errorf("%s: sent %v", w.name, req)
		}
	}
}

func TestControllerOps(t *testing.T) {
	d, f := openDevice(t, func(req *packet.Packet) []*packet.Packet {
		switch req.Tag {
		case packet.TagGetVersion:
			return reply(req, packet.TagVersionRsp, 2, 5)
		case packet.TagBoardName:
			if len(req.Payload) == 0 {
				return reply(req, packet.TagBoardNameRsp, 5, 'b', 'e', 'n', 'c', 'h')
			}
		case packet.TagBoardType:
			return reply(req, packet.TagBoardTypeRsp, 0x01, 0x07)
		case packet.TagReturnToROMReq:
			return reply(req, packet.TagReturnToROMRsp, 0xDE, 0xAD)
		case packet.TagGPIO:
			return reply(req, packet.TagGPIORsp, 0x0F)
		}
		return nil
	})

	if v, err := d.Version(); err != nil || v != "v2.05" {
		t.Errorf("Version() = %q, %v", v, err)
	}
	if name, err := d.BoardName(); err != nil || name != "bench" {
		t.Errorf("BoardName() = %q, %v", name, err)
	}
	if bt, err := d.BoardType(); err != nil || !bytes.Equal(bt, []byte{0x01, 0x07}) {
		t.Errorf("BoardType() = % X, %v", bt, err)
	}
	if g, err := d.GPIO([]byte{0x01}); err != nil || !bytes.Equal(g, []byte{0x0F}) {
		t.Errorf("GPIO() = % X, %v", g, err)
	}
	if s, err := d.SerialNumber(); err != nil || s != "EV2400-TEST" {
		t.Errorf("SerialNumber() = %q, %v", s, err)
	}

	if err := d.SetBoardName("rig"); err != nil {
		t.Fatalf("SetBoardName() error = %v", err)
	}
	if want := []byte{3, 'r', 'i', 'g'}; !bytes.Equal(f.last().Payload, want) {
		t.Errorf("SetBoardName payload = % X, want % X", f.last().Payload, want)
	}
	if err := d.SetBoardName(string(bytes.Repeat([]byte{'x'}, 32))); err == nil {
		t.Error("SetBoardName() accepted a 33-byte record")
	}

	if err := d.EnterFirmwareUpdateMode(); err != nil {
		t.Fatalf("EnterFirmwareUpdateMode() error = %v", err)
	}
	if req := f.last(); req.Tag != packet.TagReturnToROM || !bytes.Equal(req.Payload, []byte{0xDE, 0xAD}) {
		t.Errorf("EnterFirmwareUpdateMode sent %v", req)
	}

	if err := d.EnableFastMode(true); err != nil {
		t.Fatalf("EnableFastMode() error = %v", err)
	}
	if want := []byte{0x02, 0x02, 0, 0, 0, 0}; !bytes.Equal(f.last().Payload, want) {
		t.Errorf("EnableFastMode payload = % X", f.last().Payload)
	}

	pwm := []struct {
		duty, period uint16
		want         []byte
		wantErr      bool
	}{
		{0, 0, nil, false},
		{10, 0, []byte{10, 0}, false},
		{10, 1000, []byte{10, 0, 0xE8, 0x03}, false},
		{100, 10, nil, true},
	}
	for _, tt := range pwm {
		err := d.SetPWM(tt.duty, tt.period)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetPWM(%d, %d) error = %v", tt.duty, tt.period, err)
			continue
		}
		if !tt.wantErr && !bytes.Equal(f.last().Payload, tt.want) {
			t.Errorf("SetPWM(%d, %d) payload = % X, want % X", tt.duty, tt.period, f.last().Payload, tt.want)
		}
	}

	if err := d.SetVoutWithTimeout([4]byte{1, 2, 3, 4}); err != nil || !bytes.Equal(f.last().Payload, []byte{1, 2, 3, 4}) {
		t.Errorf("SetVoutWithTimeout() error = %v, payload % X", err, f.last().Payload)
	}
	if err := d.SetSMBDivider(0x0102); err != nil || !bytes.Equal(f.last().Payload, []byte{0x02, 0x01}) {
		t.Errorf("SetSMBDivider() error = %v, payload % X", err, f.last().Payload)
	}
}

func TestCapabilities(t *testing.T) {
	a := adapter.New(New(newFake(nil)))
	for _, c := range []adapter.Capabilities{adapter.CapI2C, adapter.CapSMBus, adapter.CapHDQ, adapter.CapDQ, adapter.CapBitrate} {
		if !a.Supports(c) {
			t.Errorf("missing capability %v", c)
		}
	}
}

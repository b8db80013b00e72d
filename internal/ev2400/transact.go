package ev2400

import (
	"fmt"
	"time"

	"bqlink/internal/adapter"
	"bqlink/internal/packet"
)

// received runs on the transport's reader goroutine. It never blocks; if
// nobody is draining the queue the packet is dropped.
func (d *EV2400) received(p *packet.Packet) {
	select {
	case d.resp <- p:
	default:
		d.cfg.logger.Warn("response queue full, packet dropped", "packet", p.String())
	}
}

func (d *EV2400) nextID() uint16 {
	d.lastID++
	return d.lastID
}

// drain discards packets that arrived while no request was outstanding.
func (d *EV2400) drain() {
	for {
		select {
		case p := <-d.resp:
			d.cfg.logger.Debug("unsolicited packet discarded", "packet", p.String())
		default:
			return
		}
	}
}

// transact sends one request and, when expect is set, waits for the reply
// carrying the same id. Replies with any other id are stale leftovers of an
// earlier timed-out request and are skipped. Without expect it waits only
// the grace period so a stray reply does not linger in the queue, but an
// error reply caught in that window is still returned.
//
// The caller holds d.mu.
func (d *EV2400) transact(tag packet.Tag, payload []byte, retry byte, expect bool) (*packet.Packet, error) {
	if !d.open {
		return nil, adapter.ErrClosed
	}

	d.drain()
	id := d.nextID()
	req := packet.New(tag, payload, id, retry)
	if err := d.stream.Send(req); err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}

	wait := d.cfg.timeout
	if !expect {
		if d.cfg.graceWait == 0 {
			return nil, nil
		}
		wait = d.cfg.graceWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case rsp := <-d.resp:
			if rsp.ID != id {
				d.cfg.logger.Debug("stale response discarded", "want", id, "packet", rsp.String())
				continue
			}
			if rsp.Tag.IsError() {
				return nil, deviceError(tag, rsp)
			}
			if !expect {
				return nil, nil
			}
			if want, ok := packet.ResponseTag(tag); ok && rsp.Tag != want {
				d.cfg.logger.Warn("unexpected response tag", "request", tag.String(), "want", want.String(), "got", rsp.Tag.String())
			}
			return rsp, nil
		case <-timer.C:
			if !expect {
				return nil, nil
			}
			// A lost continuation report would otherwise swallow the next reply.
			d.stream.RequestReset()
			return nil, &adapter.TimeoutError{Op: tag.String(), Timeout: wait}
		}
	}
}

func deviceError(req packet.Tag, rsp *packet.Packet) error {
	code, ok := rsp.ErrorCode()
	if !ok {
		code = packet.ErrUnspecified
	}
	return &adapter.DeviceError{
		Op:      req.String(),
		Code:    byte(code),
		Message: code.Message(),
	}
}

package transport

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/paulbellamy/ratecounter"
	"go.uber.org/atomic"

	"github.com/gomtp/mtpcore/mtplog"
)

// packetSize is the USB full/high-speed bulk packet size this module reads
// in one shot; short reads below this size terminate a Data phase.
const packetSize = 512

// rwBufSize bounds one bulkWrite/bulkRead chunk for large payloads.
const rwBufSize = 0x10000

// Transport frames PTP/MTP containers over a bulk IN/OUT pair plus an
// interrupt IN pipe. It owns no USB resources itself; all I/O is delegated
// to a Device.
type Transport struct {
	dev Device
	ep  Endpoints

	// MaxPacketSize is the negotiated bulk transfer size; Data phases
	// whose payload length is an exact multiple of this size must be
	// terminated with a short (possibly zero-length) packet.
	MaxPacketSize int

	cancelled *atomic.Bool
	rate      *ratecounter.RateCounter
	log       mtplog.Logger
}

// New returns a Transport driving dev over the given endpoints.
func New(dev Device, ep Endpoints, log mtplog.Logger) *Transport {
	return &Transport{
		dev:           dev,
		ep:            ep,
		MaxPacketSize: packetSize,
		cancelled:     atomic.NewBool(false),
		rate:          ratecounter.NewRateCounter(time.Second),
		log:           log,
	}
}

// Throughput returns the current bulk transfer rate in bytes/second over a
// trailing one-second window.
func (t *Transport) Throughput() int64 {
	return t.rate.Rate()
}

// SendCommand writes a Command container as a single bulk OUT transfer.
func (t *Transport) SendCommand(ctx context.Context, code uint16, tid uint32, params []uint32) error {
	if len(params) > maxCommandParams {
		return ProtocolError{Reason: "too many command parameters"}
	}
	buf := encodeCommand(Command{Code: code, TransactionID: tid, Param: params})
	t.log.Debugf("send command %#04x tid=%d params=%v", code, tid, params)
	n, err := t.dev.WriteBulk(ctx, t.ep.Send, buf)
	t.rate.Incr(int64(n))
	if err != nil {
		return TransportError{Op: "send command", Err: err}
	}
	return nil
}

// SendData writes a Data container whose payload is read from src. size is
// the exact payload length; it may exceed a single bulk transfer and is
// split at MaxPacketSize boundaries, with a short terminating packet when
// size is a multiple of MaxPacketSize.
func (t *Transport) SendData(ctx context.Context, code uint16, tid uint32, src io.Reader, size int64) error {
	h := header{
		Type:          uint16(ContainerData),
		Code:          code,
		TransactionID: tid,
	}
	if size+headerLen > 0xFFFFFFFF {
		h.Length = 0xFFFFFFFF
	} else {
		h.Length = uint32(size + headerLen)
	}

	first := make([]byte, t.MaxPacketSize)
	hdrBytes := encodeHeader(h)
	copy(first, hdrBytes)
	firstBodyCap := int64(len(first) - headerLen)
	if firstBodyCap > size {
		firstBodyCap = size
	}
	n, err := io.ReadFull(src, first[headerLen:headerLen+firstBodyCap])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return TransportError{Op: "send data", Err: err}
	}
	chunk := first[:headerLen+n]
	if err := t.writeBulk(ctx, chunk); err != nil {
		return err
	}

	remaining := size - int64(n)
	lastLen := len(chunk)
	buf := make([]byte, rwBufSize)
	for remaining > 0 {
		toRead := buf
		if int64(len(toRead)) > remaining {
			toRead = buf[:remaining]
		}
		m, rerr := src.Read(toRead)
		if m > 0 {
			if werr := t.writeBulk(ctx, buf[:m]); werr != nil {
				return werr
			}
			lastLen = m
			remaining -= int64(m)
		}
		if rerr != nil {
			if rerr == io.EOF {
				break
			}
			return TransportError{Op: "send data", Err: rerr}
		}
		if m == 0 {
			break
		}
	}

	if lastLen%t.MaxPacketSize == 0 {
		if err := t.writeBulk(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) writeBulk(ctx context.Context, data []byte) error {
	n, err := t.dev.WriteBulk(ctx, t.ep.Send, data)
	t.rate.Incr(int64(n))
	if err != nil {
		return TransportError{Op: "bulk write", Err: err}
	}
	return nil
}

// RecvContainer reads exactly one logical container: a single packet for
// Command/Response/Event, or repeated reads terminated by a short packet
// for Data. It returns the container type, code and transaction id, and
// writes the payload (for a Response or Event, its parameter bytes) to dest
// when dest is non-nil. A non-Data container whose payload length differs
// from its header is a ProtocolError; a Data container's accumulated length
// is not checked against its header.
func (t *Transport) RecvContainer(ctx context.Context, dest io.Writer) (ContainerType, uint16, uint32, error) {
	pkt := make([]byte, packetSize)
	n, err := t.dev.ReadBulk(ctx, t.ep.Fetch, pkt)
	t.rate.Incr(int64(n))
	if err != nil {
		return 0, 0, 0, TransportError{Op: "recv container", Err: err}
	}
	h, herr := decodeHeader(pkt[:n])
	if herr != nil {
		return 0, 0, 0, herr
	}
	body := pkt[headerLen:n]
	declared := int(h.Length) - headerLen
	if ContainerType(h.Type) != ContainerData {
		if declared != len(body) {
			return 0, 0, 0, ProtocolError{Reason: "payload shorter than declared"}
		}
		if dest != nil {
			dest.Write(body)
		}
		return ContainerType(h.Type), h.Code, h.TransactionID, nil
	}

	if dest == nil {
		dest = io.Discard
	}
	dest.Write(body)
	if n == packetSize {
		if err := t.bulkReadRest(ctx, dest); err != nil {
			return 0, 0, 0, err
		}
	}
	return ContainerData, h.Code, h.TransactionID, nil
}

func (t *Transport) bulkReadRest(ctx context.Context, dest io.Writer) error {
	buf := make([]byte, rwBufSize)
	var lastRead int
	for {
		n, err := t.dev.ReadBulk(ctx, t.ep.Fetch, buf)
		t.rate.Incr(int64(n))
		lastRead = n
		if n > 0 {
			dest.Write(buf[:n])
		}
		if err != nil {
			return TransportError{Op: "bulk read", Err: err}
		}
		if n < len(buf) {
			break
		}
	}
	if lastRead%packetSize == 0 {
		t.dev.ReadBulk(ctx, t.ep.Fetch, buf[:0])
	}
	return nil
}

// PollEvent reads one interrupt-pipe event. ok is false when the read times
// out without data.
func (t *Transport) PollEvent(ctx context.Context) (ev Event, ok bool, err error) {
	buf := make([]byte, 32)
	n, err := t.dev.ReadInterrupt(ctx, t.ep.Event, buf)
	if err != nil {
		if ctx.Err() != nil {
			return Event{}, false, nil
		}
		return Event{}, false, TransportError{Op: "poll event", Err: err}
	}
	if n < headerLen {
		return Event{}, false, ProtocolError{Reason: "event shorter than header"}
	}
	h, herr := decodeHeader(buf[:n])
	if herr != nil {
		return Event{}, false, herr
	}
	rest := buf[headerLen:n]
	r := bytes.NewReader(rest)
	var params []uint32
	for r.Len() >= 4 {
		var p uint32
		b := make([]byte, 4)
		r.Read(b)
		p = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		params = append(params, p)
		if len(params) == 3 {
			break
		}
	}
	return Event{Code: h.Code, TransactionID: h.TransactionID, Param: params}, true, nil
}

// Cancel issues the class-specific Cancel Request (0x64) for the given
// transaction, polls Get Device Status (up to ten attempts, stopping at the
// first that succeeds), then clears the halt on the bulk IN pipe. Cancelled
// reports true only while Cancel runs; transfers already in flight are not
// interrupted by it and do not return ErrCancelled.
func (t *Transport) Cancel(ctx context.Context, tid uint32) error {
	t.cancelled.Store(true)
	defer t.cancelled.Store(false)

	payload := make([]byte, 6)
	payload[0] = 0x64
	payload[1] = 0x00
	tidBytes := []byte{byte(tid), byte(tid >> 8), byte(tid >> 16), byte(tid >> 24)}
	copy(payload[2:], tidBytes)

	if _, err := t.dev.ControlTransfer(ctx, 0x21, classSpecificCancelRequest, 0, 0, payload); err != nil {
		return TransportError{Op: "cancel", Err: err}
	}

	status := make([]byte, 32)
	for i := 0; i < 10; i++ {
		if _, err := t.dev.ControlTransfer(ctx, 0xA1, classSpecificGetDeviceStatus, 0, 0, status); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err := t.dev.ClearHalt(t.ep.Fetch); err != nil {
		return TransportError{Op: "cancel: clear halt", Err: err}
	}
	return nil
}

// Cancelled reports whether a Cancel is currently in flight.
func (t *Transport) Cancelled() bool {
	return t.cancelled.Load()
}

// Package mocksession provides an in-process transport.Device fake driven
// by per-opcode handler callbacks, for exercising the session, operation and
// library layers without real USB hardware. It reproduces the container
// framing mtp/transport uses (the 12-byte header, 512-byte packet size, and
// short-packet data termination) closely enough that code under test cannot
// tell the difference from a real bulk pipe.
package mocksession

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/gomtp/mtpcore/mtp"
	"github.com/gomtp/mtpcore/mtp/transport"
	"github.com/gomtp/mtpcore/mtplog"
)

const (
	headerLen  = 2*2 + 2*4
	packetSize = 512
)

const (
	typeCommand  = 1
	typeData     = 2
	typeResponse = 3
)

// Handler answers one Command, given its parameters and any Data phase the
// caller sent. It returns the Response's parameters and code, plus an
// optional Data phase to send back before the Response.
type Handler func(params []uint32, data []byte) (respParams []uint32, respData []byte, respCode uint16)

// Device is a transport.Device fake. Zero value is not usable; build one
// with New.
type Device struct {
	mu       sync.Mutex
	handlers map[uint16]Handler

	pendingCode   uint16
	pendingTID    uint32
	pendingParams []uint32
	pendingData   []byte
	haveCommand   bool

	outbound [][]byte
	events   [][]byte
}

// New returns an empty Device. Register opcode handlers with Handle before
// driving any session traffic through it.
func New() *Device {
	return &Device{handlers: map[uint16]Handler{}}
}

// Handle installs the handler that answers code. Handle(code, nil) removes
// any existing handler for code.
func (d *Device) Handle(code uint16, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h == nil {
		delete(d.handlers, code)
		return
	}
	d.handlers[code] = h
}

// HandleOK installs a handler that always answers with RC_OK, respParams and
// respData, ignoring the request.
func (d *Device) HandleOK(code uint16, respParams []uint32, respData []byte) {
	d.Handle(code, func([]uint32, []byte) ([]uint32, []byte, uint16) {
		return respParams, respData, mtp.RC_OK
	})
}

// QueueEvent appends a raw interrupt-pipe event to be returned by the next
// ReadInterrupt calls, in order.
func (d *Device) QueueEvent(code uint16, tid uint32, params []uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, encodeEvent(code, tid, params))
}

// NewSession wires up an opened *mtp.Session driven entirely by this fake:
// it installs default OpenSession/CloseSession handlers unless the caller
// already registered its own, then opens the session.
func (d *Device) NewSession(ctx context.Context) (*mtp.Session, error) {
	if _, ok := d.handlers[mtp.OC_OpenSession]; !ok {
		d.HandleOK(mtp.OC_OpenSession, nil, nil)
	}
	if _, ok := d.handlers[mtp.OC_CloseSession]; !ok {
		d.HandleOK(mtp.OC_CloseSession, nil, nil)
	}
	log := mtplog.NewChildLogger(mtplog.Root, "mock", false)
	t := transport.New(d, transport.Endpoints{Send: 1, Fetch: 2, Event: 3}, log)
	s := mtp.NewSession(t, log)
	if err := s.OpenSession(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Device) ClaimInterface(ctx context.Context, iface int) error { return nil }

func (d *Device) ControlTransfer(ctx context.Context, requestType, request byte, value, index uint16, data []byte) (int, error) {
	return len(data), nil
}

func (d *Device) ClearHalt(endpoint byte) error { return nil }

func (d *Device) GetStringDescriptor(index uint8, langID uint16) (string, error) { return "", nil }

// WriteBulk accepts one Command or Data container packet at a time, exactly
// as Transport emits them: a single Command packet, then zero or more Data
// packets terminated by one shorter than packetSize.
func (d *Device) WriteBulk(ctx context.Context, endpoint byte, data []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(data) == 0 {
		// The zero-length short packet that terminates a Data phase whose
		// length is an exact multiple of packetSize; nothing to record.
		return 0, nil
	}
	if len(data) < headerLen {
		return 0, fmt.Errorf("mocksession: packet shorter than header")
	}
	length, typ, code, tid := decodeHeader(data)
	body := data[headerLen:]
	_ = length

	switch typ {
	case typeCommand:
		d.pendingCode = code
		d.pendingTID = tid
		d.pendingParams = decodeParams(body)
		d.pendingData = nil
		d.haveCommand = true
	case typeData:
		d.pendingData = append(d.pendingData, body...)
	default:
		return 0, fmt.Errorf("mocksession: unexpected container type %d from host", typ)
	}
	return len(data), nil
}

// ReadBulk serves the queued Response (and, if the handler returned one,
// Data) packets for the most recently written Command. The handler is
// invoked lazily, on the first ReadBulk call after the Command (and any
// Data phase) has been written.
func (d *Device) ReadBulk(ctx context.Context, endpoint byte, buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.outbound) == 0 {
		if !d.haveCommand {
			return 0, fmt.Errorf("mocksession: read with no command pending")
		}
		d.dispatch()
	}
	if len(d.outbound) == 0 {
		return 0, fmt.Errorf("mocksession: no response queued")
	}
	pkt := d.outbound[0]
	d.outbound = d.outbound[1:]
	n := copy(buf, pkt)
	return n, nil
}

func (d *Device) dispatch() {
	h, ok := d.handlers[d.pendingCode]
	var params []uint32
	var respData []byte
	code := uint16(mtp.RC_OperationNotSupported)
	if ok {
		params, respData, code = h(d.pendingParams, d.pendingData)
	}

	if respData != nil {
		d.outbound = append(d.outbound, encodeDataPackets(d.pendingCode, d.pendingTID, respData)...)
	}
	d.outbound = append(d.outbound, encodeResponse(code, d.pendingTID, params))
	d.haveCommand = false
}

// ReadInterrupt pops the next queued event, if any.
func (d *Device) ReadInterrupt(ctx context.Context, endpoint byte, buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.events) == 0 {
		return 0, fmt.Errorf("mocksession: no event queued")
	}
	pkt := d.events[0]
	d.events = d.events[1:]
	return copy(buf, pkt), nil
}

func encodeHeader(length uint32, typ, code uint16, tid uint32) []byte {
	buf := &bytes.Buffer{}
	var b [headerLen]byte
	putU32(b[0:4], length)
	putU16(b[4:6], typ)
	putU16(b[6:8], code)
	putU32(b[8:12], tid)
	buf.Write(b[:])
	return buf.Bytes()
}

func decodeHeader(b []byte) (length uint32, typ, code uint16, tid uint32) {
	length = getU32(b[0:4])
	typ = getU16(b[4:6])
	code = getU16(b[6:8])
	tid = getU32(b[8:12])
	return
}

func decodeParams(body []byte) []uint32 {
	var out []uint32
	for len(body) >= 4 {
		out = append(out, getU32(body[:4]))
		body = body[4:]
	}
	return out
}

func encodeResponse(code uint16, tid uint32, params []uint32) []byte {
	buf := &bytes.Buffer{}
	buf.Write(encodeHeader(uint32(headerLen+4*len(params)), typeResponse, code, tid))
	for _, p := range params {
		var b [4]byte
		putU32(b[:], p)
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func encodeEvent(code uint16, tid uint32, params []uint32) []byte {
	buf := &bytes.Buffer{}
	buf.Write(encodeHeader(uint32(headerLen+4*len(params)), 4, code, tid))
	for _, p := range params {
		var b [4]byte
		putU32(b[:], p)
		buf.Write(b[:])
	}
	return buf.Bytes()
}

// encodeDataPackets builds the packets RecvContainer's read path expects for
// one Data phase: a first packet sized and headered like
// Transport.SendData's first chunk, then (if anything remains) a single
// packet carrying the rest, since the real read side accumulates into a
// buffer far larger than one USB packet and only stops on a short read.
// A trailing empty packet is added when the total written length lands on
// an exact multiple of packetSize, matching the real short-packet
// terminator.
func encodeDataPackets(code uint16, tid uint32, payload []byte) [][]byte {
	total := uint32(headerLen + len(payload))
	first := make([]byte, packetSize)
	copy(first, encodeHeader(total, typeData, code, tid))
	bodyCap := len(first) - headerLen
	n := len(payload)
	if n < bodyCap {
		bodyCap = n
	}
	copy(first[headerLen:headerLen+bodyCap], payload[:bodyCap])
	lastLen := headerLen + bodyCap
	pkts := [][]byte{first[:lastLen]}

	remaining := payload[bodyCap:]
	if len(remaining) > 0 {
		pkts = append(pkts, remaining)
		lastLen = len(remaining)
	}
	if lastLen%packetSize == 0 {
		pkts = append(pkts, nil)
	}
	return pkts
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func getU16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

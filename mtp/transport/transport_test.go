package transport

import (
	"bytes"
	"context"
	"testing"

	"github.com/gomtp/mtpcore/mtplog"
)

// fakeDevice is a minimal Device that records every WriteBulk call and
// replays a queue of packets for ReadBulk/ReadInterrupt, one per call. It
// exercises the framing Transport implements without going through
// mocksession's higher-level Command/Response dispatch.
type fakeDevice struct {
	writes [][]byte
	reads  [][]byte

	interrupts      [][]byte
	controlRequests []byte
	clearedHalt     byte
}

func (f *fakeDevice) ClaimInterface(ctx context.Context, iface int) error { return nil }

func (f *fakeDevice) WriteBulk(ctx context.Context, endpoint byte, data []byte) (int, error) {
	f.writes = append(f.writes, append([]byte{}, data...))
	return len(data), nil
}

func (f *fakeDevice) ReadBulk(ctx context.Context, endpoint byte, buf []byte) (int, error) {
	if len(f.reads) == 0 {
		return 0, errEndOfQueue
	}
	pkt := f.reads[0]
	f.reads = f.reads[1:]
	return copy(buf, pkt), nil
}

func (f *fakeDevice) ReadInterrupt(ctx context.Context, endpoint byte, buf []byte) (int, error) {
	if len(f.interrupts) == 0 {
		return 0, errEndOfQueue
	}
	pkt := f.interrupts[0]
	f.interrupts = f.interrupts[1:]
	return copy(buf, pkt), nil
}

func (f *fakeDevice) ControlTransfer(ctx context.Context, requestType, request byte, value, index uint16, data []byte) (int, error) {
	f.controlRequests = append(f.controlRequests, request)
	return len(data), nil
}

func (f *fakeDevice) ClearHalt(endpoint byte) error {
	f.clearedHalt = endpoint
	return nil
}

func (f *fakeDevice) GetStringDescriptor(index uint8, langID uint16) (string, error) {
	return "", nil
}

type fakeQueueError struct{}

func (fakeQueueError) Error() string { return "fakeDevice: read queue exhausted" }

var errEndOfQueue = fakeQueueError{}

func newTestTransport(dev *fakeDevice) *Transport {
	log := mtplog.NewChildLogger(mtplog.Root, "test", false)
	return New(dev, Endpoints{Send: 1, Fetch: 2, Event: 3}, log)
}

func TestSendCommandWritesSingleCommandPacket(t *testing.T) {
	dev := &fakeDevice{}
	tr := newTestTransport(dev)

	if err := tr.SendCommand(context.Background(), 0x1002, 7, []uint32{1, 2}); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if len(dev.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(dev.writes))
	}
	h, err := decodeHeader(dev.writes[0])
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if ContainerType(h.Type) != ContainerCommand || h.Code != 0x1002 || h.TransactionID != 7 {
		t.Fatalf("got header %+v, want command 0x1002 tid=7", h)
	}
	if int(h.Length) != len(dev.writes[0]) {
		t.Fatalf("declared length %d does not match packet length %d", h.Length, len(dev.writes[0]))
	}
}

func TestSendDataTerminatesExactMultipleWithZeroLengthPacket(t *testing.T) {
	dev := &fakeDevice{}
	tr := newTestTransport(dev)

	// headerLen(12) + 500 == 512, an exact multiple of MaxPacketSize.
	payload := bytes.Repeat([]byte{0xAB}, 500)
	if err := tr.SendData(context.Background(), 0x1003, 9, bytes.NewReader(payload), int64(len(payload))); err != nil {
		t.Fatalf("SendData: %v", err)
	}
	if len(dev.writes) != 2 {
		t.Fatalf("got %d writes, want 2 (one full packet, one zero-length terminator)", len(dev.writes))
	}
	if len(dev.writes[0]) != packetSize {
		t.Fatalf("first write length = %d, want %d", len(dev.writes[0]), packetSize)
	}
	if len(dev.writes[1]) != 0 {
		t.Fatalf("second write length = %d, want 0", len(dev.writes[1]))
	}
}

func TestSendDataSpansMultiplePacketsWithoutTerminator(t *testing.T) {
	dev := &fakeDevice{}
	tr := newTestTransport(dev)

	payload := bytes.Repeat([]byte{0xCD}, 1000)
	if err := tr.SendData(context.Background(), 0x1003, 9, bytes.NewReader(payload), int64(len(payload))); err != nil {
		t.Fatalf("SendData: %v", err)
	}
	// First chunk fills the 512-byte packet (500 bytes of body); the
	// remaining 500 bytes go out as one further bulk write, well under
	// rwBufSize, so no short packet at an exact packetSize boundary follows.
	if len(dev.writes) != 2 {
		t.Fatalf("got %d writes, want 2", len(dev.writes))
	}
	if len(dev.writes[0]) != packetSize {
		t.Fatalf("first write length = %d, want %d", len(dev.writes[0]), packetSize)
	}
	if len(dev.writes[1]) != 500 {
		t.Fatalf("second write length = %d, want 500", len(dev.writes[1]))
	}

	var body []byte
	body = append(body, dev.writes[0][headerLen:]...)
	body = append(body, dev.writes[1]...)
	if !bytes.Equal(body, payload) {
		t.Fatalf("reassembled body does not match sent payload")
	}
}

func TestRecvContainerSinglePacketResponse(t *testing.T) {
	dev := &fakeDevice{}
	tr := newTestTransport(dev)

	resp := header{Length: headerLen + 4, Type: uint16(ContainerResponse), Code: 0x2001, TransactionID: 3}
	pkt := append(encodeHeader(resp), 0x0A, 0, 0, 0)
	dev.reads = [][]byte{pkt}

	typ, code, tid, err := tr.RecvContainer(context.Background(), nil)
	if err != nil {
		t.Fatalf("RecvContainer: %v", err)
	}
	if typ != ContainerResponse || code != 0x2001 || tid != 3 {
		t.Fatalf("got type=%v code=%#04x tid=%d, want Response 0x2001 tid=3", typ, code, tid)
	}
	if len(dev.reads) != 0 {
		t.Fatalf("RecvContainer read more packets than the single queued one")
	}
}

func TestRecvContainerDataAccumulatesAcrossShortRead(t *testing.T) {
	dev := &fakeDevice{}
	tr := newTestTransport(dev)

	body := bytes.Repeat([]byte{0x55}, 700)
	firstBody := body[:packetSize-headerLen]
	rest := body[packetSize-headerLen:]

	hdr := header{Length: uint32(headerLen + len(body)), Type: uint16(ContainerData), Code: 0x1009, TransactionID: 4}
	first := append(encodeHeader(hdr), firstBody...)
	dev.reads = [][]byte{first, rest}

	var out bytes.Buffer
	typ, code, tid, err := tr.RecvContainer(context.Background(), &out)
	if err != nil {
		t.Fatalf("RecvContainer: %v", err)
	}
	if typ != ContainerData || code != 0x1009 || tid != 4 {
		t.Fatalf("got type=%v code=%#04x tid=%d, want Data 0x1009 tid=4", typ, code, tid)
	}
	if !bytes.Equal(out.Bytes(), body) {
		t.Fatalf("accumulated %d bytes, want %d matching bytes", out.Len(), len(body))
	}
}

func TestPollEventDecodesParams(t *testing.T) {
	dev := &fakeDevice{}
	tr := newTestTransport(dev)

	hdr := header{Length: headerLen + 8, Type: uint16(ContainerEvent), Code: 0x4002, TransactionID: 11}
	pkt := encodeHeader(hdr)
	pkt = append(pkt, 1, 0, 0, 0)
	pkt = append(pkt, 2, 0, 0, 0)
	dev.interrupts = [][]byte{pkt}

	ev, ok, err := tr.PollEvent(context.Background())
	if err != nil {
		t.Fatalf("PollEvent: %v", err)
	}
	if !ok {
		t.Fatalf("PollEvent ok = false, want true")
	}
	if ev.Code != 0x4002 || ev.TransactionID != 11 {
		t.Fatalf("got event %+v, want code=0x4002 tid=11", ev)
	}
	if len(ev.Param) != 2 || ev.Param[0] != 1 || ev.Param[1] != 2 {
		t.Fatalf("got params %v, want [1 2]", ev.Param)
	}
}

func TestCancelClearsHaltAfterControlTransfers(t *testing.T) {
	dev := &fakeDevice{}
	tr := newTestTransport(dev)

	if err := tr.Cancel(context.Background(), 5); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(dev.controlRequests) == 0 || dev.controlRequests[0] != classSpecificCancelRequest {
		t.Fatalf("got control requests %v, want first to be the cancel request", dev.controlRequests)
	}
	if dev.clearedHalt != tr.ep.Fetch {
		t.Fatalf("ClearHalt endpoint = %#x, want fetch endpoint %#x", dev.clearedHalt, tr.ep.Fetch)
	}
	if tr.Cancelled() {
		t.Fatalf("Cancelled() = true after Cancel returned, want false")
	}
}

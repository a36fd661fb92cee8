package mtp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/atomic"

	"github.com/gomtp/mtpcore/mtp/transport"
	"github.com/gomtp/mtpcore/mtp/wire"
	"github.com/gomtp/mtpcore/mtplog"
)

// Session drives one open PTP/MTP session over a Transport. It owns the
// transaction counter and enforces the single-outstanding-transaction rule:
// only one RunTransaction may be in flight at a time.
type Session struct {
	t   *transport.Transport
	log mtplog.Logger

	mu  sync.Mutex
	tid *atomic.Uint32

	sessionID uint32
	open      bool

	info *DeviceInfo
}

// NewSession wraps a Transport. The session is not yet open; call
// OpenSession before issuing any other operation.
func NewSession(t *transport.Transport, log mtplog.Logger) *Session {
	return &Session{
		t:   t,
		log: log,
		// Inc wraps this to 0, so the first transaction (OpenSession) uses id 0.
		tid: atomic.NewUint32(^uint32(0)),
	}
}

func (s *Session) nextTransactionID() uint32 {
	return s.tid.Inc()
}

// request is one Command/[Data]/Response exchange. dataOut, when non-nil, is
// streamed as the Command's Data phase of dataOutSize bytes. dataIn, when
// non-nil, receives an incoming Data phase's payload.
func (s *Session) request(ctx context.Context, code uint16, params []uint32, dataOut io.Reader, dataOutSize int64, dataIn io.Writer) (transport.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tid := s.nextTransactionID()
	if err := s.t.SendCommand(ctx, code, tid, params); err != nil {
		return transport.Response{}, err
	}

	if dataOut != nil {
		if err := s.t.SendData(ctx, code, tid, dataOut, dataOutSize); err != nil {
			return transport.Response{}, err
		}
	}

	first := &bytes.Buffer{}
	typ, rcode, rtid, err := s.t.RecvContainer(ctx, first)
	if err != nil {
		return transport.Response{}, err
	}
	respBody := first
	if typ == transport.ContainerData {
		if dataIn != nil {
			if _, err := first.WriteTo(dataIn); err != nil {
				return transport.Response{}, err
			}
		}
		// Some devices answer a Data phase before the Response even when
		// the caller did not expect one; drain and re-read.
		respBody = &bytes.Buffer{}
		typ, rcode, rtid, err = s.t.RecvContainer(ctx, respBody)
		if err != nil {
			return transport.Response{}, err
		}
	}
	if typ != transport.ContainerResponse {
		return transport.Response{}, transport.ProtocolError{Reason: "expected response container"}
	}
	if rtid != tid {
		return transport.Response{}, transport.TransactionIDMismatchError{Got: rtid, Want: tid}
	}
	resp := transport.Response{Code: rcode, TransactionID: rtid}
	for b := respBody.Bytes(); len(b) >= 4; b = b[4:] {
		resp.Param = append(resp.Param, wire.ByteOrder.Uint32(b))
	}
	if rcode != RC_OK {
		return resp, ResponseError{Code: rcode, Param: resp.Param}
	}
	return resp, nil
}

// RunTransaction is the low-level entry point ops.go builds on: it issues
// code with params, optionally sending dataOut or receiving into dataIn, and
// returns the decoded Response parameters.
func (s *Session) RunTransaction(ctx context.Context, code uint16, params []uint32, dataOut io.Reader, dataOutSize int64, dataIn io.Writer) ([]uint32, error) {
	resp, err := s.request(ctx, code, params, dataOut, dataOutSize, dataIn)
	return resp.Param, err
}

// openSessionID is the session id this client opens with, by convention: 1.
const openSessionID = 1

// OpenSession opens a session with session id 1, by convention. It is an
// error to call this twice without an intervening CloseSession.
func (s *Session) OpenSession(ctx context.Context) error {
	if s.open {
		return fmt.Errorf("mtp: session already open")
	}
	sid := uint32(openSessionID)
	_, err := s.request(ctx, OC_OpenSession, []uint32{sid}, nil, 0, nil)
	if rerr, ok := err.(ResponseError); ok && rerr.Code == RC_SessionAlreadyOpened {
		// The device thinks a session is already open from a previous,
		// unclean disconnect; close it and retry once.
		s.request(ctx, OC_CloseSession, nil, nil, 0, nil)
		_, err = s.request(ctx, OC_OpenSession, []uint32{sid}, nil, 0, nil)
	}
	if err != nil {
		return err
	}
	s.sessionID = sid
	s.open = true
	return nil
}

// CloseSession closes the currently open session.
func (s *Session) CloseSession(ctx context.Context) error {
	if !s.open {
		return nil
	}
	_, err := s.request(ctx, OC_CloseSession, nil, nil, 0, nil)
	s.open = false
	return err
}

// GetDeviceInfo fetches and caches the device's DeviceInfo. Subsequent calls
// return the cached value; callers that need a fresh read should construct a
// new Session.
func (s *Session) GetDeviceInfo(ctx context.Context) (*DeviceInfo, error) {
	if s.info != nil {
		return s.info, nil
	}
	buf := &bytes.Buffer{}
	if _, err := s.request(ctx, OC_GetDeviceInfo, nil, nil, 0, buf); err != nil {
		return nil, err
	}
	info := &DeviceInfo{}
	if err := wire.Decode(buf, info); err != nil {
		return nil, err
	}
	s.info = info
	return info, nil
}

// Cancel aborts the currently outstanding transaction, if any.
func (s *Session) Cancel(ctx context.Context) error {
	return s.t.Cancel(ctx, s.tid.Load())
}

// PollEvent reads one asynchronous event from the interrupt pipe.
func (s *Session) PollEvent(ctx context.Context) (transport.Event, bool, error) {
	return s.t.PollEvent(ctx)
}

package mtp

import (
	"bytes"
	"context"
	"testing"

	"github.com/gomtp/mtpcore/mocksession"
	"github.com/gomtp/mtpcore/mtp/wire"
)

func encodedDeviceInfo(t *testing.T, info *DeviceInfo) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := wire.Encode(buf, info); err != nil {
		t.Fatalf("encode device info: %v", err)
	}
	return buf.Bytes()
}

func TestOpenSessionUsesSessionIDOne(t *testing.T) {
	dev := mocksession.New()
	var gotSessionID uint32
	dev.Handle(OC_OpenSession, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		gotSessionID = params[0]
		return nil, nil, RC_OK
	})

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if !session.open {
		t.Fatalf("session not marked open")
	}
	if gotSessionID != 1 {
		t.Fatalf("OpenSession param = %d, want 1", gotSessionID)
	}
	if session.sessionID != 1 {
		t.Fatalf("session.sessionID = %d, want 1", session.sessionID)
	}
}

func TestOpenSessionRetriesAfterAlreadyOpened(t *testing.T) {
	dev := mocksession.New()
	attempts := 0
	dev.Handle(OC_OpenSession, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		attempts++
		if attempts == 1 {
			return nil, nil, RC_SessionAlreadyOpened
		}
		return nil, nil, RC_OK
	})
	dev.HandleOK(OC_CloseSession, nil, nil)

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("got %d OpenSession attempts, want 2", attempts)
	}
	if !session.open {
		t.Fatalf("session not marked open after retry")
	}
}

func TestGetDeviceInfoCachesResult(t *testing.T) {
	dev := mocksession.New()
	want := &DeviceInfo{
		StandardVersion:     100,
		MTPVersion:          100,
		OperationsSupported: []uint16{OC_GetDeviceInfo, OC_OpenSession},
		Manufacturer:        "Acme",
		Model:               "Widget",
		DeviceVersion:       "1.0",
		SerialNumber:        "abc123",
	}
	calls := 0
	dev.Handle(OC_GetDeviceInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		calls++
		return nil, encodedDeviceInfo(t, want), RC_OK
	})

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	got, err := session.GetDeviceInfo(context.Background())
	if err != nil {
		t.Fatalf("GetDeviceInfo: %v", err)
	}
	if got.Manufacturer != "Acme" || got.Model != "Widget" {
		t.Fatalf("got %+v, want Manufacturer=Acme Model=Widget", got)
	}
	if !got.SupportsOperation(OC_OpenSession) {
		t.Fatalf("SupportsOperation(OC_OpenSession) = false, want true")
	}

	if _, err := session.GetDeviceInfo(context.Background()); err != nil {
		t.Fatalf("GetDeviceInfo (cached): %v", err)
	}
	if calls != 1 {
		t.Fatalf("GetDeviceInfo hit the device %d times, want 1 (cached)", calls)
	}
}

func TestRunTransactionSurfacesResponseError(t *testing.T) {
	dev := mocksession.New()
	dev.HandleOK(OC_GetStorageIDs, nil, nil)
	dev.Handle(OC_DeleteObject, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, nil, RC_ObjectWriteProtected
	})

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	err = session.DeleteObject(context.Background(), ObjectId(42))
	rerr, ok := err.(ResponseError)
	if !ok {
		t.Fatalf("DeleteObject error = %#v, want ResponseError", err)
	}
	if rerr.Code != RC_ObjectWriteProtected {
		t.Fatalf("ResponseError.Code = %#04x, want %#04x", rerr.Code, RC_ObjectWriteProtected)
	}
}

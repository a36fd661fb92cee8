package mtp

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gomtp/mtpcore/mocksession"
	"github.com/gomtp/mtpcore/mtp/wire"
)

func encodeObjectHandles(t *testing.T, ids ...uint32) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := wire.Encode(buf, &wire.Uint32Array{Values: ids}); err != nil {
		t.Fatalf("encode handles: %v", err)
	}
	return buf.Bytes()
}

func encodeObjectInfo(t *testing.T, filename string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := wire.Encode(buf, &ObjectInfo{Filename: filename}); err != nil {
		t.Fatalf("encode object info: %v", err)
	}
	return buf.Bytes()
}

func TestUploadFileDeletesColliding(t *testing.T) {
	dev := mocksession.New()
	var calls []string

	dev.Handle(OC_GetObjectHandles, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		calls = append(calls, "handles")
		return nil, encodeObjectHandles(t, 5, 6), RC_OK
	})
	dev.Handle(OC_GetObjectInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		name := "other.txt"
		if ObjectId(params[0]) == 6 {
			name = "song.mp3"
		}
		calls = append(calls, "info")
		return nil, encodeObjectInfo(t, name), RC_OK
	})
	dev.Handle(OC_DeleteObject, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		calls = append(calls, "delete")
		if ObjectId(params[0]) != 6 {
			t.Fatalf("deleted handle %d, want 6", params[0])
		}
		return nil, nil, RC_OK
	})
	dev.Handle(OC_SendObjectInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		calls = append(calls, "sendinfo")
		return []uint32{params[0], params[1], 42}, nil, RC_OK
	})
	dev.Handle(OC_SendObject, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		calls = append(calls, "sendobject")
		return nil, nil, RC_OK
	})

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	info := &ObjectInfo{Filename: "song.mp3"}
	handle, err := session.UploadFile(context.Background(), StorageId(1), RootObject, info, strings.NewReader("data"), 4)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if handle != 42 {
		t.Fatalf("handle = %d, want 42", handle)
	}

	want := []string{"handles", "info", "info", "delete", "sendinfo", "sendobject"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestUploadFileAbortsWhenDeleteFails(t *testing.T) {
	dev := mocksession.New()
	var sawSendObjectInfo bool

	dev.Handle(OC_GetObjectHandles, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, encodeObjectHandles(t, 6), RC_OK
	})
	dev.Handle(OC_GetObjectInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, encodeObjectInfo(t, "song.mp3"), RC_OK
	})
	dev.Handle(OC_DeleteObject, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, nil, RC_GeneralError
	})
	dev.Handle(OC_SendObjectInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		sawSendObjectInfo = true
		return []uint32{params[0], params[1], 42}, nil, RC_OK
	})

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	info := &ObjectInfo{Filename: "song.mp3"}
	_, err = session.UploadFile(context.Background(), StorageId(1), RootObject, info, strings.NewReader("data"), 4)
	if err == nil {
		t.Fatalf("UploadFile succeeded, want it to abort when the colliding delete fails")
	}
	if sawSendObjectInfo {
		t.Fatalf("SendObjectInfo was called despite the failed delete")
	}
}

func TestUploadFileSkipsDeleteWithoutCollision(t *testing.T) {
	dev := mocksession.New()
	var sawDelete bool

	dev.Handle(OC_GetObjectHandles, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, encodeObjectHandles(t), RC_OK
	})
	dev.Handle(OC_DeleteObject, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		sawDelete = true
		return nil, nil, RC_OK
	})
	dev.Handle(OC_SendObjectInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return []uint32{params[0], params[1], 42}, nil, RC_OK
	})
	dev.Handle(OC_SendObject, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, nil, RC_OK
	})

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	info := &ObjectInfo{Filename: "song.mp3"}
	handle, err := session.UploadFile(context.Background(), StorageId(1), RootObject, info, strings.NewReader("data"), 4)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if handle != 42 {
		t.Fatalf("handle = %d, want 42", handle)
	}
	if sawDelete {
		t.Fatalf("DeleteObject was called with no colliding object")
	}
}

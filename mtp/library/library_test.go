package library

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/gomtp/mtpcore/mocksession"
	"github.com/gomtp/mtpcore/mtp"
	"github.com/gomtp/mtpcore/mtp/wire"
)

// The helpers below hand-roll the same count-prefixed property-list grammar
// mtp/proplist.go implements, since that file's encoder/decoder are
// unexported there. Kept minimal: only the value types this package's tests
// actually exchange (strings and 8-, 16- and 32-bit unsigned integers).

func encodePropList(t *testing.T, elems []mtp.PropertyElement) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w := wire.NewWriter(buf)
	if err := w.WriteU32(uint32(len(elems))); err != nil {
		t.Fatalf("write prop list count: %v", err)
	}
	for _, e := range elems {
		if err := w.WriteU32(uint32(e.ObjectHandle)); err != nil {
			t.Fatalf("write object handle: %v", err)
		}
		if err := w.WriteU16(e.PropertyCode); err != nil {
			t.Fatalf("write property code: %v", err)
		}
		if err := w.WriteU16(uint16(e.DataType)); err != nil {
			t.Fatalf("write type code: %v", err)
		}
		val, err := wire.EncodeValue(e.DataType, e.Value)
		if err != nil {
			t.Fatalf("encode value: %v", err)
		}
		buf.Write(val)
	}
	return buf.Bytes()
}

func decodeSentPropList(t *testing.T, data []byte) ([]mtp.PropertyElement, error) {
	t.Helper()
	r := wire.NewReader(bytes.NewReader(data))
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]mtp.PropertyElement, 0, count)
	for i := uint32(0); i < count; i++ {
		handle, err := r.ReadU32()
		if err != nil {
			return out, err
		}
		propCode, err := r.ReadU16()
		if err != nil {
			return out, err
		}
		typeCode, err := r.ReadU16()
		if err != nil {
			return out, err
		}
		dt := wire.DataTypeCode(typeCode)
		var val interface{}
		switch dt {
		case wire.DTC_STR:
			val, err = r.ReadString()
		case wire.DTC_UINT32:
			val, err = r.ReadU32()
		case wire.DTC_UINT16:
			val, err = r.ReadU16()
		case wire.DTC_UINT8:
			val, err = r.ReadU8()
		default:
			t.Fatalf("decodeSentPropList: unhandled type code %#04x", uint16(dt))
		}
		if err != nil {
			return out, err
		}
		out = append(out, mtp.PropertyElement{
			ObjectHandle: mtp.ObjectId(handle),
			PropertyCode: propCode,
			DataType:     dt,
			Value:        val,
		})
	}
	return out, nil
}

func encodeDeviceInfo(t *testing.T, info *mtp.DeviceInfo) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := wire.Encode(buf, info); err != nil {
		t.Fatalf("encode device info: %v", err)
	}
	return buf.Bytes()
}

func encodeUint32Array(t *testing.T, values []uint32) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	arr := wire.Uint32Array{Values: values}
	if err := wire.Encode(buf, &arr); err != nil {
		t.Fatalf("encode uint32 array: %v", err)
	}
	return buf.Bytes()
}

func encodeUint16Array(t *testing.T, values []uint16) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	arr := wire.Uint16Array{Values: values}
	if err := wire.Encode(buf, &arr); err != nil {
		t.Fatalf("encode uint16 array: %v", err)
	}
	return buf.Bytes()
}

// newFolderAllocator returns a function that hands out incrementing handles,
// starting at first, for the OC_SendObjectInfo handler that answers
// CreateDirectory's classic pairing.
func newFolderAllocator(first mtp.ObjectId) func() mtp.ObjectId {
	next := first
	return func() mtp.ObjectId {
		h := next
		next++
		return h
	}
}

func wireDeviceInfo(artistSupported bool) *mtp.DeviceInfo {
	info := &mtp.DeviceInfo{
		OperationsSupported: []uint16{
			mtp.OC_MTP_GetObjectPropList,
			mtp.OC_MTP_SendObjectPropList,
			mtp.OC_MTP_SetObjectReferences,
		},
	}
	if artistSupported {
		info.CaptureFormats = []uint16{mtp.OFC_MTP_Artist}
	}
	return info
}

// setupBaseHandlers wires the opcodes every Library.New call needs
// regardless of scenario: storage listing, device info, property-support
// probing, folder creation and (empty) association listing.
func setupBaseHandlers(t *testing.T, dev *mocksession.Device, info *mtp.DeviceInfo) func() mtp.ObjectId {
	t.Helper()
	alloc := newFolderAllocator(100)

	dev.HandleOK(mtp.OC_GetStorageIDs, nil, encodeUint32Array(t, []uint32{1}))
	dev.Handle(mtp.OC_GetDeviceInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, encodeDeviceInfo(t, info), mtp.RC_OK
	})
	dev.Handle(mtp.OC_MTP_GetObjectPropsSupported, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, encodeUint16Array(t, nil), mtp.RC_OK
	})
	dev.Handle(mtp.OC_MTP_GetObjectPropList, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		formatCode := params[1]
		if formatCode == mtp.OFC_Association {
			// No pre-existing folders; New() falls back to CreateDirectory
			// for every one of them.
			return nil, encodePropList(t, nil), mtp.RC_OK
		}
		return nil, encodePropList(t, nil), mtp.RC_OK
	})
	dev.Handle(mtp.OC_SendObjectInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		h := alloc()
		return []uint32{params[0], params[1], uint32(h)}, nil, mtp.RC_OK
	})
	dev.HandleOK(mtp.OC_SendObject, nil, nil)
	return alloc
}

func TestSupportedReflectsDeviceInfo(t *testing.T) {
	dev := mocksession.New()
	info := &mtp.DeviceInfo{
		OperationsSupported: []uint16{
			mtp.OC_MTP_GetObjectPropList,
			mtp.OC_MTP_SendObjectPropList,
			mtp.OC_MTP_SetObjectReferences,
		},
		CaptureFormats: []uint16{mtp.OFC_MTP_AbstractAudioAlbum},
	}
	dev.Handle(mtp.OC_GetDeviceInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, encodeDeviceInfo(t, info), mtp.RC_OK
	})
	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ok, err := Supported(context.Background(), session)
	if err != nil {
		t.Fatalf("Supported: %v", err)
	}
	if !ok {
		t.Fatalf("Supported() = false, want true for a fully-capable device")
	}
}

func TestNewBuildsLibraryWithoutArtistFormat(t *testing.T) {
	dev := mocksession.New()
	info := wireDeviceInfo(false)
	setupBaseHandlers(t, dev, info)

	const albumHandle = 500
	dev.Handle(mtp.OC_MTP_GetObjectPropList, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		formatCode := params[1]
		parent := params[0]
		switch {
		case formatCode == mtp.OFC_Association:
			return nil, encodePropList(t, nil), mtp.RC_OK
		case formatCode == mtp.OFC_MTP_AbstractAudioAlbum && parent == uint32(mtp.RootObject):
			elems := []mtp.PropertyElement{
				{ObjectHandle: albumHandle, PropertyCode: mtp.OPC_Name, DataType: wire.DTC_STR, Value: "Close to the Edge"},
			}
			return nil, encodePropList(t, elems), mtp.RC_OK
		default:
			return nil, encodePropList(t, nil), mtp.RC_OK
		}
	})
	dev.Handle(mtp.OC_MTP_GetObjectPropValue, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		if params[1] == uint32(mtp.OPC_Artist) {
			encoded, err := wire.EncodeValue(wire.DTC_STR, "Yes")
			if err != nil {
				t.Fatalf("encode artist name: %v", err)
			}
			return nil, encoded, mtp.RC_OK
		}
		return nil, nil, mtp.RC_OperationNotSupported
	})

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	lib, err := New(context.Background(), session, Options{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	artist := lib.GetArtist("Yes")
	if artist == nil {
		t.Fatalf("artist %q was not created while loading albums", "Yes")
	}
	if artist.ID != 0 {
		t.Fatalf("artist.ID = %d, want 0 (device has no Artist object format)", artist.ID)
	}
	album := lib.GetAlbum(artist, "Close to the Edge")
	if album == nil {
		t.Fatalf("album %q was not indexed", "Close to the Edge")
	}
	if album.ID != albumHandle {
		t.Fatalf("album.ID = %d, want %d", album.ID, albumHandle)
	}
}

func TestNewLoadsExistingArtistsConcurrentlyBounded(t *testing.T) {
	dev := mocksession.New()
	info := wireDeviceInfo(true)
	setupBaseHandlers(t, dev, info)

	wantArtists := []struct {
		handle mtp.ObjectId
		name   string
	}{
		{200, "Yes"},
		{201, "Genesis"},
		{202, "King Crimson"},
		{203, "Gentle Giant"},
	}

	dev.Handle(mtp.OC_MTP_GetObjectPropList, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		formatCode := params[1]
		parent := params[0]
		switch {
		case formatCode == mtp.OFC_Association:
			return nil, encodePropList(t, nil), mtp.RC_OK
		case formatCode == mtp.OFC_MTP_Artist && parent == uint32(mtp.RootObject):
			elems := make([]mtp.PropertyElement, len(wantArtists))
			for i, a := range wantArtists {
				elems[i] = mtp.PropertyElement{ObjectHandle: a.handle, PropertyCode: mtp.OPC_Name, DataType: wire.DTC_STR, Value: a.name}
			}
			return nil, encodePropList(t, elems), mtp.RC_OK
		default:
			return nil, encodePropList(t, nil), mtp.RC_OK
		}
	})
	dev.Handle(mtp.OC_MTP_GetObjectPropValue, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return nil, nil, mtp.RC_OperationNotSupported
	})

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	lib, err := New(context.Background(), session, Options{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, want := range wantArtists {
		got := lib.GetArtist(want.name)
		if got == nil {
			t.Fatalf("artist %q missing from loaded library", want.name)
		}
		if got.ID != want.handle {
			t.Fatalf("artist %q ID = %d, want %d", want.name, got.ID, want.handle)
		}
		if got.MusicFolderID == 0 {
			t.Fatalf("artist %q has no music folder assigned", want.name)
		}
	}
}

func TestCreateArtistSendsNamePropertiesThenEmptyObject(t *testing.T) {
	dev := mocksession.New()
	var gotElems []mtp.PropertyElement
	var calls []string

	dev.Handle(mtp.OC_MTP_SendObjectPropList, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		calls = append(calls, "proplist")
		elems, err := decodeSentPropList(t, data)
		if err != nil {
			t.Fatalf("decode sent property list: %v", err)
		}
		gotElems = elems
		return []uint32{params[0], params[1], 800}, nil, mtp.RC_OK
	})
	dev.Handle(mtp.OC_SendObject, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		calls = append(calls, fmt.Sprintf("object:%d", len(data)))
		return nil, nil, mtp.RC_OK
	})
	dev.Handle(mtp.OC_SendObjectInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		calls = append(calls, "objectinfo")
		return []uint32{params[0], params[1], 801}, nil, mtp.RC_OK
	})

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	l := &Library{
		session:         session,
		storage:         mtp.StorageId(1),
		artistSupported: true,
		artists:         map[string]*Artist{},
	}
	artist, err := l.CreateArtist(context.Background(), "Foo", "")
	if err != nil {
		t.Fatalf("CreateArtist: %v", err)
	}
	if artist.ID != 800 {
		t.Fatalf("artist.ID = %d, want 800", artist.ID)
	}

	if len(calls) < 2 || calls[0] != "proplist" || calls[1] != "object:0" {
		t.Fatalf("got call sequence %v, want SendObjectPropList then an empty SendObject first", calls)
	}

	var gotName, gotFilename string
	for _, e := range gotElems {
		switch e.PropertyCode {
		case mtp.OPC_Name:
			gotName, _ = e.Value.(string)
		case mtp.OPC_ObjectFileName:
			gotFilename, _ = e.Value.(string)
		}
	}
	if gotName != "Foo" || gotFilename != "Foo.art" {
		t.Fatalf("got Name=%q ObjectFilename=%q, want Name=Foo ObjectFilename=Foo.art", gotName, gotFilename)
	}
}

func TestCreateAlbumFallsBackToArtistStringWithoutArtistFormat(t *testing.T) {
	dev := mocksession.New()
	var gotElems []mtp.PropertyElement
	dev.Handle(mtp.OC_MTP_SendObjectPropList, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		elems, err := decodeSentPropList(t, data)
		if err != nil {
			t.Fatalf("decode sent property list: %v", err)
		}
		gotElems = elems
		return []uint32{params[0], params[1], 900}, nil, mtp.RC_OK
	})
	dev.Handle(mtp.OC_SendObjectInfo, func(params []uint32, data []byte) ([]uint32, []byte, uint16) {
		return []uint32{params[0], params[1], 901}, nil, mtp.RC_OK
	})
	dev.HandleOK(mtp.OC_SendObject, nil, nil)

	session, err := dev.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	l := &Library{
		session: session,
		storage: mtp.StorageId(1),
		albums:  map[albumKey]*Album{},
	}
	artist := &Artist{Name: "Yes", MusicFolderID: mtp.ObjectId(10)}
	album, err := l.CreateAlbum(context.Background(), artist, "Fragile", 1971)
	if err != nil {
		t.Fatalf("CreateAlbum: %v", err)
	}
	if album.ID != 900 {
		t.Fatalf("album.ID = %d, want 900", album.ID)
	}
	var sawArtistString bool
	for _, e := range gotElems {
		if e.PropertyCode == mtp.OPC_Artist && e.Value == "Yes" {
			sawArtistString = true
		}
		if e.PropertyCode == mtp.OPC_ArtistId {
			t.Fatalf("sent ArtistId property on a device without artist-format support")
		}
	}
	if !sawArtistString {
		t.Fatalf("did not send an Artist string property; got %+v", gotElems)
	}
}

func TestGetAlbumsByArtist(t *testing.T) {
	artist := &Artist{Name: "Yes"}
	other := &Artist{Name: "Genesis"}
	l := &Library{
		albums: map[albumKey]*Album{
			{artist: artist, name: "Fragile"}:          {Name: "Fragile", Artist: artist},
			{artist: artist, name: "Close to the Edge"}: {Name: "Close to the Edge", Artist: artist},
			{artist: other, name: "Foxtrot"}:            {Name: "Foxtrot", Artist: other},
		},
	}
	got := l.GetAlbumsByArtist(artist)
	if len(got) != 2 {
		t.Fatalf("got %d albums, want 2", len(got))
	}
}

package mtp

import (
	"testing"

	"github.com/gomtp/mtpcore/mtp/wire"
)

func TestDecodePropertyListDefaultDecoder(t *testing.T) {
	want := []PropertyElement{
		{ObjectHandle: 1, PropertyCode: OPC_Name, DataType: wire.DTC_STR, Value: "Close to the Edge"},
	}
	encoded, err := encodePropertyList(want)
	if err != nil {
		t.Fatalf("encodePropertyList: %v", err)
	}
	got, err := decodePropertyList(encoded)
	if err != nil {
		t.Fatalf("decodePropertyList: %v", err)
	}
	if len(got) != 1 || got[0].Value != "Close to the Edge" {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecodePropertyListWithValueDecoderOverridesDefault(t *testing.T) {
	elems := []PropertyElement{
		{ObjectHandle: 1, PropertyCode: OPC_Name, DataType: wire.DTC_STR, Value: "Fragile"},
	}
	encoded, err := encodePropertyList(elems)
	if err != nil {
		t.Fatalf("encodePropertyList: %v", err)
	}

	var sawCode wire.DataTypeCode
	skip := func(r *wire.Reader, code wire.DataTypeCode) (interface{}, error) {
		sawCode = code
		// An untyped skip: still consume the bytes (so later elements stay
		// aligned) but discard the decoded value.
		_, err := r.ReadString()
		return nil, err
	}

	got, err := decodePropertyList(encoded, WithValueDecoder(skip))
	if err != nil {
		t.Fatalf("decodePropertyList: %v", err)
	}
	if sawCode != wire.DTC_STR {
		t.Fatalf("decoder saw code %#04x, want DTC_STR", uint16(sawCode))
	}
	if len(got) != 1 || got[0].Value != nil {
		t.Fatalf("got %+v, want one element with a nil (skipped) value", got)
	}
}

func TestDecodePropertyListWarnsOnUnexpectedProperty(t *testing.T) {
	elems := []PropertyElement{
		{ObjectHandle: 1, PropertyCode: OPC_Name, DataType: wire.DTC_STR, Value: "Roundabout"},
		{ObjectHandle: 1, PropertyCode: OPC_Artist, DataType: wire.DTC_STR, Value: "Yes"},
	}
	encoded, err := encodePropertyList(elems)
	if err != nil {
		t.Fatalf("encodePropertyList: %v", err)
	}

	var warned []PropertyElement
	got, err := decodePropertyList(encoded, WithUnexpectedPropertyWarning(OPC_Name, func(e PropertyElement) {
		warned = append(warned, e)
	}))
	if err != nil {
		t.Fatalf("decodePropertyList: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d elements, want both kept, not dropped", len(got))
	}
	if len(warned) != 1 || warned[0].PropertyCode != OPC_Artist {
		t.Fatalf("warned = %+v, want exactly the Artist element flagged", warned)
	}
}

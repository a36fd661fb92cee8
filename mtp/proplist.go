package mtp

import (
	"bytes"

	"github.com/gomtp/mtpcore/mtp/wire"
)

// PropertyElement is one entry of the GetObjectPropList/SetObjectPropList/
// SendObjectPropList grammar: an object, the property it carries, the type
// that value is encoded as, and the value itself.
type PropertyElement struct {
	ObjectHandle ObjectId
	PropertyCode uint16
	DataType     wire.DataTypeCode
	Value        interface{}
}

// PropertyValueDecoder decodes one element's value from r given its
// DataTypeCode. Plugging in a custom decoder lets a caller receive strings,
// integers, raw bytes, or an untyped skip in place of readValue's defaults.
type PropertyValueDecoder func(r *wire.Reader, code wire.DataTypeCode) (interface{}, error)

// PropertyListOption configures decodePropertyList/GetObjectPropertyList.
type PropertyListOption func(*propertyListConfig)

type propertyListConfig struct {
	decoder      PropertyValueDecoder
	wantPropCode uint32
	hasFilter    bool
	onUnexpected func(PropertyElement)
}

// WithValueDecoder replaces readValue with decoder for every element parsed.
func WithValueDecoder(decoder PropertyValueDecoder) PropertyListOption {
	return func(c *propertyListConfig) { c.decoder = decoder }
}

// WithUnexpectedPropertyWarning calls fn for every decoded element whose
// PropertyCode differs from wantPropCode, in addition to including that
// element in the returned list as usual; it does not drop anything. When
// wantPropCode is OPC_All, fn is never called.
func WithUnexpectedPropertyWarning(wantPropCode uint32, fn func(PropertyElement)) PropertyListOption {
	return func(c *propertyListConfig) {
		c.wantPropCode = wantPropCode
		c.hasFilter = true
		c.onUnexpected = fn
	}
}

// decodePropertyList parses the count-prefixed element list: a 32-bit count
// followed by that many {object_id u32, property_code u16, type_code u16,
// value} tuples, the value's shape chosen by type_code. opts may plug in a
// custom value decoder and/or a callback for properties that don't match an
// expected filter; with no opts, decoding uses readValue and every element is
// simply returned.
func decodePropertyList(data []byte, opts ...PropertyListOption) ([]PropertyElement, error) {
	var cfg propertyListConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	decode := cfg.decoder
	if decode == nil {
		decode = readValue
	}

	r := wire.NewReader(bytes.NewReader(data))
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]PropertyElement, 0, count)
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
		val, err := decode(r, dt)
		if err != nil {
			return out, err
		}
		elem := PropertyElement{
			ObjectHandle: ObjectId(handle),
			PropertyCode: propCode,
			DataType:     dt,
			Value:        val,
		}
		if cfg.hasFilter && cfg.onUnexpected != nil && uint32(propCode) != cfg.wantPropCode && cfg.wantPropCode != OPC_All {
			cfg.onUnexpected(elem)
		}
		out = append(out, elem)
	}
	return out, nil
}

// readValue decodes one element's value directly from r, since
// wire.DecodeValue operates on a pre-sliced buffer rather than a stream.
func readValue(r *wire.Reader, code wire.DataTypeCode) (interface{}, error) {
	switch code {
	case wire.DTC_INT8:
		v, err := r.ReadU8()
		return int8(v), err
	case wire.DTC_UINT8:
		return r.ReadU8()
	case wire.DTC_INT16:
		v, err := r.ReadU16()
		return int16(v), err
	case wire.DTC_UINT16:
		return r.ReadU16()
	case wire.DTC_INT32:
		v, err := r.ReadU32()
		return int32(v), err
	case wire.DTC_UINT32:
		return r.ReadU32()
	case wire.DTC_INT64:
		v, err := r.ReadU64()
		return int64(v), err
	case wire.DTC_UINT64:
		return r.ReadU64()
	case wire.DTC_INT128, wire.DTC_UINT128:
		return r.ReadU128()
	case wire.DTC_STR:
		return r.ReadString()
	default:
		return nil, wire.ErrUnsupportedType(code)
	}
}

// encodePropertyList renders elems back into the count-prefixed wire form.
func encodePropertyList(elems []PropertyElement) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := wire.NewWriter(buf)
	if err := w.WriteU32(uint32(len(elems))); err != nil {
		return nil, err
	}
	for _, e := range elems {
		if err := w.WriteU32(uint32(e.ObjectHandle)); err != nil {
			return nil, err
		}
		if err := w.WriteU16(e.PropertyCode); err != nil {
			return nil, err
		}
		if err := w.WriteU16(uint16(e.DataType)); err != nil {
			return nil, err
		}
		val, err := wire.EncodeValue(e.DataType, e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	return buf.Bytes(), nil
}

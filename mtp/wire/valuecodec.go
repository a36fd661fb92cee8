package wire

import (
	"bytes"
	"fmt"
)

// EncodeValue renders a single typed value (as used in property lists and
// property-value get/set operations) to its wire form for the given code.
func EncodeValue(code DataTypeCode, v interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	switch code {
	case DTC_INT8, DTC_UINT8:
		u, err := toUint(v)
		if err != nil {
			return nil, err
		}
		return []byte{byte(u)}, nil
	case DTC_INT16, DTC_UINT16:
		u, err := toUint(v)
		if err != nil {
			return nil, err
		}
		if err := w.WriteU16(uint16(u)); err != nil {
			return nil, err
		}
	case DTC_INT32, DTC_UINT32:
		u, err := toUint(v)
		if err != nil {
			return nil, err
		}
		if err := w.WriteU32(uint32(u)); err != nil {
			return nil, err
		}
	case DTC_INT64, DTC_UINT64:
		u, err := toUint(v)
		if err != nil {
			return nil, err
		}
		if err := w.WriteU64(u); err != nil {
			return nil, err
		}
	case DTC_INT128, DTC_UINT128:
		b, ok := v.([16]byte)
		if !ok {
			return nil, fmt.Errorf("wire: EncodeValue: want [16]byte for %#04x, got %T", uint16(code), v)
		}
		if err := w.WriteU128(b); err != nil {
			return nil, err
		}
	case DTC_STR:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("wire: EncodeValue: want string for DTC_STR, got %T", v)
		}
		if err := w.WriteString(s); err != nil {
			return nil, err
		}
	case DTC_ARRAYI8, DTC_ARRAYU8:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("wire: EncodeValue: want []byte for %#04x, got %T", uint16(code), v)
		}
		if err := w.WriteU32(uint32(len(b))); err != nil {
			return nil, err
		}
		if _, err := buf.Write(b); err != nil {
			return nil, err
		}
	case DTC_ARRAYI16, DTC_ARRAYU16:
		vals, ok := v.([]uint16)
		if !ok {
			return nil, fmt.Errorf("wire: EncodeValue: want []uint16 for %#04x, got %T", uint16(code), v)
		}
		if err := w.WriteU32(uint32(len(vals))); err != nil {
			return nil, err
		}
		for _, x := range vals {
			if err := w.WriteU16(x); err != nil {
				return nil, err
			}
		}
	case DTC_ARRAYI32, DTC_ARRAYU32:
		vals, ok := v.([]uint32)
		if !ok {
			return nil, fmt.Errorf("wire: EncodeValue: want []uint32 for %#04x, got %T", uint16(code), v)
		}
		if err := w.WriteU32(uint32(len(vals))); err != nil {
			return nil, err
		}
		for _, x := range vals {
			if err := w.WriteU32(x); err != nil {
				return nil, err
			}
		}
	case DTC_ARRAYI64, DTC_ARRAYU64:
		vals, ok := v.([]uint64)
		if !ok {
			return nil, fmt.Errorf("wire: EncodeValue: want []uint64 for %#04x, got %T", uint16(code), v)
		}
		if err := w.WriteU32(uint32(len(vals))); err != nil {
			return nil, err
		}
		for _, x := range vals {
			if err := w.WriteU64(x); err != nil {
				return nil, err
			}
		}
	case DTC_ARRAYI128, DTC_ARRAYU128:
		vals, ok := v.([][16]byte)
		if !ok {
			return nil, fmt.Errorf("wire: EncodeValue: want [][16]byte for %#04x, got %T", uint16(code), v)
		}
		if err := w.WriteU32(uint32(len(vals))); err != nil {
			return nil, err
		}
		for _, x := range vals {
			if err := w.WriteU128(x); err != nil {
				return nil, err
			}
		}
	default:
		return nil, ErrUnsupportedType(code)
	}
	return buf.Bytes(), nil
}

// DecodeValue parses a single typed value out of data for the given code,
// returning the value and the number of bytes consumed.
func DecodeValue(code DataTypeCode, data []byte) (interface{}, int, error) {
	r := NewReader(bytes.NewReader(data))
	switch code {
	case DTC_INT8:
		v, err := r.ReadU8()
		return int8(v), 1, err
	case DTC_UINT8:
		v, err := r.ReadU8()
		return v, 1, err
	case DTC_INT16:
		v, err := r.ReadU16()
		return int16(v), 2, err
	case DTC_UINT16:
		v, err := r.ReadU16()
		return v, 2, err
	case DTC_INT32:
		v, err := r.ReadU32()
		return int32(v), 4, err
	case DTC_UINT32:
		v, err := r.ReadU32()
		return v, 4, err
	case DTC_INT64:
		v, err := r.ReadU64()
		return int64(v), 8, err
	case DTC_UINT64:
		v, err := r.ReadU64()
		return v, 8, err
	case DTC_INT128, DTC_UINT128:
		v, err := r.ReadU128()
		return v, 16, err
	case DTC_STR:
		if len(data) == 0 {
			return "", 0, ErrTruncated
		}
		n := int(data[0])
		s, err := r.ReadString()
		if err != nil {
			return "", 0, err
		}
		return s, 1 + 2*n, nil
	case DTC_ARRAYI8, DTC_ARRAYU8:
		n, err := r.ReadU32()
		if err != nil {
			return nil, 0, ErrTruncated
		}
		if len(data) < 4+int(n) {
			return nil, 0, ErrTruncated
		}
		b := make([]byte, n)
		copy(b, data[4:4+n])
		return b, 4 + int(n), nil
	case DTC_ARRAYI16, DTC_ARRAYU16:
		n, err := r.ReadU32()
		if err != nil {
			return nil, 0, ErrTruncated
		}
		out := make([]uint16, n)
		for i := range out {
			v, err := r.ReadU16()
			if err != nil {
				return nil, 0, ErrTruncated
			}
			out[i] = v
		}
		return out, 4 + 2*int(n), nil
	case DTC_ARRAYI32, DTC_ARRAYU32:
		n, err := r.ReadU32()
		if err != nil {
			return nil, 0, ErrTruncated
		}
		out := make([]uint32, n)
		for i := range out {
			v, err := r.ReadU32()
			if err != nil {
				return nil, 0, ErrTruncated
			}
			out[i] = v
		}
		return out, 4 + 4*int(n), nil
	case DTC_ARRAYI64, DTC_ARRAYU64:
		n, err := r.ReadU32()
		if err != nil {
			return nil, 0, ErrTruncated
		}
		out := make([]uint64, n)
		for i := range out {
			v, err := r.ReadU64()
			if err != nil {
				return nil, 0, ErrTruncated
			}
			out[i] = v
		}
		return out, 4 + 8*int(n), nil
	case DTC_ARRAYI128, DTC_ARRAYU128:
		n, err := r.ReadU32()
		if err != nil {
			return nil, 0, ErrTruncated
		}
		out := make([][16]byte, n)
		for i := range out {
			v, err := r.ReadU128()
			if err != nil {
				return nil, 0, ErrTruncated
			}
			out[i] = v
		}
		return out, 4 + 16*int(n), nil
	default:
		return nil, 0, ErrUnsupportedType(code)
	}
}

func toUint(v interface{}) (uint64, error) {
	switch x := v.(type) {
	case uint8:
		return uint64(x), nil
	case int8:
		return uint64(uint8(x)), nil
	case uint16:
		return uint64(x), nil
	case int16:
		return uint64(uint16(x)), nil
	case uint32:
		return uint64(x), nil
	case int32:
		return uint64(uint32(x)), nil
	case uint64:
		return x, nil
	case int64:
		return uint64(x), nil
	case int:
		return uint64(x), nil
	default:
		return 0, fmt.Errorf("wire: EncodeValue: unsupported scalar type %T", v)
	}
}

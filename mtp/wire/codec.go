package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
)

// Decoder is implemented by types needing custom decode logic, typically
// because a later field's shape depends on an earlier one (property
// descriptor forms keyed by DataType).
type Decoder interface {
	Decode(r io.Reader) error
}

// Encoder is the Decoder counterpart for custom encode logic.
type Encoder interface {
	Encode(w io.Writer) error
}

func encodeStrField(w io.Writer, f reflect.Value) error {
	out := make([]byte, 2*f.Len()+4)
	enc, err := encodeStr(out, f.Interface().(string))
	if err != nil {
		return err
	}
	_, err = w.Write(enc)
	return err
}

var nullValue reflect.Value

func reflectKindSize(k reflect.Kind) int {
	switch k {
	case reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32:
		return 4
	case reflect.Int64, reflect.Uint64:
		return 8
	default:
		panic(fmt.Sprintf("wire: unknown kind %v", k))
	}
}

func decodeArray(r io.Reader, t reflect.Type, hint DecodeHints) (reflect.Value, error) {
	var sz int
	if hint.PropDesc {
		var s uint16
		if err := binary.Read(r, ByteOrder, &s); err != nil {
			return nullValue, ErrTruncated
		}
		sz = int(s)
	} else {
		var s uint32
		if err := binary.Read(r, ByteOrder, &s); err != nil {
			return nullValue, ErrTruncated
		}
		sz = int(s)
	}

	kind := t.Elem().Kind()
	ksz := 0
	if kind == reflect.Interface {
		val := InstantiateType(hint)
		ksz = reflectKindSize(val.Kind())
	} else {
		ksz = reflectKindSize(kind)
	}

	expectedSize := sz * ksz
	data := make([]byte, expectedSize)
	n, err := io.ReadFull(r, data)
	if err != nil && n < expectedSize {
		data = data[:n]
		sz = n / ksz
	}

	slice := reflect.MakeSlice(t, sz, sz)
	for i := 0; i < sz; i++ {
		from := data[i*ksz:]
		var val uint64
		switch ksz {
		case 1:
			val = uint64(from[0])
		case 2:
			val = uint64(ByteOrder.Uint16(from[0:]))
		case 4:
			val = uint64(ByteOrder.Uint32(from[0:]))
		case 8:
			val = ByteOrder.Uint64(from[0:])
		default:
			panic("wire: unimplemented array element size")
		}

		if kind == reflect.Interface {
			slice.Index(i).Set(reflect.ValueOf(val))
		} else {
			slice.Index(i).SetUint(val)
		}
	}
	return slice, nil
}

func encodeArray(w io.Writer, val reflect.Value) error {
	sz := uint32(val.Len())
	if err := binary.Write(w, ByteOrder, &sz); err != nil {
		return err
	}
	if sz == 0 {
		return nil
	}

	kind := val.Type().Elem().Kind()
	ksz := 0
	if kind == reflect.Interface {
		ksz = reflectKindSize(val.Index(0).Elem().Kind())
	} else {
		ksz = reflectKindSize(kind)
	}
	data := make([]byte, int(sz)*ksz)
	for i := 0; i < int(sz); i++ {
		elt := val.Index(i)
		to := data[i*ksz:]

		switch kind {
		case reflect.Uint8:
			to[0] = byte(elt.Uint())
		case reflect.Uint16:
			ByteOrder.PutUint16(to, uint16(elt.Uint()))
		case reflect.Uint32:
			ByteOrder.PutUint32(to, uint32(elt.Uint()))
		case reflect.Uint64:
			ByteOrder.PutUint64(to, elt.Uint())
		case reflect.Int8:
			to[0] = byte(elt.Int())
		case reflect.Int16:
			ByteOrder.PutUint16(to, uint16(elt.Int()))
		case reflect.Int32:
			ByteOrder.PutUint32(to, uint32(elt.Int()))
		case reflect.Int64:
			ByteOrder.PutUint64(to, uint64(elt.Int()))
		default:
			panic(fmt.Sprintf("wire: unimplemented encode for kind %v", kind))
		}
	}
	_, err := w.Write(data)
	return err
}

var timeType = reflect.ValueOf(time.Now()).Type()

const timeFormat = "20060102T150405"
const timeFormatNumTZ = "20060102T150405-0700"

var zeroTime = time.Time{}

func encodeTime(w io.Writer, f reflect.Value) error {
	tptr := f.Addr().Interface().(*time.Time)
	s := ""
	if !tptr.Equal(zeroTime) {
		s = tptr.Format(timeFormat)
	}

	out := make([]byte, 2*len(s)+3)
	enc, err := encodeStr(out, s)
	if err != nil {
		return err
	}
	_, err = w.Write(enc)
	return err
}

func decodeTime(r io.Reader, f reflect.Value) error {
	s, err := decodeStr(r)
	if err != nil {
		return err
	}
	var t time.Time
	if s != "" {
		// Devices in the wild append trailing dots or a literal "Z".
		s = strings.TrimRight(s, ".")
		s = strings.TrimRight(s, "Z")

		t, err = time.Parse(timeFormat, s)
		if err != nil {
			t, err = time.Parse(timeFormatNumTZ, s)
			if err != nil {
				return err
			}
		}
	}
	f.Set(reflect.ValueOf(t))
	return nil
}

func decodeField(r io.Reader, f reflect.Value, hint DecodeHints) error {
	if !f.CanAddr() {
		return fmt.Errorf("wire: field not addressable")
	}

	if f.Type() == timeType {
		return decodeTime(r, f)
	}

	switch f.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if err := binary.Read(r, ByteOrder, f.Addr().Interface()); err != nil {
			return ErrTruncated
		}
		return nil
	case reflect.Array:
		buf := make([]byte, f.Len())
		if _, err := io.ReadFull(r, buf); err != nil {
			return ErrTruncated
		}
		reflect.Copy(f, reflect.ValueOf(buf))
		return nil
	case reflect.String:
		s, err := decodeStr(r)
		if err != nil {
			return err
		}
		f.SetString(s)
	case reflect.Slice:
		sl, err := decodeArray(r, f.Type(), hint)
		if err != nil {
			return err
		}
		f.Set(sl)
	case reflect.Interface:
		val := InstantiateType(hint)
		if err := decodeField(r, val, hint); err != nil {
			return err
		}
		f.Set(val)
	default:
		panic(fmt.Sprintf("wire: unimplemented decode kind %v", f))
	}
	return nil
}

func encodeField(w io.Writer, f reflect.Value) error {
	if f.Type() == timeType {
		return encodeTime(w, f)
	}

	switch f.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return binary.Write(w, ByteOrder, f.Interface())
	case reflect.Array:
		buf := make([]byte, f.Len())
		reflect.Copy(reflect.ValueOf(buf), f)
		_, err := w.Write(buf)
		return err
	case reflect.String:
		return encodeStrField(w, f)
	case reflect.Slice:
		return encodeArray(w, f)
	case reflect.Interface:
		return encodeField(w, f.Elem())
	default:
		panic(fmt.Sprintf("wire: unimplemented encode kind %v", f))
	}
}

// Decode reads a struct's fields in declaration order from r, little-endian,
// using the length-prefixed string and counted-array rules. Types
// implementing Decoder get full control instead.
func Decode(r io.Reader, iface interface{}) error {
	if decoder, ok := iface.(Decoder); ok {
		return decoder.Decode(r)
	}
	return decodeWithSelector(r, iface, DecodeHints{Selector: DataTypeCode(0xfe)})
}

func decodeWithSelector(r io.Reader, iface interface{}, hint DecodeHints) error {
	val := reflect.ValueOf(iface)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("wire: need ptr argument, got %T", iface)
	}
	val = val.Elem()
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		if err := decodeField(r, val.Field(i), hint); err != nil {
			return err
		}
		if val.Field(i).Type().Name() == "DataTypeCode" {
			hint.Selector = val.Field(i).Interface().(DataTypeCode)
		}
	}
	return nil
}

// Encode writes a struct's fields in declaration order to w using the same
// rules as Decode. Types implementing Encoder get full control instead.
func Encode(w io.Writer, iface interface{}) error {
	if encoder, ok := iface.(Encoder); ok {
		return encoder.Encode(w)
	}

	val := reflect.ValueOf(iface)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("wire: need ptr argument, got %T", iface)
	}
	val = val.Elem()
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		if err := encodeField(w, val.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// InstantiateType returns an addressable zero value of the Go type that
// corresponds to hint.Selector, for decoding DataDependentType fields.
func InstantiateType(hint DecodeHints) reflect.Value {
	var val interface{}
	switch hint.Selector {
	case DTC_INT8:
		v := int8(0)
		val = &v
	case DTC_UINT8:
		v := uint8(0)
		val = &v
	case DTC_INT16:
		v := int16(0)
		val = &v
	case DTC_UINT16:
		v := uint16(0)
		val = &v
	case DTC_INT32:
		v := int32(0)
		val = &v
	case DTC_UINT32:
		v := uint32(0)
		val = &v
	case DTC_INT64:
		v := int64(0)
		val = &v
	case DTC_UINT64:
		v := uint64(0)
		val = &v
	case DTC_INT128:
		v := [16]byte{}
		val = &v
	case DTC_UINT128:
		v := [16]byte{}
		val = &v
	case DTC_STR:
		s := ""
		val = &s
	default:
		panic(fmt.Sprintf("wire: type not known %#x", uint16(hint.Selector)))
	}
	return reflect.ValueOf(val).Elem()
}

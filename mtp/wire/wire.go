// Package wire implements the little-endian primitive codec shared by every
// MTP container payload: fixed-width integers, length-prefixed UTF-16LE
// strings, counted arrays, and a DataTypeCode-keyed typed value codec.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ByteOrder is the wire byte order for every numeric field in this protocol.
var ByteOrder = binary.LittleEndian

// ErrTruncated is returned when a read runs out of buffer mid-field.
var ErrTruncated = errors.New("wire: truncated read")

// ErrUnsupportedType is returned by EncodeValue/DecodeValue for an unknown
// DataTypeCode.
type ErrUnsupportedType DataTypeCode

func (e ErrUnsupportedType) Error() string {
	return fmt.Sprintf("wire: unsupported data type code %#04x", uint16(e))
}

// Reader wraps an io.Reader with fixed-width and string primitives.
type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

func (rd *Reader) fill(buf []byte) error {
	n, err := io.ReadFull(rd.r, buf)
	if n == len(buf) {
		return nil
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	if err != nil {
		return err
	}
	return ErrTruncated
}

func (rd *Reader) ReadU8() (uint8, error) {
	var b [1]byte
	if err := rd.fill(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (rd *Reader) ReadU16() (uint16, error) {
	var b [2]byte
	if err := rd.fill(b[:]); err != nil {
		return 0, err
	}
	return ByteOrder.Uint16(b[:]), nil
}

func (rd *Reader) ReadU32() (uint32, error) {
	var b [4]byte
	if err := rd.fill(b[:]); err != nil {
		return 0, err
	}
	return ByteOrder.Uint32(b[:]), nil
}

func (rd *Reader) ReadU64() (uint64, error) {
	var b [8]byte
	if err := rd.fill(b[:]); err != nil {
		return 0, err
	}
	return ByteOrder.Uint64(b[:]), nil
}

func (rd *Reader) ReadU128() ([16]byte, error) {
	var b [16]byte
	if err := rd.fill(b[:]); err != nil {
		return b, err
	}
	return b, nil
}

// ReadString decodes the length-prefixed UTF-16LE string form: one byte
// giving the code-unit count including the trailing null; a count of 0
// means an empty string with no data following.
func (rd *Reader) ReadString() (string, error) {
	return decodeStr(rd.r)
}

// ReadArray reads a 32-bit count followed by that many fixed-width
// little-endian elements, each elemSize bytes wide. It returns the raw
// element bytes; callers reinterpret them by width.
func (rd *Reader) ReadArray(elemSize int) ([]byte, int, error) {
	n, err := rd.ReadU32()
	if err != nil {
		return nil, 0, err
	}
	buf := make([]byte, int(n)*elemSize)
	if err := rd.fill(buf); err != nil {
		return nil, 0, err
	}
	return buf, int(n), nil
}

// Writer wraps an io.Writer with fixed-width and string primitives.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (wr *Writer) WriteU8(v uint8) error {
	_, err := wr.w.Write([]byte{v})
	return err
}

func (wr *Writer) WriteU16(v uint16) error {
	var b [2]byte
	ByteOrder.PutUint16(b[:], v)
	_, err := wr.w.Write(b[:])
	return err
}

func (wr *Writer) WriteU32(v uint32) error {
	var b [4]byte
	ByteOrder.PutUint32(b[:], v)
	_, err := wr.w.Write(b[:])
	return err
}

func (wr *Writer) WriteU64(v uint64) error {
	var b [8]byte
	ByteOrder.PutUint64(b[:], v)
	_, err := wr.w.Write(b[:])
	return err
}

func (wr *Writer) WriteU128(v [16]byte) error {
	_, err := wr.w.Write(v[:])
	return err
}

// WriteString encodes s in the length-prefixed UTF-16LE form.
func (wr *Writer) WriteString(s string) error {
	out := make([]byte, 2*len(s)+3)
	enc, err := encodeStr(out, s)
	if err != nil {
		return err
	}
	_, err = wr.w.Write(enc)
	return err
}

// WriteArray writes a 32-bit count followed by the given raw element bytes.
func (wr *Writer) WriteArray(elems []byte, count int) error {
	if err := wr.WriteU32(uint32(count)); err != nil {
		return err
	}
	_, err := wr.w.Write(elems)
	return err
}

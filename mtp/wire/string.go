package wire

import (
	"fmt"
	"io"
	"unicode/utf8"
)

func decodeStr(r io.Reader) (string, error) {
	var szSlice [1]byte
	if _, err := io.ReadFull(r, szSlice[:]); err != nil {
		return "", ErrTruncated
	}
	sz := int(szSlice[0])
	if sz == 0 {
		return "", nil
	}
	utfStr := make([]byte, 4*sz)
	data := make([]byte, 2*sz)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", ErrTruncated
	}
	w := 0
	for i := 0; i < 2*sz; i += 2 {
		cp := ByteOrder.Uint16(data[i:])
		w += utf8.EncodeRune(utfStr[w:], rune(cp))
	}
	if w > 0 && utfStr[w-1] == 0 {
		w--
	}
	return string(utfStr[:w]), nil
}

func encodeStr(buf []byte, s string) ([]byte, error) {
	if s == "" {
		buf[0] = 0
		return buf[:1], nil
	}

	codepoints := 0
	buf = append(buf[:0], 0)

	var char [2]byte
	for _, r := range s {
		ByteOrder.PutUint16(char[:], uint16(r))
		buf = append(buf, char[0], char[1])
		codepoints++
	}
	buf = append(buf, 0, 0)
	codepoints++
	if codepoints > 255 {
		return nil, fmt.Errorf("wire: string too long for 1-byte count")
	}

	buf[0] = byte(codepoints)
	return buf, nil
}

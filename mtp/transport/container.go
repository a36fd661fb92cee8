package transport

import (
	"bytes"

	"github.com/gomtp/mtpcore/mtp/wire"
)

// ContainerType is the 16-bit discriminator in a PTP/MTP container header.
type ContainerType uint16

const (
	ContainerCommand  ContainerType = 1
	ContainerData     ContainerType = 2
	ContainerResponse ContainerType = 3
	ContainerEvent    ContainerType = 4
)

func (t ContainerType) valid() bool {
	return t >= ContainerCommand && t <= ContainerEvent
}

// headerLen is the size of the fixed container header: length, type, code,
// transaction id.
const headerLen = 2*2 + 2*4

// maxCommandParams is the largest number of 32-bit parameters a Command
// container may carry.
const maxCommandParams = 5

type header struct {
	Length        uint32
	Type          uint16
	Code          uint16
	TransactionID uint32
}

func encodeHeader(h header) []byte {
	buf := &bytes.Buffer{}
	w := wire.NewWriter(buf)
	w.WriteU32(h.Length)
	w.WriteU16(h.Type)
	w.WriteU16(h.Code)
	w.WriteU32(h.TransactionID)
	return buf.Bytes()
}

func decodeHeader(b []byte) (header, error) {
	if len(b) < headerLen {
		return header{}, ProtocolError{Reason: "container shorter than header"}
	}
	r := wire.NewReader(bytes.NewReader(b[:headerLen]))
	length, _ := r.ReadU32()
	typ, _ := r.ReadU16()
	code, _ := r.ReadU16()
	tid, _ := r.ReadU32()
	h := header{Length: length, Type: typ, Code: code, TransactionID: tid}
	if length < headerLen {
		return h, ProtocolError{Reason: "container length field smaller than header"}
	}
	if !ContainerType(typ).valid() {
		return h, ProtocolError{Reason: "container type out of range"}
	}
	return h, nil
}

// Command is a Command-phase container: an operation code, a transaction id
// and up to five 32-bit parameters.
type Command struct {
	Code          uint16
	TransactionID uint32
	Param         []uint32
}

func encodeCommand(c Command) []byte {
	h := header{
		Length:        uint32(headerLen + 4*len(c.Param)),
		Type:          uint16(ContainerCommand),
		Code:          c.Code,
		TransactionID: c.TransactionID,
	}
	b := &bytes.Buffer{}
	b.Write(encodeHeader(h))
	w := wire.NewWriter(b)
	for _, p := range c.Param {
		w.WriteU32(p)
	}
	return b.Bytes()
}

// Response is a decoded Response-phase container.
type Response struct {
	Code          uint16
	TransactionID uint32
	Param         []uint32
}

// Event is a decoded interrupt-pipe event: a code plus up to three
// parameters.
type Event struct {
	Code          uint16
	TransactionID uint32
	Param         []uint32
}

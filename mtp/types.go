// Package mtp implements the session and transaction engine: it issues
// operations, sequences container phases, owns the transaction counter,
// parses typed replies, and caches DeviceInfo. The wire codec lives in
// mtp/wire, the container framer in mtp/transport; this package is the
// thing applications and the library coordinator actually call into.
package mtp

import "time"

// ObjectId, StorageId and TransactionId are kept distinct so a caller can't
// accidentally pass one where another belongs.
type ObjectId uint32
type StorageId uint32
type TransactionId uint32

const (
	AllObjects  ObjectId  = 0xFFFFFFFF
	RootObject  ObjectId  = 0x00000000
	AllStorages StorageId = 0xFFFFFFFF
)

// DeviceInfo is the GetDeviceInfo response payload, cached on the Session
// after its first successful call.
type DeviceInfo struct {
	StandardVersion           uint16
	MTPVendorExtensionID      uint32
	MTPVersion                uint16
	MTPExtension              string
	FunctionalMode            uint16
	OperationsSupported       []uint16
	EventsSupported           []uint16
	DevicePropertiesSupported []uint16
	CaptureFormats            []uint16
	ImageFormats              []uint16
	Manufacturer              string
	Model                     string
	DeviceVersion             string
	SerialNumber              string
}

// SupportsOperation reports whether the device advertised the given
// operation code in GetDeviceInfo.
func (d *DeviceInfo) SupportsOperation(code uint16) bool {
	for _, c := range d.OperationsSupported {
		if c == code {
			return true
		}
	}
	return false
}

// SupportsProperty reports whether the device advertised the given device
// property code in GetDeviceInfo.
func (d *DeviceInfo) SupportsProperty(code uint16) bool {
	for _, c := range d.DevicePropertiesSupported {
		if c == code {
			return true
		}
	}
	return false
}

// SupportsFormat reports whether the device advertised the given object
// format code among either its capture or its image (object) formats.
func (d *DeviceInfo) SupportsFormat(code uint16) bool {
	for _, c := range d.CaptureFormats {
		if c == code {
			return true
		}
	}
	for _, c := range d.ImageFormats {
		if c == code {
			return true
		}
	}
	return false
}

// StorageInfo is the GetStorageInfo response payload.
type StorageInfo struct {
	StorageType        uint16
	FilesystemType      uint16
	AccessCapability    uint16
	MaxCapability       uint64
	FreeSpaceInBytes    uint64
	FreeSpaceInObjects  uint32
	StorageDescription  string
	VolumeLabel         string
}

func (s *StorageInfo) IsHierarchical() bool {
	return s.FilesystemType == FST_GenericHierarchical
}

func (s *StorageInfo) IsRemovable() bool {
	return s.StorageType == ST_RemovableROM || s.StorageType == ST_RemovableRAM
}

// ObjectInfo is the GetObjectInfo/SendObjectInfo payload.
type ObjectInfo struct {
	StorageID           uint32
	ObjectFormat        uint16
	ProtectionStatus    uint16
	CompressedSize      uint32
	ThumbFormat         uint16
	ThumbCompressedSize uint32
	ThumbPixWidth       uint32
	ThumbPixHeight      uint32
	ImagePixWidth       uint32
	ImagePixHeight      uint32
	ImageBitDepth       uint32
	ParentObject        uint32
	AssociationType     uint16
	AssociationDesc     uint32
	SequenceNumber      uint32
	Filename            string
	CaptureDate         time.Time
	ModificationDate    time.Time
	Keywords            string
}

package mtp

import (
	"bytes"
	"context"
	"io"

	"github.com/gomtp/mtpcore/mtp/wire"
)

// GetStorageIDs returns the storage ids currently mounted on the device.
func (s *Session) GetStorageIDs(ctx context.Context) ([]uint32, error) {
	buf := &bytes.Buffer{}
	if _, err := s.request(ctx, OC_GetStorageIDs, nil, nil, 0, buf); err != nil {
		return nil, err
	}
	var ids wire.Uint32Array
	if err := wire.Decode(buf, &ids); err != nil {
		return nil, err
	}
	return ids.Values, nil
}

// GetStorageInfo returns the StorageInfo for one storage id.
func (s *Session) GetStorageInfo(ctx context.Context, id StorageId) (*StorageInfo, error) {
	buf := &bytes.Buffer{}
	if _, err := s.request(ctx, OC_GetStorageInfo, []uint32{uint32(id)}, nil, 0, buf); err != nil {
		return nil, err
	}
	info := &StorageInfo{}
	if err := wire.Decode(buf, info); err != nil {
		return nil, err
	}
	return info, nil
}

// GetObjectHandles lists object handles matching the given storage,
// object-format filter (ObjectFormatAny for no filter) and parent
// (RootObject for the storage root, AllObjects for every object regardless
// of parent). When storage is AllStorages, the device-side enumeration
// across storages is not relied on: this calls GetStorageIDs first and
// issues one GetObjectHandles per storage in that order, concatenating the
// results.
func (s *Session) GetObjectHandles(ctx context.Context, storage StorageId, formatCode uint16, parent ObjectId) ([]ObjectId, error) {
	if storage != AllStorages {
		return s.getObjectHandlesOneStorage(ctx, storage, formatCode, parent)
	}
	ids, err := s.GetStorageIDs(ctx)
	if err != nil {
		return nil, err
	}
	var out []ObjectId
	for _, id := range ids {
		handles, err := s.getObjectHandlesOneStorage(ctx, StorageId(id), formatCode, parent)
		if err != nil {
			return nil, err
		}
		out = append(out, handles...)
	}
	return out, nil
}

func (s *Session) getObjectHandlesOneStorage(ctx context.Context, storage StorageId, formatCode uint16, parent ObjectId) ([]ObjectId, error) {
	buf := &bytes.Buffer{}
	params := []uint32{uint32(storage), uint32(formatCode), uint32(parent)}
	if _, err := s.request(ctx, OC_GetObjectHandles, params, nil, 0, buf); err != nil {
		return nil, err
	}
	var ids wire.Uint32Array
	if err := wire.Decode(buf, &ids); err != nil {
		return nil, err
	}
	out := make([]ObjectId, len(ids.Values))
	for i, v := range ids.Values {
		out[i] = ObjectId(v)
	}
	return out, nil
}

// GetObjectInfo fetches the ObjectInfo for one object handle.
func (s *Session) GetObjectInfo(ctx context.Context, handle ObjectId) (*ObjectInfo, error) {
	buf := &bytes.Buffer{}
	if _, err := s.request(ctx, OC_GetObjectInfo, []uint32{uint32(handle)}, nil, 0, buf); err != nil {
		return nil, err
	}
	info := &ObjectInfo{}
	if err := wire.Decode(buf, info); err != nil {
		return nil, err
	}
	return info, nil
}

// GetObject streams the full object payload into w.
func (s *Session) GetObject(ctx context.Context, handle ObjectId, w io.Writer) error {
	_, err := s.request(ctx, OC_GetObject, []uint32{uint32(handle)}, nil, 0, w)
	return err
}

// GetPartialObject streams size bytes of an object starting at offset.
func (s *Session) GetPartialObject(ctx context.Context, handle ObjectId, offset, size uint32, w io.Writer) error {
	params := []uint32{uint32(handle), offset, size}
	_, err := s.request(ctx, OC_GetPartialObject, params, nil, 0, w)
	return err
}

// GetThumb streams an object's thumbnail representation into w.
func (s *Session) GetThumb(ctx context.Context, handle ObjectId, w io.Writer) error {
	_, err := s.request(ctx, OC_GetThumb, []uint32{uint32(handle)}, nil, 0, w)
	return err
}

// SendObjectInfo announces a new object's metadata ahead of SendObject.
// wantStorage/wantParent are hints; the device's response carries the
// storage, parent and handle it actually assigned.
func (s *Session) SendObjectInfo(ctx context.Context, wantStorage StorageId, wantParent ObjectId, info *ObjectInfo) (storage StorageId, parent ObjectId, handle ObjectId, err error) {
	buf := &bytes.Buffer{}
	if err = wire.Encode(buf, info); err != nil {
		return
	}
	params := []uint32{uint32(wantStorage), uint32(wantParent)}
	resp, rerr := s.request(ctx, OC_SendObjectInfo, params, buf, int64(buf.Len()), nil)
	if rerr != nil {
		err = rerr
		return
	}
	if len(resp.Param) < 3 {
		err = ResponseError{Code: RC_NoValidObjectInfo}
		return
	}
	return StorageId(resp.Param[0]), ObjectId(resp.Param[1]), ObjectId(resp.Param[2]), nil
}

// SendObject streams an object body of size bytes. It must immediately
// follow a successful SendObjectInfo; calling it without one first is a
// pairing violation the device reports as NoValidObjectInfo.
func (s *Session) SendObject(ctx context.Context, r io.Reader, size int64) error {
	_, err := s.request(ctx, OC_SendObject, nil, r, size, nil)
	return err
}

// DeleteObject removes one object. The second parameter (format filter) is
// fixed at zero: this client never issues a format-scoped bulk delete.
func (s *Session) DeleteObject(ctx context.Context, handle ObjectId) error {
	_, err := s.request(ctx, OC_DeleteObject, []uint32{uint32(handle), 0}, nil, 0, nil)
	return err
}

// SetObjectProtection sets or clears an object's write-protection status.
func (s *Session) SetObjectProtection(ctx context.Context, handle ObjectId, status uint16) error {
	_, err := s.request(ctx, OC_SetObjectProtection, []uint32{uint32(handle), uint32(status)}, nil, 0, nil)
	return err
}

// GetObjectPropDesc fetches the property descriptor for a given object
// property code within a given object format, used to probe vendor
// extension support before relying on it.
func (s *Session) GetObjectPropDesc(ctx context.Context, propCode, formatCode uint16) (*wire.ObjectPropDesc, error) {
	buf := &bytes.Buffer{}
	params := []uint32{uint32(propCode), uint32(formatCode)}
	if _, err := s.request(ctx, OC_MTP_GetObjectPropDesc, params, nil, 0, buf); err != nil {
		return nil, err
	}
	desc := &wire.ObjectPropDesc{}
	if err := desc.Decode(buf); err != nil {
		return nil, err
	}
	return desc, nil
}

// GetObjectPropsSupported lists the object property codes the device
// supports for a given object format.
func (s *Session) GetObjectPropsSupported(ctx context.Context, formatCode uint16) ([]uint16, error) {
	buf := &bytes.Buffer{}
	if _, err := s.request(ctx, OC_MTP_GetObjectPropsSupported, []uint32{uint32(formatCode)}, nil, 0, buf); err != nil {
		return nil, err
	}
	var props wire.Uint16Array
	if err := wire.Decode(buf, &props); err != nil {
		return nil, err
	}
	return props.Values, nil
}

// GetObjectProperty reads a single typed object property value.
func (s *Session) GetObjectProperty(ctx context.Context, handle ObjectId, propCode uint16, code wire.DataTypeCode) (interface{}, error) {
	buf := &bytes.Buffer{}
	params := []uint32{uint32(handle), uint32(propCode)}
	if _, err := s.request(ctx, OC_MTP_GetObjectPropValue, params, nil, 0, buf); err != nil {
		return nil, err
	}
	val, _, err := wire.DecodeValue(code, buf.Bytes())
	return val, err
}

// SetObjectProperty writes a single typed object property value.
func (s *Session) SetObjectProperty(ctx context.Context, handle ObjectId, propCode uint16, code wire.DataTypeCode, value interface{}) error {
	data, err := wire.EncodeValue(code, value)
	if err != nil {
		return err
	}
	params := []uint32{uint32(handle), uint32(propCode)}
	_, err = s.request(ctx, OC_MTP_SetObjectPropValue, params, bytes.NewReader(data), int64(len(data)), nil)
	return err
}

// GetObjectPropertyList reads the full property list for one object, or
// (with handle AllObjects) every object under a format/group filter.
// Callers may pass WithValueDecoder to plug in a custom value decoder, and
// WithUnexpectedPropertyWarning(propCode, fn) to be notified of any element
// the device reports outside that filter; such elements are still included
// in the returned list either way, never dropped.
func (s *Session) GetObjectPropertyList(ctx context.Context, handle ObjectId, formatCode uint16, propCode uint32, propGroup uint32, depth uint32, opts ...PropertyListOption) ([]PropertyElement, error) {
	buf := &bytes.Buffer{}
	params := []uint32{uint32(handle), uint32(formatCode), uint32(propCode), propGroup, depth}
	if _, err := s.request(ctx, OC_MTP_GetObjectPropList, params, nil, 0, buf); err != nil {
		return nil, err
	}
	return decodePropertyList(buf.Bytes(), opts...)
}

// SetObjectPropertyList writes a batch of property assignments in one
// transaction.
func (s *Session) SetObjectPropertyList(ctx context.Context, elems []PropertyElement) error {
	data, err := encodePropertyList(elems)
	if err != nil {
		return err
	}
	_, err = s.request(ctx, OC_MTP_SetObjectPropList, nil, bytes.NewReader(data), int64(len(data)), nil)
	return err
}

// SendObjectPropList creates a new object from a property list instead of
// the classic SendObjectInfo/SendObject pairing, as the Zune library
// coordinator does for artist, album and track objects. It returns the
// assigned storage and object handle; the parent handle the device reports
// is not returned.
func (s *Session) SendObjectPropList(ctx context.Context, storage StorageId, parent ObjectId, formatCode uint16, size uint64, elems []PropertyElement) (StorageId, ObjectId, error) {
	data, err := encodePropertyList(elems)
	if err != nil {
		return 0, 0, err
	}
	params := []uint32{
		uint32(storage), uint32(parent), uint32(formatCode),
		uint32(size), uint32(size >> 32),
	}
	resp, err := s.request(ctx, OC_MTP_SendObjectPropList, params, bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return 0, 0, err
	}
	if len(resp.Param) < 3 {
		return 0, 0, ResponseError{Code: RC_NoValidObjectInfo}
	}
	return StorageId(resp.Param[0]), ObjectId(resp.Param[2]), nil
}

// GetObjectReferences returns the object handles referenced by handle, used
// to link tracks to their album and artist objects.
func (s *Session) GetObjectReferences(ctx context.Context, handle ObjectId) ([]ObjectId, error) {
	buf := &bytes.Buffer{}
	if _, err := s.request(ctx, OC_MTP_GetObjectReferences, []uint32{uint32(handle)}, nil, 0, buf); err != nil {
		return nil, err
	}
	var ids wire.Uint32Array
	if err := wire.Decode(buf, &ids); err != nil {
		return nil, err
	}
	out := make([]ObjectId, len(ids.Values))
	for i, v := range ids.Values {
		out[i] = ObjectId(v)
	}
	return out, nil
}

// SetObjectReferences replaces the set of object handles referenced by
// handle.
func (s *Session) SetObjectReferences(ctx context.Context, handle ObjectId, refs []ObjectId) error {
	buf := &bytes.Buffer{}
	arr := wire.Uint32Array{Values: make([]uint32, len(refs))}
	for i, r := range refs {
		arr.Values[i] = uint32(r)
	}
	if err := wire.Encode(buf, &arr); err != nil {
		return err
	}
	_, err := s.request(ctx, OC_MTP_SetObjectReferences, []uint32{uint32(handle)}, buf, int64(buf.Len()), nil)
	return err
}

// GetObjectStringProperty is a convenience wrapper over GetObjectProperty
// for the common case of a String-typed object property.
func (s *Session) GetObjectStringProperty(ctx context.Context, handle ObjectId, propCode uint16) (string, error) {
	v, err := s.GetObjectProperty(ctx, handle, propCode, wire.DTC_STR)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// GetDevicePropDesc fetches a device property's full descriptor, including
// its current and factory-default value and, for enumerated or ranged
// properties, its allowed-value form.
func (s *Session) GetDevicePropDesc(ctx context.Context, propCode uint16) (*wire.DevicePropDesc, error) {
	buf := &bytes.Buffer{}
	if _, err := s.request(ctx, OC_GetDevicePropDesc, []uint32{uint32(propCode)}, nil, 0, buf); err != nil {
		return nil, err
	}
	desc := &wire.DevicePropDesc{}
	if err := desc.Decode(buf); err != nil {
		return nil, err
	}
	return desc, nil
}

// GetDeviceProperty reads a single typed device property value.
func (s *Session) GetDeviceProperty(ctx context.Context, propCode uint16, code wire.DataTypeCode) (interface{}, error) {
	buf := &bytes.Buffer{}
	if _, err := s.request(ctx, OC_GetDevicePropValue, []uint32{uint32(propCode)}, nil, 0, buf); err != nil {
		return nil, err
	}
	val, _, err := wire.DecodeValue(code, buf.Bytes())
	return val, err
}

// SetDeviceProperty writes a single typed device property value.
func (s *Session) SetDeviceProperty(ctx context.Context, propCode uint16, code wire.DataTypeCode, value interface{}) error {
	data, err := wire.EncodeValue(code, value)
	if err != nil {
		return err
	}
	_, err = s.request(ctx, OC_SetDevicePropValue, []uint32{uint32(propCode)}, bytes.NewReader(data), int64(len(data)), nil)
	return err
}

// SetSyncPartnerGUID writes the SynchronizationPartner (0xD401) property,
// the first half of the WiFi pairing / PC-identity handshake.
func (s *Session) SetSyncPartnerGUID(ctx context.Context, guid string) error {
	return s.SetDeviceProperty(ctx, DPC_SynchronizationPartner, wire.DTC_STR, guid)
}

// SetPCGUID writes the Zune PC GUID (0xD220) property.
func (s *Session) SetPCGUID(ctx context.Context, guid string) error {
	return s.SetDeviceProperty(ctx, DPC_ZUNE_PCGUID, wire.DTC_STR, guid)
}

// VerifyPCGUID reads back the Zune PC GUID (0xD220) property after SetPCGUID
// and reports its encoded byte length. The device tooling this client
// mirrors does this purely as a write-then-confirm step; it never compares
// the decoded string against what was written.
func (s *Session) VerifyPCGUID(ctx context.Context) (int, error) {
	buf := &bytes.Buffer{}
	if _, err := s.request(ctx, OC_GetDevicePropValue, []uint32{DPC_ZUNE_PCGUID}, nil, 0, buf); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

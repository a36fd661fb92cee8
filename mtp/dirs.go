package mtp

import (
	"bytes"
	"context"
)

// CreateDirectory sends a zero-length Association object, the classic
// SendObjectInfo/SendObject pairing used to create a folder. Devices that
// require a storage id (rather than accepting AllStorages) are why this
// takes one explicitly instead of letting the device choose.
func (s *Session) CreateDirectory(ctx context.Context, name string, parent ObjectId, storage StorageId) (ObjectId, error) {
	info := &ObjectInfo{
		ObjectFormat:    OFC_Association,
		AssociationType: 0x0001, // generic folder
		ParentObject:    uint32(parent),
		Filename:        name,
	}
	_, _, handle, err := s.SendObjectInfo(ctx, storage, parent, info)
	if err != nil {
		return 0, err
	}
	if err := s.SendObject(ctx, bytes.NewReader(nil), 0); err != nil {
		return 0, err
	}
	return handle, nil
}

package mtp

import (
	"context"
	"io"
)

// UploadFile creates a new object from r under parent/storage, the classic
// SendObjectInfo/SendObject pairing CreateDirectory also uses for folders.
// If parent already has a child named info.Filename, that object is deleted
// first; if the delete fails, the upload aborts without ever calling
// SendObjectInfo, rather than risk leaving two objects with the same name.
func (s *Session) UploadFile(ctx context.Context, storage StorageId, parent ObjectId, info *ObjectInfo, r io.Reader, size int64) (ObjectId, error) {
	if err := s.deleteNameCollision(ctx, storage, parent, info.Filename); err != nil {
		return 0, err
	}
	_, _, handle, err := s.SendObjectInfo(ctx, storage, parent, info)
	if err != nil {
		return 0, err
	}
	if err := s.SendObject(ctx, r, size); err != nil {
		return 0, err
	}
	return handle, nil
}

// deleteNameCollision lists parent's children and deletes the one (if any)
// whose Filename matches name, so a subsequent SendObjectInfo never collides
// with a stale object left over from a previous upload under that name.
func (s *Session) deleteNameCollision(ctx context.Context, storage StorageId, parent ObjectId, name string) error {
	handles, err := s.GetObjectHandles(ctx, storage, ObjectFormatAny, parent)
	if err != nil {
		return err
	}
	for _, h := range handles {
		info, err := s.GetObjectInfo(ctx, h)
		if err != nil {
			return err
		}
		if info.Filename == name {
			return s.DeleteObject(ctx, h)
		}
	}
	return nil
}

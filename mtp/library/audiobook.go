package library

import (
	"context"

	"github.com/gomtp/mtpcore/mtp"
	"github.com/gomtp/mtpcore/mtp/wire"
)

const unknownAuthor = "UnknownAuthor"

// GetAudiobook returns the cached audiobook by author and name, or nil.
func (l *Library) GetAudiobook(author, name string) *Audiobook {
	return l.audiobooks[author+"\x00"+name]
}

// CreateAudiobook creates an audiobook object under the Audiobooks/ folder,
// caches it, and returns it.
func (l *Library) CreateAudiobook(ctx context.Context, author, name string, year int) (*Audiobook, error) {
	if author == "" {
		author = unknownAuthor
	}
	if name == "" {
		name = unknownAlbum
	}
	if existing := l.GetAudiobook(author, name); existing != nil {
		return existing, nil
	}

	elems := []mtp.PropertyElement{
		{PropertyCode: mtp.OPC_Artist, DataType: wire.DTC_STR, Value: author},
		{PropertyCode: mtp.OPC_Name, DataType: wire.DTC_STR, Value: name},
		{PropertyCode: mtp.OPC_ObjectFileName, DataType: wire.DTC_STR, Value: author + "--" + name + ".alb"},
	}
	if year != 0 && l.albumDateAuthoredSupported {
		elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_DateAuthored, DataType: wire.DTC_STR, Value: formatYear(year)})
	}

	id, err := l.sendPropListObject(ctx, l.storage, l.audiobooksFolder, mtp.OFC_MTP_AbstractAudioAlbum, elems)
	if err != nil {
		return nil, err
	}

	book := &Audiobook{
		ID:                id,
		AudiobookFolderID: l.audiobooksFolder,
		Name:              name,
		Author:            author,
		Year:              year,
		Refs:              map[mtp.ObjectId]bool{},
		Tracks:            map[string][]int{},
	}
	l.audiobooks[author+"\x00"+name] = book
	return book, nil
}

// CreateAudiobookTrack creates a chapter/track object under book's folder.
func (l *Library) CreateAudiobookTrack(ctx context.Context, book *Audiobook, name string, index int) (*NewTrackInfo, error) {
	elems := []mtp.PropertyElement{
		{PropertyCode: mtp.OPC_Artist, DataType: wire.DTC_STR, Value: book.Author},
		{PropertyCode: mtp.OPC_Name, DataType: wire.DTC_STR, Value: name},
	}
	if index != 0 {
		elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_Track, DataType: wire.DTC_UINT16, Value: uint16(index)})
	}
	elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_ObjectFileName, DataType: wire.DTC_STR, Value: name})

	id, err := l.sendPropListObject(ctx, l.storage, book.AudiobookFolderID, 0, elems)
	if err != nil {
		return nil, err
	}
	return &NewTrackInfo{ID: id, Name: name, Index: index}, nil
}

// LoadAudiobookRefs mirrors LoadRefs for an Audiobook.
func (l *Library) LoadAudiobookRefs(ctx context.Context, book *Audiobook) error {
	refs, err := l.session.GetObjectReferences(ctx, book.ID)
	if err != nil {
		return err
	}
	book.Refs = make(map[mtp.ObjectId]bool, len(refs))
	book.Tracks = map[string][]int{}
	for _, ref := range refs {
		book.Refs[ref] = true
		name, err := l.session.GetObjectStringProperty(ctx, ref, mtp.OPC_Name)
		if err != nil {
			return err
		}
		idx := 0
		if v, err := l.session.GetObjectProperty(ctx, ref, mtp.OPC_Track, wire.DTC_UINT16); err == nil {
			if u, ok := v.(uint16); ok {
				idx = int(u)
			}
		}
		book.Tracks[name] = append(book.Tracks[name], idx)
	}
	book.RefsLoaded = true
	return nil
}

// AddAudiobookTrack appends trackID to book's reference list, mirroring
// AddTrack.
func (l *Library) AddAudiobookTrack(ctx context.Context, book *Audiobook, trackID mtp.ObjectId) error {
	if !book.RefsLoaded {
		if err := l.LoadAudiobookRefs(ctx, book); err != nil {
			return err
		}
	}
	refs := make([]mtp.ObjectId, 0, len(book.Refs)+1)
	for ref := range book.Refs {
		refs = append(refs, ref)
	}
	refs = append(refs, trackID)
	if err := l.session.SetObjectReferences(ctx, book.ID, refs); err != nil {
		return err
	}
	book.Refs[trackID] = true
	return nil
}

// AddAudiobookTrackCover writes cover art onto a single chapter/track
// object, the audiobook equivalent of AddCover (which targets the album
// object itself).
func (l *Library) AddAudiobookTrackCover(ctx context.Context, trackID mtp.ObjectId, jpegData []byte) error {
	if !l.albumCoverSupported {
		return LibraryError{Op: "AddAudiobookTrackCover", Reason: "device does not support RepresentativeSampleData"}
	}
	return l.session.SetObjectProperty(ctx, trackID, mtp.OPC_RepresentativeSampleData, wire.DTC_ARRAYU8, jpegData)
}

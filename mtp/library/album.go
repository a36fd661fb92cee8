package library

import (
	"context"

	"github.com/gomtp/mtpcore/mtp"
	"github.com/gomtp/mtpcore/mtp/wire"
)

// GetAlbum returns the cached album by artist and name, or nil.
func (l *Library) GetAlbum(artist *Artist, name string) *Album {
	return l.albums[albumKey{artist: artist, name: name}]
}

// CreateAlbum creates an album object under the Albums/ folder, plus a
// folder for it under artist's music folder, caches it, and returns it.
// year is optional; pass 0 to omit DateAuthored (or when the device doesn't
// support it, in which case it's omitted anyway).
func (l *Library) CreateAlbum(ctx context.Context, artist *Artist, name string, year int) (*Album, error) {
	if name == "" {
		name = unknownAlbum
	}
	if existing := l.GetAlbum(artist, name); existing != nil {
		return existing, nil
	}

	elems := []mtp.PropertyElement{}
	if l.artistSupported {
		elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_ArtistId, DataType: wire.DTC_UINT32, Value: uint32(artist.ID)})
	} else {
		elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_Artist, DataType: wire.DTC_STR, Value: artist.Name})
	}
	elems = append(elems,
		mtp.PropertyElement{PropertyCode: mtp.OPC_Name, DataType: wire.DTC_STR, Value: name},
		mtp.PropertyElement{PropertyCode: mtp.OPC_ObjectFileName, DataType: wire.DTC_STR, Value: artist.Name + "--" + name + ".alb"},
	)
	if year != 0 && l.albumDateAuthoredSupported {
		elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_DateAuthored, DataType: wire.DTC_STR, Value: formatYear(year)})
	}

	id, err := l.sendPropListObject(ctx, l.storage, l.albumsFolder, mtp.OFC_MTP_AbstractAudioAlbum, elems)
	if err != nil {
		return nil, err
	}

	musicFolderID, err := l.session.CreateDirectory(ctx, name, artist.MusicFolderID, l.storage)
	if err != nil {
		return nil, err
	}

	album := &Album{
		ID:            id,
		MusicFolderID: musicFolderID,
		Artist:        artist,
		Name:          name,
		Year:          year,
		Refs:          map[mtp.ObjectId]bool{},
		Tracks:        map[string][]int{},
	}
	l.albums[albumKey{artist: artist, name: name}] = album
	return album, nil
}

func formatYear(year int) string {
	const digits = "0123456789"
	if year <= 0 {
		return "0000"
	}
	b := [4]byte{}
	for i := 3; i >= 0; i-- {
		b[i] = digits[year%10]
		year /= 10
	}
	return string(b[:])
}

// HasTrack reports whether album already has a track by this name, loading
// its references first if necessary.
func (l *Library) HasTrack(ctx context.Context, album *Album, name string) (bool, error) {
	if !album.RefsLoaded {
		if err := l.LoadRefs(ctx, album); err != nil {
			return false, err
		}
	}
	_, ok := album.Tracks[name]
	return ok, nil
}

// CreateTrack creates a track object attributed to album's artist, inside
// album's music folder. It does not add the track to album's reference
// list; call AddTrack for that.
func (l *Library) CreateTrack(ctx context.Context, album *Album, name string, index int, genre string) (*NewTrackInfo, error) {
	elems := []mtp.PropertyElement{}
	if l.artistSupported {
		elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_ArtistId, DataType: wire.DTC_UINT32, Value: uint32(album.Artist.ID)})
	} else {
		elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_Artist, DataType: wire.DTC_STR, Value: album.Artist.Name})
	}
	elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_Name, DataType: wire.DTC_STR, Value: name})
	if index != 0 {
		elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_Track, DataType: wire.DTC_UINT16, Value: uint16(index)})
	}
	if genre != "" {
		elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_Genre, DataType: wire.DTC_STR, Value: genre})
	}
	elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_ObjectFileName, DataType: wire.DTC_STR, Value: name})

	id, err := l.sendPropListObject(ctx, l.storage, album.MusicFolderID, 0, elems)
	if err != nil {
		return nil, err
	}
	return &NewTrackInfo{ID: id, Name: name, Index: index}, nil
}

// LoadRefs loads album's object references from the device and rebuilds its
// Tracks index (track name -> the indices under which it appears).
func (l *Library) LoadRefs(ctx context.Context, album *Album) error {
	refs, err := l.session.GetObjectReferences(ctx, album.ID)
	if err != nil {
		return err
	}
	album.Refs = make(map[mtp.ObjectId]bool, len(refs))
	album.Tracks = map[string][]int{}
	for _, ref := range refs {
		album.Refs[ref] = true
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
		album.Tracks[name] = append(album.Tracks[name], idx)
	}
	album.RefsLoaded = true
	return nil
}

// AddTrack appends trackID to album's reference list and rewrites the full
// list on the device (SetObjectReferences has no incremental form).
func (l *Library) AddTrack(ctx context.Context, album *Album, trackID mtp.ObjectId) error {
	if !album.RefsLoaded {
		if err := l.LoadRefs(ctx, album); err != nil {
			return err
		}
	}
	refs := make([]mtp.ObjectId, 0, len(album.Refs)+1)
	for ref := range album.Refs {
		refs = append(refs, ref)
	}
	refs = append(refs, trackID)
	if err := l.session.SetObjectReferences(ctx, album.ID, refs); err != nil {
		return err
	}
	album.Refs[trackID] = true
	return nil
}

// AddCover writes album art to album's RepresentativeSampleData property.
// A no-op error if the device doesn't advertise that property for albums.
func (l *Library) AddCover(ctx context.Context, album *Album, jpegData []byte) error {
	if !l.albumCoverSupported {
		return LibraryError{Op: "AddCover", Reason: "device does not support RepresentativeSampleData on albums"}
	}
	return l.session.SetObjectProperty(ctx, album.ID, mtp.OPC_RepresentativeSampleData, wire.DTC_ARRAYU8, jpegData)
}

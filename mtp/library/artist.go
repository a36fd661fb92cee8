package library

import (
	"bytes"
	"context"

	"github.com/gomtp/mtpcore/mtp"
	"github.com/gomtp/mtpcore/mtp/wire"
)

// GetArtist returns the cached artist by name, or nil if none has been
// loaded or created under that name yet.
func (l *Library) GetArtist(name string) *Artist {
	return l.artists[name]
}

// CreateArtist creates an artist object (and its Music/<name> subfolder) on
// the device, caches it, and returns it. guid may be empty; if non-empty and
// l.opts.EnableGUIDArtifact is set, CreateArtist also attempts to create the
// Zune metadata-artist object (format 0xB218) carrying that GUID.
func (l *Library) CreateArtist(ctx context.Context, name string, guid string) (*Artist, error) {
	if name == "" {
		name = unknownArtist
	}
	if existing := l.GetArtist(name); existing != nil {
		return existing, nil
	}

	var parsedGUID []byte
	if guid != "" {
		g, err := parseGUID(guid)
		if err != nil {
			return nil, err
		}
		parsedGUID = g
	}

	// Devices without the Artist object format still get a Music/<name>
	// folder for album attribution to hang off of; they just never get a
	// standalone artist object (ArtistId has no meaning there).
	var id mtp.ObjectId
	if l.artistSupported {
		elems := []mtp.PropertyElement{
			{PropertyCode: mtp.OPC_Name, DataType: wire.DTC_STR, Value: name},
			{PropertyCode: mtp.OPC_ObjectFileName, DataType: wire.DTC_STR, Value: name + ".art"},
		}
		if parsedGUID != nil {
			var guidArr [16]byte
			copy(guidArr[:], parsedGUID)
			elems = append(elems, mtp.PropertyElement{PropertyCode: mtp.OPC_ZUNE_ArtistGUID, DataType: wire.DTC_UINT128, Value: guidArr})
		}
		var err error
		id, err = l.sendPropListObject(ctx, l.storage, mtp.RootObject, mtp.OFC_MTP_Artist, elems)
		if err != nil {
			return nil, err
		}
	}

	musicFolderID, err := l.session.CreateDirectory(ctx, name, l.musicFolder, l.storage)
	if err != nil {
		return nil, err
	}

	artist := &Artist{ID: id, MusicFolderID: musicFolderID, Name: name, GUID: parsedGUID}

	if parsedGUID != nil && l.opts.EnableGUIDArtifact {
		if err := l.createGUIDArtifact(ctx, name, parsedGUID); err != nil {
			return nil, err
		}
	}

	l.artists[name] = artist
	return artist, nil
}

// createGUIDArtifact uploads the Zune metadata-artist object (format
// 0xB218): a single object carrying the artist's name and GUID under four
// fixed property codes. The four GetObjectPropDesc probes are best-effort;
// devices that don't support a given code on this format are tolerated.
func (l *Library) createGUIDArtifact(ctx context.Context, name string, guid []byte) error {
	var guidArr [16]byte
	copy(guidArr[:], guid)

	probeCodes := []uint16{mtp.OPC_ZUNE_CollectionID, mtp.OPC_ObjectFileName, mtp.OPC_ZUNE_ArtistGUID, mtp.OPC_Name}
	for _, code := range probeCodes {
		_, _ = l.session.GetObjectPropDesc(ctx, code, mtp.OFC_ZUNE_ArtistMetadata)
	}

	elems := []mtp.PropertyElement{
		{PropertyCode: mtp.OPC_ZUNE_CollectionID, DataType: wire.DTC_UINT8, Value: uint8(0)},
		{PropertyCode: mtp.OPC_ObjectFileName, DataType: wire.DTC_STR, Value: name + ".art"},
		{PropertyCode: mtp.OPC_ZUNE_ArtistGUID, DataType: wire.DTC_UINT128, Value: guidArr},
		{PropertyCode: mtp.OPC_Name, DataType: wire.DTC_STR, Value: name},
	}
	id, err := l.sendPropListObject(ctx, l.storage, l.artistsFolder, mtp.OFC_ZUNE_ArtistMetadata, elems)
	if err != nil {
		return err
	}

	// Verify the device actually stored what was sent; tolerate failure,
	// this step exists only to surface device-side discrepancies early.
	_, _ = l.session.GetObjectPropertyList(ctx, id, 0, mtp.OPC_All, 0, 1)
	return nil
}

// UpdateArtistGuid reassigns an in-memory artist's GUID without writing
// anything to the device. Matches the asymmetry in the coordinator this was
// ported from: GUIDs are pushed only at creation time.
func (l *Library) UpdateArtistGuid(name string, guid string) error {
	artist := l.GetArtist(name)
	if artist == nil {
		return LibraryError{Op: "UpdateArtistGuid", Reason: "no such artist: " + name}
	}
	g, err := parseGUID(guid)
	if err != nil {
		return err
	}
	artist.GUID = g
	return nil
}

// ValidateArtistGuid tolerantly probes the device-side registration
// operation for an artist's track, by track name. A no-op when the device
// doesn't support artists or the artist has no GUID; any device error is
// swallowed, since this operation's purpose is best-effort registration,
// not a correctness gate.
func (l *Library) ValidateArtistGuid(ctx context.Context, artist *Artist, trackName string) {
	if !l.artistSupported || artist == nil || len(artist.GUID) == 0 {
		return
	}
	data, err := wire.EncodeValue(wire.DTC_STR, trackName)
	if err != nil {
		return
	}
	_, _ = l.session.RunTransaction(ctx, mtp.OC_ZUNE_ValidateArtistGuid, nil, bytes.NewReader(data), int64(len(data)), nil)
}

// GetAlbumsByArtist returns every cached album currently attributed to
// artist.
func (l *Library) GetAlbumsByArtist(artist *Artist) []*Album {
	var out []*Album
	for k, album := range l.albums {
		if k.artist == artist {
			out = append(out, album)
		}
	}
	return out
}

// UpdateAlbumArtist reassigns album to a new artist in the index and writes
// the corresponding ArtistId/Artist property on the device.
func (l *Library) UpdateAlbumArtist(ctx context.Context, album *Album, newArtist *Artist) error {
	if album == nil || newArtist == nil {
		return LibraryError{Op: "UpdateAlbumArtist", Reason: "album and newArtist must be non-nil"}
	}
	oldKey := albumKey{artist: album.Artist, name: album.Name}
	if err := l.setAlbumArtistProperty(ctx, album, newArtist); err != nil {
		return err
	}
	delete(l.albums, oldKey)
	album.Artist = newArtist
	l.albums[albumKey{artist: newArtist, name: album.Name}] = album
	return nil
}

func (l *Library) setAlbumArtistProperty(ctx context.Context, album *Album, artist *Artist) error {
	if l.artistSupported {
		return l.session.SetObjectProperty(ctx, album.ID, mtp.OPC_ArtistId, wire.DTC_UINT32, uint32(artist.ID))
	}
	return l.session.SetObjectProperty(ctx, album.ID, mtp.OPC_Artist, wire.DTC_STR, artist.Name)
}

// GetTracksForAlbum returns the track indices recorded for a given track
// name within album, loading its references first if necessary.
func (l *Library) GetTracksForAlbum(ctx context.Context, album *Album, trackName string) ([]int, error) {
	if !album.RefsLoaded {
		if err := l.LoadRefs(ctx, album); err != nil {
			return nil, err
		}
	}
	return album.Tracks[trackName], nil
}

// UpdateTrackArtist rewrites a track object's Artist/ArtistId property to
// match artist, mirroring the device-side half of UpdateAlbumArtist.
func (l *Library) UpdateTrackArtist(ctx context.Context, trackID mtp.ObjectId, artist *Artist) error {
	if l.artistSupported {
		return l.session.SetObjectProperty(ctx, trackID, mtp.OPC_ArtistId, wire.DTC_UINT32, uint32(artist.ID))
	}
	return l.session.SetObjectProperty(ctx, trackID, mtp.OPC_Artist, wire.DTC_STR, artist.Name)
}

package library

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/gomtp/mtpcore/mtp"
	"github.com/gomtp/mtpcore/mtp/wire"
)

const (
	unknownArtist = "UknownArtist"
	unknownAlbum  = "UknownAlbum"

	// maxConcurrentArtistLoads bounds how many artist folder/GUID probes run
	// concurrently while New loads an existing library. Each probe still
	// serializes on the session's single transaction stream, so this bounds
	// goroutine/memory overhead on large libraries rather than buying real
	// transport parallelism.
	maxConcurrentArtistLoads = 4
)

// Library maintains an in-memory index of a device's artists, albums and
// audiobooks, and the folder ids that back them, for the lifetime of the
// Session it was built from.
type Library struct {
	session *mtp.Session
	storage mtp.StorageId
	opts    Options

	artistsFolder    mtp.ObjectId
	albumsFolder      mtp.ObjectId
	musicFolder       mtp.ObjectId
	audiobooksFolder  mtp.ObjectId

	artistSupported              bool
	albumDateAuthoredSupported   bool
	albumCoverSupported          bool

	artists    map[string]*Artist
	albums     map[albumKey]*Album
	audiobooks map[string]*Audiobook
}

// Supported reports whether the device advertises the operations and
// formats this coordinator depends on: GetObjectPropList,
// SendObjectPropList, SetObjectReferences, and the AbstractAudioAlbum
// object format.
func Supported(ctx context.Context, session *mtp.Session) (bool, error) {
	info, err := session.GetDeviceInfo(ctx)
	if err != nil {
		return false, err
	}
	return info.SupportsOperation(mtp.OC_MTP_GetObjectPropList) &&
		info.SupportsOperation(mtp.OC_MTP_SendObjectPropList) &&
		info.SupportsOperation(mtp.OC_MTP_SetObjectReferences) &&
		info.SupportsFormat(mtp.OFC_MTP_AbstractAudioAlbum), nil
}

// New builds a Library from an opened session: picks the first storage,
// probes Artist-format and album-property support, resolves the three
// (four, with audiobooks) top-level folders, and loads every existing
// artist and album. progress, if non-nil, receives phase transitions.
func New(ctx context.Context, session *mtp.Session, opts Options, progress ProgressFunc) (*Library, error) {
	if progress == nil {
		progress = func(Phase, int, int) {}
	}

	storages, err := session.GetStorageIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(storages) == 0 {
		return nil, LibraryError{Op: "New", Reason: "no storages found"}
	}

	l := &Library{
		session:    session,
		storage:    mtp.StorageId(storages[0]),
		opts:       opts,
		artists:    map[string]*Artist{},
		albums:     map[albumKey]*Album{},
		audiobooks: map[string]*Audiobook{},
	}

	progress(PhaseInitialising, 0, 0)

	info, err := session.GetDeviceInfo(ctx)
	if err != nil {
		return nil, err
	}
	l.artistSupported = info.SupportsFormat(mtp.OFC_MTP_Artist)

	propsSupported, err := session.GetObjectPropsSupported(ctx, mtp.OFC_MTP_AbstractAudioAlbum)
	if err != nil {
		return nil, err
	}
	l.albumDateAuthoredSupported = hasProp(propsSupported, mtp.OPC_DateAuthored)
	l.albumCoverSupported = hasProp(propsSupported, mtp.OPC_RepresentativeSampleData)

	// Zune devices refuse to create artist/album objects without an
	// explicit storage id, so every folder and object creation below is
	// pinned to l.storage rather than AllStorages.
	rootAssoc, err := l.listAssociations(ctx, mtp.RootObject)
	if err != nil {
		return nil, err
	}
	if id, ok := rootAssoc["Artists"]; ok {
		l.artistsFolder = id
	}
	if id, ok := rootAssoc["Albums"]; ok {
		l.albumsFolder = id
	}
	if id, ok := rootAssoc["Music"]; ok {
		l.musicFolder = id
	}
	if id, ok := rootAssoc["Audiobooks"]; ok {
		l.audiobooksFolder = id
	}

	if l.artistSupported && l.artistsFolder == 0 {
		id, err := session.CreateDirectory(ctx, "Artists", mtp.RootObject, l.storage)
		if err != nil {
			return nil, err
		}
		l.artistsFolder = id
	}
	if l.albumsFolder == 0 {
		id, err := session.CreateDirectory(ctx, "Albums", mtp.RootObject, l.storage)
		if err != nil {
			return nil, err
		}
		l.albumsFolder = id
	}
	if l.musicFolder == 0 {
		id, err := session.CreateDirectory(ctx, "Music", mtp.RootObject, l.storage)
		if err != nil {
			return nil, err
		}
		l.musicFolder = id
	}
	if l.audiobooksFolder == 0 {
		id, err := session.CreateDirectory(ctx, "Audiobooks", mtp.RootObject, l.storage)
		if err != nil {
			return nil, err
		}
		l.audiobooksFolder = id
	}

	musicFolders, err := l.listAssociations(ctx, l.musicFolder)
	if err != nil {
		return nil, err
	}

	var artistElems, albumElems []mtp.PropertyElement
	if l.artistSupported {
		progress(PhaseQueryingArtists, 0, 0)
		artistElems, err = session.GetObjectPropertyList(ctx, mtp.RootObject, mtp.OFC_MTP_Artist, mtp.OPC_Name, 0, 1)
		if err != nil {
			return nil, err
		}
	}

	progress(PhaseQueryingAlbums, 0, 0)
	albumElems, err = session.GetObjectPropertyList(ctx, mtp.RootObject, mtp.OFC_MTP_AbstractAudioAlbum, mtp.OPC_Name, 0, 1)
	if err != nil {
		return nil, err
	}

	if l.artistSupported {
		total := len(artistElems)
		loaded := make([]*Artist, total)
		sem := semaphore.NewWeighted(maxConcurrentArtistLoads)
		group, groupCtx := errgroup.WithContext(ctx)
		done := atomic.NewInt64(0)
		for i, e := range artistElems {
			i, e := i, e
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return nil, err
			}
			group.Go(func() error {
				defer sem.Release(1)
				artist, err := l.loadExistingArtist(groupCtx, e, musicFolders)
				if err != nil {
					return err
				}
				loaded[i] = artist
				progress(PhaseLoadingArtists, int(done.Inc()), total)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
		for _, artist := range loaded {
			l.artists[artist.Name] = artist
		}
		progress(PhaseLoadingArtists, total, total)
	}

	progress(PhaseLoadingAlbums, 0, len(albumElems))
	albumFolders := map[*Artist]map[string]mtp.ObjectId{}
	for i, e := range albumElems {
		name, _ := e.Value.(string)
		artistName, err := session.GetObjectStringProperty(ctx, e.ObjectHandle, mtp.OPC_Artist)
		if err != nil {
			return nil, err
		}
		var albumDate string
		if l.albumDateAuthoredSupported {
			albumDate, _ = session.GetObjectStringProperty(ctx, e.ObjectHandle, mtp.OPC_DateAuthored)
		}

		artist := l.GetArtist(artistName)
		if artist == nil {
			artist, err = l.CreateArtist(ctx, artistName, "")
			if err != nil {
				return nil, err
			}
		}

		if _, ok := albumFolders[artist]; !ok {
			sub, err := l.listAssociations(ctx, artist.MusicFolderID)
			if err != nil {
				return nil, err
			}
			albumFolders[artist] = sub
		}

		album := &Album{
			ID:     e.ObjectHandle,
			Name:   name,
			Artist: artist,
			Year:   parseYear(albumDate),
			Refs:   map[mtp.ObjectId]bool{},
			Tracks: map[string][]int{},
		}
		if id, ok := albumFolders[artist][name]; ok {
			album.MusicFolderID = id
		} else {
			id, err := session.CreateDirectory(ctx, name, artist.MusicFolderID, l.storage)
			if err != nil {
				return nil, err
			}
			album.MusicFolderID = id
		}
		l.albums[albumKey{artist: artist, name: name}] = album
		progress(PhaseLoadingAlbums, i+1, len(albumElems))
	}

	progress(PhaseQueryingAudiobooks, 0, 0)
	audiobookElems, err := session.GetObjectPropertyList(ctx, l.audiobooksFolder, mtp.OFC_MTP_AbstractAudioAlbum, mtp.OPC_Name, 0, 1)
	if err != nil {
		return nil, err
	}
	progress(PhaseLoadingAudiobooks, 0, len(audiobookElems))
	for i, e := range audiobookElems {
		name, _ := e.Value.(string)
		author, err := session.GetObjectStringProperty(ctx, e.ObjectHandle, mtp.OPC_Artist)
		if err != nil {
			return nil, err
		}
		var bookDate string
		if l.albumDateAuthoredSupported {
			bookDate, _ = session.GetObjectStringProperty(ctx, e.ObjectHandle, mtp.OPC_DateAuthored)
		}
		l.audiobooks[author+"\x00"+name] = &Audiobook{
			ID:                e.ObjectHandle,
			AudiobookFolderID: l.audiobooksFolder,
			Name:              name,
			Author:            author,
			Year:              parseYear(bookDate),
			Refs:              map[mtp.ObjectId]bool{},
			Tracks:            map[string][]int{},
		}
		progress(PhaseLoadingAudiobooks, i+1, len(audiobookElems))
	}

	progress(PhaseLoaded, 0, 0)
	return l, nil
}

// sendPropListObject creates a metadata-only object: SendObjectPropList
// followed by the empty SendObject every object creation needs, the same
// SendObjectInfo/SendObject pairing CreateDirectory uses for folders.
func (l *Library) sendPropListObject(ctx context.Context, storage mtp.StorageId, parent mtp.ObjectId, formatCode uint16, elems []mtp.PropertyElement) (mtp.ObjectId, error) {
	_, id, err := l.session.SendObjectPropList(ctx, storage, parent, formatCode, 0, elems)
	if err != nil {
		return 0, err
	}
	if err := l.session.SendObject(ctx, bytes.NewReader(nil), 0); err != nil {
		return 0, err
	}
	return id, nil
}

// loadExistingArtist resolves one already-on-device artist's music folder
// and GUID property. It touches no shared Library state, so New can run it
// for many artists concurrently, bounded by maxConcurrentArtistLoads.
func (l *Library) loadExistingArtist(ctx context.Context, e mtp.PropertyElement, musicFolders map[string]mtp.ObjectId) (*Artist, error) {
	name, _ := e.Value.(string)
	artist := &Artist{ID: e.ObjectHandle, Name: name}
	if folderID, ok := musicFolders[name]; ok {
		artist.MusicFolderID = folderID
	} else {
		folderID, err := l.session.CreateDirectory(ctx, name, l.musicFolder, l.storage)
		if err != nil {
			return nil, err
		}
		artist.MusicFolderID = folderID
	}
	if guid, err := l.session.GetObjectProperty(ctx, e.ObjectHandle, mtp.OPC_ZUNE_ArtistGUID, wire.DTC_UINT128); err == nil {
		if g, ok := guid.([16]byte); ok {
			artist.GUID = g[:]
		}
	}
	return artist, nil
}

func hasProp(props []uint16, code uint16) bool {
	for _, p := range props {
		if p == code {
			return true
		}
	}
	return false
}

func parseYear(dateAuthored string) int {
	if len(dateAuthored) < 4 {
		return 0
	}
	var y int
	if _, err := fmt.Sscanf(dateAuthored[:4], "%d", &y); err != nil {
		return 0
	}
	return y
}

// listAssociations lists the Association-format children of parent, keyed
// by their ObjectFilename.
func (l *Library) listAssociations(ctx context.Context, parent mtp.ObjectId) (map[string]mtp.ObjectId, error) {
	elems, err := l.session.GetObjectPropertyList(ctx, parent, mtp.OFC_Association, mtp.OPC_ObjectFileName, 0, 1)
	if err != nil {
		return nil, err
	}
	out := make(map[string]mtp.ObjectId, len(elems))
	for _, e := range elems {
		if name, ok := e.Value.(string); ok {
			out[name] = e.ObjectHandle
		}
	}
	return out, nil
}

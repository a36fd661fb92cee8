// Package library implements the media-library coordinator: an in-memory
// index of device-side artists, albums and audiobooks, kept consistent with
// the device's object graph through the property-list and reference
// operations in package mtp.
package library

import "github.com/gomtp/mtpcore/mtp"

// Phase marks construction progress, reported through a Library's
// ProgressFunc.
type Phase int

const (
	PhaseInitialising Phase = iota
	PhaseQueryingArtists
	PhaseLoadingArtists
	PhaseQueryingAlbums
	PhaseLoadingAlbums
	PhaseQueryingAudiobooks
	PhaseLoadingAudiobooks
	PhaseLoaded
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialising:
		return "Initialising"
	case PhaseQueryingArtists:
		return "QueryingArtists"
	case PhaseLoadingArtists:
		return "LoadingArtists"
	case PhaseQueryingAlbums:
		return "QueryingAlbums"
	case PhaseLoadingAlbums:
		return "LoadingAlbums"
	case PhaseQueryingAudiobooks:
		return "QueryingAudiobooks"
	case PhaseLoadingAudiobooks:
		return "LoadingAudiobooks"
	case PhaseLoaded:
		return "Loaded"
	default:
		return "Unknown"
	}
}

// ProgressFunc receives construction progress: the current phase, the
// number of items processed so far, and the total known for that phase (0
// until the total has been queried).
type ProgressFunc func(phase Phase, done, total int)

// Artist is one device-side artist object plus, optionally, its Zune GUID.
type Artist struct {
	ID            mtp.ObjectId
	MusicFolderID mtp.ObjectId
	Name          string
	GUID          []byte // 16 bytes, mixed-endian Windows GUID layout, or nil
}

// Album is one device-side album object and its loaded track references.
type Album struct {
	ID            mtp.ObjectId
	MusicFolderID mtp.ObjectId
	Artist        *Artist
	Name          string
	Year          int

	RefsLoaded bool
	Refs       map[mtp.ObjectId]bool
	Tracks     map[string][]int // track name -> track indices
}

// Audiobook mirrors Album but lives under the Audiobooks/ folder and keys
// off an author instead of an artist.
type Audiobook struct {
	ID                mtp.ObjectId
	AudiobookFolderID mtp.ObjectId
	Name              string
	Author            string
	Year              int

	RefsLoaded bool
	Refs       map[mtp.ObjectId]bool
	Tracks     map[string][]int
}

// NewTrackInfo is the result of CreateTrack/CreateAudiobookTrack: enough
// information for a subsequent AddTrack/AddAudiobookTrack call.
type NewTrackInfo struct {
	ID    mtp.ObjectId
	Name  string
	Index int
}

// albumKey is an Album's primary key: (artist, name).
type albumKey struct {
	artist *Artist
	name   string
}

// Options configures optional, device-idiosyncratic behavior.
type Options struct {
	// EnableGUIDArtifact controls whether CreateArtist, when given a
	// non-empty GUID, creates the Zune "metadata artist object" (format
	// 0xB218, carrying the 128-bit GUID alongside collection id, file name
	// and name properties) and probes its property descriptors before upload. Off by default: whether this object is
	// semantically required or purely a Windows-client telemetry artifact
	// is undetermined from the available sources.
	EnableGUIDArtifact bool
}

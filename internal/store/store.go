package store

import "groovy/pkg/models"

// Store persists the two independent snapshots the engine keeps: the
// library (full song records) and the playlist (an ordered list of song
// ids). The two writes are not transactional across each other; the loader
// compensates by dropping playlist ids absent from the reloaded library.
type Store interface {
	// LoadLibrary returns the saved song records. A missing resource
	// yields an empty library and a nil error.
	LoadLibrary() ([]models.Song, error)

	// SaveLibrary replaces the library snapshot.
	SaveLibrary(songs []models.Song) error

	// LoadPlaylist returns the saved playlist as song ids in play order.
	// A missing resource yields an empty playlist and a nil error.
	LoadPlaylist() ([]int, error)

	// SavePlaylist replaces the playlist snapshot.
	SavePlaylist(ids []int) error

	// Close releases any underlying resources.
	Close() error
}

package player

import (
	"math/rand"

	"groovy/internal/catalog"
	"groovy/pkg/models"
)

// Mode selects which catalog next/prev navigation walks.
type Mode string

const (
	ModeLibrary  Mode = "library"
	ModePlaylist Mode = "playlist"
)

// SortOrder selects the direction of the ordered view. Descending reverses
// the catalog so "next" follows the visual top-to-bottom traversal of a
// newest-first screen.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Navigator computes the next or previous song for the current cursor. When
// no deterministic positional successor exists it falls back to similarity
// selection against the library catalog. The random source is injected so
// the last-resort branch is testable.
type Navigator struct {
	library *catalog.Catalog
	rng     *rand.Rand
}

// NewNavigator creates a navigator over the library catalog.
func NewNavigator(library *catalog.Catalog, rng *rand.Rand) *Navigator {
	return &Navigator{library: library, rng: rng}
}

// OrderedView returns the sequence next/prev traverse: the chosen catalog's
// songs, reversed when the order is descending.
func OrderedView(c *catalog.Catalog, order SortOrder) []models.Song {
	songs := c.All()
	if order == OrderDesc {
		for i, j := 0, len(songs)-1; i < j; i, j = i+1, j-1 {
			songs[i], songs[j] = songs[j], songs[i]
		}
	}
	return songs
}

// Next returns the song after current in the view, or a similarity pick when
// current is missing from the view or already last. Returns nil when the
// view is empty or no song is current; that is a normal terminal state.
func (n *Navigator) Next(view []models.Song, current *models.Song) *models.Song {
	return n.step(view, current, +1)
}

// Prev is the mirror of Next, stepping toward the front of the view.
func (n *Navigator) Prev(view []models.Song, current *models.Song) *models.Song {
	return n.step(view, current, -1)
}

func (n *Navigator) step(view []models.Song, current *models.Song, dir int) *models.Song {
	if len(view) == 0 || current == nil {
		return nil
	}
	for i, s := range view {
		if s.ID != current.ID {
			continue
		}
		j := i + dir
		if j >= 0 && j < len(view) {
			song := view[j]
			return &song
		}
		break
	}
	// Boundary reached, or the current song was deleted from the active
	// catalog since it started playing. Both cases take the same fallback.
	return n.FindSimilar(*current)
}

// FindSimilar picks a replacement from the library: the first candidate in
// catalog order sharing the artist, else the first sharing the genre, else a
// uniformly random candidate. The current song itself is never a candidate.
func (n *Navigator) FindSimilar(current models.Song) *models.Song {
	var candidates []models.Song
	for _, s := range n.library.All() {
		if s.ID != current.ID {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	for _, s := range candidates {
		if s.Artist == current.Artist {
			song := s
			return &song
		}
	}
	for _, s := range candidates {
		if s.Genre == current.Genre {
			song := s
			return &song
		}
	}
	song := candidates[n.rng.Intn(len(candidates))]
	return &song
}

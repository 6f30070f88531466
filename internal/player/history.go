package player

import "groovy/pkg/models"

// DefaultHistoryCapacity caps the recently-played list.
const DefaultHistoryCapacity = 20

// History records recently played songs. It behaves as a bounded ring: Push
// appends and evicts the single oldest entry once the capacity is exceeded.
type History struct {
	items    []models.Song
	capacity int
}

// NewHistory creates a history with the given capacity; values below 1 fall
// back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Push appends a song, evicting the oldest entry when over capacity.
func (h *History) Push(song models.Song) {
	if len(h.items) >= h.capacity {
		h.items = h.items[1:]
	}
	h.items = append(h.items, song)
}

// All returns the history oldest-first.
func (h *History) All() []models.Song {
	out := make([]models.Song, len(h.items))
	copy(out, h.items)
	return out
}

// Recent returns the history most-recent-first, which is how the
// presentation layer displays it.
func (h *History) Recent() []models.Song {
	out := make([]models.Song, len(h.items))
	for i, s := range h.items {
		out[len(h.items)-1-i] = s
	}
	return out
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	return len(h.items)
}

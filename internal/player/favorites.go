package player

import "groovy/pkg/models"

// Favorites is a set of song ids marked by the user. Membership is
// session-only and never persisted.
type Favorites struct {
	ids map[int]struct{}
}

// NewFavorites creates an empty favorites set.
func NewFavorites() *Favorites {
	return &Favorites{ids: make(map[int]struct{})}
}

// Toggle flips membership for the id and returns the new state
// (true = now a favorite).
func (f *Favorites) Toggle(id int) bool {
	if _, ok := f.ids[id]; ok {
		delete(f.ids, id)
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

// Contains reports whether the id is a favorite.
func (f *Favorites) Contains(id int) bool {
	_, ok := f.ids[id]
	return ok
}

// Filter returns the subsequence of songs whose id is a member, preserving
// the input order.
func (f *Favorites) Filter(songs []models.Song) []models.Song {
	var out []models.Song
	for _, s := range songs {
		if f.Contains(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of favorited ids.
func (f *Favorites) Len() int {
	return len(f.ids)
}

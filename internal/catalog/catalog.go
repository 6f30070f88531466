package catalog

import (
	"strings"

	"groovy/pkg/models"
)

// node is a doubly linked list element owning one song value.
type node struct {
	song models.Song
	prev *node
	next *node
}

// Catalog is an ordered collection of songs backed by a doubly linked list.
// Iteration order is insertion order. Structural edits are O(1) once the
// node is located; lookups are O(n) by design (no index is maintained).
// Catalog is not safe for concurrent use; callers serialize access.
type Catalog struct {
	head *node
	tail *node
	size int
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Add appends a song at the tail. Duplicate id checking is the caller's
// responsibility (the library skips duplicates at load time).
func (c *Catalog) Add(song models.Song) {
	n := &node{song: song}
	if c.head == nil {
		c.head = n
		c.tail = n
	} else {
		c.tail.next = n
		n.prev = c.tail
		c.tail = n
	}
	c.size++
}

// Delete unlinks the first node carrying the given id, fixing head/tail when
// the removed node was an endpoint. Returns whether an entry was found.
func (c *Catalog) Delete(id int) bool {
	for cur := c.head; cur != nil; cur = cur.next {
		if cur.song.ID != id {
			continue
		}
		if cur.prev != nil {
			cur.prev.next = cur.next
		} else {
			c.head = cur.next
		}
		if cur.next != nil {
			cur.next.prev = cur.prev
		} else {
			c.tail = cur.prev
		}
		cur.prev = nil
		cur.next = nil
		c.size--
		return true
	}
	return false
}

// Search returns, in list order, every song whose title, artist or genre
// contains the keyword (case-insensitive substring match).
func (c *Catalog) Search(keyword string) []models.Song {
	keyword = strings.ToLower(keyword)
	var results []models.Song
	for cur := c.head; cur != nil; cur = cur.next {
		s := cur.song
		if strings.Contains(strings.ToLower(s.Title), keyword) ||
			strings.Contains(strings.ToLower(s.Artist), keyword) ||
			strings.Contains(strings.ToLower(s.Genre), keyword) {
			results = append(results, s)
		}
	}
	return results
}

// FindByID scans for a song by id.
func (c *Catalog) FindByID(id int) (models.Song, bool) {
	for cur := c.head; cur != nil; cur = cur.next {
		if cur.song.ID == id {
			return cur.song, true
		}
	}
	return models.Song{}, false
}

// All returns a snapshot of the catalog in insertion order. Mutating the
// returned slice does not affect the catalog.
func (c *Catalog) All() []models.Song {
	songs := make([]models.Song, 0, c.size)
	for cur := c.head; cur != nil; cur = cur.next {
		songs = append(songs, cur.song)
	}
	return songs
}

// Len returns the number of songs in the catalog.
func (c *Catalog) Len() int {
	return c.size
}

// NextID returns one past the highest id currently in the catalog, so ids
// stay monotonically increasing and are never reused while present.
func (c *Catalog) NextID() int {
	max := 0
	for cur := c.head; cur != nil; cur = cur.next {
		if cur.song.ID > max {
			max = cur.song.ID
		}
	}
	return max + 1
}

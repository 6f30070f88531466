package player

import "groovy/pkg/models"

// Queue is a plain FIFO of songs queued for sequential play.
type Queue struct {
	items []models.Song
}

// NewQueue creates an empty playback queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a song to the back of the queue.
func (q *Queue) Enqueue(song models.Song) {
	q.items = append(q.items, song)
}

// Dequeue removes and returns the front song. The second return value is
// false when the queue is empty; that is a normal state, not an error.
func (q *Queue) Dequeue() (models.Song, bool) {
	if len(q.items) == 0 {
		return models.Song{}, false
	}
	song := q.items[0]
	q.items = q.items[1:]
	return song, true
}

// All returns a snapshot of the queued songs in play order.
func (q *Queue) All() []models.Song {
	out := make([]models.Song, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of queued songs.
func (q *Queue) Len() int {
	return len(q.items)
}

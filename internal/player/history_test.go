package player

import (
	"fmt"
	"testing"

	"groovy/pkg/models"
)

func TestHistoryEviction(t *testing.T) {
	h := NewHistory(20)

	for i := 1; i <= 25; i++ {
		h.Push(models.Song{ID: i, Title: fmt.Sprintf("Song %d", i)})
	}

	all := h.All()
	if len(all) != 20 {
		t.Fatalf("expected exactly 20 entries after 25 pushes, got %d", len(all))
	}
	// Oldest-first internally: ids 6..25.
	for i, song := range all {
		if want := i + 6; song.ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, song.ID)
		}
	}
}

func TestHistoryRecentIsReversed(t *testing.T) {
	h := NewHistory(20)
	for i := 1; i <= 3; i++ {
		h.Push(models.Song{ID: i})
	}

	recent := h.Recent()
	for i, want := range []int{3, 2, 1} {
		if recent[i].ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, recent[i].ID)
		}
	}
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 30; i++ {
		h.Push(models.Song{ID: i})
	}
	if h.Len() != DefaultHistoryCapacity {
		t.Errorf("expected capacity %d, got %d entries", DefaultHistoryCapacity, h.Len())
	}
}


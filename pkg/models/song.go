package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Song represents a single track in the catalog. IDs are assigned by the
// library catalog on insert and are unique for as long as the song exists.
type Song struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Genre    string `json:"genre"`
	Album    string `json:"album"`
	Year     int    `json:"year,omitempty"`
	Duration string `json:"duration,omitempty"` // "M:SS" or "MM:SS"
	FilePath string `json:"file_path,omitempty"`
}

// String returns a short human-readable description of the song.
func (s Song) String() string {
	return fmt.Sprintf("%d: %s - %s (%s)", s.ID, s.Title, s.Artist, s.Genre)
}

// ParseDurationString parses a "M:SS" or "MM:SS" string into whole seconds.
// Both parts must be numeric; anything else is reported as not parseable.
func ParseDurationString(d string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(d), ":")
	if len(parts) != 2 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil || minutes < 0 {
		return 0, false
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil || seconds < 0 {
		return 0, false
	}
	return minutes*60 + seconds, true
}

// FormatSeconds renders a second count as "MM:SS", clamping negatives to zero.
func FormatSeconds(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"groovy/pkg/models"
)

// JSONStore keeps the library and playlist snapshots in two flat JSON
// files: full song records in one, an array of song ids in the other.
type JSONStore struct {
	songsPath    string
	playlistPath string
	logger       *logrus.Logger
}

// NewJSONStore creates a store over the given snapshot files.
func NewJSONStore(songsPath, playlistPath string, logger *logrus.Logger) *JSONStore {
	return &JSONStore{
		songsPath:    songsPath,
		playlistPath: playlistPath,
		logger:       logger,
	}
}

// LoadLibrary reads the library snapshot. A missing file is an empty
// library, not an error.
func (s *JSONStore) LoadLibrary() ([]models.Song, error) {
	data, err := os.ReadFile(s.songsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read library snapshot: %w", err)
	}

	var songs []models.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("failed to parse library snapshot: %w", err)
	}
	return songs, nil
}

// SaveLibrary replaces the library snapshot.
func (s *JSONStore) SaveLibrary(songs []models.Song) error {
	if songs == nil {
		songs = []models.Song{}
	}
	data, err := json.MarshalIndent(songs, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode library snapshot: %w", err)
	}
	return s.writeFile(s.songsPath, data)
}

// LoadPlaylist reads the playlist snapshot: a flat array of song ids.
func (s *JSONStore) LoadPlaylist() ([]int, error) {
	data, err := os.ReadFile(s.playlistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read playlist snapshot: %w", err)
	}

	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse playlist snapshot: %w", err)
	}
	return ids, nil
}

// SavePlaylist replaces the playlist snapshot.
func (s *JSONStore) SavePlaylist(ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	data, err := json.MarshalIndent(ids, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode playlist snapshot: %w", err)
	}
	return s.writeFile(s.playlistPath, data)
}

// Close is a no-op for the file-backed store.
func (s *JSONStore) Close() error {
	return nil
}

// writeFile writes through a temp file and rename so readers never observe
// a partially written snapshot.
func (s *JSONStore) writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":  path,
		"bytes": len(data),
	}).Debug("Snapshot written")
	return nil
}

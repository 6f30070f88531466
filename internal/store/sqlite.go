package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"groovy/pkg/models"
)

// SQLiteStore keeps the snapshots in a single SQLite database instead of
// flat files. Save semantics match the JSON store: each save replaces the
// whole snapshot, transactionally.
type SQLiteStore struct {
	conn   *sql.DB
	logger *logrus.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// snapshot tables exist. Caller should Close() it when finished.
func NewSQLiteStore(dbPath string, logger *logrus.Logger) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Snapshot writes are whole-table replaces; one connection avoids
	// writer contention entirely.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	s := &SQLiteStore{conn: conn, logger: logger}
	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.WithField("db_path", dbPath).Info("Snapshot database initialized")
	return s, nil
}

// createTables creates the snapshot tables if they do not already exist.
// Positions record insertion order, which the catalog preserves.
func (s *SQLiteStore) createTables() error {
	songsTable := `
	CREATE TABLE IF NOT EXISTS songs (
		position INTEGER PRIMARY KEY,
		id INTEGER NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		genre TEXT NOT NULL,
		album TEXT NOT NULL,
		year INTEGER DEFAULT 0,
		duration TEXT,
		file_path TEXT
	);`

	playlistTable := `
	CREATE TABLE IF NOT EXISTS playlist_entries (
		position INTEGER PRIMARY KEY,
		song_id INTEGER NOT NULL
	);`

	for _, table := range []string{songsTable, playlistTable} {
		if _, err := s.conn.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

// LoadLibrary returns the saved song records in insertion order.
func (s *SQLiteStore) LoadLibrary() ([]models.Song, error) {
	rows, err := s.conn.Query(`
		SELECT id, title, artist, genre, album, year, duration, file_path
		FROM songs
		ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		var song models.Song
		var duration, filePath sql.NullString
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.Genre,
			&song.Album, &song.Year, &duration, &filePath); err != nil {
			return nil, err
		}
		song.Duration = duration.String
		song.FilePath = filePath.String
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// SaveLibrary replaces the library snapshot in a single transaction.
func (s *SQLiteStore) SaveLibrary(songs []models.Song) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin library save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM songs"); err != nil {
		return fmt.Errorf("failed to clear library snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO songs (position, id, title, artist, genre, album, year, duration, file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare library insert: %w", err)
	}
	defer stmt.Close()

	for i, song := range songs {
		if _, err := stmt.Exec(i, song.ID, song.Title, song.Artist, song.Genre,
			song.Album, song.Year, song.Duration, song.FilePath); err != nil {
			return fmt.Errorf("failed to insert song %d: %w", song.ID, err)
		}
	}
	return tx.Commit()
}

// LoadPlaylist returns the saved playlist ids in play order.
func (s *SQLiteStore) LoadPlaylist() ([]int, error) {
	rows, err := s.conn.Query("SELECT song_id FROM playlist_entries ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SavePlaylist replaces the playlist snapshot in a single transaction.
func (s *SQLiteStore) SavePlaylist(ids []int) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin playlist save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM playlist_entries"); err != nil {
		return fmt.Errorf("failed to clear playlist snapshot: %w", err)
	}
	for i, id := range ids {
		if _, err := tx.Exec(
			"INSERT INTO playlist_entries (position, song_id) VALUES (?, ?)", i, id); err != nil {
			return fmt.Errorf("failed to insert playlist entry %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

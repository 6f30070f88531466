package player

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"groovy/internal/audio"
	"groovy/internal/catalog"
	"groovy/internal/metadata"
	"groovy/internal/store"
	"groovy/pkg/models"
)

// ErrNotFound is returned by id lookups that fail. It is never fatal; the
// caller decides the user-facing messaging.
var ErrNotFound = fmt.Errorf("song not found")

// Options tunes the service. Zero values fall back to the defaults the
// engine was built around.
type Options struct {
	HistoryCapacity  int           // default 20
	PollInterval     time.Duration // default 500ms
	AdvanceThreshold float64       // default 0.98
	Rand             *rand.Rand    // similarity fallback randomness
}

// Service is the facade the presentation layer talks to. It owns the
// library and playlist catalogs, history, queue, favorites, the playback
// cursor and the progress poller, and delegates navigation decisions to the
// Navigator. Mutating operations persist through the store; playback goes
// through the audio adapter. All methods are safe for concurrent use.
type Service struct {
	logger   *logrus.Logger
	store    store.Store
	playback audio.Player
	probe    *metadata.Probe // nil disables asset-derived durations

	mu        sync.Mutex
	library   *catalog.Catalog
	playlist  *catalog.Catalog
	history   *History
	queue     *Queue
	favorites *Favorites
	nav       *Navigator
	cursor    *CursorManager
	poller    *progressPoller
	rng       *rand.Rand

	pollInterval time.Duration
	threshold    float64
}

// NewService wires an empty service. Call LoadFromStore to populate it.
func NewService(st store.Store, playback audio.Player, probe *metadata.Probe, opts Options, logger *logrus.Logger) *Service {
	if opts.HistoryCapacity < 1 {
		opts.HistoryCapacity = DefaultHistoryCapacity
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.AdvanceThreshold <= 0 {
		opts.AdvanceThreshold = 0.98
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	lib := catalog.New()
	s := &Service{
		logger:       logger,
		store:        st,
		playback:     playback,
		probe:        probe,
		library:      lib,
		playlist:     catalog.New(),
		history:      NewHistory(opts.HistoryCapacity),
		queue:        NewQueue(),
		favorites:    NewFavorites(),
		nav:          NewNavigator(lib, opts.Rand),
		cursor:       NewCursorManager(),
		rng:          opts.Rand,
		pollInterval: opts.PollInterval,
		threshold:    opts.AdvanceThreshold,
	}
	return s
}

// LoadFromStore rebuilds both catalogs from the persisted snapshots. The
// library loads first, skipping duplicate ids; the playlist then resolves
// its ids against the loaded library, silently dropping unknown ones. Load
// failures are logged and swallowed; a missing snapshot is an empty start.
func (s *Service) LoadFromStore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
}

func (s *Service) loadLocked() {
	library := catalog.New()
	playlist := catalog.New()

	songs, err := s.store.LoadLibrary()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load library snapshot")
	}
	for _, song := range songs {
		if _, exists := library.FindByID(song.ID); exists {
			s.logger.WithField("id", song.ID).Warn("Skipping duplicate song id in library snapshot")
			continue
		}
		library.Add(song)
	}

	ids, err := s.store.LoadPlaylist()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load playlist snapshot")
	}
	for _, id := range ids {
		if song, ok := library.FindByID(id); ok {
			playlist.Add(song)
		}
	}

	s.library = library
	s.playlist = playlist
	s.nav = NewNavigator(library, s.rng)
	s.logger.WithFields(logrus.Fields{
		"library_size":  library.Len(),
		"playlist_size": playlist.Len(),
	}).Info("Catalogs loaded from store")
}

// Reload re-reads the snapshots, replacing in-memory catalogs. The playback
// cursor is untouched; a current song that vanished simply loses its
// deterministic successor, which navigation already handles.
func (s *Service) Reload() {
	s.LoadFromStore()
}

// AddSongInput is the raw form data for a new song. Year arrives as text so
// the engine owns validation.
type AddSongInput struct {
	Title    string
	Artist   string
	Genre    string
	Album    string
	Year     string
	Duration string
	FilePath string
}

// AddSong validates the input, assigns the next id, appends the song to the
// library and persists the snapshot. Validation failures are returned and
// the song is not added; a persistence failure is logged only.
func (s *Service) AddSong(input AddSongInput) (models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := 0
	if y := strings.TrimSpace(input.Year); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			return models.Song{}, fmt.Errorf("invalid year %q: must be numeric", input.Year)
		}
		year = parsed
	}
	if d := strings.TrimSpace(input.Duration); d != "" {
		if _, ok := models.ParseDurationString(d); !ok {
			return models.Song{}, fmt.Errorf("invalid duration %q: must look like M:SS", input.Duration)
		}
	}

	song := models.Song{
		ID:       s.library.NextID(),
		Title:    input.Title,
		Artist:   input.Artist,
		Genre:    input.Genre,
		Album:    input.Album,
		Year:     year,
		Duration: strings.TrimSpace(input.Duration),
		FilePath: input.FilePath,
	}
	s.library.Add(song)
	s.saveLibraryLocked()

	s.logger.WithFields(logrus.Fields{
		"id":    song.ID,
		"title": song.Title,
	}).Info("Song added to library")
	return song, nil
}

// AddSongFromFile derives title, artist, album, genre and year from the
// file's embedded tags and its duration from the audio stream, then adds
// the song. Requires a metadata probe.
func (s *Service) AddSongFromFile(path string) (models.Song, error) {
	if s.probe == nil {
		return models.Song{}, fmt.Errorf("metadata probe not available")
	}

	tags, err := s.probe.Tags(path)
	if err != nil {
		return models.Song{}, err
	}

	input := AddSongInput{
		Title:    tags.Title,
		Artist:   tags.Artist,
		Genre:    tags.Genre,
		Album:    tags.Album,
		FilePath: path,
	}
	if tags.Year > 0 {
		input.Year = strconv.Itoa(tags.Year)
	}
	if secs, err := s.probe.Length(path); err == nil && secs > 0 {
		input.Duration = models.FormatSeconds(secs)
	} else if err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to probe duration")
	}
	return s.AddSong(input)
}

// DeleteSong removes the song from the library and, best-effort, from the
// playlist, persisting both snapshots. Deleting the currently playing song
// does not stop playback; the loaded asset is allowed to finish.
func (s *Service) DeleteSong(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.library.Delete(id)
	if s.playlist.Delete(id) {
		s.savePlaylistLocked()
	}
	s.saveLibraryLocked()

	if found {
		s.logger.WithField("id", id).Info("Song deleted from library")
	}
	return found
}

// Search returns library songs matching the keyword, in catalog order.
func (s *Service) Search(keyword string) []models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.library.Search(keyword)
}

// Library returns a snapshot of the library in insertion order.
func (s *Service) Library() []models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.library.All()
}

// Playlist returns a snapshot of the playlist in play order.
func (s *Service) Playlist() []models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist.All()
}

// History returns recently played songs, most recent first.
func (s *Service) History() []models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Recent()
}

// Favorites returns favorited library songs in catalog order.
func (s *Service) Favorites() []models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites.Filter(s.library.All())
}

// QueueSongs returns the playback queue in play order.
func (s *Service) QueueSongs() []models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.All()
}

// AddToPlaylist looks the song up in the library and appends it to the
// playlist, persisting the snapshot. Returns ErrNotFound for unknown ids.
func (s *Service) AddToPlaylist(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.library.FindByID(id)
	if !ok {
		return fmt.Errorf("add to playlist %d: %w", id, ErrNotFound)
	}
	s.playlist.Add(song)
	s.savePlaylistLocked()
	return nil
}

// RemoveFromPlaylist removes the song from the playlist, persisting the
// snapshot when something was removed.
func (s *Service) RemoveFromPlaylist(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playlist.Delete(id) {
		return false
	}
	s.savePlaylistLocked()
	return true
}

// ToggleFavorite flips the favorite flag for the id and returns the new
// membership state. Favorites are session-only and never persisted.
func (s *Service) ToggleFavorite(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites.Toggle(id)
}

// IsFavorite reports whether the id is currently favorited.
func (s *Service) IsFavorite(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites.Contains(id)
}

// Enqueue appends the song to the playback queue. Returns ErrNotFound for
// unknown ids.
func (s *Service) Enqueue(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.library.FindByID(id)
	if !ok {
		return fmt.Errorf("enqueue %d: %w", id, ErrNotFound)
	}
	s.queue.Enqueue(song)
	return nil
}

// PlayNextQueued dequeues the front of the playback queue and plays it in
// library mode. Returns nil when the queue is empty.
func (s *Service) PlayNextQueued() (*models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.queue.Dequeue()
	if !ok {
		return nil, nil
	}
	err := s.playLocked(song, ModeLibrary)
	return &song, err
}

// PlayByID plays the library song with the given id in the given mode.
func (s *Service) PlayByID(id int, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.library.FindByID(id)
	if !ok {
		return fmt.Errorf("play %d: %w", id, ErrNotFound)
	}
	return s.playLocked(song, mode)
}

// Play makes the song current and starts playback. The cursor is updated
// and the song pushed to history before the adapter is asked to play; on
// adapter failure the error is surfaced but the song stays selected
// ("current song set, not confirmed playing").
func (s *Service) Play(song models.Song, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playLocked(song, mode)
}

func (s *Service) playLocked(song models.Song, mode Mode) error {
	current := song
	s.cursor.SetCurrent(&current, true, mode)
	s.history.Push(song)

	total := s.resolveTotal(song)
	s.cursor.SetProgress(0, total)

	// The poller starts regardless of playback outcome; with nothing
	// playing it observes zero progress and never advances.
	s.startPollerLocked()

	if err := s.playback.Load(song.FilePath); err != nil {
		s.cursor.SetPlaying(false)
		s.logger.WithError(err).WithField("id", song.ID).Warn("Failed to load audio asset")
		return fmt.Errorf("cannot play %q: %w", song.Title, err)
	}
	if err := s.playback.Play(); err != nil {
		s.cursor.SetPlaying(false)
		s.logger.WithError(err).WithField("id", song.ID).Warn("Failed to start playback")
		return fmt.Errorf("cannot play %q: %w", song.Title, err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":    song.ID,
		"title": song.Title,
		"mode":  mode,
		"total": total,
	}).Info("Playing song")
	return nil
}

// resolveTotal prefers the asset-derived length, then the stored duration
// string, then zero.
func (s *Service) resolveTotal(song models.Song) int {
	if s.probe != nil && song.FilePath != "" {
		if secs, err := s.probe.Length(song.FilePath); err == nil && secs > 0 {
			return secs
		}
	}
	if secs, ok := models.ParseDurationString(song.Duration); ok {
		return secs
	}
	return 0
}

// Pause suspends playback. The cursor flips only when the adapter agrees.
func (s *Service) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.playback.Pause(); err != nil {
		return fmt.Errorf("cannot pause: %w", err)
	}
	s.cursor.SetPlaying(false)
	return nil
}

// Resume restarts paused playback. The cursor flips only when the adapter
// agrees.
func (s *Service) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.playback.Unpause(); err != nil {
		return fmt.Errorf("cannot resume: %w", err)
	}
	s.cursor.SetPlaying(true)
	return nil
}

// Stop halts playback, clears the current song and cancels progress
// polling. Stopping when already stopped is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	s.cancelPollerLocked()
	if err := s.playback.Stop(); err != nil {
		s.logger.WithError(err).Warn("Failed to stop playback")
	}
	s.cursor.Clear()
}

// Next plays the song after the current one in the active ordered view,
// falling back to similarity selection at the boundary. When nothing can be
// chosen, state is unchanged and nil is returned.
func (s *Service) Next() (*models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.navigateLocked(+1)
	if next == nil {
		return nil, nil
	}
	return next, s.playLocked(*next, s.cursor.Snapshot().Mode)
}

// Prev is the mirror of Next, stepping backwards through the view.
func (s *Service) Prev() (*models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.navigateLocked(-1)
	if prev == nil {
		return nil, nil
	}
	return prev, s.playLocked(*prev, s.cursor.Snapshot().Mode)
}

func (s *Service) navigateLocked(dir int) *models.Song {
	cur := s.cursor.Snapshot()
	active := s.library
	if cur.Mode == ModePlaylist {
		active = s.playlist
	}
	view := OrderedView(active, cur.Order)
	if dir > 0 {
		return s.nav.Next(view, cur.Song)
	}
	return s.nav.Prev(view, cur.Song)
}

// SetView records which screen the user is viewing. Next/Prev follow
// whatever mode and order were set last.
func (s *Service) SetView(mode Mode, order SortOrder) {
	s.cursor.SetView(mode, order)
}

// Cursor returns a copy of the playback cursor.
func (s *Service) Cursor() Cursor {
	return s.cursor.Snapshot()
}

// Subscribe returns a channel of cursor updates for the presentation layer.
func (s *Service) Subscribe() <-chan Cursor {
	return s.cursor.Subscribe()
}

// Unsubscribe releases a subscription obtained from Subscribe.
func (s *Service) Unsubscribe(ch <-chan Cursor) {
	s.cursor.Unsubscribe(ch)
}

// Logout ends the listening session: playback stops and the cursor resets.
func (s *Service) Logout() {
	s.Stop()
	s.logger.Info("Session ended")
}

// Close stops playback and releases the store and audio adapter.
func (s *Service) Close() error {
	s.Stop()
	if err := s.playback.Close(); err != nil {
		s.logger.WithError(err).Warn("Failed to close playback adapter")
	}
	return s.store.Close()
}

// saveLibraryLocked persists the library snapshot. Failures are logged and
// swallowed: losing a save is preferable to crashing the session.
func (s *Service) saveLibraryLocked() {
	if err := s.store.SaveLibrary(s.library.All()); err != nil {
		s.logger.WithError(err).Error("Failed to save library snapshot")
	}
}

// savePlaylistLocked persists the playlist snapshot (ids only).
func (s *Service) savePlaylistLocked() {
	songs := s.playlist.All()
	ids := make([]int, len(songs))
	for i, song := range songs {
		ids[i] = song.ID
	}
	if err := s.store.SavePlaylist(ids); err != nil {
		s.logger.WithError(err).Error("Failed to save playlist snapshot")
	}
}

package player

import (
	"errors"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"groovy/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memStore keeps snapshots in memory so tests can seed and inspect them.
type memStore struct {
	mu       sync.Mutex
	songs    []models.Song
	playlist []int
	loadErr  error
	saveErr  error
}

func (m *memStore) LoadLibrary() ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Song(nil), m.songs...), m.loadErr
}

func (m *memStore) SaveLibrary(songs []models.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.songs = append([]models.Song(nil), songs...)
	return nil
}

func (m *memStore) LoadPlaylist() ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.playlist...), m.loadErr
}

func (m *memStore) SavePlaylist(ids []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.playlist = append([]int(nil), ids...)
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) savedPlaylist() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.playlist...)
}

// fakePlayer records adapter calls and lets tests script progress.
type fakePlayer struct {
	mu         sync.Mutex
	loadErr    error
	playErr    error
	pauseErr   error
	unpauseErr error

	loaded     []string
	playCount  int
	pauseCount int
	stopCount  int

	elapsedMillis int
	busy          bool
}

func (f *fakePlayer) Load(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = append(f.loaded, path)
	return nil
}

func (f *fakePlayer) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.playCount++
	return nil
}

func (f *fakePlayer) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pauseErr != nil {
		return f.pauseErr
	}
	f.pauseCount++
	return nil
}

func (f *fakePlayer) Unpause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unpauseErr
}

func (f *fakePlayer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCount++
	return nil
}

func (f *fakePlayer) ElapsedMillis() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsedMillis
}

func (f *fakePlayer) IsBusy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakePlayer) Close() error { return nil }

func (f *fakePlayer) plays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playCount
}

func newTestService(st *memStore, fp *fakePlayer) *Service {
	return NewService(st, fp, nil, Options{
		Rand: rand.New(rand.NewSource(1)),
	}, testLogger())
}

func TestLoadFromStoreResolvesPlaylist(t *testing.T) {
	st := &memStore{
		songs: []models.Song{
			{ID: 3, Title: "Three"},
			{ID: 5, Title: "Five"},
		},
		playlist: []int{3, 5, 9},
	}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	lib := svc.Library()
	if len(lib) != 2 {
		t.Fatalf("expected 2 library songs, got %d", len(lib))
	}

	pl := svc.Playlist()
	if len(pl) != 2 {
		t.Fatalf("expected unknown playlist id dropped, got %d entries", len(pl))
	}
	if pl[0].ID != 3 || pl[1].ID != 5 {
		t.Errorf("playlist order wrong: %v", pl)
	}
}

func TestLoadFromStoreSkipsDuplicateIDs(t *testing.T) {
	st := &memStore{
		songs: []models.Song{
			{ID: 1, Title: "First"},
			{ID: 1, Title: "Shadow"},
			{ID: 2, Title: "Second"},
		},
	}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	lib := svc.Library()
	if len(lib) != 2 {
		t.Fatalf("expected 2 songs after dedup, got %d", len(lib))
	}
	if lib[0].Title != "First" {
		t.Errorf("first occurrence should win, got %q", lib[0].Title)
	}
}

func TestAddSongValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   AddSongInput
		wantErr bool
	}{
		{"valid", AddSongInput{Title: "A", Year: "1999", Duration: "3:45"}, false},
		{"empty year and duration", AddSongInput{Title: "B"}, false},
		{"bad year", AddSongInput{Title: "C", Year: "nineteen"}, true},
		{"bad duration", AddSongInput{Title: "D", Duration: "a:b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &memStore{}
			svc := newTestService(st, &fakePlayer{})
			_, err := svc.AddSong(tt.input)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAddSongAssignsSequentialIDs(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, &fakePlayer{})

	first, _ := svc.AddSong(AddSongInput{Title: "A"})
	second, _ := svc.AddSong(AddSongInput{Title: "B"})
	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}

	if len(st.songs) != 2 {
		t.Errorf("expected library snapshot persisted, got %d songs", len(st.songs))
	}
}

func TestDeleteSongRemovesFromPlaylist(t *testing.T) {
	st := &memStore{
		songs:    []models.Song{{ID: 1}, {ID: 2}},
		playlist: []int{1, 2},
	}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	if !svc.DeleteSong(1) {
		t.Fatal("expected delete to report success")
	}
	if got := svc.Playlist(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("playlist should drop deleted song, got %v", got)
	}
	if saved := st.savedPlaylist(); len(saved) != 1 || saved[0] != 2 {
		t.Errorf("playlist snapshot not persisted, got %v", saved)
	}
	if svc.DeleteSong(99) {
		t.Error("deleting unknown id should report false")
	}
}

func TestDeletePlayingSongKeepsPlayback(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1, Title: "A"}}}
	fp := &fakePlayer{}
	svc := newTestService(st, fp)
	svc.LoadFromStore()

	if err := svc.PlayByID(1, ModeLibrary); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	svc.DeleteSong(1)

	cur := svc.Cursor()
	if cur.Song == nil || cur.Song.ID != 1 {
		t.Error("cursor should keep the deleted song until it finishes")
	}
	if fp.stopCount != 0 {
		t.Error("deleting the playing song must not stop playback")
	}
	svc.Stop()
}

func TestPlaylistMembership(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1}, {ID: 2}}}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	if err := svc.AddToPlaylist(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AddToPlaylist(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if !svc.RemoveFromPlaylist(1) {
		t.Error("expected removal to succeed")
	}
	if svc.RemoveFromPlaylist(1) {
		t.Error("second removal should report false")
	}
}

func TestFavoritesThroughService(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	if !svc.ToggleFavorite(2) {
		t.Error("toggle on should return true")
	}
	favs := svc.Favorites()
	if len(favs) != 1 || favs[0].ID != 2 {
		t.Errorf("expected favorites [2], got %v", favs)
	}
	if svc.ToggleFavorite(2) {
		t.Error("toggle off should return false")
	}
	if svc.IsFavorite(2) {
		t.Error("favorite flag should be cleared")
	}
}

func TestQueueThroughService(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}}
	fp := &fakePlayer{}
	svc := newTestService(st, fp)
	svc.LoadFromStore()

	if err := svc.Enqueue(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Enqueue(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Enqueue(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	song, err := svc.PlayNextQueued()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if song == nil || song.ID != 1 {
		t.Fatalf("expected queued song 1, got %v", song)
	}
	if got := svc.QueueSongs(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("queue should hold [2], got %v", got)
	}

	svc.Stop()
	svc.PlayNextQueued()
	svc.Stop()

	if song, err := svc.PlayNextQueued(); song != nil || err != nil {
		t.Errorf("empty queue should yield nil,nil; got %v, %v", song, err)
	}
}

func TestPlayUpdatesCursorAndHistory(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1, Title: "A", FilePath: "/tmp/a.mp3"}}}
	fp := &fakePlayer{}
	svc := newTestService(st, fp)
	svc.LoadFromStore()

	if err := svc.PlayByID(1, ModeLibrary); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	cur := svc.Cursor()
	if cur.Song == nil || cur.Song.ID != 1 || !cur.IsPlaying {
		t.Errorf("cursor not updated: %+v", cur)
	}
	if len(fp.loaded) != 1 || fp.loaded[0] != "/tmp/a.mp3" {
		t.Errorf("adapter should load the asset path, got %v", fp.loaded)
	}

	hist := svc.History()
	if len(hist) != 1 || hist[0].ID != 1 {
		t.Errorf("expected history [1], got %v", hist)
	}
	svc.Stop()
}

func TestPlayAdapterFailureKeepsSelection(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1, Title: "A", FilePath: "/missing.mp3"}}}
	fp := &fakePlayer{loadErr: errors.New("no such file")}
	svc := newTestService(st, fp)
	svc.LoadFromStore()

	err := svc.PlayByID(1, ModeLibrary)
	if err == nil {
		t.Fatal("expected adapter error to surface")
	}

	cur := svc.Cursor()
	if cur.Song == nil || cur.Song.ID != 1 {
		t.Error("song should stay selected after adapter failure")
	}
	if cur.IsPlaying {
		t.Error("cursor must not claim playback after adapter failure")
	}

	hist := svc.History()
	if len(hist) != 1 {
		t.Errorf("failed play still counts as a listen, history = %v", hist)
	}
	svc.Stop()
}

func TestPauseResumeFlipOnlyOnSuccess(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1, Title: "A"}}}
	fp := &fakePlayer{}
	svc := newTestService(st, fp)
	svc.LoadFromStore()
	svc.PlayByID(1, ModeLibrary)

	if err := svc.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if svc.Cursor().IsPlaying {
		t.Error("cursor should be paused")
	}
	if err := svc.Resume(); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !svc.Cursor().IsPlaying {
		t.Error("cursor should be playing again")
	}

	fp.mu.Lock()
	fp.pauseErr = errors.New("device busy")
	fp.mu.Unlock()
	if err := svc.Pause(); err == nil {
		t.Fatal("expected pause error")
	}
	if !svc.Cursor().IsPlaying {
		t.Error("failed pause must not flip the cursor")
	}
	svc.Stop()
}

func TestStopClearsCursor(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1, Title: "A"}}}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()
	svc.PlayByID(1, ModeLibrary)

	svc.Stop()
	cur := svc.Cursor()
	if cur.Song != nil || cur.IsPlaying {
		t.Errorf("stop should clear the cursor, got %+v", cur)
	}

	// Stopping again is a no-op.
	svc.Stop()
}

func TestNextFollowsActiveView(t *testing.T) {
	st := &memStore{
		songs: []models.Song{
			{ID: 1, Title: "A", Artist: "X"},
			{ID: 2, Title: "B", Artist: "Y"},
			{ID: 3, Title: "C", Artist: "Z"},
		},
	}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	svc.PlayByID(2, ModeLibrary)
	next, err := svc.Next()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if next == nil || next.ID != 3 {
		t.Fatalf("expected song 3, got %v", next)
	}

	// Flip to descending: the successor of 3 in [3 2 1] is 2.
	svc.SetView(ModeLibrary, OrderDesc)
	next, err = svc.Next()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if next == nil || next.ID != 2 {
		t.Fatalf("expected song 2 in descending view, got %v", next)
	}

	prev, err := svc.Prev()
	if err != nil {
		t.Fatalf("prev failed: %v", err)
	}
	if prev == nil || prev.ID != 3 {
		t.Fatalf("expected song 3 going back, got %v", prev)
	}
	svc.Stop()
}

func TestNextInPlaylistMode(t *testing.T) {
	st := &memStore{
		songs: []models.Song{
			{ID: 1, Title: "A", Artist: "X"},
			{ID: 2, Title: "B", Artist: "Y"},
			{ID: 3, Title: "C", Artist: "Z"},
		},
		playlist: []int{3, 1},
	}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	svc.PlayByID(3, ModePlaylist)
	next, err := svc.Next()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if next == nil || next.ID != 1 {
		t.Fatalf("playlist successor of 3 should be 1, got %v", next)
	}
	svc.Stop()
}

func TestNextWithNothingCurrent(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1, Title: "A"}}}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	next, err := svc.Next()
	if next != nil || err != nil {
		t.Errorf("no current song should yield nil,nil; got %v, %v", next, err)
	}
}

func TestAutoAdvanceFiresOnce(t *testing.T) {
	st := &memStore{
		songs: []models.Song{
			{ID: 1, Title: "A", Artist: "X", Duration: "1:40"},
			{ID: 2, Title: "B", Artist: "Y"},
		},
	}
	fp := &fakePlayer{}
	svc := NewService(st, fp, nil, Options{
		PollInterval: 5 * time.Millisecond,
		Rand:         rand.New(rand.NewSource(1)),
	}, testLogger())
	svc.LoadFromStore()

	if err := svc.PlayByID(1, ModeLibrary); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	// 99s of a 100s track with the stream drained crosses the threshold.
	fp.mu.Lock()
	fp.elapsedMillis = 99000
	fp.busy = false
	fp.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cur := svc.Cursor(); cur.Song != nil && cur.Song.ID == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	cur := svc.Cursor()
	if cur.Song == nil || cur.Song.ID != 2 {
		t.Fatalf("expected auto-advance to song 2, got %+v", cur)
	}

	// Song 2 has no duration, so its poller sees no total and must not fire
	// again even though the adapter still reports a drained stream.
	time.Sleep(50 * time.Millisecond)
	if got := fp.plays(); got != 2 {
		t.Errorf("expected exactly 2 plays (manual + one advance), got %d", got)
	}
	svc.Stop()
}

func TestAutoAdvanceStopsWhenNothingNext(t *testing.T) {
	st := &memStore{
		songs: []models.Song{{ID: 1, Title: "A", Artist: "X", Duration: "0:10"}},
	}
	fp := &fakePlayer{}
	svc := NewService(st, fp, nil, Options{
		PollInterval: 5 * time.Millisecond,
		Rand:         rand.New(rand.NewSource(1)),
	}, testLogger())
	svc.LoadFromStore()

	if err := svc.PlayByID(1, ModeLibrary); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	// Single-song library: the similarity fallback has no candidates, so the
	// finished track resolves to a stop.
	fp.mu.Lock()
	fp.elapsedMillis = 10000
	fp.busy = false
	fp.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.Cursor().Song == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if cur := svc.Cursor(); cur.Song != nil {
		t.Fatalf("expected cursor cleared after terminal track, got %+v", cur)
	}
}

func TestHistoryAcrossPlays(t *testing.T) {
	st := &memStore{
		songs: []models.Song{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}},
	}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	svc.PlayByID(1, ModeLibrary)
	svc.PlayByID(2, ModeLibrary)
	svc.PlayByID(1, ModeLibrary)

	hist := svc.History()
	want := []int{1, 2, 1}
	if len(hist) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(hist))
	}
	for i, id := range want {
		if hist[i].ID != id {
			t.Errorf("history position %d: expected %d, got %d", i, id, hist[i].ID)
		}
	}
	svc.Stop()
}

func TestSubscribeReceivesCursorUpdates(t *testing.T) {
	st := &memStore{songs: []models.Song{{ID: 1, Title: "A"}}}
	svc := newTestService(st, &fakePlayer{})
	svc.LoadFromStore()

	ch := svc.Subscribe()
	defer svc.Unsubscribe(ch)

	svc.PlayByID(1, ModeLibrary)

	select {
	case cur := <-ch:
		if cur.Song == nil || cur.Song.ID != 1 {
			t.Errorf("unexpected cursor update: %+v", cur)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cursor update")
	}
	svc.Stop()
}

package player

import (
	"sync"
	"time"

	"groovy/pkg/models"
)

// Cursor is the service's record of what song is current, whether it is
// playing, and in which mode/order it was selected.
type Cursor struct {
	Song      *models.Song `json:"song,omitempty"`
	IsPlaying bool         `json:"isPlaying"`
	Mode      Mode         `json:"mode"`
	Order     SortOrder    `json:"order"`
	Elapsed   int          `json:"elapsed"` // in seconds
	Total     int          `json:"total"`   // in seconds
	UpdatedAt time.Time    `json:"updatedAt"`
}

// CursorManager guards the playback cursor and notifies listeners of
// changes. Reads return copies so callers never observe in-place mutation.
type CursorManager struct {
	cursor    Cursor
	mutex     sync.RWMutex
	listeners []chan Cursor
}

// NewCursorManager creates a cursor manager in the stopped state, viewing
// the library in ascending order.
func NewCursorManager() *CursorManager {
	return &CursorManager{
		cursor: Cursor{
			Mode:      ModeLibrary,
			Order:     OrderAsc,
			UpdatedAt: time.Now(),
		},
	}
}

// Snapshot returns a copy of the current cursor (thread-safe).
func (cm *CursorManager) Snapshot() Cursor {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.cursor
}

// SetCurrent records a new current song and playing flag along with the
// mode it was selected in.
func (cm *CursorManager) SetCurrent(song *models.Song, playing bool, mode Mode) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.cursor.Song = song
	cm.cursor.IsPlaying = playing
	cm.cursor.Mode = mode
	cm.cursor.UpdatedAt = time.Now()
	cm.notifyListeners()
}

// SetPlaying flips only the playing flag, leaving the current song alone.
func (cm *CursorManager) SetPlaying(playing bool) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.cursor.IsPlaying = playing
	cm.cursor.UpdatedAt = time.Now()
	cm.notifyListeners()
}

// SetView records which screen the user is looking at. Next/Prev use
// whatever mode and order were set last; this is session state, not a
// per-call argument.
func (cm *CursorManager) SetView(mode Mode, order SortOrder) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.cursor.Mode = mode
	cm.cursor.Order = order
	cm.cursor.UpdatedAt = time.Now()
	cm.notifyListeners()
}

// SetProgress updates elapsed/total playback time in seconds.
func (cm *CursorManager) SetProgress(elapsed, total int) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.cursor.Elapsed = elapsed
	cm.cursor.Total = total
	cm.cursor.UpdatedAt = time.Now()
	cm.notifyListeners()
}

// Clear resets the cursor to the no-song state. Mode and order survive so a
// later play continues navigating the same view.
func (cm *CursorManager) Clear() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.cursor.Song = nil
	cm.cursor.IsPlaying = false
	cm.cursor.Elapsed = 0
	cm.cursor.Total = 0
	cm.cursor.UpdatedAt = time.Now()
	cm.notifyListeners()
}

// Subscribe adds a listener for cursor changes.
func (cm *CursorManager) Subscribe() <-chan Cursor {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	ch := make(chan Cursor, 10) // buffered so notification never blocks
	cm.listeners = append(cm.listeners, ch)
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (cm *CursorManager) Unsubscribe(ch <-chan Cursor) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for i, listener := range cm.listeners {
		if listener == ch {
			close(listener)
			cm.listeners = append(cm.listeners[:i], cm.listeners[i+1:]...)
			break
		}
	}
}

// notifyListeners sends the cursor to all subscribers (lock must be held).
// A subscriber that stopped draining gets closed and pruned.
func (cm *CursorManager) notifyListeners() {
	for i := len(cm.listeners) - 1; i >= 0; i-- {
		select {
		case cm.listeners[i] <- cm.cursor:
		default:
			close(cm.listeners[i])
			cm.listeners = append(cm.listeners[:i], cm.listeners[i+1:]...)
		}
	}
}

package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"
)

// BeepPlayer plays local audio files through the beep speaker. One asset is
// loaded at a time; loading a new asset replaces the previous one.
type BeepPlayer struct {
	logger *logrus.Logger

	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl

	// Flags are atomics because the end-of-stream callback fires on the
	// speaker goroutine while the speaker lock is held.
	playing  atomic.Bool
	finished atomic.Bool
}

// NewBeepPlayer creates a player that logs through the given logger.
func NewBeepPlayer(logger *logrus.Logger) *BeepPlayer {
	return &BeepPlayer{logger: logger}
}

// Load decodes the audio file at path and prepares it for playback.
func (p *BeepPlayer) Load(path string) error {
	if path == "" {
		return fmt.Errorf("song has no audio file")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	p.streamer = streamer
	p.format = format
	p.logger.WithFields(logrus.Fields{
		"path":        path,
		"sample_rate": format.SampleRate,
	}).Debug("Audio asset loaded")
	return nil
}

// Play starts playback of the loaded asset from the beginning.
func (p *BeepPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return fmt.Errorf("no audio asset loaded")
	}
	if err := speaker.Init(p.format.SampleRate, p.format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	if err := p.streamer.Seek(0); err != nil {
		return fmt.Errorf("failed to rewind stream: %w", err)
	}

	p.ctrl = &beep.Ctrl{Streamer: p.streamer}
	p.playing.Store(true)
	p.finished.Store(false)
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		p.finished.Store(true)
		p.playing.Store(false)
	})))
	return nil
}

// Pause suspends playback.
func (p *BeepPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil {
		return fmt.Errorf("nothing is playing")
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Unpause resumes paused playback.
func (p *BeepPlayer) Unpause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil {
		return fmt.Errorf("nothing is playing")
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Stop halts playback and releases the loaded asset. Stopping an
// already-stopped player is a no-op.
func (p *BeepPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return nil
	}
	speaker.Clear()
	p.releaseLocked()
	return nil
}

// ElapsedMillis returns the playback position in milliseconds, or -1 when
// nothing is loaded.
func (p *BeepPlayer) ElapsedMillis() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return -1
	}
	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()
	return int(p.format.SampleRate.D(pos).Milliseconds())
}

// IsBusy reports whether the player still has audio to emit.
func (p *BeepPlayer) IsBusy() bool {
	return p.playing.Load() && !p.finished.Load()
}

// Close stops playback and releases resources.
func (p *BeepPlayer) Close() error {
	return p.Stop()
}

// releaseLocked drops the current stream. Caller holds p.mu.
func (p *BeepPlayer) releaseLocked() {
	if p.streamer != nil {
		if err := p.streamer.Close(); err != nil {
			p.logger.WithError(err).Warn("Failed to close audio stream")
		}
	}
	p.streamer = nil
	p.ctrl = nil
	p.playing.Store(false)
	p.finished.Store(false)
}

package audio

// Player is the narrow playback surface the engine drives. Implementations
// decode and play a local audio asset; every call may fail (missing file,
// unsupported format) and failures are reported as errors, never swallowed.
// Stop on an already-stopped player is a no-op.
type Player interface {
	// Load prepares the asset at path for playback, replacing any
	// previously loaded asset.
	Load(path string) error

	// Play starts playback of the loaded asset from the beginning.
	Play() error

	// Pause suspends playback, keeping the position.
	Pause() error

	// Unpause resumes paused playback.
	Unpause() error

	// Stop halts playback and releases the loaded asset.
	Stop() error

	// ElapsedMillis returns the playback position in milliseconds. The
	// value may be negative when nothing is playing.
	ElapsedMillis() int

	// IsBusy reports whether the player still has audio to emit. A paused
	// player is busy; a finished or stopped one is not.
	IsBusy() bool

	// Close releases all playback resources.
	Close() error
}

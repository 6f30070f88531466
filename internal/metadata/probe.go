package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// TagInfo carries the embedded tags of an audio file that are useful when
// adding a song to the library.
type TagInfo struct {
	Title  string
	Artist string
	Album  string
	Genre  string
	Year   int
}

// Probe derives playable duration and tags from local audio files. Probed
// durations are cached by path since decoding mp3 frames is not free.
type Probe struct {
	logger *logrus.Logger

	durationCache map[string]int
	cacheMux      sync.RWMutex
}

// NewProbe creates a probe logging through the given logger.
func NewProbe(logger *logrus.Logger) *Probe {
	return &Probe{
		logger:        logger,
		durationCache: make(map[string]int),
	}
}

// Length returns the duration of the audio file in whole seconds.
func (p *Probe) Length(path string) (int, error) {
	p.cacheMux.RLock()
	cached, ok := p.durationCache[path]
	p.cacheMux.RUnlock()
	if ok {
		return cached, nil
	}

	var secs int
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		secs, err = p.lengthMP3(path)
	case ".flac":
		secs, err = p.lengthFLAC(path)
	case ".wav":
		secs, err = p.lengthWAV(path)
	default:
		return 0, fmt.Errorf("unsupported format: %s", filepath.Ext(path))
	}
	if err != nil {
		return 0, err
	}

	p.cacheMux.Lock()
	p.durationCache[path] = secs
	p.cacheMux.Unlock()
	return secs, nil
}

// Tags reads embedded metadata from the audio file.
func (p *Probe) Tags(path string) (TagInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return TagInfo{}, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return TagInfo{}, fmt.Errorf("failed to read tags from %s: %w", filepath.Base(path), err)
	}

	info := TagInfo{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Genre:  m.Genre(),
		Year:   m.Year(),
	}
	if info.Title == "" {
		info.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p.logger.WithFields(logrus.Fields{
		"path":   path,
		"title":  info.Title,
		"artist": info.Artist,
	}).Debug("Read embedded tags")
	return info, nil
}

// MP3 duration by walking frames; falls back to average bitrate estimation
// only when no frame decodes at all.
func (p *Probe) lengthMP3(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var total float64
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if !errors.Is(err, io.EOF) && frames > 0 {
				break // partial decode; use what we have
			}
			if frames == 0 {
				return p.estimateFromFileSize(path, 192000) // assume 192 kbps
			}
			break
		}
		total += fr.Duration().Seconds()
		frames++
	}
	return int(total), nil
}

// FLAC duration via the STREAMINFO metadata block.
func (p *Probe) lengthFLAC(path string) (int, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	si := stream.Info
	if si.NSamples > 0 && si.SampleRate > 0 {
		return int(float64(si.NSamples)/float64(si.SampleRate) + 0.5), nil
	}
	return 0, fmt.Errorf("flac stream missing sample info")
}

// WAV duration from header arithmetic over the PCM payload size.
func (p *Probe) lengthWAV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return 0, fmt.Errorf("invalid wav header")
	}
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	headerSize := int64(44)
	pcmBytes := st.Size() - headerSize
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	bytesPerFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerFrame <= 0 {
		return 0, fmt.Errorf("invalid sample frame size")
	}
	secs := float64(pcmBytes/bytesPerFrame) / float64(dec.SampleRate)
	return int(secs + 0.5), nil
}

// estimateFromFileSize is the last resort when frame parsing fails.
func (p *Probe) estimateFromFileSize(path string, bitrate int) (int, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if bitrate <= 0 {
		return 0, fmt.Errorf("invalid bitrate")
	}
	return int((st.Size() * 8) / int64(bitrate)), nil
}

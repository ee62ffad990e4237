// Package midi reads note events from Standard MIDI Files.
//
// The transcription stage emits its note list as an SMF file; this package
// turns that file into the []tab.Note stream the conversion core consumes.
// Tracks are merged, drum-channel events are skipped, and note-on/note-off
// pairs are matched per pitch to recover start/end times in seconds.
package midi

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/tab"
)

// drumChannel is the General MIDI percussion channel (10, zero-based 9).
const drumChannel = 9

// ReadFile parses an SMF file from disk.
func ReadFile(path string) (s *smf.SMF, err error) {
	// The smf reader panics on some malformed files
	// (https://github.com/gomidi/midi/issues/20), so recover and report.
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInvalidAudio, "malformed midi file: %v", r)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "midi file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read midi file %s", path)
	}
	return Read(data)
}

// Read parses SMF bytes.
func Read(data []byte) (s *smf.SMF, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInvalidAudio, "malformed midi file: %v", r)
		}
	}()

	parsed, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidAudio, err, "parse midi file")
	}
	return parsed, nil
}

// openNote tracks a sounding pitch awaiting its note-off.
type openNote struct {
	start    float64
	velocity int
}

// Notes extracts the merged note stream from all non-drum tracks, sorted
// stably by start time. Note-ons with velocity zero are treated as
// note-offs; dangling note-ons with no matching off are discarded.
func Notes(s *smf.SMF) []tab.Note {
	var notes []tab.Note

	for _, track := range s.Tracks {
		open := make(map[uint8]openNote)
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)
			seconds := float64(s.TimeAt(absTicks)) / 1e6

			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				if channel == drumChannel {
					continue
				}
				if velocity == 0 {
					notes = closeNote(notes, open, key, seconds)
					continue
				}
				open[key] = openNote{start: seconds, velocity: int(velocity)}
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				if channel == drumChannel {
					continue
				}
				notes = closeNote(notes, open, key, seconds)
			}
		}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
	return notes
}

// closeNote finishes the sounding note for key, if any. Zero-length notes
// are dropped: a Note's end must exceed its start.
func closeNote(notes []tab.Note, open map[uint8]openNote, key uint8, end float64) []tab.Note {
	on, ok := open[key]
	if !ok {
		return notes
	}
	delete(open, key)
	if end <= on.start {
		return notes
	}
	return append(notes, tab.Note{
		Pitch:    int(key),
		Start:    on.start,
		End:      end,
		Velocity: on.velocity,
	})
}

// Summary describes a MIDI file for status/preview responses.
type Summary struct {
	NoteCount int     `json:"note_count"`
	Duration  float64 `json:"duration"`
	MinPitch  int     `json:"min_pitch"`
	MaxPitch  int     `json:"max_pitch"`
}

// Summarize analyzes the note content of an SMF file.
func Summarize(s *smf.SMF) Summary {
	notes := Notes(s)
	sum := Summary{NoteCount: len(notes)}
	for i, n := range notes {
		if i == 0 || n.Pitch < sum.MinPitch {
			sum.MinPitch = n.Pitch
		}
		if n.Pitch > sum.MaxPitch {
			sum.MaxPitch = n.Pitch
		}
		if n.End > sum.Duration {
			sum.Duration = n.End
		}
	}
	return sum
}

// String implements fmt.Stringer for log output.
func (s Summary) String() string {
	return fmt.Sprintf("%d notes over %.2fs, pitches %d-%d",
		s.NoteCount, s.Duration, s.MinPitch, s.MaxPitch)
}

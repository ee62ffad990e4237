package tab

import (
	"fmt"
	"sort"
)

// Note is a single pitched note event as produced by the upstream
// transcription stage. Pitch is a MIDI note number.
type Note struct {
	Pitch    int     `json:"pitch"`
	Start    float64 `json:"start_time"`
	End      float64 `json:"end_time"`
	Velocity int     `json:"velocity"`
}

// Duration returns the sounding length of the note in seconds.
func (n Note) Duration() float64 { return n.End - n.Start }

// TabNote is a note placed on the fretboard.
type TabNote struct {
	Time     float64
	String   int
	Fret     int
	Duration float64
	Velocity int
}

// sortNotes returns the notes in start-time order. The sort is stable so
// notes with equal start times keep their input order.
func sortNotes(notes []Note) []Note {
	sorted := make([]Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName converts a MIDI pitch to its scientific name, e.g. 40 -> "E2".
func NoteName(pitch int) string {
	octave := pitch/12 - 1
	return fmt.Sprintf("%s%d", noteNames[((pitch%12)+12)%12], octave)
}

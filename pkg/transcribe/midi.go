package transcribe

import (
	"context"

	"github.com/fretline/fretline/pkg/midi"
	"github.com/fretline/fretline/pkg/tab"
)

// MIDITranscriber extracts notes from Standard MIDI Files locally, with no
// network dependency. It ignores the filename beyond requiring MIDI bytes.
type MIDITranscriber struct{}

// Transcribe parses the SMF bytes and returns the merged note stream.
// A file with no note events yields an empty slice, not an error.
func (MIDITranscriber) Transcribe(_ context.Context, data []byte, _ string) ([]tab.Note, error) {
	s, err := midi.Read(data)
	if err != nil {
		return nil, err
	}
	return midi.Notes(s), nil
}

// Package transcribe turns uploaded audio or MIDI bytes into note streams.
//
// Two implementations exist: [MIDITranscriber] parses Standard MIDI Files
// locally, and [Client] sends raw audio to a remote transcription service
// and decodes the note list it returns. Both satisfy [Transcriber], so the
// pipeline and HTTP API stay agnostic about where notes come from.
package transcribe

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fretline/fretline/pkg/tab"
)

// Transcriber converts file bytes into a sorted note stream.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, filename string) ([]tab.Note, error)
}

// audioExtensions lists the upload formats the remote service accepts.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".flac": true,
}

// IsMIDI reports whether filename names a Standard MIDI File.
func IsMIDI(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".mid" || ext == ".midi"
}

// IsAudio reports whether filename names a supported audio format.
func IsAudio(filename string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Supported reports whether filename can be transcribed at all.
func Supported(filename string) bool {
	return IsMIDI(filename) || IsAudio(filename)
}

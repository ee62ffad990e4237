package transcribe

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/fretline/fretline/pkg/errors"
)

func TestIsMIDI(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"song.mid", true},
		{"song.MIDI", true},
		{"song.wav", false},
		{"song", false},
	}
	for _, tt := range tests {
		if got := IsMIDI(tt.filename); got != tt.want {
			t.Errorf("IsMIDI(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.mid", "a.midi", "a.wav", "a.mp3", "a.FLAC"} {
		if !Supported(name) {
			t.Errorf("Supported(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"a.ogg", "a.txt", "a"} {
		if Supported(name) {
			t.Errorf("Supported(%q) = true, want false", name)
		}
	}
}

func testMIDIBytes(t *testing.T) []byte {
	t.Helper()

	var tr smf.Track
	tr.Add(0, gomidi.NoteOn(0, 60, 100))
	tr.Add(960, gomidi.NoteOff(0, 60))
	tr.Close(0)

	s := smf.New()
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return buf.Bytes()
}

func TestMIDITranscriber(t *testing.T) {
	notes, err := MIDITranscriber{}.Transcribe(context.Background(), testMIDIBytes(t), "test.mid")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(notes) != 1 || notes[0].Pitch != 60 {
		t.Errorf("notes = %+v, want one note at pitch 60", notes)
	}
}

func TestMIDITranscriberRejectsGarbage(t *testing.T) {
	_, err := MIDITranscriber{}.Transcribe(context.Background(), []byte("nope"), "test.mid")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeInvalidAudio) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidAudio)
	}
}

func TestMIDITranscriberEmptyFile(t *testing.T) {
	var tr smf.Track
	tr.Close(0)
	s := smf.New()
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	// A valid file with no note events is an empty tab, not a failure.
	notes, err := MIDITranscriber{}.Transcribe(context.Background(), buf.Bytes(), "empty.mid")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("notes = %+v, want none", notes)
	}
}

func TestClientTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			f.Close()
		}
		if hdr != nil && hdr.Filename != "riff.wav" {
			t.Errorf("filename = %q, want riff.wav", hdr.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"notes":[{"pitch":64,"start_time":0,"end_time":0.5,"velocity":90}]}`))
	}))
	defer srv.Close()

	notes, err := NewClient(srv.URL).Transcribe(context.Background(), []byte("audio"), "riff.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(notes) != 1 || notes[0].Pitch != 64 || notes[0].End != 0.5 {
		t.Errorf("notes = %+v", notes)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"notes":[{"pitch":60,"start_time":0,"end_time":1,"velocity":80}]}`))
	}))
	defer srv.Close()

	notes, err := NewClient(srv.URL).Transcribe(context.Background(), []byte("audio"), "riff.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if len(notes) != 1 {
		t.Errorf("notes = %+v", notes)
	}
}

func TestClientRejectionIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported sample rate", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Transcribe(context.Background(), []byte("audio"), "riff.wav")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeTranscribe) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeTranscribe)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls.Load())
	}
}

func TestClientNetworkErrorCode(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL).Transcribe(context.Background(), []byte("audio"), "riff.wav")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeNetwork)
	}
}

func TestClientEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"notes":[]}`))
	}))
	defer srv.Close()

	notes, err := NewClient(srv.URL).Transcribe(context.Background(), []byte("audio"), "silence.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("notes = %+v, want none", notes)
	}
}

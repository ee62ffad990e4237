package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/tab"
)

// Document is a transcribed note list with its provenance.
type Document struct {
	Source string     `json:"source,omitempty"`
	Notes  []tab.Note `json:"notes"`
}

// WriteJSON encodes a note document as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(doc Document, w io.Writer) error {
	if doc.Notes == nil {
		doc.Notes = []tab.Note{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode note document")
	}
	return nil
}

// ExportJSON writes a note document to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	defer f.Close()
	return WriteJSON(doc, f)
}

// ReadJSON decodes a note document from r.
//
// Each note must carry a MIDI pitch in [0, 127] and an end time no earlier
// than its start time. Malformed JSON or invalid notes return an
// INVALID_INPUT error naming the offending note. ReadJSON does not close r.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode note document")
	}
	for i, n := range doc.Notes {
		if n.Pitch < 0 || n.Pitch > 127 {
			return Document{}, errors.New(errors.ErrCodeInvalidInput,
				"note %d: pitch %d outside MIDI range 0-127", i, n.Pitch)
		}
		if n.End < n.Start {
			return Document{}, errors.New(errors.ErrCodeInvalidInput,
				"note %d: ends at %.3f before it starts at %.3f", i, n.End, n.Start)
		}
	}
	return doc, nil
}

// ImportJSON reads a JSON file at path and returns the decoded note document.
// A missing file returns a FILE_NOT_FOUND error; malformed content returns
// the same validation errors as [ReadJSON].
func ImportJSON(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Document{}, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}

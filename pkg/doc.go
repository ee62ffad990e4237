// Package pkg provides the core libraries for Fretline tablature conversion.
//
// # Overview
//
// Fretline turns MIDI files and transcribed audio into playable guitar
// tablature. The pkg directory is organized into four main areas:
//
//  1. [tab] - Domain logic (position selection, chord grouping, page layout)
//  2. [midi] and [transcribe] - Note extraction from MIDI and audio input
//  3. [render] - Output sinks (text, SVG, PDF, PNG, JSON)
//  4. [pipeline] - Orchestration (arrange → layout → render) with caching
//
// # Architecture
//
// The typical data flow through Fretline:
//
//	MIDI file / audio upload
//	         ↓
//	    [midi] or [transcribe] (extract the note stream)
//	         ↓
//	    [tab] package (assign string/fret positions, group chords)
//	         ↓
//	    [tab/layout] package (pack chords into lines and pages)
//	         ↓
//	    [render/sheet] package (emit tablature artifacts)
//	         ↓
//	    txt/SVG/PDF/PNG/JSON output
//
// # Quick Start
//
// Convert a MIDI file to a text tab:
//
//	import (
//	    "context"
//	    "github.com/fretline/fretline/pkg/midi"
//	    "github.com/fretline/fretline/pkg/pipeline"
//	)
//
//	// 1. Extract notes
//	s, _ := midi.ReadFile("riff.mid")
//	notes := midi.Notes(s)
//
//	// 2. Run the pipeline
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, _ := runner.Execute(context.Background(), notes, pipeline.Options{
//	    Formats: []string{pipeline.FormatText},
//	})
//
//	// 3. Use the artifact
//	fmt.Println(string(result.Artifacts[pipeline.FormatText]))
//
// # Main Packages
//
// ## Core Domain Logic
//
// [tab] - The heart of the conversion: instruments and tunings, the
// string/fret scoring model, and chord grouping with collision handling.
// [tab.Arrange] turns a note stream into an arrangement of playable chords.
//
// [tab/layout] - Pagination of chord groups into fixed-capacity tab lines
// and pages, with column anchor times for each chord.
//
// ## Input
//
// [midi] - Standard MIDI File parsing built on gomidi. Extracts a merged,
// sorted note stream from all non-drum tracks and summarizes files for
// preview output.
//
// [transcribe] - The Transcriber interface with two implementations: local
// SMF decoding for MIDI uploads, and an HTTP client for a remote audio
// transcription service with retry and backoff.
//
// ## Output
//
// [render/sheet] - Tablature sinks. Text for terminals, SVG for browsers,
// JSON for programmatic consumers, and PDF/PNG via SVG conversion.
//
// [render] - Format conversion utilities (SVG to PDF/PNG via rsvg-convert).
//
// ## Infrastructure
//
// [pipeline] - The complete arrange → layout → render pipeline used by both
// the CLI and the HTTP API, with per-stage caching keyed on content hashes.
//
// [cache] - Cache backends (file, Redis, null) with content-addressed keys
// and retry helpers for transient failures.
//
// [jobs] - Job lifecycle for the HTTP API (uploaded → transcribing →
// transcribed → rendering → done/failed) with memory, Redis, and MongoDB
// stores.
//
// [io] - JSON import and export of transcribed note documents.
//
// [observability] - Optional instrumentation hooks for pipeline stages,
// cache operations, and HTTP requests.
//
// [errors] - Typed error codes shared across the CLI and API, mapped to
// HTTP statuses at the API boundary.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/tab/...        # Specific package
//	go test -run Example         # Examples only
//
// [tab]: https://pkg.go.dev/github.com/fretline/fretline/pkg/tab
// [tab.Arrange]: https://pkg.go.dev/github.com/fretline/fretline/pkg/tab#Arrange
// [tab/layout]: https://pkg.go.dev/github.com/fretline/fretline/pkg/tab/layout
// [midi]: https://pkg.go.dev/github.com/fretline/fretline/pkg/midi
// [transcribe]: https://pkg.go.dev/github.com/fretline/fretline/pkg/transcribe
// [render]: https://pkg.go.dev/github.com/fretline/fretline/pkg/render
// [render/sheet]: https://pkg.go.dev/github.com/fretline/fretline/pkg/render/sheet
// [pipeline]: https://pkg.go.dev/github.com/fretline/fretline/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/fretline/fretline/pkg/cache
// [jobs]: https://pkg.go.dev/github.com/fretline/fretline/pkg/jobs
// [io]: https://pkg.go.dev/github.com/fretline/fretline/pkg/io
// [observability]: https://pkg.go.dev/github.com/fretline/fretline/pkg/observability
// [errors]: https://pkg.go.dev/github.com/fretline/fretline/pkg/errors
package pkg

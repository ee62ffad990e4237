// Package pipeline provides the core conversion pipeline for Fretline.
//
// This package implements the complete arrange → layout → render pipeline
// shared by the CLI and the HTTP API. Centralizing it keeps behavior
// consistent across entry points and puts the caching logic in one place.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Arrange: map notes to string/fret positions and group simultaneous
//     notes into chords
//  2. Layout: place chord groups onto fixed-size page grids
//  3. Render: generate output in various formats (text, SVG, PDF, PNG, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"svg"},
//	    Title:   "My Song",
//	}
//	result, err := runner.Execute(ctx, notes, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fretline/fretline/pkg/cache"
	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/tab"
	"github.com/fretline/fretline/pkg/tab/layout"
)

// Format constants for output formats.
const (
	FormatText = "txt"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// DefaultFormat is the output format used when none is requested.
const DefaultFormat = FormatText

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: txt, svg, pdf, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options contains all configuration for the conversion pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Arrangement options
	Tuning    []int   `json:"tuning,omitempty"`
	MaxFret   int     `json:"max_fret,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"` // 0 = default; negative groups exact ties only
	Bump      bool    `json:"bump,omitempty"`      // reassign collided notes instead of dropping

	// Layout options
	LineCapacity int `json:"line_capacity,omitempty"`
	LinesPerPage int `json:"lines_per_page,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Title     string   `json:"title,omitempty"`
	ShowTimes bool     `json:"show_times,omitempty"`

	// Refresh bypasses the cache for every stage.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks all fields and applies defaults for the full
// pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForArrange(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForArrange applies arrangement defaults and validates the tuning.
func (o *Options) ValidateForArrange() error {
	if len(o.Tuning) == 0 {
		o.Tuning = tab.StandardTuning()
	}
	if o.MaxFret == 0 {
		o.MaxFret = tab.DefaultMaxFret
	}
	o.setLoggerDefault()

	// Instrument construction is the tuning validator.
	_, err := tab.NewInstrument(o.Tuning, o.MaxFret)
	return err
}

// ValidateForLayout validates the page grid options.
func (o *Options) ValidateForLayout() error {
	o.setLoggerDefault()
	if o.LineCapacity < 0 || o.LinesPerPage < 0 {
		return errors.New(errors.ErrCodeInvalidLayout,
			"line capacity and lines per page must be positive, got %d and %d",
			o.LineCapacity, o.LinesPerPage)
	}
	return nil
}

// ValidateForRender applies render defaults and validates formats.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.setLoggerDefault()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Instrument builds the instrument the options describe. Call after
// validation.
func (o *Options) Instrument() (*tab.Instrument, error) {
	return tab.NewInstrument(o.Tuning, o.MaxFret)
}

// TabOptions returns the arrangement options for the conversion core.
func (o *Options) TabOptions() tab.Options {
	return tab.Options{
		Tolerance:      o.Tolerance,
		BumpCollisions: o.Bump,
	}
}

// LayoutOptions returns the page grid options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		LineCapacity: o.LineCapacity,
		LinesPerPage: o.LinesPerPage,
	}
}

// ArrangementKeyOpts returns cache key options for the arrange stage.
func (o *Options) ArrangementKeyOpts() cache.ArrangementKeyOpts {
	return cache.ArrangementKeyOpts{
		Tuning:    o.Tuning,
		MaxFret:   o.MaxFret,
		Tolerance: o.Tolerance,
		Bump:      o.Bump,
	}
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		LineCapacity: o.LineCapacity,
		LinesPerPage: o.LinesPerPage,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		Title:     o.Title,
		ShowTimes: o.ShowTimes,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Arrangement is the arranged chord groups with conversion totals.
	Arrangement *tab.Arrangement

	// Pages is the paginated layout.
	Pages []layout.Page

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ArrangeTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ArrangeHit bool // Whether the arrangement came from cache
	LayoutHit  bool // Whether the page layout came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

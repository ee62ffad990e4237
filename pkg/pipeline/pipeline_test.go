package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fretline/fretline/pkg/cache"
	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/tab"
)

// testNotes is a short riff: open low E, then an E4/G4 pair.
func testNotes() []tab.Note {
	return []tab.Note{
		{Pitch: 40, Start: 0, End: 0.5, Velocity: 100},
		{Pitch: 64, Start: 0.5, End: 1.0, Velocity: 90},
		{Pitch: 67, Start: 0.5, End: 1.0, Velocity: 90},
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"txt", "svg", "pdf", "png", "json"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	err := ValidateFormat("docx")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidFormat)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if len(opts.Tuning) != 6 || opts.Tuning[0] != 40 {
		t.Errorf("tuning = %v, want standard", opts.Tuning)
	}
	if opts.MaxFret != tab.DefaultMaxFret {
		t.Errorf("max fret = %d, want %d", opts.MaxFret, tab.DefaultMaxFret)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatText {
		t.Errorf("formats = %v, want [txt]", opts.Formats)
	}
}

func TestOptionsRejectsBadTuning(t *testing.T) {
	opts := Options{Tuning: []int{50, 40}}
	err := opts.ValidateAndSetDefaults()
	if !errors.Is(err, errors.ErrCodeInvalidTuning) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidTuning)
	}
}

func TestOptionsRejectsBadFormat(t *testing.T) {
	opts := Options{Formats: []string{"docx"}}
	err := opts.ValidateAndSetDefaults()
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidFormat)
	}
}

func TestExecute(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, nil)
	result, err := runner.Execute(context.Background(), testNotes(), Options{
		Formats: []string{FormatText, FormatSVG, FormatJSON},
		Title:   "Riff",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Arrangement.TotalNotes != 3 {
		t.Errorf("total notes = %d, want 3", result.Arrangement.TotalNotes)
	}
	if len(result.Pages) != 1 {
		t.Errorf("pages = %d, want 1", len(result.Pages))
	}
	if len(result.Artifacts) != 3 {
		t.Fatalf("artifacts = %v", len(result.Artifacts))
	}
	if !strings.Contains(string(result.Artifacts[FormatText]), "Riff") {
		t.Error("text artifact missing title")
	}
	if !strings.HasPrefix(string(result.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact is not an SVG document")
	}
	var out map[string]any
	if err := json.Unmarshal(result.Artifacts[FormatJSON], &out); err != nil {
		t.Errorf("json artifact: %v", err)
	}
}

func TestExecuteEmptyNotesYieldsEmptyResult(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), nil, Options{
		Formats: []string{FormatText, FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute with no notes: %v", err)
	}

	if len(result.Arrangement.Groups) != 0 {
		t.Errorf("groups = %d, want 0", len(result.Arrangement.Groups))
	}
	if result.Arrangement.TotalNotes != 0 || result.Arrangement.Dropped != 0 {
		t.Errorf("stats = %+v, want all zero", result.Arrangement)
	}
	if len(result.Pages) != 0 {
		t.Errorf("pages = %d, want 0", len(result.Pages))
	}
	if len(result.Artifacts) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(result.Artifacts))
	}

	var out map[string]any
	if err := json.Unmarshal(result.Artifacts[FormatJSON], &out); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if pages, ok := out["pages"].([]any); !ok || len(pages) != 0 {
		t.Errorf("json pages = %v, want empty array", out["pages"])
	}
}

func TestExecuteCacheHits(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	ctx := context.Background()
	opts := Options{Formats: []string{FormatText}}

	first, err := runner.Execute(ctx, testNotes(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.ArrangeHit || first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss everywhere: %+v", first.CacheInfo)
	}

	second, err := runner.Execute(ctx, testNotes(), Options{Formats: []string{FormatText}})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.ArrangeHit || !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit everywhere: %+v", second.CacheInfo)
	}
	if string(second.Artifacts[FormatText]) != string(first.Artifacts[FormatText]) {
		t.Error("cached artifact differs from rendered artifact")
	}
}

func TestExecuteRefreshBypassesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	ctx := context.Background()

	if _, err := runner.Execute(ctx, testNotes(), Options{Formats: []string{FormatText}}); err != nil {
		t.Fatalf("prime: %v", err)
	}

	result, err := runner.Execute(ctx, testNotes(), Options{Formats: []string{FormatText}, Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if result.CacheInfo.ArrangeHit || result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Errorf("refresh run should miss everywhere: %+v", result.CacheInfo)
	}
}

func TestExecuteDifferentTuningsCacheApart(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	ctx := context.Background()

	if _, err := runner.Execute(ctx, testNotes(), Options{Formats: []string{FormatText}}); err != nil {
		t.Fatalf("standard tuning: %v", err)
	}

	// Drop D: different tuning must not reuse the standard-tuning entry.
	dropD := Options{
		Tuning:  []int{38, 45, 50, 55, 59, 64},
		Formats: []string{FormatText},
	}
	result, err := runner.Execute(ctx, testNotes(), dropD)
	if err != nil {
		t.Fatalf("drop D tuning: %v", err)
	}
	if result.CacheInfo.ArrangeHit {
		t.Error("different tuning reused cached arrangement")
	}
}

package sheet

import (
	"encoding/json"

	"github.com/fretline/fretline/pkg/tab"
	"github.com/fretline/fretline/pkg/tab/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	title string
	stats *tab.Arrangement
}

// WithJSONTitle records the sheet title in the output.
func WithJSONTitle(title string) JSONOption {
	return func(r *jsonRenderer) { r.title = title }
}

// WithJSONArrangement includes arrangement totals (note counts, dropped
// notes, duration) alongside the pages.
func WithJSONArrangement(a *tab.Arrangement) JSONOption {
	return func(r *jsonRenderer) { r.stats = a }
}

type jsonOutput struct {
	Title   string        `json:"title,omitempty"`
	Tuning  []int         `json:"tuning"`
	Strings []string      `json:"strings"`
	Pages   []layout.Page `json:"pages"`
	Stats   *jsonStats    `json:"stats,omitempty"`
}

type jsonStats struct {
	TotalNotes int     `json:"total_notes"`
	Dropped    int     `json:"dropped"`
	Duration   float64 `json:"duration"`
}

// RenderJSON exports the pages and instrument context as a pretty-printed
// JSON document, the interchange format for external tools. Strings holds
// the open-string note names in string-index order (lowest first).
func RenderJSON(pages []layout.Page, inst *tab.Instrument, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	tuning := inst.Tuning()
	names := make([]string, len(tuning))
	for i, p := range tuning {
		names[i] = tab.NoteName(p)
	}

	out := jsonOutput{
		Title:   r.title,
		Tuning:  tuning,
		Strings: names,
		Pages:   pages,
	}
	if out.Pages == nil {
		out.Pages = []layout.Page{}
	}
	if r.stats != nil {
		out.Stats = &jsonStats{
			TotalNotes: r.stats.TotalNotes,
			Dropped:    r.stats.Dropped,
			Duration:   r.stats.Duration,
		}
	}

	return json.MarshalIndent(out, "", "  ")
}

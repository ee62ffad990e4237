package sheet

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fretline/fretline/pkg/tab"
	"github.com/fretline/fretline/pkg/tab/layout"
)

func testInstrument(t *testing.T) *tab.Instrument {
	t.Helper()
	inst, err := tab.NewInstrument(tab.StandardTuning(), tab.DefaultMaxFret)
	if err != nil {
		t.Fatalf("NewInstrument: %v", err)
	}
	return inst
}

// testPages lays out three single-note groups: open low E, fret 2 on the A
// string, fret 12 on the D string.
func testPages(t *testing.T) []layout.Page {
	t.Helper()
	silent := func() []int {
		return []int{tab.NoFret, tab.NoFret, tab.NoFret, tab.NoFret, tab.NoFret, tab.NoFret}
	}
	g0, g1, g2 := silent(), silent(), silent()
	g0[0], g1[1], g2[2] = 0, 2, 12

	groups := []tab.ChordGroup{
		{Time: 0.0, Strings: g0, Duration: 0.5, NoteCount: 1},
		{Time: 0.5, Strings: g1, Duration: 0.5, NoteCount: 1},
		{Time: 1.0, Strings: g2, Duration: 0.5, NoteCount: 1},
	}
	pages, err := layout.Paginate(groups, 6, layout.Options{})
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	return pages
}

func TestRenderText(t *testing.T) {
	out := string(RenderText(testPages(t), testInstrument(t), WithTextTitle("Test Song")))

	if !strings.HasPrefix(out, "Test Song\n\n") {
		t.Errorf("missing title header:\n%s", out)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	rows := lines[2:]
	if len(rows) != 6 {
		t.Fatalf("tab rows = %d, want 6:\n%s", len(rows), out)
	}

	// Highest string on top, lowest at the bottom.
	if !strings.HasPrefix(rows[0], "E4") {
		t.Errorf("top row label = %q, want E4", rows[0])
	}
	if !strings.HasPrefix(rows[5], "E2") {
		t.Errorf("bottom row label = %q, want E2", rows[5])
	}

	// Fret numbers land on their string's row.
	if !strings.Contains(rows[5], "0-") {
		t.Errorf("low E row missing open-string 0: %q", rows[5])
	}
	if !strings.Contains(rows[4], "2-") {
		t.Errorf("A row missing fret 2: %q", rows[4])
	}
	if !strings.Contains(rows[3], "12") {
		t.Errorf("D row missing fret 12: %q", rows[3])
	}

	// All rows align on the same width.
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			t.Errorf("row %d width = %d, want %d", i, len(row), len(rows[0]))
		}
	}
}

func TestRenderTextTimes(t *testing.T) {
	out := string(RenderText(testPages(t), testInstrument(t), WithTimes()))

	header := strings.SplitN(out, "\n", 2)[0]
	for _, want := range []string{"0.00", "0.50", "1.00"} {
		if !strings.Contains(header, want) {
			t.Errorf("time header %q missing %q", header, want)
		}
	}
}

func TestRenderTextMultiPage(t *testing.T) {
	var groups []tab.ChordGroup
	for i := 0; i < 33; i++ {
		cells := make([]int, 6)
		for s := range cells {
			cells[s] = tab.NoFret
		}
		cells[0] = 0
		groups = append(groups, tab.ChordGroup{Time: float64(i) * 0.1, Strings: cells, NoteCount: 1})
	}
	pages, err := layout.Paginate(groups, 6, layout.Options{})
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}

	out := string(RenderText(pages, testInstrument(t)))
	if !strings.Contains(out, "[Page 1/2]") || !strings.Contains(out, "[Page 2/2]") {
		t.Errorf("missing page markers:\n%s", out)
	}
}

func TestRenderSVG(t *testing.T) {
	out := string(RenderSVG(testPages(t), testInstrument(t), WithTitle("A <Song> & More")))

	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("not an SVG document:\n%.100s", out)
	}
	if !strings.HasSuffix(out, "</svg>\n") {
		t.Error("unterminated SVG document")
	}
	if !strings.Contains(out, "A &lt;Song&gt; &amp; More") {
		t.Error("title not escaped")
	}
	for _, want := range []string{">12</text>", ">E2</text>", ">E4</text>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderSVGEmptyPages(t *testing.T) {
	out := string(RenderSVG(nil, testInstrument(t)))
	if !strings.HasPrefix(out, "<svg") || !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("empty input should still yield a valid document:\n%s", out)
	}
}

func TestRenderJSON(t *testing.T) {
	arr := &tab.Arrangement{TotalNotes: 3, Dropped: 0, Duration: 1.5}
	data, err := RenderJSON(testPages(t), testInstrument(t),
		WithJSONTitle("Test Song"), WithJSONArrangement(arr))
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	var out struct {
		Title   string   `json:"title"`
		Tuning  []int    `json:"tuning"`
		Strings []string `json:"strings"`
		Pages   []struct {
			Lines []struct {
				Cells [][]int  `json:"cells"`
				Times []string `json:"times"`
			} `json:"lines"`
		} `json:"pages"`
		Stats struct {
			TotalNotes int     `json:"total_notes"`
			Duration   float64 `json:"duration"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out.Title != "Test Song" {
		t.Errorf("title = %q", out.Title)
	}
	if len(out.Tuning) != 6 || out.Tuning[0] != 40 {
		t.Errorf("tuning = %v", out.Tuning)
	}
	if len(out.Strings) != 6 || out.Strings[0] != "E2" || out.Strings[5] != "E4" {
		t.Errorf("strings = %v", out.Strings)
	}
	if len(out.Pages) != 1 || len(out.Pages[0].Lines) != 1 {
		t.Fatalf("pages = %+v", out.Pages)
	}
	if got := out.Pages[0].Lines[0].Cells[0][0]; got != 0 {
		t.Errorf("cell[0][0] = %d, want 0", got)
	}
	if out.Stats.TotalNotes != 3 || out.Stats.Duration != 1.5 {
		t.Errorf("stats = %+v", out.Stats)
	}
}

func TestRenderJSONEmptyPages(t *testing.T) {
	data, err := RenderJSON(nil, testInstrument(t))
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	if !strings.Contains(string(data), `"pages": []`) {
		t.Errorf("nil pages should serialize as an empty array:\n%s", data)
	}
}

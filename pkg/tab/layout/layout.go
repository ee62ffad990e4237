// Package layout places arranged chord groups onto a fixed-size page grid.
//
// A page holds a fixed number of tab lines; a line holds one row per string
// and a fixed number of time-slot columns. Placement is purely arithmetic:
// chord group i lands in column i%LineCapacity of line (i/LineCapacity) %
// LinesPerPage on page i/(LineCapacity*LinesPerPage). There is no
// content-dependent reflow, so the total column count across all pages
// always equals the input group count.
//
// The output is renderer-agnostic: sinks in pkg/render/sheet decide fonts,
// coordinates, and page size.
package layout

import (
	"fmt"

	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/tab"
)

// Defaults for the page grid. Eight columns per line matches the original
// sheet density; four lines fill an A4 page at the standard row height.
const (
	DefaultLineCapacity = 8
	DefaultLinesPerPage = 4
)

// Options configures the page grid.
type Options struct {
	// LineCapacity is the number of time-slot columns per tab line.
	LineCapacity int

	// LinesPerPage is the number of tab lines before a page break.
	LinesPerPage int
}

// withDefaults fills zero fields and validates the rest.
func (o Options) withDefaults() (Options, error) {
	if o.LineCapacity == 0 {
		o.LineCapacity = DefaultLineCapacity
	}
	if o.LinesPerPage == 0 {
		o.LinesPerPage = DefaultLinesPerPage
	}
	if o.LineCapacity < 0 || o.LinesPerPage < 0 {
		return o, errors.New(errors.ErrCodeInvalidLayout,
			"line capacity and lines per page must be positive, got %d and %d",
			o.LineCapacity, o.LinesPerPage)
	}
	return o, nil
}

// Line is one run of chord groups across all strings. Cells is indexed
// [string][column]; silent cells hold tab.NoFret. Times holds one label per
// column, derived from the group's anchor time.
type Line struct {
	Cells [][]int  `json:"cells"`
	Times []string `json:"times"`
}

// Columns returns the number of occupied time-slot columns.
func (l Line) Columns() int { return len(l.Times) }

// Page is an ordered run of tab lines.
type Page struct {
	Lines []Line `json:"lines"`
}

// Columns returns the number of chord groups placed on the page.
func (p Page) Columns() int {
	total := 0
	for _, l := range p.Lines {
		total += l.Columns()
	}
	return total
}

// TimeLabel formats a group anchor time for display above its column.
func TimeLabel(seconds float64) string {
	return fmt.Sprintf("%.2f", seconds)
}

// Paginate lays chord groups onto the page grid. numStrings is the string
// count of the instrument the groups were arranged for; every group's
// Strings slice must have that length. Empty input yields zero pages.
func Paginate(groups []tab.ChordGroup, numStrings int, opts Options) ([]Page, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	var pages []Page
	perPage := opts.LineCapacity * opts.LinesPerPage

	for i, g := range groups {
		if len(g.Strings) != numStrings {
			return nil, errors.New(errors.ErrCodeInvalidLayout,
				"group %d has %d strings, instrument has %d", i, len(g.Strings), numStrings)
		}

		if i/perPage == len(pages) {
			pages = append(pages, Page{})
		}
		page := &pages[len(pages)-1]

		if (i/opts.LineCapacity)%opts.LinesPerPage == len(page.Lines) {
			line := Line{Cells: make([][]int, numStrings)}
			page.Lines = append(page.Lines, line)
		}
		line := &page.Lines[len(page.Lines)-1]

		for s := 0; s < numStrings; s++ {
			line.Cells[s] = append(line.Cells[s], g.Strings[s])
		}
		line.Times = append(line.Times, TimeLabel(g.Time))
	}

	return pages, nil
}

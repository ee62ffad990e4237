package sheet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/fretline/fretline/pkg/tab"
	"github.com/fretline/fretline/pkg/tab/layout"
)

// TextOption configures plain-text rendering.
type TextOption func(*textRenderer)

type textRenderer struct {
	title     string
	showTimes bool
}

// WithTextTitle prints a title line above the first page.
func WithTextTitle(title string) TextOption {
	return func(r *textRenderer) { r.title = title }
}

// WithTimes prints each column's anchor time above the tab line.
func WithTimes() TextOption {
	return func(r *textRenderer) { r.showTimes = true }
}

// RenderText renders pages as plain ASCII tablature. Rows run highest string
// to lowest, labeled with the open-string note name, the way printed tab
// reads. Silent cells are dashes.
func RenderText(pages []layout.Page, inst *tab.Instrument, opts ...TextOption) []byte {
	r := textRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	if r.title != "" {
		fmt.Fprintf(&buf, "%s\n\n", r.title)
	}

	for p, page := range pages {
		if len(pages) > 1 {
			fmt.Fprintf(&buf, "[Page %d/%d]\n", p+1, len(pages))
		}
		for _, line := range page.Lines {
			writeTextLine(&buf, line, inst, r.showTimes)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

func writeTextLine(buf *bytes.Buffer, line layout.Line, inst *tab.Instrument, showTimes bool) {
	widths := columnWidths(line)

	if showTimes {
		buf.WriteString(strings.Repeat(" ", labelWidth+1))
		for c, t := range line.Times {
			fmt.Fprintf(buf, "%-*s", widths[c], t)
		}
		buf.WriteByte('\n')
	}

	for s := inst.NumStrings() - 1; s >= 0; s-- {
		fmt.Fprintf(buf, "%-*s|", labelWidth, tab.NoteName(inst.OpenPitch(s)))
		for c, fret := range line.Cells[s] {
			buf.WriteString(cellText(fret, widths[c]))
		}
		buf.WriteString("|\n")
	}
}

// labelWidth fits note names up to "C#10".
const labelWidth = 4

// columnWidths sizes each column to its widest content plus dash padding, so
// two-digit frets and time labels stay aligned.
func columnWidths(line layout.Line) []int {
	widths := make([]int, len(line.Times))
	for c := range widths {
		w := len(line.Times[c])
		for s := range line.Cells {
			if f := line.Cells[s][c]; f != tab.NoFret {
				if l := len(strconv.Itoa(f)); l > w {
					w = l
				}
			}
		}
		widths[c] = w + 2
	}
	return widths
}

func cellText(fret, width int) string {
	if fret == tab.NoFret {
		return strings.Repeat("-", width)
	}
	f := strconv.Itoa(fret)
	return f + strings.Repeat("-", width-len(f))
}

package sheet

import (
	"bytes"
	"fmt"

	"github.com/fretline/fretline/pkg/tab"
	"github.com/fretline/fretline/pkg/tab/layout"
)

// A4 portrait in points, matching the print target.
const (
	pageWidth  = 595.0
	pageHeight = 842.0

	marginX   = 50.0
	marginTop = 100.0
	rowGap    = 20.0
	lineGap   = 160.0
	labelPad  = 30.0
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	title     string
	fontSize  float64
	showTimes bool
}

// WithTitle draws a centered title at the top of the first page.
func WithTitle(title string) SVGOption {
	return func(r *svgRenderer) { r.title = title }
}

// WithFontSize overrides the fret number font size (default 11).
func WithFontSize(size float64) SVGOption {
	return func(r *svgRenderer) { r.fontSize = size }
}

// WithSVGTimes draws each column's anchor time above the tab line.
func WithSVGTimes() SVGOption {
	return func(r *svgRenderer) { r.showTimes = true }
}

// RenderSVG renders pages as a single SVG document with one A4-sized block
// per page, stacked vertically. Strings are drawn as horizontal rules with
// the highest string on top; fret numbers sit on their string line.
func RenderSVG(pages []layout.Page, inst *tab.Instrument, opts ...SVGOption) []byte {
	r := svgRenderer{fontSize: 11}
	for _, opt := range opts {
		opt(&r)
	}

	numPages := len(pages)
	if numPages == 0 {
		numPages = 1
	}
	totalHeight := pageHeight * float64(numPages)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		pageWidth, totalHeight, pageWidth, totalHeight)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="white"/>`+"\n")

	for p, page := range pages {
		r.renderPage(&buf, page, inst, float64(p)*pageHeight, p == 0)
		if p > 0 {
			fmt.Fprintf(&buf, `  <line x1="0" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#ccc" stroke-dasharray="4 4"/>`+"\n",
				float64(p)*pageHeight, pageWidth, float64(p)*pageHeight)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderPage(buf *bytes.Buffer, page layout.Page, inst *tab.Instrument, offsetY float64, first bool) {
	y := offsetY + marginTop
	if first && r.title != "" {
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="Helvetica, sans-serif" font-size="18" text-anchor="middle">%s</text>`+"\n",
			pageWidth/2, offsetY+60, escapeXML(r.title))
	}

	for _, line := range page.Lines {
		r.renderLine(buf, line, inst, y)
		y += lineGap
	}
}

func (r *svgRenderer) renderLine(buf *bytes.Buffer, line layout.Line, inst *tab.Instrument, top float64) {
	n := inst.NumStrings()
	left := marginX + labelPad
	right := pageWidth - marginX
	colWidth := (right - left) / float64(layout.DefaultLineCapacity)
	if cols := line.Columns(); cols > layout.DefaultLineCapacity {
		colWidth = (right - left) / float64(cols)
	}

	// One rule per string, highest on top.
	for s := 0; s < n; s++ {
		y := top + float64(n-1-s)*rowGap
		fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black" stroke-width="0.75"/>`+"\n",
			left, y, right, y)
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="Menlo, monospace" font-size="%.1f" text-anchor="end">%s</text>`+"\n",
			left-8, y+r.fontSize*0.35, r.fontSize, escapeXML(tab.NoteName(inst.OpenPitch(s))))
	}

	for c := 0; c < line.Columns(); c++ {
		x := left + (float64(c)+0.5)*colWidth
		if r.showTimes {
			fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="Menlo, monospace" font-size="%.1f" fill="#888" text-anchor="middle">%s</text>`+"\n",
				x, top-rowGap*0.75, r.fontSize*0.8, line.Times[c])
		}
		for s := 0; s < n; s++ {
			fret := line.Cells[s][c]
			if fret == tab.NoFret {
				continue
			}
			y := top + float64(n-1-s)*rowGap
			// White backing keeps the digit readable over the string rule.
			fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="Menlo, monospace" font-size="%.1f" text-anchor="middle" stroke="white" stroke-width="3" paint-order="stroke">%d</text>`+"\n",
				x, y+r.fontSize*0.35, r.fontSize, fret)
		}
	}
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, c := range s {
		switch c {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(c)
		}
	}
	return buf.String()
}

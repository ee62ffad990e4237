// Package sheet provides output format renderers for paginated tablature.
//
// A sink transforms the pages produced by [layout.Paginate] into a final
// output format:
//
//   - Text: plain ASCII tablature for terminals and diffs
//   - SVG: print-oriented vector sheets, one block per page
//   - JSON: structured export for external tools
//   - PDF: print-ready output (requires rsvg-convert)
//   - PNG: raster image output (requires rsvg-convert)
//
// All sinks take the same inputs: the pages and the instrument the
// arrangement was made for. The instrument supplies string count and row
// labels; sinks never recompute positions.
//
// Basic usage:
//
//	svg := sheet.RenderSVG(pages, inst, sheet.WithTitle("My Song"))
//	pdf, err := sheet.RenderPDF(pages, inst, sheet.WithPDFSVGOptions(sheet.WithTitle("My Song")))
//
// PDF and PNG render via SVG conversion and require librsvg:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
package sheet

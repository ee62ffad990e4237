package pipeline

import (
	"github.com/fretline/fretline/pkg/render/sheet"
	"github.com/fretline/fretline/pkg/tab"
	"github.com/fretline/fretline/pkg/tab/layout"
)

// renderFormats produces every requested format from one layout. Options
// must already be validated.
func renderFormats(pages []layout.Page, arrangement *tab.Arrangement, opts Options) (map[string][]byte, error) {
	inst, err := opts.Instrument()
	if err != nil {
		return nil, err
	}

	svgOpts := func() []sheet.SVGOption {
		var o []sheet.SVGOption
		if opts.Title != "" {
			o = append(o, sheet.WithTitle(opts.Title))
		}
		if opts.ShowTimes {
			o = append(o, sheet.WithSVGTimes())
		}
		return o
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatText:
			var o []sheet.TextOption
			if opts.Title != "" {
				o = append(o, sheet.WithTextTitle(opts.Title))
			}
			if opts.ShowTimes {
				o = append(o, sheet.WithTimes())
			}
			artifacts[format] = sheet.RenderText(pages, inst, o...)

		case FormatSVG:
			artifacts[format] = sheet.RenderSVG(pages, inst, svgOpts()...)

		case FormatPDF:
			data, err := sheet.RenderPDF(pages, inst, sheet.WithPDFSVGOptions(svgOpts()...))
			if err != nil {
				return nil, err
			}
			artifacts[format] = data

		case FormatPNG:
			data, err := sheet.RenderPNG(pages, inst, sheet.WithPNGSVGOptions(svgOpts()...))
			if err != nil {
				return nil, err
			}
			artifacts[format] = data

		case FormatJSON:
			var o []sheet.JSONOption
			if opts.Title != "" {
				o = append(o, sheet.WithJSONTitle(opts.Title))
			}
			if arrangement != nil {
				o = append(o, sheet.WithJSONArrangement(arrangement))
			}
			data, err := sheet.RenderJSON(pages, inst, o...)
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		}
	}
	return artifacts, nil
}

package cli

import (
	"context"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fretline/fretline/pkg/pipeline"
	"github.com/fretline/fretline/pkg/render/sheet"
	"github.com/fretline/fretline/pkg/tab/layout"
)

// viewCommand creates the view command, which converts a MIDI file and
// opens the resulting tab in an interactive terminal pager.
func (c *CLI) viewCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Browse a converted tab page by page in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.tuning, "tuning", "", "open-string MIDI pitches, low to high (default: 40,45,50,55,59,64)")
	cmd.Flags().IntVar(&opts.maxFret, "max-fret", 0, "highest playable fret (default: 24)")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", 0, "chord grouping window in seconds (default: 0.05, negative disables)")
	cmd.Flags().BoolVar(&opts.bump, "bump", false, "move colliding notes to the next-best string instead of dropping them")
	cmd.Flags().IntVar(&opts.columns, "columns", 0, "chord columns per tab line (default: 8)")
	cmd.Flags().IntVar(&opts.lines, "lines", 0, "tab lines per page (default: 4)")
	cmd.Flags().BoolVar(&opts.times, "times", false, "print column anchor times above each line")
	cmd.Flags().StringVar(&opts.transcriber, "transcriber", "", "transcription service URL for audio input")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the conversion cache")

	return cmd
}

func (c *CLI) runView(ctx context.Context, input string, opts *convertOpts) error {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	pages, err := c.renderViewPages(ctx, input, opts)
	if err != nil {
		return err
	}

	model := NewPagerModel(stem, pages)
	p := tea.NewProgram(model, tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// renderViewPages runs the conversion pipeline and renders each page as a
// standalone text block for the pager.
func (c *CLI) renderViewPages(ctx context.Context, input string, opts *convertOpts) ([]string, error) {
	tuning, err := parseTuning(opts.tuning)
	if err != nil {
		return nil, err
	}
	pipeOpts := pipeline.Options{
		Tuning:       tuning,
		MaxFret:      opts.maxFret,
		Tolerance:    opts.tolerance,
		Bump:         opts.bump,
		LineCapacity: opts.columns,
		LinesPerPage: opts.lines,
		ShowTimes:    opts.times,
		Logger:       c.Logger,
	}
	if err := pipeOpts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	notes, err := c.loadNotes(ctx, input, opts.transcriber)
	if err != nil {
		return nil, err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	arrangement, err := runner.Arrange(ctx, notes, pipeOpts)
	if err != nil {
		return nil, err
	}
	pages, err := runner.Paginate(ctx, arrangement, pipeOpts)
	if err != nil {
		return nil, err
	}

	inst, err := pipeOpts.Instrument()
	if err != nil {
		return nil, err
	}
	var textOpts []sheet.TextOption
	if pipeOpts.ShowTimes {
		textOpts = append(textOpts, sheet.WithTimes())
	}
	rendered := make([]string, len(pages))
	for i, page := range pages {
		rendered[i] = string(sheet.RenderText([]layout.Page{page}, inst, textOpts...))
	}
	return rendered, nil
}

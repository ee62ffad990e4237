package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/pipeline"
	"github.com/fretline/fretline/pkg/tab"
	"github.com/fretline/fretline/pkg/transcribe"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output      string  // output base path; defaults to the input stem
	formats     string  // comma-separated output formats
	tuning      string  // comma-separated open-string MIDI pitches
	maxFret     int     // highest playable fret
	tolerance   float64 // chord grouping window in seconds
	bump        bool    // reassign collided notes instead of dropping them
	columns     int     // chord columns per tab line
	lines       int     // tab lines per page
	title       string  // sheet title; defaults to the input stem
	times       bool    // print column anchor times
	transcriber string  // audio transcription service endpoint
	noCache     bool    // disable the conversion cache
	refresh     bool    // recompute even when cached
}

// convertCommand creates the convert command, the main entry point for
// turning a MIDI or audio file into tablature files.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a MIDI or audio file to guitar tablature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input file stem)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): txt (default), svg, pdf, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.tuning, "tuning", "", "open-string MIDI pitches, low to high (default: 40,45,50,55,59,64)")
	cmd.Flags().IntVar(&opts.maxFret, "max-fret", 0, "highest playable fret (default: 24)")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", 0, "chord grouping window in seconds (default: 0.05, negative disables)")
	cmd.Flags().BoolVar(&opts.bump, "bump", false, "move colliding notes to the next-best string instead of dropping them")
	cmd.Flags().IntVar(&opts.columns, "columns", 0, "chord columns per tab line (default: 8)")
	cmd.Flags().IntVar(&opts.lines, "lines", 0, "tab lines per page (default: 4)")
	cmd.Flags().StringVar(&opts.title, "title", "", "sheet title (default: input file stem)")
	cmd.Flags().BoolVar(&opts.times, "times", false, "print column anchor times above each line")
	cmd.Flags().StringVar(&opts.transcriber, "transcriber", "", "transcription service URL for audio input")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the conversion cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runConvert(ctx context.Context, input string, opts *convertOpts) error {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	tuning, err := parseTuning(opts.tuning)
	if err != nil {
		return err
	}
	pipeOpts := pipeline.Options{
		Tuning:       tuning,
		MaxFret:      opts.maxFret,
		Tolerance:    opts.tolerance,
		Bump:         opts.bump,
		LineCapacity: opts.columns,
		LinesPerPage: opts.lines,
		Formats:      parseFormats(opts.formats),
		Title:        opts.title,
		ShowTimes:    opts.times,
		Refresh:      opts.refresh,
		Logger:       c.Logger,
	}
	if pipeOpts.Title == "" {
		pipeOpts.Title = stem
	}
	if err := pipeOpts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	notes, err := c.loadNotes(ctx, input, opts.transcriber)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, notes, pipeOpts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Converted %d notes", result.Arrangement.TotalNotes))

	base := opts.output
	if base == "" {
		base = stem
	}
	printSuccess("Converted %s", filepath.Base(input))
	printStats(result.Arrangement.TotalNotes, len(result.Arrangement.Groups),
		len(result.Pages), result.Arrangement.Dropped,
		result.CacheInfo.ArrangeHit && result.CacheInfo.RenderHit)
	if result.Arrangement.Dropped > 0 {
		printWarning("%d notes outside the instrument's range were dropped", result.Arrangement.Dropped)
	}

	for _, format := range pipeOpts.Formats {
		path := base + "." + format
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
		}
		printFile(path)
	}

	if containsFormat(pipeOpts.Formats, pipeline.FormatText) {
		printNextStep("Browse it", fmt.Sprintf("%s view %s", appName, input))
	}
	return nil
}

// loadNotes reads the input file and extracts its note stream, transcribing
// audio through the remote service when an endpoint is given.
func (c *CLI) loadNotes(ctx context.Context, input, endpoint string) ([]tab.Note, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input file %s", input)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read input file %s", input)
	}

	filename := filepath.Base(input)
	if transcribe.IsMIDI(filename) {
		return transcribe.MIDITranscriber{}.Transcribe(ctx, data, filename)
	}
	if !transcribe.IsAudio(filename) {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"unsupported file type %q (want .mid, .midi, .wav, .mp3, or .flac)", filename)
	}
	if endpoint == "" {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"audio input needs a transcription service, pass --transcriber")
	}

	spin := newSpinnerWithContext(ctx, "Transcribing audio...")
	spin.Start()
	notes, err := transcribe.NewClient(endpoint).Transcribe(ctx, data, filename)
	if err != nil {
		spin.StopWithError("Transcription failed")
		return nil, err
	}
	spin.StopWithSuccess(fmt.Sprintf("Transcribed %d notes", len(notes)))
	return notes, nil
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to [txt].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	parts := strings.Split(s, ",")
	formats := make([]string, 0, len(parts))
	for _, p := range parts {
		formats = append(formats, strings.TrimSpace(p))
	}
	return formats
}

// parseTuning parses the --tuning flag into open-string MIDI pitches.
// An empty flag returns nil, letting the pipeline apply standard tuning.
func parseTuning(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	tuning := make([]int, 0, len(parts))
	for _, p := range parts {
		pitch, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidTuning,
				"tuning must be comma-separated MIDI pitches, got %q", s)
		}
		tuning = append(tuning, pitch)
	}
	return tuning, nil
}

func containsFormat(formats []string, want string) bool {
	for _, f := range formats {
		if f == want {
			return true
		}
	}
	return false
}

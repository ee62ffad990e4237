package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fretline/fretline/pkg/midi"
	"github.com/fretline/fretline/pkg/tab"
)

// infoCommand creates the info command, which summarizes a MIDI file
// without converting it.
func (c *CLI) infoCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info [file]",
		Short: "Summarize the note content of a MIDI file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInfo(args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func (c *CLI) runInfo(input string, asJSON bool) error {
	s, err := midi.ReadFile(input)
	if err != nil {
		return err
	}
	sum := midi.Summarize(s)

	if asJSON {
		out, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(StyleTitle.Render(filepath.Base(input)))
	printKeyValue("Notes", fmt.Sprintf("%d", sum.NoteCount))
	printKeyValue("Duration", fmt.Sprintf("%.2fs", sum.Duration))
	if sum.NoteCount > 0 {
		printKeyValue("Range", fmt.Sprintf("%s - %s (%d-%d)",
			tab.NoteName(sum.MinPitch), tab.NoteName(sum.MaxPitch),
			sum.MinPitch, sum.MaxPitch))

		low := tab.StandardTuning()[0]
		if sum.MinPitch < low {
			printWarning("Notes below %s will be dropped in standard tuning", tab.NoteName(low))
		}
	}
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/jobs"
)

// jobsCommand creates the jobs command for inspecting a running server.
func (c *CLI) jobsCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect conversion jobs on a running server",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "http://localhost:8080", "base URL of the fretline server")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runJobsList(cmd.Context(), server)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a job and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runJobsDelete(cmd.Context(), server, args[0])
		},
	})

	return cmd
}

func (c *CLI) runJobsList(ctx context.Context, server string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+"/jobs", nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "reach server %s", server)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeNetwork, "server returned status %d", resp.StatusCode)
	}

	var out struct {
		Jobs []jobs.Job `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "decode server response")
	}

	if len(out.Jobs) == 0 {
		printInfo("No jobs")
		return nil
	}
	for _, j := range out.Jobs {
		line := fmt.Sprintf("%s  %-12s %s", j.ID, j.Status, j.Filename)
		fmt.Println(StyleValue.Render(line))
		detail := fmt.Sprintf("updated %s", j.UpdatedAt.Format(time.RFC3339))
		if j.Error != "" {
			detail += "  " + j.Error
		}
		printDetail("%s", detail)
	}
	return nil
}

func (c *CLI) runJobsDelete(ctx context.Context, server, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, server+"/jobs/"+id, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "reach server %s", server)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		printSuccess("Deleted job %s", id)
		return nil
	case http.StatusNotFound:
		return errors.New(errors.ErrCodeJobNotFound, "no job %s on %s", id, server)
	default:
		return errors.New(errors.ErrCodeNetwork, "server returned status %d", resp.StatusCode)
	}
}

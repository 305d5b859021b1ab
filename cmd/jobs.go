package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/nikogura/resumeforge/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List and reuse recent job descriptions",
}

//nolint:gochecknoglobals // Cobra boilerplate
var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent job descriptions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

//nolint:gochecknoglobals // Cobra boilerplate
var jobsUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make a recent job description the current one",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsUse,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsUseCmd)
}

func runJobsList(cmd *cobra.Command, args []string) (err error) {
	err = withStore(func(ctx context.Context, st *store.Store) (err error) {
		var jobs []store.JobHistoryEntry
		jobs, err = st.RecentJobs(ctx)
		if err != nil {
			return err
		}
		printRecentJobs(os.Stdout, jobs)
		return err
	})
	return err
}

func runJobsUse(cmd *cobra.Command, args []string) (err error) {
	err = withStore(func(ctx context.Context, st *store.Store) (err error) {
		var entry store.JobHistoryEntry
		var ok bool
		entry, ok, err = st.RecentJob(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			err = errors.Errorf("no recent job with id %s", args[0])
			return err
		}

		err = st.SetJob(ctx, entry.Description)
		if err != nil {
			err = errors.Wrap(err, "failed to save job description")
			return err
		}

		fmt.Printf("Current job description: %s\n", entry.Snippet)
		return err
	})
	return err
}

package cmd

import (
	"context"
	"fmt"

	"github.com/nikogura/resumeforge/pkg/config"
	"github.com/nikogura/resumeforge/pkg/jd"
	"github.com/nikogura/resumeforge/pkg/scrape"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scrapeDirect bool

//nolint:gochecknoglobals // Cobra boilerplate
var scrapeSave bool

//nolint:gochecknoglobals // Cobra boilerplate
var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Extract a job description from a job posting URL",
	Long: `Extract the job description text from a job posting.

By default the request goes through the scrape service at scrape_url
(see 'resumeforge serve'). Use --direct to fetch the page from this machine.

Example:
  resumeforge scrape https://example.com/jobs/123
  resumeforge scrape https://example.com/jobs/123 --direct --save`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().BoolVar(&scrapeDirect, "direct", false, "Fetch and extract locally instead of calling the scrape service")
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "Save as the current job description and add it to recent jobs")
}

func runScrape(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), jd.DefaultTimeout)
	defer cancel()

	rawURL := args[0]

	var cfg *config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	var description string
	err = withSpinner("Fetching job description...", func() (err error) {
		if scrapeDirect {
			description, err = scrape.NewFetcher(nil).Scrape(ctx, rawURL)
			return err
		}
		description, err = newJDClient(cfg).Scrape(ctx, rawURL)
		return err
	})
	if err != nil {
		err = errors.Wrapf(err, "failed to scrape %s", rawURL)
		return err
	}

	fmt.Println(description)

	if !scrapeSave {
		return err
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	err = st.SetJob(ctx, description)
	if err != nil {
		err = errors.Wrap(err, "failed to save job description")
		return err
	}

	_, err = st.SaveRecentJob(ctx, description, rawURL)
	if err != nil {
		err = errors.Wrap(err, "failed to record recent job")
		return err
	}

	if getVerbose() {
		fmt.Println("Saved as the current job description.")
	}

	return err
}

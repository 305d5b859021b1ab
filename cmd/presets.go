package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nikogura/resumeforge/pkg/extract"
	"github.com/nikogura/resumeforge/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var presetResume string

//nolint:gochecknoglobals // Cobra boilerplate
var presetJob string

//nolint:gochecknoglobals // Cobra boilerplate
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage saved resume and job description pairs",
}

//nolint:gochecknoglobals // Cobra boilerplate
var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  cobra.NoArgs,
	RunE:  runPresetsList,
}

//nolint:gochecknoglobals // Cobra boilerplate
var presetsSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current resume and job description as a preset",
	Long: `Save a resume and job description under a name. Saving under an
existing name replaces that preset.

The current resume and job description are used unless --resume or --job
point at files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPresetsSave,
}

//nolint:gochecknoglobals // Cobra boilerplate
var presetsLoadCmd = &cobra.Command{
	Use:   "load <name-or-id>",
	Short: "Make a preset's resume and job description current",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPresetsLoad,
}

//nolint:gochecknoglobals // Cobra boilerplate
var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <name-or-id>",
	Short: "Delete a preset",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPresetsDelete,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsSaveCmd)
	presetsCmd.AddCommand(presetsLoadCmd)
	presetsCmd.AddCommand(presetsDeleteCmd)
	presetsSaveCmd.Flags().StringVar(&presetResume, "resume", "", "Resume file (default: current resume)")
	presetsSaveCmd.Flags().StringVar(&presetJob, "job", "", "Job description file (default: current job description)")
}

func runPresetsList(cmd *cobra.Command, args []string) (err error) {
	err = withStore(func(ctx context.Context, st *store.Store) (err error) {
		var presets []store.ProfilePreset
		presets, err = st.Presets(ctx)
		if err != nil {
			return err
		}
		printPresets(os.Stdout, presets)
		return err
	})
	return err
}

// slotOrFile returns the file's text when path is set, else the stored value.
func slotOrFile(ctx context.Context, path string, slot func(ctx context.Context) (string, error)) (text string, err error) {
	if path != "" {
		text, err = extract.File(path)
		return text, err
	}
	text, err = slot(ctx)
	return text, err
}

func runPresetsSave(cmd *cobra.Command, args []string) (err error) {
	name := strings.Join(args, " ")

	err = withStore(func(ctx context.Context, st *store.Store) (err error) {
		var resume, job string
		resume, err = slotOrFile(ctx, presetResume, st.Resume)
		if err != nil {
			err = errors.Wrap(err, "failed to read resume")
			return err
		}
		job, err = slotOrFile(ctx, presetJob, st.Job)
		if err != nil {
			err = errors.Wrap(err, "failed to read job description")
			return err
		}

		var preset store.ProfilePreset
		preset, err = st.SavePreset(ctx, name, resume, job)
		if err != nil {
			return err
		}

		fmt.Printf("Saved preset %q (%s)\n", preset.Name, preset.ID)
		return err
	})
	return err
}

func findPreset(ctx context.Context, st *store.Store, idOrName string) (preset store.ProfilePreset, err error) {
	var ok bool
	preset, ok, err = st.Preset(ctx, idOrName)
	if err != nil {
		return preset, err
	}
	if !ok {
		err = errors.Errorf("no preset named %q", idOrName)
		return preset, err
	}
	return preset, err
}

func runPresetsLoad(cmd *cobra.Command, args []string) (err error) {
	idOrName := strings.Join(args, " ")

	err = withStore(func(ctx context.Context, st *store.Store) (err error) {
		var preset store.ProfilePreset
		preset, err = findPreset(ctx, st, idOrName)
		if err != nil {
			return err
		}

		err = st.SetResume(ctx, preset.Resume)
		if err != nil {
			err = errors.Wrap(err, "failed to save resume")
			return err
		}
		err = st.SetJob(ctx, preset.JobDescription)
		if err != nil {
			err = errors.Wrap(err, "failed to save job description")
			return err
		}

		fmt.Printf("Loaded preset %q\n", preset.Name)
		return err
	})
	return err
}

func runPresetsDelete(cmd *cobra.Command, args []string) (err error) {
	idOrName := strings.Join(args, " ")

	err = withStore(func(ctx context.Context, st *store.Store) (err error) {
		var preset store.ProfilePreset
		preset, err = findPreset(ctx, st, idOrName)
		if err != nil {
			return err
		}

		_, err = st.DeletePreset(ctx, preset.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted preset %q\n", preset.Name)
		return err
	})
	return err
}

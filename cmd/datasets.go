package cmd

import (
	"fmt"

	"github.com/cg-gdsc/gdsc8/pkg/dataset"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the job and training markdown files",
	Long: `Lists the dataset files found under data_dir, falling back to
fallback_data_dir (./data and ../data by default).`,
	Args: cobra.NoArgs,
	RunE: runDatasets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(datasetsCmd)
}

func runDatasets(cmd *cobra.Command, _ []string) (err error) {
	locator := dataset.NewLocator(appConfig.DataDir, appConfig.FallbackDataDir)
	out := cmd.OutOrStdout()

	for _, kind := range []string{dataset.KindJobs, dataset.KindTrainings} {
		var paths []string
		paths, err = locator.Paths(kind)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s: %d files\n", kind, len(paths))
		if getVerbose() {
			for _, path := range paths {
				fmt.Fprintf(out, "  %s\n", path)
			}
		}
	}

	return err
}

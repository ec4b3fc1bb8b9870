package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/cg-gdsc/gdsc8/pkg/store"
	"github.com/cg-gdsc/gdsc8/pkg/submission"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//nolint:gochecknoglobals // Cobra boilerplate
var validatePretty bool

//nolint:gochecknoglobals // Cobra boilerplate
var validateCmd = &cobra.Command{
	Use:   "validate [submission-file]",
	Short: "Check a submission file against the challenge output format",
	Long: `Validates a JSON submission file before it is sent.

Stops at the first invalid result and reports its index and the problem.
A result count other than 100 is reported as a warning only.

Examples:
  # Validate a submission
  gdsc validate results/submission.json

  # Validate and print the normalized submission
  gdsc validate results/submission.json --pretty`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validatePretty, "pretty", false, "Print the normalized submission")
}

func runValidate(cmd *cobra.Command, args []string) (err error) {
	var sub submission.Submission
	sub, err = loadSubmission(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validated %d results - format is correct!\n", len(sub))

	titleCaser := cases.Title(language.English)
	counts := sub.CountByType()
	for _, t := range submission.ValidTypes {
		fmt.Fprintf(out, "  %s: %d\n", titleCaser.String(string(t)), counts[t])
	}

	if validatePretty {
		var data []byte
		data, err = json.Marshal(sub)
		if err != nil {
			err = errors.Wrap(err, "failed to marshal submission")
			return err
		}
		_, err = out.Write(pretty.Color(pretty.Pretty(data), nil))
		if err != nil {
			err = errors.Wrap(err, "failed to print submission")
			return err
		}
	}

	return err
}

// loadSubmission reads and validates a submission file.
func loadSubmission(path string) (sub submission.Submission, err error) {
	var data []byte
	data, err = store.ReadRaw(path)
	if err != nil {
		return sub, err
	}

	sub, err = submission.Parse(data)
	if err != nil {
		err = errors.Wrapf(err, "invalid submission %s", path)
		return sub, err
	}

	return sub, err
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/cg-gdsc/gdsc8/pkg/store"
	"github.com/cg-gdsc/gdsc8/pkg/submission"
	"github.com/cg-gdsc/gdsc8/pkg/transport"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var submitDryRun bool

//nolint:gochecknoglobals // Cobra boilerplate
var submitCmd = &cobra.Command{
	Use:   "submit [submission-file]",
	Short: "Validate and submit predictions to the challenge endpoint",
	Long: `Validates a submission file and posts it to the challenge API, signed with
your AWS credentials.

The response status and body are printed as returned; a non-200 status is not
treated as a command failure.

Examples:
  # Check everything without sending
  gdsc submit results/submission.json --dry-run

  # Submit for scoring
  gdsc submit results/submission.json -v`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Validate without submitting")
}

func runSubmit(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()

	var sub submission.Submission
	sub, err = decodeSubmission(args[0])
	if err != nil {
		return err
	}

	opts := transport.SubmitOptions{
		DryRun:  submitDryRun,
		Verbose: getVerbose(),
	}

	out := cmd.OutOrStdout()

	if opts.DryRun {
		client := transport.NewClient(appConfig.Endpoint, nil)
		_, err = client.Submit(ctx, sub, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Dry run: %d results are valid and ready to submit\n", len(sub))
		return err
	}

	var client *transport.Client
	client, err = newTransportClient(ctx)
	if err != nil {
		return err
	}

	var resp *http.Response
	resp, err = client.Submit(ctx, sub, opts)
	if err != nil {
		err = errors.Wrap(err, "submission failed")
		return err
	}
	defer resp.Body.Close()

	var body []byte
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return err
	}

	fmt.Fprintf(out, "Status: %d\n%s\n", resp.StatusCode, string(body))

	return err
}

// decodeSubmission reads a submission file. Client.Submit validates it and reports the
// result count, so nothing is logged here.
func decodeSubmission(path string) (sub submission.Submission, err error) {
	var data []byte
	data, err = store.ReadRaw(path)
	if err != nil {
		return sub, err
	}

	sub, err = submission.Decode(data)
	if err != nil {
		err = errors.Wrapf(err, "invalid submission %s", path)
		return sub, err
	}

	return sub, err
}

// newTransportClient builds a client signing with ambient AWS credentials.
func newTransportClient(ctx context.Context) (client *transport.Client, err error) {
	var signer *transport.SigV4Signer
	signer, err = transport.NewSigV4Signer(ctx, appConfig.Region, appConfig.Service)
	if err != nil {
		return client, err
	}

	client = transport.NewClient(appConfig.Endpoint, signer)
	return client, err
}

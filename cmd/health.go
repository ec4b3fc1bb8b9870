package cmd

import (
	"context"
	"fmt"

	"github.com/cg-gdsc/gdsc8/pkg/transport"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the challenge API",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) (err error) {
	ctx := context.Background()

	var client *transport.Client
	client, err = newTransportClient(ctx)
	if err != nil {
		return err
	}

	if !client.SanityCheck(ctx) {
		err = errors.Errorf("API check failed for %s", appConfig.Endpoint)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "API connection successful!")
	return err
}

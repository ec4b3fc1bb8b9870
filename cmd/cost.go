package cmd

import (
	"fmt"

	"github.com/cg-gdsc/gdsc8/pkg/cost"
	"github.com/cg-gdsc/gdsc8/pkg/logger"
	"github.com/cg-gdsc/gdsc8/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	costModel        string
	costInputTokens  int
	costOutputTokens int
	costUsageFile    string
)

//nolint:gochecknoglobals // Cobra boilerplate
var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate and track prediction API spend",
	Long: `Keeps a running ledger of prediction API calls, token counts and estimated
cost per model in ledger_path.

Unknown models are priced on the default tier (mistral-medium-latest unless
default_model is configured).`,
}

//nolint:gochecknoglobals // Cobra boilerplate
var costEstimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price a single call without recording it",
	Args:  cobra.NoArgs,
	RunE:  runCostEstimate,
}

//nolint:gochecknoglobals // Cobra boilerplate
var costTrackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record a call in the ledger",
	Long: `Records a call by token counts, or from an agent response JSON file
carrying metrics.accumulated_usage.

Examples:
  gdsc cost track --model mistral-large-latest --input 1200 --output 300
  gdsc cost track --usage-file response.json`,
	Args: cobra.NoArgs,
	RunE: runCostTrack,
}

//nolint:gochecknoglobals // Cobra boilerplate
var costSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the running cost summary",
	Args:  cobra.NoArgs,
	RunE:  runCostSummary,
}

//nolint:gochecknoglobals // Cobra boilerplate
var costResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the ledger to zero",
	Args:  cobra.NoArgs,
	RunE:  runCostReset,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(costCmd)
	costCmd.AddCommand(costEstimateCmd, costTrackCmd, costSummaryCmd, costResetCmd)

	for _, c := range []*cobra.Command{costEstimateCmd, costTrackCmd} {
		c.Flags().StringVar(&costModel, "model", "", "Model name (default: configured default model)")
		c.Flags().IntVar(&costInputTokens, "input", 0, "Input tokens")
		c.Flags().IntVar(&costOutputTokens, "output", 0, "Output tokens")
	}
	costTrackCmd.Flags().StringVar(&costUsageFile, "usage-file", "", "Agent response JSON file to read token usage from")
}

func runCostEstimate(cmd *cobra.Command, _ []string) (err error) {
	pricing := appConfig.GetPricing()
	name, tier := pricing.Resolve(costModel)
	amount := pricing.CalculateCost(costInputTokens, costOutputTokens, costModel)

	fmt.Fprintf(cmd.OutOrStdout(), "%s ($%.2f in / $%.2f out per 1M tokens): $%.6f\n",
		name, tier.InputPerMillion, tier.OutputPerMillion, amount)
	return err
}

func runCostTrack(cmd *cobra.Command, _ []string) (err error) {
	var ledger *cost.Ledger
	ledger, err = cost.LoadLedger(appConfig.LedgerPath, appConfig.GetPricing())
	if err != nil {
		return err
	}

	var amount float64
	if costUsageFile != "" {
		var resp cost.AgentResponse
		err = store.ReadJSON(costUsageFile, &resp)
		if err != nil {
			err = errors.Wrap(err, "failed to read usage file")
			return err
		}
		amount = ledger.TrackUsage(&resp, costModel)
	} else {
		amount = ledger.Track(costModel, costInputTokens, costOutputTokens)
	}

	err = ledger.Save(appConfig.LedgerPath)
	if err != nil {
		return err
	}

	logger.Get().Debugw("tracked API call", "model", costModel, "cost", amount, "ledger", appConfig.LedgerPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Tracked call: $%.6f (total $%.4f)\n", amount, ledger.EstimatedCost())

	return err
}

func runCostSummary(cmd *cobra.Command, _ []string) (err error) {
	var ledger *cost.Ledger
	ledger, err = cost.LoadLedger(appConfig.LedgerPath, appConfig.GetPricing())
	if err != nil {
		return err
	}

	err = ledger.WriteSummary(cmd.OutOrStdout())
	return err
}

func runCostReset(cmd *cobra.Command, _ []string) (err error) {
	ledger := cost.NewLedger(appConfig.GetPricing())

	err = ledger.Save(appConfig.LedgerPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Cost tracker reset")
	return err
}

package cmd

import (
	"os"

	"github.com/cg-gdsc/gdsc8/pkg/config"
	"github.com/cg-gdsc/gdsc8/pkg/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Loaded once per invocation in PersistentPreRunE
var appConfig config.Config

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "gdsc",
	Short: "Validate, submit and cost-track GDSC challenge predictions",
	Long: `gdsc validates persona prediction files against the challenge output format,
submits them to the signed challenge endpoint, and keeps a running estimate of
prediction API spend.

AWS credentials are resolved the usual way (environment, ~/.aws/credentials, instance role).`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.gdsc/config.json)")
}

func loadConfig(cmd *cobra.Command, _ []string) (err error) {
	// init must work before any config exists.
	if cmd == initCmd {
		return err
	}

	appConfig, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return err
	}

	level := appConfig.Log.Level
	if getVerbose() {
		level = "debug"
	}

	err = logger.Init(level, appConfig.Log.Env)
	if err != nil {
		err = errors.Wrap(err, "failed to initialize logger")
		return err
	}

	return err
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}

// Package cmd wires the pipeline stages to their two execution surfaces: a
// cobra CLI for operators and a lambda handler for scheduled runs. Both feed
// the same actions; the difference is only where settings come from.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/config"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/helper"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2023-01-02T03:04+0000"
	stackDumpOnPanic bool
)

var rootCmd = &cobra.Command{
	Use:   "totesys",
	Short: "ToteSys ETL moves operational sales data into the warehouse.",
	Long: `ToteSys ETL is the batch pipeline behind the sales warehouse.

It runs in three stages, coordinated by a run token:

  extract    snapshot every table of the operational database to S3
  transform  derive the star-schema tables and write them in columnar form
  load       replace the warehouse contents with one run's tables

Each stage can run standalone from this CLI, or as a lambda when
` + constants.EnvVarLambdaMode + ` is set.`,
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// Execute runs the lambda handler when lambda mode is set, otherwise the CLI.
// Called once by main.main().
func Execute() {
	if isLambdaMode() {
		executeLambdaMode()
		return
	}
	if err := rootCmd.Execute(); err != nil {
		// Execute() prints the error.
		os.Exit(1)
	}
}

func isLambdaMode() bool {
	v, _ := helper.GetEnvVar(constants.EnvVarLambdaMode, false)
	return v != ""
}

// loadSettings resolves the effective settings for CLI mode: config file,
// environment, defaults. A missing config file is tolerated.
func loadSettings() (config.Settings, error) {
	file, err := config.NewMainFile()
	if err != nil {
		return config.Settings{}, err
	}
	return config.Load(file)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/actions"
)

var transformCfg = &actions.TransformConfig{}

var transformCmd = &cobra.Command{
	Use:   "transform <run-token>",
	Short: "Derive the star-schema tables for one run token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		applyDefault(&transformCfg.LogLevel, settings.LogLevel)
		applyDefault(&transformCfg.BucketRegion, settings.BucketRegion)
		applyDefault(&transformCfg.IngestionBucket, settings.IngestionBucket)
		applyDefault(&transformCfg.ProcessedBucket, settings.ProcessedBucket)
		transformCfg.DatetimeString = args[0]
		transformCfg.StackDumpOnPanic = stackDumpOnPanic

		resp, err := actions.RunTransform(transformCfg)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	f := transformCmd.Flags()
	f.StringVarP(&transformCfg.IngestionBucket, "ingestion-bucket", "b", "", "S3 bucket holding the source snapshots")
	f.StringVarP(&transformCfg.ProcessedBucket, "processed-bucket", "p", "", "Target S3 bucket for the derived columnar tables")
	addCommonStageFlags(f, &transformCfg.BucketRegion, &transformCfg.LogLevel)
	rootCmd.AddCommand(transformCmd)
}

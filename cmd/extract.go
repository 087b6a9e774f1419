package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/actions"
)

var extractCfg = &actions.ExtractConfig{}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Snapshot every source table to the ingestion bucket under a new run token",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		applyDefault(&extractCfg.LogLevel, settings.LogLevel)
		applyDefault(&extractCfg.BucketRegion, settings.BucketRegion)
		applyDefault(&extractCfg.IngestionBucket, settings.IngestionBucket)
		applyDefault(&extractCfg.SourceSecretName, settings.SourceSecretName)
		applyDefault(&extractCfg.SourceDsn, settings.SourceDsn)
		extractCfg.StackDumpOnPanic = stackDumpOnPanic

		resp, err := actions.RunExtract(cmd.Context(), extractCfg)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractCfg.IngestionBucket, "ingestion-bucket", "b", "", "Target S3 bucket for source snapshots")
	f.StringVarP(&extractCfg.SourceSecretName, "secret-name", "s", "", "Secrets Manager name holding the source database credentials")
	f.StringVarP(&extractCfg.SourceDsn, "dsn", "d", "", "Source database DSN (overrides the secret)")
	addCommonStageFlags(f, &extractCfg.BucketRegion, &extractCfg.LogLevel)
	rootCmd.AddCommand(extractCmd)
}

// applyDefault fills a flag value left empty with the resolved setting.
func applyDefault(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

func printJSON(v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

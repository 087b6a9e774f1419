package cmd

import (
	"github.com/spf13/cobra"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/actions"
)

var loadCfg = &actions.LoadConfig{}

var loadCmd = &cobra.Command{
	Use:   "load <run-token>",
	Short: "Replace the warehouse contents with one run's tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		applyDefault(&loadCfg.LogLevel, settings.LogLevel)
		applyDefault(&loadCfg.BucketRegion, settings.BucketRegion)
		applyDefault(&loadCfg.ProcessedBucket, settings.ProcessedBucket)
		applyDefault(&loadCfg.WarehouseSecretName, settings.WarehouseSecretName)
		applyDefault(&loadCfg.WarehouseDsn, settings.WarehouseDsn)
		loadCfg.DatetimeString = args[0]
		loadCfg.StackDumpOnPanic = stackDumpOnPanic

		resp, err := actions.RunLoad(cmd.Context(), loadCfg)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
	Args: cobra.ExactArgs(1),
}

func init() {
	f := loadCmd.Flags()
	f.StringVarP(&loadCfg.ProcessedBucket, "processed-bucket", "p", "", "S3 bucket holding the derived columnar tables")
	f.StringVarP(&loadCfg.WarehouseSecretName, "secret-name", "s", "", "Secrets Manager name holding the warehouse credentials")
	f.StringVarP(&loadCfg.WarehouseDsn, "dsn", "d", "", "Warehouse DSN (overrides the secret)")
	addCommonStageFlags(f, &loadCfg.BucketRegion, &loadCfg.LogLevel)
	rootCmd.AddCommand(loadCmd)
}

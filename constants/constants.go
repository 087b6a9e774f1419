package constants

const (
	// EnvVarPrefix is prefixed to all environment variables read in twelve-factor mode.
	EnvVarPrefix = "TOTESYS"

	EnvVarLambdaMode       = EnvVarPrefix + "_LAMBDA_MODE"
	EnvVarLogLevel         = EnvVarPrefix + "_LOG_LEVEL"
	EnvVarIngestionBucket  = EnvVarPrefix + "_INGESTION_BUCKET"
	EnvVarProcessedBucket  = EnvVarPrefix + "_PROCESSED_BUCKET"
	EnvVarBucketRegion     = EnvVarPrefix + "_BUCKET_REGION"
	EnvVarSourceSecretName = EnvVarPrefix + "_SOURCE_SECRET_NAME"
	EnvVarWarehouseSecret  = EnvVarPrefix + "_WAREHOUSE_SECRET_NAME"
	EnvVarSourceDsn        = EnvVarPrefix + "_SOURCE_DSN"
	EnvVarWarehouseDsn     = EnvVarPrefix + "_WAREHOUSE_DSN"
	EnvVarStage            = EnvVarPrefix + "_STAGE"

	DefaultRegion   = "eu-west-2"
	DefaultLogLevel = "info"

	// TimeFormatRunToken is the layout of the run token that scopes one
	// pipeline execution, e.g. 20230105_100000. It is generated once by the
	// extract stage and threaded through transform and load.
	TimeFormatRunToken = "20060102_150405"

	// TimeFormatLogStamp is the layout used for manifest log object names.
	TimeFormatLogStamp = "2006-01-02_15-04-05"

	// TimeFormatTimestampJSON is the layout used when snapshotting database
	// timestamps to JSON. Millisecond precision, no time zone.
	TimeFormatTimestampJSON = "2006-01-02T15:04:05.000"

	// TimeFormatDate is a plain ISO calendar date.
	TimeFormatDate = "2006-01-02"

	SnapshotKeyPrefix = "data"
	LogKeyPrefix      = "logs"
	ExtensionJSON     = ".json"
	ExtensionParquet  = ".parquet"

	ServiceName = "totesys-etl"
)

// SourceTables are the operational database tables consumed by the transform stage.
var SourceTables = []string{
	"sales_order",
	"design",
	"address",
	"counterparty",
	"staff",
	"department",
	"currency",
}

// WarehouseTables are the star-schema tables produced by the transform stage,
// listed in load order (dimensions before the fact table so foreign keys resolve).
var WarehouseTables = []string{
	"dim_date",
	"dim_design",
	"dim_location",
	"dim_counterparty",
	"dim_staff",
	"dim_currency",
	"fact_sales_order",
}

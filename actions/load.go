package actions

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/aws/s3"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/aws/secrets"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/helper"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/load"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/rdbms"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/store"
)

// LoadConfig carries the settings and optional pre-built collaborators of
// the load stage. The warehouse secret name may arrive with the invocation
// event, falling back to the environment-derived setting.
type LoadConfig struct {
	LogLevel            string `errorTxt:"log level" mandatory:"yes"`
	BucketRegion        string `errorTxt:"bucket region" mandatory:"yes"`
	ProcessedBucket     string `errorTxt:"processed bucket" mandatory:"yes"`
	DatetimeString      string `errorTxt:"datetime string i.e. run token" mandatory:"yes"`
	WarehouseSecretName string `errorTxt:"warehouse secret name"`
	WarehouseDsn        string `errorTxt:"warehouse DSN"`
	StackDumpOnPanic    bool

	ProcessedClient s3.BasicClient
	SecretsProvider secrets.Provider
	Warehouse       load.Warehouse
}

// RunLoad is the load stage entry point.
func RunLoad(ctx context.Context, cfg *LoadConfig) (LoadResponse, error) {
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic).
		WithField("invocationId", xid.New().String())
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return LoadResponse{}, err
	}
	if cfg.WarehouseSecretName == "" && cfg.WarehouseDsn == "" && cfg.Warehouse == nil {
		return LoadResponse{}, fmt.Errorf("please supply a warehouse secret name or a warehouse DSN")
	}

	warehouse := cfg.Warehouse
	if warehouse == nil {
		details, err := warehouseConnectionDetails(cfg)
		if err != nil {
			return LoadResponse{}, err
		}
		wh, err := load.ConnectWarehouse(ctx, log, details)
		if err != nil {
			return LoadResponse{}, err
		}
		defer func() {
			_ = wh.Close()
		}()
		warehouse = wh
	}

	client := cfg.ProcessedClient
	if client == nil {
		client = s3.NewBasicClient(cfg.ProcessedBucket, cfg.BucketRegion, "")
	}

	runner := load.New(log, warehouse, store.New(client))
	result, err := runner.Run(ctx, cfg.DatetimeString)
	if err != nil {
		return LoadResponse{}, err
	}
	return LoadResponse{
		Message:        fmt.Sprintf("Load run %s complete: %d tables replaced", result.RunToken, len(result.RowCount)),
		StatusCode:     200,
		DatetimeString: result.RunToken,
		RowCounts:      result.RowCount,
	}, nil
}

func warehouseConnectionDetails(cfg *LoadConfig) (rdbms.ConnectionDetails, error) {
	if cfg.WarehouseDsn != "" {
		return rdbms.ConnectionDetails{Dsn: cfg.WarehouseDsn}, nil
	}
	provider := cfg.SecretsProvider
	if provider == nil {
		provider = secrets.NewProvider(cfg.BucketRegion)
	}
	creds, err := provider.GetCredentials(cfg.WarehouseSecretName)
	if err != nil {
		return rdbms.ConnectionDetails{}, err
	}
	return rdbms.ConnectionDetails{Credentials: creds}, nil
}

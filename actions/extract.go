package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/aws/s3"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/aws/secrets"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/extract"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/helper"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/rdbms"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/store"
)

// ExtractConfig carries the settings and optional pre-built collaborators of
// the extract stage. Collaborator fields left nil are constructed from the
// remaining settings, so tests and the lambda handler can inject substitutes.
type ExtractConfig struct {
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	BucketRegion     string `errorTxt:"bucket region" mandatory:"yes"`
	IngestionBucket  string `errorTxt:"ingestion bucket" mandatory:"yes"`
	SourceSecretName string `errorTxt:"source secret name"`
	SourceDsn        string `errorTxt:"source DSN"`
	StackDumpOnPanic bool

	IngestionClient s3.BasicClient
	SecretsProvider secrets.Provider
	Source          rdbms.Source
	Clock           func() time.Time
}

// RunExtract is the extract stage entry point.
func RunExtract(ctx context.Context, cfg *ExtractConfig) (ExtractResponse, error) {
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic).
		WithField("invocationId", xid.New().String())
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return ExtractResponse{}, err
	}
	if cfg.SourceSecretName == "" && cfg.SourceDsn == "" {
		return ExtractResponse{}, fmt.Errorf("please supply a source secret name or a source DSN")
	}

	source := cfg.Source
	if source == nil {
		details, err := sourceConnectionDetails(cfg)
		if err != nil {
			return ExtractResponse{}, err
		}
		db, err := rdbms.Connect(ctx, log, details)
		if err != nil {
			return ExtractResponse{}, err
		}
		defer func() {
			_ = db.Close()
		}()
		source = db
	}

	client := cfg.IngestionClient
	if client == nil {
		client = s3.NewBasicClient(cfg.IngestionBucket, cfg.BucketRegion, "")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	runner := extract.NewWithClock(log, source, store.New(client), clock)
	result, err := runner.Run(ctx)
	if err != nil {
		return ExtractResponse{}, err
	}
	return ExtractResponse{
		Message:        fmt.Sprintf("Extract run complete: %d snapshots uploaded, manifest %s", len(result.Keys), result.LogKey),
		StatusCode:     200,
		DatetimeString: result.RunToken,
	}, nil
}

// sourceConnectionDetails resolves credentials from the secret store unless
// an explicit DSN was supplied.
func sourceConnectionDetails(cfg *ExtractConfig) (rdbms.ConnectionDetails, error) {
	if cfg.SourceDsn != "" {
		return rdbms.ConnectionDetails{Dsn: cfg.SourceDsn}, nil
	}
	provider := cfg.SecretsProvider
	if provider == nil {
		provider = secrets.NewProvider(cfg.BucketRegion)
	}
	creds, err := provider.GetCredentials(cfg.SourceSecretName)
	if err != nil {
		return rdbms.ConnectionDetails{}, err
	}
	return rdbms.ConnectionDetails{Credentials: creds}, nil
}

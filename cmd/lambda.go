package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/actions"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/config"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/helper"
)

// Event is the invocation payload shared by the three stage lambdas. Only
// the fields a given stage needs are read; the rest stay empty.
type Event struct {
	// DatetimeString is the run token produced by the extract stage.
	DatetimeString string `json:"datetime_string"`
	// SecretName optionally overrides the warehouse secret name from the
	// environment (load stage only).
	SecretName string `json:"secret_name"`
}

// executeLambdaMode starts the lambda runtime with a handler for the stage
// named by the environment. Every invocation returns a structured response;
// stage errors become an ErrorResponse, never a raw error to the runtime.
func executeLambdaMode() {
	stage, _ := helper.GetEnvVar(constants.EnvVarStage, false)
	switch strings.ToLower(stage) {
	case "extract":
		lambda.Start(handleExtract)
	case "transform":
		lambda.Start(handleTransform)
	case "load":
		lambda.Start(handleLoad)
	default:
		lambda.Start(func(context.Context, Event) (interface{}, error) {
			return nil, fmt.Errorf("environment variable %v must be one of extract, transform, load; got %q",
				constants.EnvVarStage, stage)
		})
	}
}

func handleExtract(ctx context.Context, _ Event) (interface{}, error) {
	settings, err := config.Load(nil) // lambda mode runs on environment alone.
	if err != nil {
		return actions.NewErrorResponse("extract failed", err), nil
	}
	resp, err := actions.RunExtract(ctx, &actions.ExtractConfig{
		LogLevel:         settings.LogLevel,
		BucketRegion:     settings.BucketRegion,
		IngestionBucket:  settings.IngestionBucket,
		SourceSecretName: settings.SourceSecretName,
		SourceDsn:        settings.SourceDsn,
	})
	if err != nil {
		return actions.NewErrorResponse("extract failed", err), nil
	}
	return resp, nil
}

func handleTransform(_ context.Context, event Event) (interface{}, error) {
	settings, err := config.Load(nil)
	if err != nil {
		return actions.NewErrorResponse("transform failed", err), nil
	}
	resp, err := actions.RunTransform(&actions.TransformConfig{
		LogLevel:        settings.LogLevel,
		BucketRegion:    settings.BucketRegion,
		IngestionBucket: settings.IngestionBucket,
		ProcessedBucket: settings.ProcessedBucket,
		DatetimeString:  event.DatetimeString,
	})
	if err != nil {
		return actions.NewErrorResponse("transform failed", err), nil
	}
	return resp, nil
}

func handleLoad(ctx context.Context, event Event) (interface{}, error) {
	settings, err := config.Load(nil)
	if err != nil {
		return actions.NewErrorResponse("load failed", err), nil
	}
	secretName := event.SecretName
	if secretName == "" { // the event wins over the environment...
		secretName = settings.WarehouseSecretName
	}
	resp, err := actions.RunLoad(ctx, &actions.LoadConfig{
		LogLevel:            settings.LogLevel,
		BucketRegion:        settings.BucketRegion,
		ProcessedBucket:     settings.ProcessedBucket,
		DatetimeString:      event.DatetimeString,
		WarehouseSecretName: secretName,
		WarehouseDsn:        settings.WarehouseDsn,
	})
	if err != nil {
		return actions.NewErrorResponse("load failed", err), nil
	}
	return resp, nil
}

package actions

import (
	"fmt"
	"net/http"

	"github.com/rs/xid"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/aws/s3"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/helper"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/store"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/transform"
)

// TransformConfig carries the settings and optional pre-built collaborators
// of the transform stage.
type TransformConfig struct {
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	BucketRegion     string `errorTxt:"bucket region" mandatory:"yes"`
	IngestionBucket  string `errorTxt:"ingestion bucket" mandatory:"yes"`
	ProcessedBucket  string `errorTxt:"processed bucket" mandatory:"yes"`
	DatetimeString   string `errorTxt:"datetime string i.e. run token" mandatory:"yes"`
	StackDumpOnPanic bool

	IngestionClient s3.BasicClient
	ProcessedClient s3.BasicClient
}

// RunTransform is the transform stage entry point. Every warehouse table is
// attempted; the response's statusCode is 200 only when all seven succeeded,
// otherwise it is the distinct set of non-200 outcomes observed.
func RunTransform(cfg *TransformConfig) (TransformResponse, error) {
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic).
		WithField("invocationId", xid.New().String())
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return TransformResponse{}, err
	}

	ingestionClient := cfg.IngestionClient
	if ingestionClient == nil {
		ingestionClient = s3.NewBasicClient(cfg.IngestionBucket, cfg.BucketRegion, "")
	}
	processedClient := cfg.ProcessedClient
	if processedClient == nil {
		processedClient = s3.NewBasicClient(cfg.ProcessedBucket, cfg.BucketRegion, "")
	}

	result := transform.Run(log, store.New(ingestionClient), store.New(processedClient), cfg.DatetimeString)

	response := TransformResponse{
		DatetimeString: result.RunToken,
		ResponsesList:  result.Outcomes,
	}
	if result.Ok() {
		response.StatusCode = StatusCode{http.StatusOK}
		response.Message = fmt.Sprintf("Transform run %s complete: %d tables written", result.RunToken, len(result.Outcomes))
	} else {
		response.StatusCode = StatusCode(result.FailedStatusCodes())
		response.Message = fmt.Sprintf("Transform run %s finished with failures", result.RunToken)
	}
	return response, nil
}

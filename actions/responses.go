// Package actions holds the stage boundary adapters: each one validates its
// config, constructs the stage's collaborators once, runs the stage, and
// translates the typed result into the external response shape. Raw errors
// never cross the process boundary; they are converted here.
package actions

import (
	"encoding/json"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/transform"
)

// StatusCode marshals as a bare integer when it holds one code and as an
// array when a run produced several distinct failure codes.
type StatusCode []int

func (s StatusCode) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]int(s))
}

// ExtractResponse is the external shape of a successful extract run.
type ExtractResponse struct {
	Message        string `json:"message"`
	StatusCode     int    `json:"statusCode"`
	DatetimeString string `json:"datetime_string"`
}

// TransformResponse is the external shape of a transform run, successful or
// partially failed.
type TransformResponse struct {
	StatusCode     StatusCode              `json:"statusCode"`
	Message        string                  `json:"message"`
	DatetimeString string                  `json:"datetime_string"`
	ResponsesList  []transform.WriteOutcome `json:"responses_list"`
}

// LoadResponse is the external shape of a successful load run.
type LoadResponse struct {
	Message        string         `json:"message"`
	StatusCode     int            `json:"statusCode"`
	DatetimeString string         `json:"datetime_string"`
	RowCounts      map[string]int `json:"row_counts,omitempty"`
}

// ErrorResponse is the structured failure shape returned instead of a raw
// error from any stage entry point.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewErrorResponse(message string, err error) ErrorResponse {
	return ErrorResponse{Message: message, Error: err.Error()}
}

package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
)

func TestLoggerCarriesServiceField(t *testing.T) {
	log := logger.NewLogger("test-service", "debug", false)
	buf := bytes.NewBufferString("")
	log.SetOutput(buf)
	log.Info("testing")
	if !strings.Contains(buf.String(), "test-service") {
		t.Fatalf("expected service field in log output, got: %v", buf.String())
	}
}

func TestWithFieldAddsField(t *testing.T) {
	log := logger.NewLogger("test-service", "info", false)
	buf := bytes.NewBufferString("")
	log.SetOutput(buf)
	log.WithField("invocationId", "abc123").Info("testing")
	if !strings.Contains(buf.String(), "abc123") {
		t.Fatalf("expected invocation id in log output, got: %v", buf.String())
	}
}

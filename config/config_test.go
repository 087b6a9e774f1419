package config

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
)

func writeConfig(t *testing.T, contents string) *File {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(path.Join(dir, MainFileFullName), []byte(contents), 0o600))
	return NewFileWithDir(dir, MainFileFullName)
}

func TestGetDecodesSection(t *testing.T) {
	f := writeConfig(t, `
pipeline:
  logLevel: debug
  ingestionBucket: my-ingestion-bucket
  processedBucket: my-processed-bucket
  bucketRegion: eu-west-2
`)
	var s Settings
	require.NoError(t, f.Get("pipeline", &s))
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "my-ingestion-bucket", s.IngestionBucket)
}

func TestGetMissingFile(t *testing.T) {
	f := NewFileWithDir(t.TempDir(), MainFileFullName)
	var s Settings
	err := f.Get("pipeline", &s)
	assert.IsType(t, FileNotFoundError{}, err)
}

func TestGetMissingKey(t *testing.T) {
	f := writeConfig(t, "other: {}\n")
	var s Settings
	err := f.Get("pipeline", &s)
	assert.IsType(t, KeyNotFoundError{}, err)
}

func TestGetMalformedYaml(t *testing.T) {
	f := writeConfig(t, "pipeline: [unterminated\n")
	var s Settings
	assert.Error(t, f.Get("pipeline", &s))
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	f := writeConfig(t, `
pipeline:
  ingestionBucket: from-file
  logLevel: warn
`)
	t.Setenv(constants.EnvVarIngestionBucket, "from-env")

	s, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.IngestionBucket, "environment wins over the file")
	assert.Equal(t, "warn", s.LogLevel, "file value survives when the environment is silent")
}

func TestLoadDefaultsApply(t *testing.T) {
	s, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultLogLevel, s.LogLevel)
	assert.Equal(t, constants.DefaultRegion, s.BucketRegion)
	assert.Empty(t, s.IngestionBucket)
}

func TestLoadMissingFileIsNotFatal(t *testing.T) {
	f := NewFileWithDir(t.TempDir(), MainFileFullName)
	t.Setenv(constants.EnvVarProcessedBucket, "env-bucket")
	s, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, "env-bucket", s.ProcessedBucket)
}

// Package config reads pipeline settings from the YAML file in the user's
// home directory and overlays environment variables on top, so CLI mode gets
// a config file and lambda mode can run on environment alone.
package config

import (
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/helper"
)

const (
	MainDir          = ".totesys"
	MainFileFullName = "config.yaml"
)

// FileNotFoundError denotes a missing configuration file. It is not fatal:
// every setting can come from the environment instead.
type FileNotFoundError struct {
	name string
}

func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

// KeyNotFoundError denotes a key absent from the configuration file.
type KeyNotFoundError struct {
	configFile string
	key        string
}

func (k KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found in config file %q", k.key, k.configFile)
}

// File wraps one YAML configuration file, loaded lazily on first Get.
type File struct {
	Dirname      string
	FileName     string
	FullPath     string
	data         map[string]interface{}
	dataIsLoaded bool
	mu           sync.Mutex
}

func NewFileWithDir(dirName string, fileName string) *File {
	return &File{
		Dirname:  dirName,
		FileName: fileName,
		FullPath: path.Join(dirName, fileName),
		data:     make(map[string]interface{}),
	}
}

// NewMainFile returns the default pipeline config file, ~/.totesys/config.yaml.
func NewMainFile() (*File, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("unable to resolve home directory: %w", err)
	}
	return NewFileWithDir(path.Join(home, MainDir), MainFileFullName), nil
}

func (c *File) loadData() error {
	raw, err := os.ReadFile(c.FullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FileNotFoundError{name: c.FullPath}
		}
		return fmt.Errorf("unable to read config file %q: %w", c.FullPath, err)
	}
	if err := yaml.Unmarshal(raw, &c.data); err != nil {
		return fmt.Errorf("unable to parse config file %q: %w", c.FullPath, err)
	}
	c.dataIsLoaded = true
	return nil
}

// Get fetches the key from the config file into out via mapstructure.
// A missing file is reported as FileNotFoundError; a missing key as
// KeyNotFoundError.
func (c *File) Get(key string, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dataIsLoaded { // if we haven't loaded the data yet...
		if err := c.loadData(); err != nil {
			return err
		}
	}
	d, ok := c.data[key]
	if !ok {
		return KeyNotFoundError{configFile: c.FullPath, key: key}
	}
	return mapstructure.Decode(d, out)
}

// Settings holds every value the pipeline stages need. Fields left empty by
// the config file fall back to environment variables, then to defaults.
type Settings struct {
	LogLevel            string `yaml:"logLevel" mapstructure:"logLevel"`
	BucketRegion        string `yaml:"bucketRegion" mapstructure:"bucketRegion"`
	IngestionBucket     string `yaml:"ingestionBucket" mapstructure:"ingestionBucket"`
	ProcessedBucket     string `yaml:"processedBucket" mapstructure:"processedBucket"`
	SourceSecretName    string `yaml:"sourceSecretName" mapstructure:"sourceSecretName"`
	WarehouseSecretName string `yaml:"warehouseSecretName" mapstructure:"warehouseSecretName"`
	SourceDsn           string `yaml:"sourceDsn" mapstructure:"sourceDsn"`
	WarehouseDsn        string `yaml:"warehouseDsn" mapstructure:"warehouseDsn"`
}

// settingsKey is the top-level YAML key holding the pipeline settings.
const settingsKey = "pipeline"

// Load resolves the effective settings: config file first, environment
// variables overriding, defaults last. A missing config file is fine.
func Load(file *File) (Settings, error) {
	var s Settings
	if file != nil {
		err := file.Get(settingsKey, &s)
		switch err.(type) {
		case nil, FileNotFoundError, KeyNotFoundError:
		default:
			return s, err
		}
	}
	s.LogLevel = helper.ReadValueFromEnvWithDefault(constants.EnvVarLogLevel, firstOf(s.LogLevel, constants.DefaultLogLevel))
	s.BucketRegion = helper.ReadValueFromEnvWithDefault(constants.EnvVarBucketRegion, firstOf(s.BucketRegion, constants.DefaultRegion))
	s.IngestionBucket = helper.ReadValueFromEnvWithDefault(constants.EnvVarIngestionBucket, s.IngestionBucket)
	s.ProcessedBucket = helper.ReadValueFromEnvWithDefault(constants.EnvVarProcessedBucket, s.ProcessedBucket)
	s.SourceSecretName = helper.ReadValueFromEnvWithDefault(constants.EnvVarSourceSecretName, s.SourceSecretName)
	s.WarehouseSecretName = helper.ReadValueFromEnvWithDefault(constants.EnvVarWarehouseSecret, s.WarehouseSecretName)
	s.SourceDsn = helper.ReadValueFromEnvWithDefault(constants.EnvVarSourceDsn, s.SourceDsn)
	s.WarehouseDsn = helper.ReadValueFromEnvWithDefault(constants.EnvVarWarehouseDsn, s.WarehouseDsn)
	return s, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

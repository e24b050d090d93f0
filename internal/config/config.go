// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/use-of-proceeds/pkg/catalog"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"github.com/iwvelando/use-of-proceeds/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for use-of-proceeds.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Project ProjectConfig `yaml:"project,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Catalog CatalogConfig `yaml:"catalog,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// ProjectConfig names the project and the files that back its table.
type ProjectConfig struct {
	ID         string `yaml:"id,omitempty"`
	ProceedsID string `yaml:"proceedsId,omitempty"`
	DataFile   string `yaml:"dataFile,omitempty"`  // records document: .yaml, .json, .xlsx or .csv
	LoansFile  string `yaml:"loansFile,omitempty"` // optional project loan list
}

// ServerConfig holds HTTP API options.
type ServerConfig struct {
	Address     string `yaml:"address,omitempty"`
	MaxBodySize string `yaml:"maxBodySize,omitempty"` // e.g. 256K, 1M
}

// CatalogConfig extends the built-in category catalog.
type CatalogConfig struct {
	Extra []catalog.Entry `yaml:"extra,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so environment overrides are seen by Unmarshal.
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("project.id", "")
	v.SetDefault("project.proceedsId", "")
	v.SetDefault("project.dataFile", constants.DefaultDataFile)
	v.SetDefault("project.loansFile", "")
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults. Environment
// variables prefixed with PROCEEDS_ override file values, e.g.
// PROCEEDS_SERVER_ADDRESS.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// BuildCatalog returns the built-in catalog extended with configured entries.
func (conf *Configuration) BuildCatalog() *catalog.Catalog {
	return catalog.Default().With(conf.Catalog.Extra)
}

// ValidateConfiguration checks the configuration. Hard errors are returned;
// softer problems come back as warnings for the caller to log.
func (conf *Configuration) ValidateConfiguration() ([]string, error) {
	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		return nil, err
	}
	if conf.Logging.Level != "" {
		if err := validation.ValidateLogLevel(conf.Logging.Level); err != nil {
			return nil, err
		}
	}
	if conf.Logging.Format != "" {
		if err := validation.ValidateLogFormat(conf.Logging.Format); err != nil {
			return nil, err
		}
	}

	cv := validation.ConfigValidator{
		DataFile:  conf.Project.DataFile,
		LoansFile: conf.Project.LoansFile,
		Defaults:  catalog.Default(),
	}
	for _, e := range conf.Catalog.Extra {
		cv.CatalogExtra = append(cv.CatalogExtra, validation.CatalogEntryConfig{Overall: e.Overall, Category: e.Category})
	}
	return cv.ValidateAll(), nil
}

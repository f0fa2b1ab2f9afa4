package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// a type with local storage parameters
type storageConfig struct {
	// Directory in which collection definition files are cached.
	DatabaseDir string `json:"database_dir" yaml:"database_dir"`
	// Directory into which query-result files are staged.
	DataCacheDir string `json:"data_cache_dir" yaml:"data_cache_dir"`
}

// a type with remote collection repository parameters
type repositoryConfig struct {
	// Base URL of the repository holding collection definition files.
	URL string `json:"url" yaml:"url"`
	// The git branch to download from.
	Branch string `json:"branch" yaml:"branch"`
	// Subfolder within the repository where definition files are stored.
	Subpath string `json:"subpath" yaml:"subpath"`
}

// a type with staging journal parameters
type journalConfig struct {
	// Directory in which the staging journal lives (empty disables the journal).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// global config variables
var Storage storageConfig
var Repository repositoryConfig
var Journal journalConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Storage    storageConfig    `yaml:"storage"`
	Repository repositoryConfig `yaml:"repository"`
	Journal    journalConfig    `yaml:"journal"`
}

// This helper reads configuration data, returning an error indicating success
// or failure. All environment variables of the form ${ENV_VAR} are expanded.
func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Storage.DatabaseDir = "~/.esmcat/collection-input"
	conf.Storage.DataCacheDir = "~/.esmcat/data-cache"
	conf.Repository.URL = "https://github.com/NCAR/intake-esm-datastore"
	conf.Repository.Branch = "master"
	conf.Repository.Subpath = "collection-input"
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		return err
	}

	// copy the config data into place
	Storage = conf.Storage
	Repository = conf.Repository
	Journal = conf.Journal

	return err
}

// This helper validates the given storage parameters, returning an error
// indicating success or failure.
func validateStorageParameters(params storageConfig) error {
	if params.DatabaseDir == "" {
		return fmt.Errorf("No collection database directory was provided!")
	}
	if params.DataCacheDir == "" {
		return fmt.Errorf("No data cache directory was provided!")
	}
	return nil
}

// This helper validates the given repository parameters, returning an error
// indicating success or failure.
func validateRepositoryParameters(params repositoryConfig) error {
	u, err := url.ParseRequestURI(params.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("Invalid repository URL: %s", params.URL)
	}
	if params.Branch == "" {
		return fmt.Errorf("No repository branch was provided!")
	}
	return nil
}

// This helper validates the configuration, returning an error that indicates
// success or failure.
func validateConfig() error {
	err := validateStorageParameters(Storage)
	if err != nil {
		return err
	}
	return validateRepositoryParameters(Repository)
}

// Initializes the configuration using the given YAML byte data. Fields that
// are not supplied assume their default values.
func Init(yamlData []byte) error {

	// Read the configuration from our YAML data.
	err := readConfig(yamlData)
	if err != nil {
		return err
	}

	// Validate the configuration.
	err = validateConfig()
	return err
}

// Expands a leading "~" in the given path to the current user's home
// directory.
func ExpandUser(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

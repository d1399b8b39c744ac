package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// a type with service configuration parameters
type serviceConfig struct {
	// Port on which the service listens.
	Port int `json:"port" yaml:"port"`
	// Maximum number of allowed incoming connections.
	MaxConnections int `json:"maxConnections" yaml:"maxConnections"`
}

// a type with parameters for talking to the Seoul open data portal
type openApiConfig struct {
	// Base URL for the portal (e.g. http://openapi.seoul.go.kr:8088).
	BaseUrl string `json:"baseUrl" yaml:"baseUrl"`
	// API key issued by the portal.
	ApiKey string `json:"apiKey" yaml:"apiKey"`
	// Timeout for a single page request (seconds).
	RequestTimeout int `json:"requestTimeout" yaml:"requestTimeout"`
	// Timeout for bulk page requests issued by paginated strategies (seconds).
	BulkTimeout int `json:"bulkTimeout" yaml:"bulkTimeout"`
	// Number of rows fetched per page by paginated strategies.
	PageSize int `json:"pageSize" yaml:"pageSize"`
	// Upper bound on rows fetched for any single aggregation.
	MaxRecords int `json:"maxRecords" yaml:"maxRecords"`
}

// a type locating the static data files loaded at startup
type dataConfig struct {
	// directory holding the indicator catalog data package (datapackage.json)
	CatalogDir string `json:"catalogDir" yaml:"catalogDir"`
	// GeoJSON file with the 25 borough boundaries
	BoroughBoundaries string `json:"boroughBoundaries" yaml:"boroughBoundaries"`
	// GeoJSON file with the administrative district (dong) boundaries
	DistrictBoundaries string `json:"districtBoundaries" yaml:"districtBoundaries"`
	// path for the SQLite prefetch cache (empty disables prefetching)
	PrefetchDb string `json:"prefetchDb" yaml:"prefetchDb"`
	// maximum age of a prefetched aggregate before it goes stale (hours)
	PrefetchMaxAge int `json:"prefetchMaxAge" yaml:"prefetchMaxAge"`
}

// global config variables
var Service serviceConfig
var OpenApi openApiConfig
var Data dataConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Service serviceConfig `yaml:"service"`
	OpenApi openApiConfig `yaml:"openapi"`
	Data    dataConfig    `yaml:"data"`
}

// This helper reads configuration data, returning an error indicating success
// or failure. All environment variables of the form ${ENV_VAR} are expanded.
func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Service.Port = 8080
	conf.Service.MaxConnections = 100
	conf.OpenApi.BaseUrl = "http://openapi.seoul.go.kr:8088"
	conf.OpenApi.RequestTimeout = 10
	conf.OpenApi.BulkTimeout = 30
	conf.OpenApi.PageSize = 1000
	conf.OpenApi.MaxRecords = 100000
	conf.Data.PrefetchMaxAge = 24
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		log.Printf("Couldn't parse configuration data: %s\n", err)
		return err
	}

	// copy the config data into place
	Service = conf.Service
	OpenApi = conf.OpenApi
	Data = conf.Data

	return err
}

// This helper validates the given service parameters, returning an
// error indicating success or failure.
func validateServiceParameters(params serviceConfig) error {
	if params.Port < 0 || params.Port > 65535 {
		return fmt.Errorf("Invalid port: %d (must be 0-65535)", params.Port)
	}
	if params.MaxConnections <= 0 {
		return fmt.Errorf("Invalid maxConnections: %d (must be positive)",
			params.MaxConnections)
	}
	return nil
}

// This helper validates the open data portal parameters.
func validateOpenApiParameters(params openApiConfig) error {
	if params.BaseUrl == "" {
		return fmt.Errorf("No open data portal base URL was provided!")
	}
	if params.ApiKey == "" {
		return fmt.Errorf("No open data portal API key was provided!")
	}
	if params.RequestTimeout <= 0 || params.BulkTimeout <= 0 {
		return fmt.Errorf("Invalid request timeouts: %d / %d (must be positive)",
			params.RequestTimeout, params.BulkTimeout)
	}
	if params.PageSize <= 0 || params.PageSize > 1000 {
		return fmt.Errorf("Invalid pageSize: %d (the portal serves 1-1000 rows per request)",
			params.PageSize)
	}
	if params.MaxRecords < params.PageSize {
		return fmt.Errorf("Invalid maxRecords: %d (must be at least pageSize)",
			params.MaxRecords)
	}
	return nil
}

// This helper validates the given config, returning an error that indicates
// success or failure.
func validateConfig() error {
	err := validateServiceParameters(Service)
	if err != nil {
		return err
	}
	err = validateOpenApiParameters(OpenApi)
	if err != nil {
		return err
	}

	// Do we know where our static data lives?
	if Data.CatalogDir == "" {
		return fmt.Errorf("No catalog directory was provided!")
	}
	if Data.BoroughBoundaries == "" || Data.DistrictBoundaries == "" {
		return fmt.Errorf("Boundary files were not provided for both spatial grains!")
	}
	return nil
}

// returns the page-request timeout as a duration
func (c openApiConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// returns the bulk-request timeout as a duration
func (c openApiConfig) BulkTimeoutDuration() time.Duration {
	return time.Duration(c.BulkTimeout) * time.Second
}

// Initializes the service configuration using the given YAML byte data.
func Init(yamlData []byte) error {

	// Read the configuration from our YAML file.
	err := readConfig(yamlData)
	if err != nil {
		return err
	}

	// Validate the configuration.
	err = validateConfig()
	return err
}

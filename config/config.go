package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/awantoch/portflow/constants"
)

type Config struct {
	Port    PortConfig    `json:"port"`
	Engine  EngineConfig  `json:"engine"`
	Storage StorageConfig `json:"storage"`
	Blob    BlobConfig    `json:"blob"`
	Event   EventConfig   `json:"event"`
	Secrets SecretsConfig `json:"secrets"`
	HTTP    HTTPConfig    `json:"http"`
	Log     LogConfig     `json:"log"`
	Tracing TracingConfig `json:"tracing"`
}

// PortConfig holds the credentials surface. ClientID and ClientSecret may be
// secret references such as "$env:PORT_CLIENT_SECRET".
type PortConfig struct {
	ClientID     string            `json:"client_id"`
	ClientSecret string            `json:"client_secret"`
	BaseURL      string            `json:"base_url"`
	Profile      string            `json:"profile"`
	Headers      map[string]string `json:"headers,omitempty"`
}

type EngineConfig struct {
	ContinueOnFail bool `json:"continue_on_fail"`
}

type StorageConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// BlobConfig selects where item outputs are archived. An empty driver disables archiving.
type BlobConfig struct {
	Driver    string `json:"driver"`
	Directory string `json:"directory,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	Region    string `json:"region,omitempty"`
}

type EventConfig struct {
	Driver string `json:"driver"`
	URL    string `json:"url"`
}

type SecretsConfig struct {
	Driver string `json:"driver"`
	Region string `json:"region,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

type HTTPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type LogConfig struct {
	Level string `json:"level"`
}

// TracingConfig enables OpenTelemetry tracing when Exporter is set.
type TracingConfig struct {
	ServiceName string `json:"service_name"`
	Exporter    string `json:"exporter"`
	Endpoint    string `json:"endpoint,omitempty"`
}

// LoadConfig decodes the JSON config file at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads path if it exists, then applies environment overrides and
// defaults. A missing file is not an error; found reports whether it existed.
func Load(path string) (cfg *Config, found bool, err error) {
	cfg, err = LoadConfig(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = &Config{}
	case err != nil:
		return nil, false, err
	default:
		found = true
	}
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	return cfg, found, nil
}

// ApplyEnv overrides credentials from PORT_CLIENT_ID, PORT_CLIENT_SECRET and PORT_BASE_URL.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(constants.EnvClientID); v != "" {
		cfg.Port.ClientID = v
	}
	if v := os.Getenv(constants.EnvClientSecret); v != "" {
		cfg.Port.ClientSecret = v
	}
	if v := os.Getenv(constants.EnvBaseURL); v != "" {
		cfg.Port.BaseURL = v
	}
}

// ApplyDefaults fills zero values.
func ApplyDefaults(cfg *Config) {
	if cfg.Port.BaseURL == "" {
		cfg.Port.BaseURL = constants.DefaultBaseURL
	}
	if cfg.Port.Profile == "" {
		cfg.Port.Profile = constants.ProfilePortAPIAI
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = constants.StorageDriverMemory
	}
	if cfg.Storage.Driver == constants.StorageDriverSQLite && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = constants.DefaultSQLiteDSN
	}
	if cfg.Blob.Driver == constants.BlobDriverFilesystem && cfg.Blob.Directory == "" {
		cfg.Blob.Directory = constants.DefaultBlobDirectory
	}
	if cfg.Event.Driver == "" {
		cfg.Event.Driver = constants.EventDriverMemory
	}
	if cfg.Secrets.Driver == "" {
		cfg.Secrets.Driver = constants.SecretsDriverEnv
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = constants.DefaultHTTPHost
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = constants.DefaultHTTPPort
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = constants.DefaultServiceName
	}
	if cfg.Tracing.Exporter == constants.TracingExporterOTLP && cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = constants.DefaultOTLPEndpoint
	}
}

// Validate checks driver names and the settings each driver needs. It does
// not require credentials; see ValidateCredentials.
func (c *Config) Validate() error {
	var problems []string
	check := func(field, value string, allowed ...string) {
		if value != "" && !slices.Contains(allowed, value) {
			problems = append(problems, fmt.Sprintf("%s: unknown value %q (expected one of %s)", field, value, strings.Join(allowed, ", ")))
		}
	}
	check("port.profile", c.Port.Profile, constants.ProfilePortAPIAI, constants.ProfilePortIO)
	check("storage.driver", c.Storage.Driver, constants.StorageDriverMemory, constants.StorageDriverSQLite, constants.StorageDriverPostgres)
	check("blob.driver", c.Blob.Driver, constants.BlobDriverFilesystem, constants.BlobDriverS3)
	check("event.driver", c.Event.Driver, constants.EventDriverMemory, constants.EventDriverNATS)
	check("secrets.driver", c.Secrets.Driver, constants.SecretsDriverEnv, constants.SecretsDriverAWS)
	check("tracing.exporter", c.Tracing.Exporter, constants.TracingExporterStdout, constants.TracingExporterOTLP)

	if c.Storage.Driver == constants.StorageDriverPostgres && c.Storage.DSN == "" {
		problems = append(problems, "storage.dsn is required for the postgres driver")
	}
	if c.Blob.Driver == constants.BlobDriverS3 && c.Blob.Bucket == "" {
		problems = append(problems, "blob.bucket is required for the s3 driver")
	}
	if c.Event.Driver == constants.EventDriverNATS && c.Event.URL == "" {
		problems = append(problems, "event.url is required for the nats driver")
	}
	if c.Secrets.Driver == constants.SecretsDriverAWS && c.Secrets.Region == "" {
		problems = append(problems, "secrets.region is required for the aws driver")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateCredentials requires a client ID and secret.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if strings.TrimSpace(c.Port.ClientID) == "" {
		missing = append(missing, "port.client_id ("+constants.EnvClientID+")")
	}
	if strings.TrimSpace(c.Port.ClientSecret) == "" {
		missing = append(missing, "port.client_secret ("+constants.EnvClientSecret+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

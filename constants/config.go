package constants

// Configuration Files
const (
	ConfigFileName = "portflow.config.json"
)

// Environment Variables
const (
	EnvDebug        = "PORTFLOW_DEBUG"
	EnvClientID     = "PORT_CLIENT_ID"
	EnvClientSecret = "PORT_CLIENT_SECRET"
	EnvBaseURL      = "PORT_BASE_URL"
)

// Storage Drivers
const (
	StorageDriverMemory   = "memory"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

// Blob Drivers
const (
	BlobDriverFilesystem = "filesystem"
	BlobDriverS3         = "s3"
)

// Event Drivers
const (
	EventDriverMemory = "memory"
	EventDriverNATS   = "nats"
)

// Tracing Exporters
const (
	TracingExporterStdout = "stdout"
	TracingExporterOTLP   = "otlp"
)

// Defaults
const (
	DefaultBaseURL       = "https://api.getport.io"
	DefaultSQLiteDSN     = ".portflow/invocations.db"
	DefaultBlobDirectory = ".portflow/files"
	DefaultHTTPHost      = "localhost"
	DefaultHTTPPort      = 3333
	DefaultServiceName   = "portflow"
	DefaultOTLPEndpoint  = "localhost:4318"
)

// Secrets Drivers
const (
	SecretsDriverEnv = "env"
	SecretsDriverAWS = "aws"
)

// NATS Streaming identity
const (
	NATSClusterID = "portflow"
	NATSClientID  = "portflow-client"
)

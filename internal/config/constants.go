package config

import "time"

// Application constants
const (
	AppName = "sspyviz"

	// EnvPrefix prefixes every environment override, e.g. SSPY_SERVER_PORT
	EnvPrefix = "SSPY"

	// Storage drivers
	StorageMemory = "memory"
	StorageSQLite = "sqlite"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Uploads
	DefaultMaxUploadBytes = 64 << 20

	// Datasets. The ISD is read from DefaultISDPath unless a URL is configured.
	DefaultISDPath      = "data/datasets/isd.csv"
	DefaultFetchTimeout = 2 * time.Minute

	// Memoized pipeline results kept per process
	DefaultResultCacheSize = 32

	// File Paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultCacheDir   = "data/cache"
	DefaultExportsDir = "data/exports"
	DefaultLogsDir    = "logs"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sspyviz/pkg/contracts/domain"
)

var configEnvVars = []string{
	"SSPY_CONFIG_FILE",
	"SSPY_SERVER_PORT", "SSPY_SERVER_READ_TIMEOUT",
	"SSPY_SECURITY_ALLOWED_ORIGINS", "SSPY_SECURITY_ENABLE_CORS",
	"SSPY_LOGGING_LEVEL", "SSPY_LOGGING_FORMAT",
	"SSPY_STORAGE_DRIVER", "SSPY_STORAGE_SQLITE_PATH",
	"SSPY_VALIDATION_PAQ_MIN", "SSPY_VALIDATION_PAQ_MAX", "SSPY_VALIDATION_PAQ_ALIASES",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Server.MaxUploadBytes)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, StorageMemory, cfg.Storage.Driver)
				assert.Equal(t, domain.DefaultValueRange(), cfg.Validation.Range())
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"SSPY_SERVER_PORT":              "9090",
				"SSPY_SERVER_READ_TIMEOUT":      "30s",
				"SSPY_SECURITY_ALLOWED_ORIGINS": "http://a.example,https://b.example",
				"SSPY_LOGGING_LEVEL":            "DEBUG",
				"SSPY_LOGGING_FORMAT":           "XML",
				"SSPY_VALIDATION_PAQ_MIN":       "0",
				"SSPY_VALIDATION_PAQ_MAX":       "100",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format, "unknown formats fall back to json")
				assert.Equal(t, domain.ValueRange{Min: 0, Max: 100}, cfg.Validation.Range())
			},
		},
		{
			name: "file then environment",
			env:  map[string]string{"SSPY_SERVER_PORT": "7070"},
			file: `
server:
  port: 6060
  read_timeout: 20s
storage:
  driver: sqlite
  sqlite_path: /tmp/sspy.db
validation:
  paq_aliases:
    pleasant: pl
    annoying: an
  id_column: RecordID
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port, "env wins over file")
				assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout, "file wins over default")
				assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
				assert.Equal(t, "RecordID", cfg.Validation.IDColumn)

				aliases, err := cfg.Validation.Aliases()
				require.NoError(t, err)
				assert.Equal(t, "an", aliases[domain.Annoying])
				assert.Equal(t, "pl", aliases[domain.Pleasant])
				assert.Equal(t, "PAQ8", aliases[domain.Calm], "unnamed attributes keep the default column")
			},
		},
		{
			name: "keyed aliases from environment",
			env:  map[string]string{"SSPY_VALIDATION_PAQ_ALIASES": "pleasant:pl,calm:ca"},
			validateCfg: func(t *testing.T, cfg *Config) {
				aliases, err := cfg.Validation.Aliases()
				require.NoError(t, err)
				assert.Equal(t, "pl", aliases[domain.Pleasant])
				assert.Equal(t, "ca", aliases[domain.Calm])
				assert.Equal(t, "PAQ2", aliases[domain.Vibrant])
			},
		},
		{name: "invalid port", env: map[string]string{"SSPY_SERVER_PORT": "99999"}, wantErr: true},
		{name: "negative timeout", env: map[string]string{"SSPY_SERVER_READ_TIMEOUT": "-5s"}, wantErr: true},
		{name: "empty origins with cors", env: map[string]string{"SSPY_SECURITY_ALLOWED_ORIGINS": ""}, wantErr: true},
		{name: "inverted PAQ range", env: map[string]string{"SSPY_VALIDATION_PAQ_MIN": "5", "SSPY_VALIDATION_PAQ_MAX": "1"}, wantErr: true},
		{name: "unknown storage driver", env: map[string]string{"SSPY_STORAGE_DRIVER": "postgres"}, wantErr: true},
		{name: "positional alias list", env: map[string]string{"SSPY_VALIDATION_PAQ_ALIASES": "a,b,c"}, wantErr: true},
		{name: "unknown alias attribute", env: map[string]string{"SSPY_VALIDATION_PAQ_ALIASES": "loud:PAQ1"}, wantErr: true},
		{name: "broken file", file: "server: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0644))
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 5050\n"), 0644))
	t.Setenv("SSPY_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.Server.Port)
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "exports")

	paths, err := ResolvePaths(PathsConfig{BaseDir: base, ExportsDir: abs})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, DefaultDataDir), paths.DataDir)
	assert.Equal(t, filepath.Join(base, DefaultDataDir, "datasets"), paths.DatasetsDir)
	assert.Equal(t, abs, paths.ExportsDir)
	assert.Equal(t, filepath.Join(abs, "report.html"), paths.GetExportPath("../report.html"))
	assert.Equal(t, filepath.Join(base, "x.db"), paths.Resolve("x.db"))

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, paths.CacheDir)
	assert.DirExists(t, paths.LogsDir)
}

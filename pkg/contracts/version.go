package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the application
	Version = "0.3.0"

	// APIVersion is the version of the HTTP API
	APIVersion = "v1"

	// ExportSchemaVersion versions the exported table layout: input columns,
	// then ISOPleasant/ISOEventful, then ExclusionReasons for excluded exports.
	ExportSchemaVersion = "v1"
)

// Set during build with -ldflags "-X sspyviz/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running build
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	ExportSchema string `json:"export_schema"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	Platform     string `json:"platform"`
}

// GetVersionInfo returns the build information of this binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		ExportSchema: ExportSchemaVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s, %s)", v.Version, v.GitCommit, v.BuildTime, v.GoVersion, v.Platform)
}

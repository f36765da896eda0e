package contracts

import (
	"fmt"
	"runtime"
)

// Release identity. Version is the single source; config.AppVersion and
// the OpenTelemetry resource both read it.
const (
	Version      = "1.0.0"
	VersionStage = "stable"

	// SchemaVersion changes whenever the transactions table layout does.
	SchemaVersion = "2"
	// APIVersion covers the JSON payloads and websocket event names.
	APIVersion = "v1"
)

// Set at build time:
//
//	go build -ldflags "-X salespulse/pkg/contracts.GitCommit=$(git rev-parse --short HEAD)"
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is served by GET /api/version.
type VersionInfo struct {
	Version      string `json:"version"`
	Stage        string `json:"stage"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	Schema       string `json:"schema"`
	APIVersion   string `json:"api_version"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		Stage:        VersionStage,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		Schema:       SchemaVersion,
		APIVersion:   APIVersion,
	}
}

// GetVersionString returns "SalesPulse v<version>", with the commit when
// the binary was stamped.
func GetVersionString() string {
	if GitCommit == "unknown" {
		return "SalesPulse v" + Version
	}
	return fmt.Sprintf("SalesPulse v%s (%s)", Version, GitCommit)
}

package common

import (
	"fmt"
	"runtime"
	"time"
)

const (
	// Application information
	ProjectName    = "Quant Backtester"
	ProjectVersion = "1.0.0"
	ProjectRepo    = "github.com/ducminhle1904/quant-backtester"
)

// Build information, set via -ldflags "-X .../cmd/common.BuildCommit=..."
var (
	BuildDate   = "unknown"
	BuildCommit = "dev"
)

// VersionInfo contains version and build information
type VersionInfo struct {
	ProjectName  string `json:"project_name"`
	Version      string `json:"version"`
	BuildDate    string `json:"build_date"`
	BuildCommit  string `json:"build_commit"`
	GoVersion    string `json:"go_version"`
	Architecture string `json:"architecture"`
	Repository   string `json:"repository"`
}

// GetVersionInfo returns complete version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		ProjectName:  ProjectName,
		Version:      ProjectVersion,
		BuildDate:    BuildDate,
		BuildCommit:  BuildCommit,
		GoVersion:    runtime.Version(),
		Architecture: runtime.GOOS + "/" + runtime.GOARCH,
		Repository:   ProjectRepo,
	}
}

// PrintVersion prints version information in a formatted way
func PrintVersion(appName string) {
	info := GetVersionInfo()

	fmt.Printf("%s v%s\n", appName, info.Version)
	fmt.Printf("Build: %s (%s)\n", info.BuildCommit, info.BuildDate)
	fmt.Printf("Go: %s (%s)\n", info.GoVersion, info.Architecture)
}

// PrintDetailedVersion prints detailed version information
func PrintDetailedVersion(appName string) {
	info := GetVersionInfo()

	fmt.Printf("╔═══════════════════════════════════════╗\n")
	fmt.Printf("║           VERSION INFORMATION         ║\n")
	fmt.Printf("╠═══════════════════════════════════════╣\n")
	fmt.Printf("║ Application: %-24s ║\n", appName)
	fmt.Printf("║ Version:     %-24s ║\n", info.Version)
	fmt.Printf("║ Project:     %-24s ║\n", info.ProjectName)
	fmt.Printf("║ Build Date:  %-24s ║\n", info.BuildDate)
	fmt.Printf("║ Build Hash:  %-24s ║\n", info.BuildCommit)
	fmt.Printf("║ Go Version:  %-24s ║\n", info.GoVersion)
	fmt.Printf("║ Platform:    %-24s ║\n", info.Architecture)
	fmt.Printf("║ Run Time:    %-24s ║\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Printf("╚═══════════════════════════════════════╝\n")
}

// GetFullVersion returns a full version string with build info
func GetFullVersion() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s-%s (%s)", info.Version, info.BuildCommit, info.BuildDate)
}

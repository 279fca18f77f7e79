package common

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ducminhle1904/quant-backtester/pkg/config"
)

// CommonFlags contains flags that are shared across multiple commands
type CommonFlags struct {
	// Environment and configuration
	ConfigFile *string
	EnvFile    *string
	DataRoot   *string
	Workers    *int

	// Logging and output
	OutputDir   *string
	Formats     *string
	LogLevel    *string
	LogDir      *string
	MetricsAddr *string
	ConsoleOnly *bool
	Verbose     *bool

	// Help and version
	Version *bool
	Help    *bool
}

// RegisterCommonFlags registers common flags on fs
func RegisterCommonFlags(fs *flag.FlagSet) *CommonFlags {
	return &CommonFlags{
		ConfigFile: fs.String("config", "", "Config file (.yaml, .yml or .json); defaults to "+config.DefaultConfigFile+" when present"),
		EnvFile:    fs.String("env", ".env", "Environment file path"),
		DataRoot:   fs.String("data-root", config.DefaultDataRoot, "Data root directory (<ROOT>/<SYMBOL>/<INTERVAL>.csv|.parquet)"),
		Workers:    fs.Int("workers", 0, "Parallel workers (0 = from config)"),

		OutputDir:   fs.String("output", "", "Output directory (default from config)"),
		Formats:     fs.String("formats", "", "Comma-separated output formats: console,csv,xlsx,json"),
		LogLevel:    fs.String("log-level", "", "Log level: debug, info, warn, error"),
		LogDir:      fs.String("log-dir", "", "Also write a dated log file to this directory"),
		MetricsAddr: fs.String("metrics-addr", "", "Serve Prometheus /metrics on this address (e.g. :9090)"),
		ConsoleOnly: fs.Bool("console-only", false, "Console output only (no file output)"),
		Verbose:     fs.Bool("verbose", false, "Enable verbose output (debug logging)"),

		Version: fs.Bool("version", false, "Show version information"),
		Help:    fs.Bool("help", false, "Show help information"),
	}
}

// Apply overlays explicitly given flag values onto cfg
func (f *CommonFlags) Apply(cfg *config.Config) {
	if *f.Workers > 0 {
		cfg.Workers = *f.Workers
	}
	if s := strings.TrimSpace(*f.OutputDir); s != "" {
		cfg.Output.Dir = s
	}
	if formats := ParseFormats(*f.Formats); len(formats) > 0 {
		cfg.Output.Formats = formats
	}
	if *f.ConsoleOnly {
		cfg.Output.Formats = []string{config.FormatConsole}
	}
	if s := strings.TrimSpace(*f.LogLevel); s != "" {
		cfg.Logging.Level = s
	}
	if *f.Verbose {
		cfg.Logging.Level = "debug"
	}
	if s := strings.TrimSpace(*f.LogDir); s != "" {
		cfg.Logging.Dir = s
	}
	if s := strings.TrimSpace(*f.MetricsAddr); s != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = s
	}
}

// ParseFormats splits a comma-separated format list, lowercasing and
// dropping blanks and duplicates
func ParseFormats(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		f := strings.ToLower(strings.TrimSpace(part))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// FlagValidator provides flag validation utilities
type FlagValidator struct {
	errors []string
}

// NewFlagValidator creates a new flag validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{
		errors: make([]string, 0),
	}
}

// ValidateFloat validates a float flag value
func (v *FlagValidator) ValidateFloat(name string, value float64, min, max float64) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %.4f and %.4f, got: %.4f", name, min, max, value))
	}
	return v
}

// ValidateInt validates an int flag value
func (v *FlagValidator) ValidateInt(name string, value int, min, max int) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d, got: %d", name, min, max, value))
	}
	return v
}

// ValidateChoice validates that a string is one of the allowed choices
func (v *FlagValidator) ValidateChoice(name, value string, choices []string) *FlagValidator {
	for _, choice := range choices {
		if value == choice {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value))
	return v
}

// ValidateFile validates that a file exists
func (v *FlagValidator) ValidateFile(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s file does not exist: %s", name, path))
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetError returns a formatted error message with all validation errors
func (v *FlagValidator) GetError() error {
	if len(v.errors) == 0 {
		return nil
	}

	if len(v.errors) == 1 {
		return fmt.Errorf("validation error: %s", v.errors[0])
	}

	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}

// UsageFormatter provides utilities for formatting flag usage
type UsageFormatter struct {
	AppName        string
	AppDescription string
	Examples       []UsageExample
	fs             *flag.FlagSet
}

// UsageExample represents a usage example
type UsageExample struct {
	Command     string
	Description string
}

// NewUsageFormatter creates a usage formatter printing the flags of fs
func NewUsageFormatter(appName, description string, fs *flag.FlagSet) *UsageFormatter {
	return &UsageFormatter{
		AppName:        appName,
		AppDescription: description,
		Examples:       make([]UsageExample, 0),
		fs:             fs,
	}
}

// AddExample adds a usage example
func (u *UsageFormatter) AddExample(command, description string) *UsageFormatter {
	u.Examples = append(u.Examples, UsageExample{
		Command:     command,
		Description: description,
	})
	return u
}

// PrintUsage prints formatted usage information
func (u *UsageFormatter) PrintUsage() {
	fmt.Printf("%s - %s\n\n", u.AppName, u.AppDescription)

	fmt.Printf("USAGE:\n")
	fmt.Printf("  %s [OPTIONS]\n\n", filepath.Base(os.Args[0]))

	if len(u.Examples) > 0 {
		fmt.Printf("EXAMPLES:\n")
		for _, example := range u.Examples {
			fmt.Printf("  # %s\n", example.Description)
			fmt.Printf("  %s\n\n", example.Command)
		}
	}

	fmt.Printf("OPTIONS:\n")
	u.fs.SetOutput(os.Stdout)
	u.fs.PrintDefaults()
}

// CheckHelpAndVersion handles -help and -version, returning true when the
// command should exit
func CheckHelpAndVersion(appName string, commonFlags *CommonFlags, formatter *UsageFormatter) bool {
	if *commonFlags.Version {
		if *commonFlags.Verbose {
			PrintDetailedVersion(appName)
		} else {
			PrintVersion(appName)
		}
		return true
	}

	if *commonFlags.Help {
		formatter.PrintUsage()
		return true
	}

	return false
}

package common

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/monitoring"
	"github.com/ducminhle1904/quant-backtester/pkg/config"
)

// LoadEnvFile loads environment variables from a file. A missing file is
// reported as an error so the caller can warn and fall back to the process
// environment.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if !FileExists(path) {
		return fmt.Errorf("env file %s not found", path)
	}
	return godotenv.Load(path)
}

// LoadConfig loads the config file named by -config, or config.yaml when it
// exists, then overlays the command line and validates the result
func LoadConfig(f *CommonFlags) (*config.Config, error) {
	path := *f.ConfigFile
	if path == "" && FileExists(config.DefaultConfigFile) {
		path = config.DefaultConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	f.Apply(cfg)
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid command line override: %w", err)
	}
	return cfg, nil
}

// SetupLogger writes to stdout, or to a dated file under cfg.Logging.Dir
func SetupLogger(cfg *config.Config, name string) (*logger.Logger, error) {
	var l *logger.Logger
	if cfg.Logging.Dir != "" {
		var err error
		if l, err = logger.NewFileLogger(cfg.Logging.Dir, name); err != nil {
			return nil, err
		}
	} else {
		l = logger.New(name, os.Stdout)
	}
	l.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	return l, nil
}

// StartMetricsServer serves Prometheus metrics in the background when enabled
func StartMetricsServer(cfg config.MetricsConfig, log *logger.Logger) {
	if !cfg.Enabled {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.NewMetricsHandler())
		log.Info("Serving metrics on %s/metrics", cfg.Addr)
		if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
			log.Error("Metrics server stopped: %v", err)
			monitoring.RecordError("metrics_server")
		}
	}()
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	return fmt.Sprintf("%.1fd", d.Hours()/24)
}

// Package config provides CLI configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the resolved CLI configuration for one invocation.
type Config struct {
	Scan    ScanConfig
	Output  OutputConfig
	Logger  LoggerConfig
	Data    DataConfig
	Watch   WatchConfig
	Server  ServerConfig
	Version bool
}

// ScanConfig holds scan-phase configuration.
type ScanConfig struct {
	// Dir is the directory to scan, from the positional argument.
	Dir string
	// Recursive walks subdirectories as well as the top level.
	Recursive bool
	// Workers is the probe worker pool size.
	Workers int
	// ProbeTimeout bounds a single ffprobe invocation.
	ProbeTimeout time.Duration
	// FFprobePath overrides auto-detection of the ffprobe binary.
	FFprobePath string
}

// OutputConfig holds result sink configuration.
type OutputConfig struct {
	// JSON selects JSON encoding instead of the default.
	JSON bool
	// Path writes output to a file instead of stdout. Without JSON the
	// file encoding is CSV.
	Path string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string
}

// DataConfig holds local state configuration (probe cache, run history).
type DataConfig struct {
	// Dir is the base directory for the probe cache and run history.
	Dir string
	// NoCache bypasses the probe cache entirely.
	NoCache bool
}

// WatchConfig holds watch-mode configuration.
type WatchConfig struct {
	Enabled bool
	// SettleDelay is how long the directory must stay quiet before a
	// rescan fires.
	SettleDelay time.Duration
}

// ServerConfig holds serve-mode configuration.
type ServerConfig struct {
	Enabled      bool
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load parses configuration from args (not including the program name) with
// precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables (REELSTITCH_*).
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("reelstitch", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: reelstitch [flags] DIRECTORY")
		fmt.Fprintln(fs.Output(), "\nReconstructs camera recording-session timelines from chaptered MP4 files.")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}

	var recursive, jsonOut, watch, serve, noCache, version bool
	fs.BoolVar(&recursive, "r", false, "scan subdirectories recursively")
	fs.BoolVar(&recursive, "recursive", false, "scan subdirectories recursively")
	fs.BoolVar(&jsonOut, "j", false, "JSON output instead of table/CSV")
	fs.BoolVar(&jsonOut, "json", false, "JSON output instead of table/CSV")

	var outputPath string
	fs.StringVar(&outputPath, "o", "", "write output to file (CSV unless -j)")
	fs.StringVar(&outputPath, "output", "", "write output to file (CSV unless -j)")

	fs.BoolVar(&watch, "watch", false, "keep running and rescan when the directory changes")
	fs.BoolVar(&serve, "serve", false, "expose the timeline over HTTP")
	fs.BoolVar(&noCache, "no-cache", false, "bypass the probe cache")
	fs.BoolVar(&version, "version", false, "print version and exit")

	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "log format (pretty, json)")
	dataDir := fs.String("data-dir", "", "directory for probe cache and run history")
	workers := fs.String("workers", "", "probe worker pool size (default: 4)")
	probeTimeout := fs.String("probe-timeout", "", "timeout per ffprobe call (default: 30s)")
	ffprobePath := fs.String("ffprobe-path", "", "path to ffprobe binary (default: auto-detect)")
	settleDelay := fs.String("watch-settle", "", "quiet period before a watch rescan (default: 2s)")
	addr := fs.String("addr", "", "listen address for -serve (default: :8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	envFile := fs.String("env-file", ".env", "path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		Scan: ScanConfig{
			Recursive:   recursive,
			Workers:     getIntConfigValue(*workers, "REELSTITCH_WORKERS", 4),
			FFprobePath: getConfigValue(*ffprobePath, "REELSTITCH_FFPROBE_PATH", ""),
		},
		Output: OutputConfig{
			JSON: jsonOut,
			Path: outputPath,
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "REELSTITCH_LOG_LEVEL", "info"),
			Format: getConfigValue(*logFormat, "REELSTITCH_LOG_FORMAT", "pretty"),
		},
		Data: DataConfig{
			Dir:     getConfigValue(*dataDir, "REELSTITCH_DATA_DIR", ""),
			NoCache: noCache,
		},
		Watch: WatchConfig{
			Enabled: watch,
		},
		Server: ServerConfig{
			Enabled: serve,
			Addr:    getConfigValue(*addr, "REELSTITCH_ADDR", ":8080"),
		},
		Version: version,
	}

	// Positional directory argument.
	switch fs.NArg() {
	case 0:
		// Allowed only for -version; Validate enforces this.
	case 1:
		cfg.Scan.Dir = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected one directory argument, got %d", fs.NArg())
	}

	// Parse durations.
	var err error
	cfg.Scan.ProbeTimeout, err = parseDurationValue(*probeTimeout, "REELSTITCH_PROBE_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid probe timeout: %w", err)
	}
	cfg.Watch.SettleDelay, err = parseDurationValue(*settleDelay, "REELSTITCH_WATCH_SETTLE", "2s")
	if err != nil {
		return nil, fmt.Errorf("invalid watch settle delay: %w", err)
	}
	cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "REELSTITCH_READ_TIMEOUT", "15s")
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "REELSTITCH_WRITE_TIMEOUT", "15s")
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "REELSTITCH_IDLE_TIMEOUT", "60s")
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}

	// Expand the data directory (defaults to ~/.reelstitch).
	if err := cfg.expandDataDir(); err != nil {
		return nil, fmt.Errorf("invalid data dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.Version {
		return nil
	}

	if c.Scan.Dir == "" {
		return errors.New("directory argument is required")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	validFormats := map[string]bool{
		"pretty": true,
		"json":   true,
	}
	if !validFormats[strings.ToLower(c.Logger.Format)] {
		return fmt.Errorf("invalid log format: %s (must be pretty or json)", c.Logger.Format)
	}

	if c.Scan.Workers < 1 || c.Scan.Workers > 32 {
		return fmt.Errorf("invalid worker count: %d (must be 1-32)", c.Scan.Workers)
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return errors.New("listen address is required with -serve")
	}

	if c.Data.Dir == "" {
		return errors.New("data dir cannot be empty after expansion")
	}

	return nil
}

// CachePath returns the probe cache location under the data dir.
func (c *Config) CachePath() string {
	return filepath.Join(c.Data.Dir, "probe-cache")
}

// HistoryPath returns the run history database location under the data dir.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Data.Dir, "history.db")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataDir expands ~ and makes the data dir absolute.
func (c *Config) expandDataDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, ".reelstitch")

	expanded, err := expandPath(c.Data.Dir, defaultPath)
	if err != nil {
		return err
	}
	c.Data.Dir = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// parseDurationValue resolves flag/env/default precedence and parses the result.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

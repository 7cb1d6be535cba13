package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Dir:     "/footage",
			Workers: 4,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "pretty",
		},
		Data: DataConfig{
			Dir: "/some/path",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_MissingDirectory(t *testing.T) {
	cfg := validConfig()
	cfg.Scan.Dir = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "directory argument is required")
}

func TestValidate_VersionSkipsChecks(t *testing.T) {
	cfg := &Config{Version: true}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"INFO", true},   // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_LogFormats(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"pretty", true},
		{"json", true},
		{"JSON", true},
		{"yaml", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Format = tt.format

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_WorkerBounds(t *testing.T) {
	tests := []struct {
		workers int
		valid   bool
	}{
		{1, true},
		{4, true},
		{32, true},
		{0, false},
		{-1, false},
		{33, false},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.Scan.Workers = tt.workers

		err := cfg.Validate()
		if tt.valid {
			assert.NoError(t, err, "workers=%d", tt.workers)
		} else {
			assert.Error(t, err, "workers=%d", tt.workers)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]string{"/footage"})
	require.NoError(t, err)

	assert.Equal(t, "/footage", cfg.Scan.Dir)
	assert.False(t, cfg.Scan.Recursive)
	assert.False(t, cfg.Output.JSON)
	assert.Empty(t, cfg.Output.Path)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 30*time.Second, cfg.Scan.ProbeTimeout)
	assert.Equal(t, 2*time.Second, cfg.Watch.SettleDelay)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_ShortAndLongFlags(t *testing.T) {
	short, err := Load([]string{"-r", "-j", "-o", "out.json", "/footage"})
	require.NoError(t, err)

	long, err := Load([]string{"-recursive", "-json", "-output", "out.json", "/footage"})
	require.NoError(t, err)

	assert.Equal(t, short.Scan.Recursive, long.Scan.Recursive)
	assert.Equal(t, short.Output.JSON, long.Output.JSON)
	assert.Equal(t, short.Output.Path, long.Output.Path)
	assert.True(t, short.Scan.Recursive)
	assert.True(t, short.Output.JSON)
	assert.Equal(t, "out.json", short.Output.Path)
}

func TestLoad_TooManyArguments(t *testing.T) {
	_, err := Load([]string{"/footage", "/more-footage"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "one directory argument")
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load([]string{})
	assert.Error(t, err)
}

func TestLoad_VersionWithoutDirectory(t *testing.T) {
	cfg, err := Load([]string{"-version"})
	require.NoError(t, err)
	assert.True(t, cfg.Version)
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load([]string{"-probe-timeout", "potato", "/footage"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "probe timeout")
}

func TestLoad_DataDirPaths(t *testing.T) {
	cfg, err := Load([]string{"-data-dir", "/var/lib/reelstitch", "/footage"})
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/reelstitch", cfg.Data.Dir)
	assert.Equal(t, filepath.Join("/var/lib/reelstitch", "probe-cache"), cfg.CachePath())
	assert.Equal(t, filepath.Join("/var/lib/reelstitch", "history.db"), cfg.HistoryPath())
}

func TestExpandDataDir_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}

	err := cfg.expandDataDir()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, ".reelstitch"), cfg.Data.Dir)
}

func TestExpandDataDir_TildeExpansion(t *testing.T) {
	cfg := &Config{Data: DataConfig{Dir: "~/my-data"}}

	err := cfg.expandDataDir()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "my-data"), cfg.Data.Dir)
}

func TestExpandDataDir_RelativePath(t *testing.T) {
	cfg := &Config{Data: DataConfig{Dir: "relative/path"}}

	err := cfg.expandDataDir()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.Data.Dir))
	assert.Contains(t, cfg.Data.Dir, "relative/path")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	// Test flag value takes priority.
	result := getConfigValue("flag-value", "ENV_KEY", "default-value")
	assert.Equal(t, "flag-value", result)

	// Test env var when flag is empty.
	os.Setenv("TEST_ENV_KEY", "env-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_ENV_KEY")      //nolint:errcheck // Test cleanup

	result = getConfigValue("", "TEST_ENV_KEY", "default-value")
	assert.Equal(t, "env-value", result)

	// Test default when both are empty.
	result = getConfigValue("", "NONEXISTENT_KEY", "default-value")
	assert.Equal(t, "default-value", result)
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
REELSTITCH_LOG_LEVEL=debug
REELSTITCH_DATA_DIR=/test/path
QUOTED_VALUE="some value"
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	os.Unsetenv("REELSTITCH_LOG_LEVEL") //nolint:errcheck // Test cleanup
	os.Unsetenv("REELSTITCH_DATA_DIR")  //nolint:errcheck // Test cleanup
	os.Unsetenv("QUOTED_VALUE")         //nolint:errcheck // Test cleanup
	defer func() {
		os.Unsetenv("REELSTITCH_LOG_LEVEL") //nolint:errcheck // Test cleanup
		os.Unsetenv("REELSTITCH_DATA_DIR")  //nolint:errcheck // Test cleanup
		os.Unsetenv("QUOTED_VALUE")         //nolint:errcheck // Test cleanup
	}()

	err = loadEnvFile(envFile)
	require.NoError(t, err)

	assert.Equal(t, "debug", os.Getenv("REELSTITCH_LOG_LEVEL"))
	assert.Equal(t, "/test/path", os.Getenv("REELSTITCH_DATA_DIR"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `VALID_KEY=valid_value
INVALID LINE WITHOUT EQUALS
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	err = loadEnvFile(envFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	os.Setenv("TEST_VAR", "original-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_VAR")           //nolint:errcheck // Test cleanup

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte(`TEST_VAR=new-value`), 0o644)
	require.NoError(t, err)

	err = loadEnvFile(envFile)
	require.NoError(t, err)

	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}

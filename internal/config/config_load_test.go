package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to set os.Args for testing
func setArgs(args []string) {
	os.Args = args
}

// Helper function to clear environment variables
func clearEnvVars() {
	os.Unsetenv("PDFBUNDLE_MODE")
	os.Unsetenv("PDFBUNDLE_HOST")
	os.Unsetenv("PDFBUNDLE_PORT")
	os.Unsetenv("PDFBUNDLE_DIR")
	os.Unsetenv("PDFBUNDLE_LOGLEVEL")
	os.Unsetenv("PDFBUNDLE_MAXUPLOADSIZE")
	os.Unsetenv("PDFBUNDLE_MAXIMAGES")
	os.Unsetenv("PDFBUNDLE_STORETTL")
	os.Unsetenv("PDFBUNDLE_STORECAPACITY")
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	// Save original args and environment
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	// Set minimal args (just program name)
	setArgs([]string{"pdfbundle"})
	resetFlags()
	clearEnvVars()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	// Verify default values
	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "127.0.0.1")
	}
	if cfg.Port != 8080 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxUploadSize != 50*1024*1024 {
		t.Errorf("LoadFromFlags() MaxUploadSize = %v, want %v", cfg.MaxUploadSize, 50*1024*1024)
	}
	if cfg.MaxImages != 50 {
		t.Errorf("LoadFromFlags() MaxImages = %v, want %v", cfg.MaxImages, 50)
	}
	if cfg.StoreTTLSeconds != 900 {
		t.Errorf("LoadFromFlags() StoreTTLSeconds = %v, want %v", cfg.StoreTTLSeconds, 900)
	}
	// PDFDirectory should be current working directory
	if cfg.PDFDirectory == "" {
		t.Error("LoadFromFlags() PDFDirectory should not be empty")
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name              string
		argsTemplate      []string
		wantMode          string
		wantHost          string
		wantPort          int
		wantLogLevel      string
		wantMaxUploadSize int64
		wantMaxImages     int
		wantStoreTTL      int
	}{
		{
			name:              "stdio mode with custom directory",
			argsTemplate:      []string{"pdfbundle", "--dir=%s"},
			wantMode:          "stdio",
			wantHost:          "127.0.0.1",
			wantPort:          8080,
			wantLogLevel:      "info",
			wantMaxUploadSize: 50 * 1024 * 1024,
			wantMaxImages:     50,
			wantStoreTTL:      900,
		},
		{
			name:              "server mode",
			argsTemplate:      []string{"pdfbundle", "--mode=server", "--dir=%s"},
			wantMode:          "server",
			wantHost:          "127.0.0.1",
			wantPort:          8080,
			wantLogLevel:      "info",
			wantMaxUploadSize: 50 * 1024 * 1024,
			wantMaxImages:     50,
			wantStoreTTL:      900,
		},
		{
			name:              "server mode with custom host and port",
			argsTemplate:      []string{"pdfbundle", "--mode=server", "--host=0.0.0.0", "--port=9090", "--dir=%s"},
			wantMode:          "server",
			wantHost:          "0.0.0.0",
			wantPort:          9090,
			wantLogLevel:      "info",
			wantMaxUploadSize: 50 * 1024 * 1024,
			wantMaxImages:     50,
			wantStoreTTL:      900,
		},
		{
			name:              "debug logging",
			argsTemplate:      []string{"pdfbundle", "--loglevel=debug", "--dir=%s"},
			wantMode:          "stdio",
			wantHost:          "127.0.0.1",
			wantPort:          8080,
			wantLogLevel:      "debug",
			wantMaxUploadSize: 50 * 1024 * 1024,
			wantMaxImages:     50,
			wantStoreTTL:      900,
		},
		{
			name:              "custom bounds",
			argsTemplate:      []string{"pdfbundle", "--maxuploadsize=10485760", "--maximages=5", "--storettl=300", "--dir=%s"},
			wantMode:          "stdio",
			wantHost:          "127.0.0.1",
			wantPort:          8080,
			wantLogLevel:      "info",
			wantMaxUploadSize: 10485760,
			wantMaxImages:     5,
			wantStoreTTL:      300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save original args and environment
			originalArgs := os.Args
			defer func() {
				os.Args = originalArgs
				resetFlags()
				clearEnvVars()
			}()

			// Create temp directory for this test
			tempDir := t.TempDir()

			// Build args with temp directory
			args := make([]string, len(tt.argsTemplate))
			for i, arg := range tt.argsTemplate {
				if arg == "--dir=%s" {
					args[i] = "--dir=" + tempDir
				} else {
					args[i] = arg
				}
			}

			setArgs(args)
			resetFlags()
			clearEnvVars()

			cfg, err := LoadFromFlags()
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}

			if cfg.Mode != tt.wantMode {
				t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, tt.wantMode)
			}
			if cfg.Host != tt.wantHost {
				t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, tt.wantHost)
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, tt.wantPort)
			}
			if cfg.LogLevel != tt.wantLogLevel {
				t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, tt.wantLogLevel)
			}
			if cfg.MaxUploadSize != tt.wantMaxUploadSize {
				t.Errorf("LoadFromFlags() MaxUploadSize = %v, want %v", cfg.MaxUploadSize, tt.wantMaxUploadSize)
			}
			if cfg.MaxImages != tt.wantMaxImages {
				t.Errorf("LoadFromFlags() MaxImages = %v, want %v", cfg.MaxImages, tt.wantMaxImages)
			}
			if cfg.StoreTTLSeconds != tt.wantStoreTTL {
				t.Errorf("LoadFromFlags() StoreTTLSeconds = %v, want %v", cfg.StoreTTLSeconds, tt.wantStoreTTL)
			}
			// PDFDirectory should be expanded to absolute path
			if cfg.PDFDirectory == "" {
				t.Error("LoadFromFlags() PDFDirectory should not be empty")
			}
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	// Save original args and environment
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	// Create temp directory for testing
	tempDir := t.TempDir()

	// Set environment variables
	os.Setenv("PDFBUNDLE_MODE", "server")
	os.Setenv("PDFBUNDLE_HOST", "192.168.1.1")
	os.Setenv("PDFBUNDLE_PORT", "3000")
	os.Setenv("PDFBUNDLE_DIR", tempDir)
	os.Setenv("PDFBUNDLE_LOGLEVEL", "warn")
	os.Setenv("PDFBUNDLE_MAXUPLOADSIZE", "20000000")
	os.Setenv("PDFBUNDLE_STORETTL", "120")

	setArgs([]string{"pdfbundle"})
	resetFlags()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "server")
	}
	if cfg.Host != "192.168.1.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "192.168.1.1")
	}
	if cfg.Port != 3000 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 3000)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxUploadSize != 20000000 {
		t.Errorf("LoadFromFlags() MaxUploadSize = %v, want %v", cfg.MaxUploadSize, 20000000)
	}
	if cfg.StoreTTLSeconds != 120 {
		t.Errorf("LoadFromFlags() StoreTTLSeconds = %v, want %v", cfg.StoreTTLSeconds, 120)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	// Save original args and environment
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	// Set environment variables
	os.Setenv("PDFBUNDLE_MODE", "server")
	os.Setenv("PDFBUNDLE_HOST", "192.168.1.1")
	os.Setenv("PDFBUNDLE_PORT", "3000")

	// Set args that should override environment
	setArgs([]string{"pdfbundle", "--mode=stdio", "--host=localhost", "--port=8888"})
	resetFlags()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	// Flags should override environment variables
	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v (should override env)", cfg.Mode, "stdio")
	}
	if cfg.Host != "localhost" {
		t.Errorf("LoadFromFlags() Host = %v, want %v (should override env)", cfg.Host, "localhost")
	}
	if cfg.Port != 8888 {
		t.Errorf("LoadFromFlags() Port = %v, want %v (should override env)", cfg.Port, 8888)
	}
}

func TestLoadFromFlags_InvalidMode(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	tempDir := t.TempDir()
	setArgs([]string{"pdfbundle", "--mode=invalid", "--dir=" + tempDir})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for invalid mode")
	}
	if err != nil && !containsString(err.Error(), "mode must be either 'stdio' or 'server'") {
		t.Errorf("LoadFromFlags() error = %v, want error about invalid mode", err)
	}
}

func TestLoadFromFlags_InvalidPort(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	tempDir := t.TempDir()
	setArgs([]string{"pdfbundle", "--mode=server", "--port=99999", "--dir=" + tempDir})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for invalid port")
	}
	if err != nil && !containsString(err.Error(), "port must be between 1 and 65535") {
		t.Errorf("LoadFromFlags() error = %v, want error about invalid port", err)
	}
}

func TestLoadFromFlags_InvalidLogLevel(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	tempDir := t.TempDir()
	setArgs([]string{"pdfbundle", "--loglevel=invalid", "--dir=" + tempDir})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for invalid log level")
	}
	if err != nil && !containsString(err.Error(), "invalid log level") {
		t.Errorf("LoadFromFlags() error = %v, want error about invalid log level", err)
	}
}

func TestLoadFromFlags_InvalidBounds(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	tempDir := t.TempDir()
	setArgs([]string{"pdfbundle", "--maxuploadsize=0", "--dir=" + tempDir})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for zero upload bound")
	}
	if err != nil && !containsString(err.Error(), "maximum upload size must be positive") {
		t.Errorf("LoadFromFlags() error = %v, want error about upload size", err)
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{"pdfbundle", "--version"})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected version error")
	}
	if err != nil && err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}

// Helper function to check if a string contains a substring
func containsString(s, substr string) bool {
	return len(s) >= len(substr) &&
		(s == substr ||
			(len(s) > len(substr) &&
				(s[:len(substr)] == substr ||
					s[len(s)-len(substr):] == substr ||
					findSubstring(s, substr))))
}

func findSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

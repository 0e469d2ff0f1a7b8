package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort          = 8080
	DefaultHost          = "127.0.0.1"
	DefaultLogLevel      = "info"
	DefaultMaxUploadSize = 50 * 1024 * 1024 // 50MiB
	DefaultStoreTTL      = 900              // seconds
	DefaultStoreCapacity = 256
	DefaultMaxImages     = 50

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the PDF bundle server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	PDFDirectory  string
	MaxUploadSize int64 // maximum document upload size in bytes
	MaxImages     int   // maximum images extracted per document

	// Artifact store configuration
	StoreTTLSeconds int // bundle lifetime in seconds
	StoreCapacity   int // maximum bundles held at once

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		PDFDirectory:    currentDir,
		MaxUploadSize:   DefaultMaxUploadSize,
		MaxImages:       DefaultMaxImages,
		StoreTTLSeconds: DefaultStoreTTL,
		StoreCapacity:   DefaultStoreCapacity,
		Version:         "1.0.0",
		ServerName:      "pdfbundle",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("PDFBUNDLE")
	viper.AutomaticEnv()

	// Define flags with Viper
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxuploadsize", cfg.MaxUploadSize)
	viper.SetDefault("maximages", cfg.MaxImages)
	viper.SetDefault("storettl", cfg.StoreTTLSeconds)
	viper.SetDefault("storecapacity", cfg.StoreCapacity)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxuploadsize", cfg.MaxUploadSize, "Maximum document upload size in bytes")
	pflag.Int("maximages", cfg.MaxImages, "Maximum images extracted per document")
	pflag.Int("storettl", cfg.StoreTTLSeconds, "Artifact bundle lifetime in seconds")
	pflag.Int("storecapacity", cfg.StoreCapacity, "Maximum artifact bundles held at once")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxuploadsize", pflag.Lookup("maxuploadsize"))
	_ = viper.BindPFlag("maximages", pflag.Lookup("maximages"))
	_ = viper.BindPFlag("storettl", pflag.Lookup("storettl"))
	_ = viper.BindPFlag("storecapacity", pflag.Lookup("storecapacity"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Bundle - A Model Context Protocol server for PDF attachments and images\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --maxuploadsize=10485760                # 10MiB upload bound\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --storettl=300 --maximages=10           # short-lived artifacts\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDFBUNDLE_MODE          Server mode\n")
		fmt.Fprintf(os.Stderr, "  PDFBUNDLE_HOST          Server host\n")
		fmt.Fprintf(os.Stderr, "  PDFBUNDLE_PORT          Server port\n")
		fmt.Fprintf(os.Stderr, "  PDFBUNDLE_DIR           PDF directory\n")
		fmt.Fprintf(os.Stderr, "  PDFBUNDLE_LOGLEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  PDFBUNDLE_MAXUPLOADSIZE Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  PDFBUNDLE_MAXIMAGES     Maximum images per document\n")
		fmt.Fprintf(os.Stderr, "  PDFBUNDLE_STORETTL      Artifact lifetime in seconds\n")
		fmt.Fprintf(os.Stderr, "  PDFBUNDLE_STORECAPACITY Artifact store capacity\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxUploadSize = viper.GetInt64("maxuploadsize")
	cfg.MaxImages = viper.GetInt("maximages")
	cfg.StoreTTLSeconds = viper.GetInt("storettl")
	cfg.StoreCapacity = viper.GetInt("storecapacity")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	// Validate bounds
	if c.MaxUploadSize <= 0 {
		return errors.New("maximum upload size must be positive")
	}
	if c.MaxImages <= 0 {
		return errors.New("maximum image count must be positive")
	}
	if c.StoreTTLSeconds <= 0 {
		return errors.New("store TTL must be positive")
	}
	if c.StoreCapacity <= 0 {
		return errors.New("store capacity must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// StoreTTL returns the configured bundle lifetime as a duration
func (c *Config) StoreTTL() time.Duration {
	return time.Duration(c.StoreTTLSeconds) * time.Second
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, "+
		"MaxUploadSize: %d, MaxImages: %d, StoreTTL: %ds, StoreCapacity: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel,
		c.MaxUploadSize, c.MaxImages, c.StoreTTLSeconds, c.StoreCapacity)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

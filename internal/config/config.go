package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a3tai/pdf-orgstruct/internal/orgstruct"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"
	ModeBatch  = "batch"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultCacheSize   = 16
	DefaultOutputDir   = "output"
	DefaultLogDir      = "logs"

	// MinYear is the earliest document year accepted by the year filter
	MinYear = 2000

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "ORGSTRUCT"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is passed
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the org structure extractor
type Config struct {
	// Server configuration
	Mode string // "stdio", "server" or "batch"
	Host string
	Port int

	// Directories
	PDFDirectory    string
	OutputDirectory string
	LogDirectory    string

	// Inference tuning
	GapThreshold float64
	HalfWidth    float64

	// Batch selection; zero leaves that side of the range open
	StartYear  int
	EndYear    int
	DumpLayout bool
	File       string // Single document to process instead of the whole directory

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
	CacheSize   int   // Parsed documents kept between tool calls
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
		OutputDirectory: filepath.Join(currentDir, DefaultOutputDir),
		LogDirectory:    filepath.Join(currentDir, DefaultLogDir),
		GapThreshold:    orgstruct.DefaultGapThreshold,
		HalfWidth:       orgstruct.DefaultHalfWidth,
		Version:         "1.0.0",
		ServerName:      "pdf-orgstruct",
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     DefaultMaxFileSize,
		CacheSize:       DefaultCacheSize,
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
	for _, dir := range []*string{&cfg.PDFDirectory, &cfg.OutputDirectory, &cfg.LogDirectory} {
		if *dir == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*dir); err == nil {
			*dir = expandedPath
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
	// ORGSTRUCT_LOG_LEVEL maps to the log-level key
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("output-dir", cfg.OutputDirectory)
	viper.SetDefault("log-dir", cfg.LogDirectory)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
	viper.SetDefault("cache-size", cfg.CacheSize)
	viper.SetDefault("gap-threshold", cfg.GapThreshold)
	viper.SetDefault("half-width", cfg.HalfWidth)
	viper.SetDefault("start-year", cfg.StartYear)
	viper.SetDefault("end-year", cfg.EndYear)
	viper.SetDefault("dump-layout", cfg.DumpLayout)
	viper.SetDefault("file", cfg.File)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'stdio' for MCP standard I/O, 'server' for HTTP server, 'batch' to process a directory")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("output-dir", cfg.OutputDirectory, "Directory for CSV and layout reports")
	pflag.String("log-dir", cfg.LogDirectory, "Directory for per-run log files (batch mode)")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("cache-size", cfg.CacheSize, "Number of parsed documents cached between tool calls (0 disables)")
	pflag.Float64("gap-threshold", cfg.GapThreshold, "Largest x gap between positions of the same cluster")
	pflag.Float64("half-width", cfg.HalfWidth, "Half width of each level interval around its cluster median")
	pflag.Int("start-year", cfg.StartYear, "First document year to process (0 = no lower bound)")
	pflag.Int("end-year", cfg.EndYear, "Last document year to process (0 = no upper bound)")
	pflag.Bool("dump-layout", cfg.DumpLayout, "Also write the coordinate annotated text of each document")
	pflag.String("file", cfg.File, "Process a single PDF and print its hierarchy (batch mode)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	pflag.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF OrgStruct - recovers agency/department code hierarchies from budget PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                              "+
			"# MCP stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/pdfs            # MCP over HTTP\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=batch --dir=in --output-dir=out       # process every PDF\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=batch --start-year=2020 --end-year=2023 # only FY2020-FY2023\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=batch --file=city_2023_budget.pdf     # print one hierarchy\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_MODE, %s_HOST, %s_PORT, %s_DIR, %s_OUTPUT_DIR, %s_LOG_DIR,\n",
			envPrefix, envPrefix, envPrefix, envPrefix, envPrefix, envPrefix)
		fmt.Fprintf(os.Stderr, "  %s_LOG_LEVEL, %s_MAX_FILE_SIZE, %s_GAP_THRESHOLD, %s_HALF_WIDTH,\n",
			envPrefix, envPrefix, envPrefix, envPrefix)
		fmt.Fprintf(os.Stderr, "  %s_START_YEAR, %s_END_YEAR, %s_DUMP_LAYOUT, %s_CACHE_SIZE\n",
			envPrefix, envPrefix, envPrefix, envPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
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
	cfg.OutputDirectory = viper.GetString("output-dir")
	cfg.LogDirectory = viper.GetString("log-dir")
	cfg.LogLevel = viper.GetString("log-level")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
	cfg.CacheSize = viper.GetInt("cache-size")
	cfg.GapThreshold = viper.GetFloat64("gap-threshold")
	cfg.HalfWidth = viper.GetFloat64("half-width")
	cfg.StartYear = viper.GetInt("start-year")
	cfg.EndYear = viper.GetInt("end-year")
	cfg.DumpLayout = viper.GetBool("dump-layout")
	cfg.File = viper.GetString("file")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer && c.Mode != ModeBatch {
		return errors.New("mode must be one of 'stdio', 'server' or 'batch'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}
	if err := ensureDirectory("PDF", c.PDFDirectory); err != nil {
		return err
	}

	// Output and log directories are created on first write
	if c.Mode == ModeBatch && c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty in batch mode")
	}
	if c.File != "" && c.Mode != ModeBatch {
		return errors.New("file can only be used in batch mode")
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.CacheSize < 0 {
		return errors.New("cache size cannot be negative")
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

	if err := c.Inference().Validate(); err != nil {
		return err
	}

	return c.validateYears(time.Now().Year())
}

func (c *Config) validateYears(currentYear int) error {
	if c.StartYear != 0 && (c.StartYear < MinYear || c.StartYear > currentYear) {
		return fmt.Errorf("start year must be between %d and %d", MinYear, currentYear)
	}
	if c.EndYear != 0 && (c.EndYear < MinYear || c.EndYear > currentYear) {
		return fmt.Errorf("end year must be between %d and %d", MinYear, currentYear)
	}
	if c.StartYear != 0 && c.EndYear != 0 && c.StartYear > c.EndYear {
		return fmt.Errorf("start year %d is after end year %d", c.StartYear, c.EndYear)
	}
	return nil
}

func ensureDirectory(kind, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create %s directory %s: %w", kind, dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access %s directory %s: %w", kind, dir, err)
	}
	return nil
}

// Inference returns the level inference settings
func (c *Config) Inference() orgstruct.Config {
	inference := orgstruct.DefaultConfig()
	inference.GapThreshold = c.GapThreshold
	inference.HalfWidth = c.HalfWidth
	return inference
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
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, OutputDirectory: %s, "+
		"LogLevel: %s, MaxFileSize: %d, GapThreshold: %g, HalfWidth: %g, Years: %d-%d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.OutputDirectory,
		c.LogLevel, c.MaxFileSize, c.GapThreshold, c.HalfWidth, c.StartYear, c.EndYear)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsBatchMode returns true if the process runs a single batch and exits
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

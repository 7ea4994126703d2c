package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/a3tai/pdf-form-extract/internal/report"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeExtract = "extract"
	ModeBatch   = "batch"
	ModeWatch   = "watch"
	ModeStdio   = "stdio"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultWorkers     = 4
	DefaultTimeout     = 30 * time.Second
	DefaultDuration    = 10 * time.Minute
	DefaultInterval    = 5 * time.Second

	// EnvPrefix prefixes every environment variable
	EnvPrefix = "PDF_FORMS"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ErrVersionRequested is returned when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the extractor
type Config struct {
	Mode string

	// Sources
	PDFDirectory string
	Files        []string // positional arguments in extract mode
	Recursive    bool

	// Output
	Output string // empty means stdout
	Format string

	// Processing
	Workers  int
	Timeout  time.Duration // per document
	Duration time.Duration // watch mode
	Interval time.Duration // watch mode

	// Form field names
	DocNumField   string
	CornerField   string
	TownshipField string
	RangeField    string
	CountyField   string
	ImageField    string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	defaults := extraction.DefaultFieldSpecs()
	return &Config{
		Mode:          ModeBatch,
		PDFDirectory:  currentDir,
		Format:        string(report.FormatText),
		Workers:       DefaultWorkers,
		Timeout:       DefaultTimeout,
		Duration:      DefaultDuration,
		Interval:      DefaultInterval,
		DocNumField:   defaults.Values[0].Field,
		CornerField:   defaults.Values[1].Field,
		TownshipField: defaults.Values[2].Field,
		RangeField:    defaults.Values[3].Field,
		CountyField:   defaults.Values[4].Field,
		ImageField:    defaults.Image,
		Version:       "1.0.0",
		ServerName:    "pdf-form-extract",
		LogLevel:      DefaultLogLevel,
		MaxFileSize:   DefaultMaxFileSize,
	}
}

// LoadFromFlags parses os.Args and the environment
func LoadFromFlags() (*Config, error) {
	return LoadFromArgs(os.Args[1:], os.Stderr)
}

// LoadFromArgs parses args and the PDF_FORMS_* environment. Flags win over
// environment variables, which win over defaults. Usage and parse errors
// are written to usageOut.
func LoadFromArgs(args []string, usageOut io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return nil, ErrVersionRequested
		}
	}

	v := viper.New()
	setupViperEnvironment(v, cfg)

	fs := pflag.NewFlagSet("pdf-form-extract", pflag.ContinueOnError)
	fs.SetOutput(usageOut)
	defineCommandLineFlags(fs, cfg)
	bindFlagsToViper(v, fs)
	setupUsageMessage(fs, usageOut)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	populateConfigFromViper(v, cfg)
	cfg.Files = fs.Args()

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// flag name, viper key and environment suffix are the same string
var keys = []string{
	"mode", "dir", "recursive", "output", "format", "workers", "timeout", "duration", "interval",
	"docnum", "corner", "township", "range", "county", "image", "loglevel", "maxfilesize",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("recursive", cfg.Recursive)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("duration", cfg.Duration)
	v.SetDefault("interval", cfg.Interval)
	v.SetDefault("docnum", cfg.DocNumField)
	v.SetDefault("corner", cfg.CornerField)
	v.SetDefault("township", cfg.TownshipField)
	v.SetDefault("range", cfg.RangeField)
	v.SetDefault("county", cfg.CountyField)
	v.SetDefault("image", cfg.ImageField)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Run mode: 'extract' files given as arguments, 'batch' one pass over --dir, "+
		"'watch' repeated passes over --dir, 'stdio' MCP server")
	fs.String("dir", cfg.PDFDirectory, "Directory containing PDF forms")
	fs.Bool("recursive", cfg.Recursive, "Also process PDFs in subdirectories of --dir")
	fs.String("output", cfg.Output, "Write the report to this file instead of stdout")
	fs.String("format", cfg.Format, "Report format (text, csv, json, xlsx)")
	fs.Int("workers", cfg.Workers, "Documents extracted in parallel")
	fs.Duration("timeout", cfg.Timeout, "Time limit per document (0 disables)")
	fs.Duration("duration", cfg.Duration, "Total run time in watch mode")
	fs.Duration("interval", cfg.Interval, "Pause between passes in watch mode")
	fs.String("docnum", cfg.DocNumField, "Name of the document number field")
	fs.String("corner", cfg.CornerField, "Name of the corner of section field")
	fs.String("township", cfg.TownshipField, "Name of the township choice field")
	fs.String("range", cfg.RangeField, "Name of the range choice field")
	fs.String("county", cfg.CountyField, "Name of the county choice field")
	fs.String("image", cfg.ImageField, "Name of the image button field")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	for _, key := range keys {
		_ = v.BindPFlag(key, fs.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet, out io.Writer) {
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage of %s:\n", fs.Name())
		fmt.Fprintf(out, "\nPDF Form Extract - reads survey form fields from PDF documents\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s --dir=/path/to/pdfs                           # one pass, text report\n", fs.Name())
		fmt.Fprintf(out, "  %s --mode=extract a.pdf b.pdf                    # specific files\n", fs.Name())
		fmt.Fprintf(out, "  %s --mode=watch --duration=1h --interval=10m \\\n", fs.Name())
		fmt.Fprintf(out, "      --output=output.xlsx --format=xlsx                       # recurring passes to a workbook\n")
		fmt.Fprintf(out, "  %s --mode=stdio --dir=/path/to/pdfs              # MCP server\n", fs.Name())
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		for _, key := range keys {
			fmt.Fprintf(out, "  %s_%s\n", EnvPrefix, strings.ToUpper(key))
		}
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.Recursive = v.GetBool("recursive")
	cfg.Output = v.GetString("output")
	cfg.Format = v.GetString("format")
	cfg.Workers = v.GetInt("workers")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.Duration = v.GetDuration("duration")
	cfg.Interval = v.GetDuration("interval")
	cfg.DocNumField = v.GetString("docnum")
	cfg.CornerField = v.GetString("corner")
	cfg.TownshipField = v.GetString("township")
	cfg.RangeField = v.GetString("range")
	cfg.CountyField = v.GetString("county")
	cfg.ImageField = v.GetString("image")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeExtract, ModeBatch, ModeWatch, ModeStdio:
	default:
		return errors.New("mode must be one of 'extract', 'batch', 'watch' or 'stdio'")
	}

	if c.Mode == ModeExtract && len(c.Files) == 0 {
		return errors.New("extract mode needs at least one PDF file argument")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// the MCP server may be pointed at a directory that is filled later
	if c.Mode == ModeStdio {
		if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
			if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
		}
	}

	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Format == string(report.FormatXLSX) && c.Output == "" && c.Mode != ModeStdio {
		return errors.New("xlsx format needs --output")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}

	if c.Mode == ModeWatch {
		if c.Duration <= 0 {
			return errors.New("duration must be positive in watch mode")
		}
		if c.Interval <= 0 {
			return errors.New("interval must be positive in watch mode")
		}
	}

	if err := c.FieldSpecs().Validate(); err != nil {
		return fmt.Errorf("invalid field names: %w", err)
	}

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

// FieldSpecs returns the form fields to read
func (c *Config) FieldSpecs() extraction.FieldSpecs {
	return extraction.FieldSpecs{
		Values: []extraction.FieldSpec{
			{Key: extraction.KeyDocNum, Field: c.DocNumField},
			{Key: extraction.KeyCornerOfSection, Field: c.CornerField},
			{Key: extraction.KeyTownship, Field: c.TownshipField},
			{Key: extraction.KeyRange, Field: c.RangeField},
			{Key: extraction.KeyCounty, Field: c.CountyField},
		},
		Choices: []extraction.FieldSpec{
			{Key: extraction.KeyTownship, Field: c.TownshipField},
			{Key: extraction.KeyRange, Field: c.RangeField},
			{Key: extraction.KeyCounty, Field: c.CountyField},
		},
		Image: c.ImageField,
	}
}

// ReportFormat returns the validated report format
func (c *Config) ReportFormat() report.Format {
	f, _ := report.ParseFormat(c.Format)
	return f
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsStdioMode returns true if the process serves MCP over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, PDFDirectory: %s, Format: %s, Workers: %d, Timeout: %s, "+
		"LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.PDFDirectory, c.Format, c.Workers, c.Timeout, c.LogLevel, c.MaxFileSize)
}

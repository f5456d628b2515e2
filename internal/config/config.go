package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/workflow-crm/report-automation/internal/pipeline"
	"github.com/workflow-crm/report-automation/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Provinces    []string      `mapstructure:"provinces"`
}

// DatabaseConfig holds run-history database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// PipelineConfig holds the categorization rules. Thresholds and date
// layouts are deployment data, not code.
type PipelineConfig struct {
	DateFormats     []string          `mapstructure:"date_formats"`
	PaidColumn      string            `mapstructure:"paid_column"`
	Buckets         map[string]string `mapstructure:"buckets"` // amount limit -> category label
	DefaultCategory string            `mapstructure:"default_category"`
}

// SheetsConfig holds Google Sheets/Drive configuration
type SheetsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	FolderID        string        `mapstructure:"folder_id"`
	ShareEmail      string        `mapstructure:"share_email"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// ExportConfig holds local xlsx export configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.provinces", []string{"Ontario", "Alberta"})

	// Database defaults
	viper.SetDefault("database.path", "data/reports.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Pipeline defaults
	viper.SetDefault("pipeline.date_formats", []string{"2006-01-02"})
	viper.SetDefault("pipeline.paid_column", "paid")
	viper.SetDefault("pipeline.default_category", "enterprise")

	// Sheets defaults
	viper.SetDefault("sheets.enabled", true)
	viper.SetDefault("sheets.timeout", 60*time.Second)

	// Export defaults
	viper.SetDefault("export.output_dir", "generated_reports")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive values from environment
	viper.BindEnv("sheets.credentials_file", "GOOGLE_CREDENTIALS_FILE")
	viper.BindEnv("sheets.folder_id", "SHEETS_FOLDER_ID")
	viper.BindEnv("sheets.share_email", "SHEETS_SHARE_EMAIL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Server.Provinces) == 0 {
		return fmt.Errorf("server.provinces must not be empty")
	}

	if len(c.Pipeline.DateFormats) == 0 {
		return fmt.Errorf("pipeline.date_formats must not be empty")
	}
	if len(c.Pipeline.Buckets) > 0 && c.Pipeline.DefaultCategory == "" {
		return fmt.Errorf("pipeline.default_category is required when buckets are set")
	}
	for limit := range c.Pipeline.Buckets {
		if _, err := decimal.NewFromString(limit); err != nil {
			return fmt.Errorf("pipeline.buckets: limit %q is not a number", limit)
		}
	}

	if c.Sheets.Enabled {
		if c.Sheets.CredentialsFile == "" {
			return fmt.Errorf("sheets.credentials_file is required when sheets is enabled")
		}
		if c.Sheets.ShareEmail == "" {
			return fmt.Errorf("sheets.share_email is required when sheets is enabled")
		}
		if err := utils.ValidateEmail(c.Sheets.ShareEmail); err != nil {
			return fmt.Errorf("sheets.share_email: %w", err)
		}
	}

	return nil
}

// RulesFor builds the pipeline configuration anchored on the given
// processing date. Validate must have passed before calling this.
func (c *Config) RulesFor(processingDate time.Time) pipeline.Config {
	buckets := make([]pipeline.Bucket, 0, len(c.Pipeline.Buckets))
	for limit, label := range c.Pipeline.Buckets {
		buckets = append(buckets, pipeline.Bucket{
			Limit: decimal.RequireFromString(limit),
			Label: label,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Limit.LessThan(buckets[j].Limit)
	})

	return pipeline.Config{
		DateFormats:     c.Pipeline.DateFormats,
		PaidColumn:      c.Pipeline.PaidColumn,
		Buckets:         buckets,
		DefaultCategory: c.Pipeline.DefaultCategory,
		ProcessingDate:  processingDate,
	}
}

// HasProvince reports whether the province is one of the configured
// form choices.
func (c *Config) HasProvince(name string) bool {
	for _, p := range c.Server.Provinces {
		if p == name {
			return true
		}
	}
	return false
}

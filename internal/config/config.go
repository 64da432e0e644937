package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const QR_IMAGE_SIZE = 256

type OCRConfig struct {
	// Backend used for plate recognition: platerecognizer, rekognition or none.
	Provider string `mapstructure:"provider"`
	APIURL   string `mapstructure:"api_url"`
	APIToken string `mapstructure:"api_token"`
	// Comma separated list of region hints, e.g. "sk".
	Regions string `mapstructure:"regions"`
	// Request timeout in seconds
	Timeout uint `mapstructure:"timeout"`
	// Plates are truncated to this many characters. 0 disables truncation.
	MaxPlateLength int     `mapstructure:"max_plate_length"`
	MinConfidence  float32 `mapstructure:"min_confidence"`

	Rotate  bool    `mapstructure:"rotate"`
	Mirror  bool    `mapstructure:"mirror"`
	CropTop float64 `mapstructure:"crop_top"` // Fraction of the frame removed from the top

	// Directory for processed camera frames. Empty disables saving.
	DebugDir  string `mapstructure:"debug_dir"`
	AWSRegion string `mapstructure:"aws_region"`
}

type EmailConfig struct {
	// smtp, sendgrid or none
	Provider       string `mapstructure:"provider"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	From           string `mapstructure:"from"`
	FromName       string `mapstructure:"from_name"`
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	Timeout        uint   `mapstructure:"timeout"` // seconds
}

type CleanupConfig struct {
	// Cron expression. Empty disables the job.
	Schedule    string `mapstructure:"schedule"`
	MaxAgeHours uint   `mapstructure:"max_age_hours"`
}

type Config struct {
	LogLevel   string `mapstructure:"log_level"`
	ListenAddr string `mapstructure:"listen_addr"`
	// Base URL used in links sent by email, e.g. https://parking.example.com
	BaseURL string `mapstructure:"base_url"`
	// IANA zone used to decide which bookings belong to "today".
	Timezone string `mapstructure:"timezone"`

	// Comma separated list of allowed CIDR networks. Empty means allow all.
	AllowedNetworks string `mapstructure:"allowed_networks"`
	// Networks allowed to reach /admin.
	AdminNetworks string `mapstructure:"admin_networks"`
	// Proxies whose X-Forwarded-For is trusted. Empty trusts none.
	TrustedProxies string `mapstructure:"trusted_proxies"`

	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	Storage Storage       `mapstructure:"storage"`
	OCR     OCRConfig     `mapstructure:"ocr"`
	Email   EmailConfig   `mapstructure:"email"`
	Cleanup CleanupConfig `mapstructure:"cleanup"`

	// YAML file with slots, used by `slot seed` when no file is given.
	SlotsSeedFile string `mapstructure:"slots_seed_file"`
}

var Cfg *Config

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads configuration from config.yaml and environment variables.
// Nested keys are read from the environment with dots replaced by underscores,
// e.g. OCR_API_TOKEN.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")

	for _, path := range configFile {
		if path != "" {
			v.SetConfigFile(path)
		}
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if len(configFile) > 0 && configFile[0] != "" {
				return nil, fmt.Errorf("unable to read config file: %w", err)
			}
			slog.Debug("No config file loaded", "error", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if cfg.OCR.CropTop < 0 || cfg.OCR.CropTop >= 1 {
		slog.Warn("ocr.crop_top must be in [0, 1), disabling crop", slog.Float64("actual", cfg.OCR.CropTop))
		cfg.OCR.CropTop = 0
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	// Convert relative sqlite path to absolute instance folder
	if cfg.Storage.SQLite != nil && cfg.Storage.SQLite.Path != "" {
		if cfg.Storage.SQLite.Path == ":memory:" {
			// In-memory database, do nothing
		} else if !os.IsPathSeparator(cfg.Storage.SQLite.Path[0]) {
			cfg.Storage.SQLite.Path = fmt.Sprintf("%s/%s", getConfigPath(), cfg.Storage.SQLite.Path)
		}
	}

	if cfg.Email.Provider == "smtp" && cfg.BaseURL == "" {
		slog.Warn("base_url is not set, cancellation links in emails will be relative")
	}

	return &cfg, nil
}

// Location returns the configured timezone, falling back to local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SplitList splits a comma separated config value, dropping empty items.
func SplitList(value string) []string {
	var items []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

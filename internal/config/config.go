package config

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the hdsctl tool
type Config struct {
	Device DeviceConfig
	Run    RunConfig
	Log    LogConfig
}

// DeviceConfig holds USB device selection
type DeviceConfig struct {
	VendorID  uint16
	ProductID uint16
}

// RunConfig holds acquisition loop settings
type RunConfig struct {
	MeasurementsEnabled bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("HDS_VENDOR_ID", "0x5345")
	viper.SetDefault("HDS_PRODUCT_ID", "0x1234")
	viper.SetDefault("MEASUREMENTS", "false")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ENVIRONMENT", "dev")

	// Try to read .env file for the current environment
	env := viper.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	viper.SetConfigName(".env." + env)
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// Read .env file (ignore error if file doesn't exist)
	_ = viper.ReadInConfig()

	// Environment variables override .env file values
	viper.AutomaticEnv()

	viper.BindEnv("HDS_VENDOR_ID")
	viper.BindEnv("HDS_PRODUCT_ID")
	viper.BindEnv("MEASUREMENTS")
	viper.BindEnv("LOG_LEVEL")
	viper.BindEnv("ENVIRONMENT")

	var config Config
	vid, err := parseID(viper.GetString("HDS_VENDOR_ID"))
	if err != nil {
		return nil, err
	}
	pid, err := parseID(viper.GetString("HDS_PRODUCT_ID"))
	if err != nil {
		return nil, err
	}
	config.Device.VendorID = vid
	config.Device.ProductID = pid
	config.Run.MeasurementsEnabled = viper.GetBool("MEASUREMENTS")
	config.Log.Level = viper.GetString("LOG_LEVEL")

	log.Debug().
		Str("vendor_id", viper.GetString("HDS_VENDOR_ID")).
		Str("product_id", viper.GetString("HDS_PRODUCT_ID")).
		Bool("measurements", config.Run.MeasurementsEnabled).
		Msg("configuration loaded")

	return &config, nil
}

// parseID parses a USB identifier in decimal or 0x-prefixed hex form
func parseID(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

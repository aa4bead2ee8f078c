package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Built-in defaults, overridable through the environment.
const (
	DefaultOSSEndpoint   = "oss-{}-internal.aliyuncs.com"
	DefaultOSSBucketName = "rockuw-hz"
	DefaultOSSRegion     = "cn-hangzhou"

	DefaultHMSTokenURL = "https://oauth-login.cloud.huawei.com/oauth2/v3/token"
	DefaultHMSPushURL  = "https://push-api.cloud.huawei.com/v1/{app_id}/messages:send"
	DefaultHMSTimeout  = 30 * time.Second
)

// Lookup variants.
const (
	LookupVariantQuery  = "query"
	LookupVariantHeader = "header"
)

// Config holds all configuration for the functions
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	Storage     StorageConfig
	HMS         HMSConfig
	Lookup      LookupConfig
	RateLimit   RateLimitConfig
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Type          string // "oss", "local" or "mock"
	LocalPath     string
	Endpoint      string // may contain "{}", replaced by the invocation region
	Bucket        string
	DefaultRegion string
	UseSSL        bool
}

// HMSConfig holds push provider configuration
type HMSConfig struct {
	AppID        string
	ClientID     string
	ClientSecret string
	TokenURL     string
	PushURL      string
	Timeout      time.Duration
}

// LookupConfig selects the lookup request shape
type LookupConfig struct {
	Variant      string
	VerifySecret string
}

// RateLimitConfig holds local server rate limiting settings
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	// An override set to "" wins over the default, so a blank bucket is reported as missing.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "9000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_TYPE", "oss")
	v.SetDefault("STORAGE_LOCAL_PATH", "./data/oss")
	v.SetDefault("OSS_ENDPOINT", DefaultOSSEndpoint)
	v.SetDefault("OSS_BUCKET_NAME", DefaultOSSBucketName)
	v.SetDefault("OSS_DEFAULT_REGION", DefaultOSSRegion)
	v.SetDefault("OSS_USE_SSL", true)
	v.SetDefault("HMS_APP_ID", "")
	v.SetDefault("HMS_CLIENT_ID", "")
	v.SetDefault("HMS_CLIENT_SECRET", "")
	v.SetDefault("HMS_TOKEN_URL", DefaultHMSTokenURL)
	v.SetDefault("HMS_PUSH_URL", DefaultHMSPushURL)
	v.SetDefault("HMS_TIMEOUT", DefaultHMSTimeout)
	v.SetDefault("LOOKUP_VARIANT", LookupVariantQuery)
	v.SetDefault("ALIGENIE_VERIFY_SECRET", "")
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Storage: StorageConfig{
			Type:          strings.ToLower(v.GetString("STORAGE_TYPE")),
			LocalPath:     v.GetString("STORAGE_LOCAL_PATH"),
			Endpoint:      v.GetString("OSS_ENDPOINT"),
			Bucket:        v.GetString("OSS_BUCKET_NAME"),
			DefaultRegion: v.GetString("OSS_DEFAULT_REGION"),
			UseSSL:        v.GetBool("OSS_USE_SSL"),
		},
		HMS: HMSConfig{
			AppID:        v.GetString("HMS_APP_ID"),
			ClientID:     v.GetString("HMS_CLIENT_ID"),
			ClientSecret: v.GetString("HMS_CLIENT_SECRET"),
			TokenURL:     v.GetString("HMS_TOKEN_URL"),
			PushURL:      v.GetString("HMS_PUSH_URL"),
			Timeout:      v.GetDuration("HMS_TIMEOUT"),
		},
		Lookup: LookupConfig{
			Variant:      strings.ToLower(v.GetString("LOOKUP_VARIANT")),
			VerifySecret: v.GetString("ALIGENIE_VERIFY_SECRET"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

// HasCredentials reports whether app id, client id and client secret are all set
func (h HMSConfig) HasCredentials() bool {
	return h.AppID != "" && h.ClientID != "" && h.ClientSecret != ""
}

// IsProduction reports whether the functions run in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Postgres DBConfig
	Redis    RedisConfig
	S3       S3Config
	Logger   Logger
	Download DownloadConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	AppVersion   string
	Port         string
	Mode         string
	JwtSecretKey string
	ReadTimeout  int
	WriteTimeout int
}

// DownloadConfig holds the packaging pipeline tuning knobs. Threshold and
// compression values are product tuning choices, so they are configuration
// rather than constants.
type DownloadConfig struct {
	StandardThreshold    int
	HDThreshold          int
	MaxRetries           int
	FetchTimeoutSeconds  int
	RetryBackoffMs       int
	MinImageBytes        int
	MaxConcurrentFetches int
	JobTimeoutSeconds    int
	SignedURLExpiryHours int
	WebQualityMarker     string
}

func (d DownloadConfig) FetchTimeout() time.Duration {
	return time.Duration(d.FetchTimeoutSeconds) * time.Second
}

func (d DownloadConfig) RetryBackoff() time.Duration {
	return time.Duration(d.RetryBackoffMs) * time.Millisecond
}

func (d DownloadConfig) JobTimeout() time.Duration {
	return time.Duration(d.JobTimeoutSeconds) * time.Second
}

func (d DownloadConfig) SignedURLExpiry() time.Duration {
	return time.Duration(d.SignedURLExpiryHours) * time.Hour
}

type WorkerConfig struct {
	PollIntervalSeconds int
	MaxBatchSize        int
	MaxCPUUsage         float64
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	EventChannel  string
	JobStateKey   string
}

type S3Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	ArchiveBucket string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Download.StandardThreshold <= 0 {
		c.Download.StandardThreshold = 10
	}
	if c.Download.HDThreshold <= 0 {
		c.Download.HDThreshold = 3
	}
	if c.Download.MaxRetries <= 0 {
		c.Download.MaxRetries = 2
	}
	if c.Download.FetchTimeoutSeconds <= 0 {
		c.Download.FetchTimeoutSeconds = 15
	}
	if c.Download.RetryBackoffMs <= 0 {
		c.Download.RetryBackoffMs = 500
	}
	if c.Download.MinImageBytes <= 0 {
		c.Download.MinImageBytes = 1024
	}
	if c.Download.MaxConcurrentFetches <= 0 {
		c.Download.MaxConcurrentFetches = 4
	}
	if c.Download.JobTimeoutSeconds <= 0 {
		c.Download.JobTimeoutSeconds = 80
	}
	if c.Download.SignedURLExpiryHours <= 0 {
		c.Download.SignedURLExpiryHours = 7 * 24
	}
	if c.Download.WebQualityMarker == "" {
		c.Download.WebQualityMarker = "/web/"
	}
	if c.Worker.PollIntervalSeconds <= 0 {
		c.Worker.PollIntervalSeconds = 10
	}
	if c.Worker.MaxBatchSize <= 0 {
		c.Worker.MaxBatchSize = 1
	}
	if c.Worker.MaxCPUUsage <= 0 {
		c.Worker.MaxCPUUsage = 80.0
	}
	if c.Redis.EventChannel == "" {
		c.Redis.EventChannel = "downloads:events"
	}
	if c.Redis.JobStateKey == "" {
		c.Redis.JobStateKey = "downloads:job:"
	}
}

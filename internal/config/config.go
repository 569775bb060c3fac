package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	BucketAudio string
	UseSSL      bool
	Region      string
	PresignTTL  time.Duration
}

type SecurityConfig struct {
	JWTAccessSecret string
	JWTAccessTTL    time.Duration
	RefreshTTL      time.Duration
	AuthCodeTTL     time.Duration
	OTPTTL          time.Duration
	MaxSessions     int
}

// RateLimitConfig bounds writes to the night-session endpoint per user.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

type MailConfig struct {
	From       string
	LinkScheme string
	SiteURL    string
}

type QueueConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	RateLimit        RateLimitConfig
	Mail             MailConfig
	Queue            QueueConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("NOCTURNE")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketaudio", "nocturne-audio")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.presignttl", "1h")

	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.refreshttl", "720h") // 30 days
	v.SetDefault("security.authcodettl", "5m")
	v.SetDefault("security.otpttl", "1h")
	v.SetDefault("security.maxsessions", 10)

	v.SetDefault("ratelimit.window", "10m")
	v.SetDefault("ratelimit.maxrequests", 3)

	v.SetDefault("mail.from", "hello@nocturne.app")
	v.SetDefault("mail.linkscheme", "nocturne")
	v.SetDefault("mail.siteurl", "https://nocturne.app")

	v.SetDefault("queue.stream", "nocturne:tasks")
	v.SetDefault("queue.group", "nocturne-workers")
	v.SetDefault("queue.consumer", "worker-1")
	v.SetDefault("queue.claiminterval", "1m")
}

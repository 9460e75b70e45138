package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/TheB2D/Glass/internal/log"
)

type Config struct {
	Server    ServerConfig
	Log       log.Config
	Auth      AuthConfig
	WebSocket WebSocketConfig
	Capture   CaptureConfig
	Device    DeviceConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Events    EventsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
	DevTokens bool          `mapstructure:"dev_tokens"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

// CaptureConfig holds the streaming capture policy. Interval is the minimum
// spacing between auto-captures while streaming; TickPeriod is how often the
// coordinator re-evaluates each session.
type CaptureConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	TickPeriod time.Duration `mapstructure:"tick_period"`
}

type DeviceConfig struct {
	Backend string    `mapstructure:"backend"`
	Sim     SimConfig `mapstructure:"sim"`
}

type SimConfig struct {
	Latency time.Duration `mapstructure:"latency"`
	Users   []string      `mapstructure:"users"`
}

type CacheConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	Backend string      `mapstructure:"backend"`
	Local   LocalConfig `mapstructure:"local"`
	S3      S3Config    `mapstructure:"s3"`
}

type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type EventsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// Load reads config.yaml from configPath (plus the working directory) and
// merges environment variable overrides on top of the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file: defaults plus env vars.
	}

	setDefaults(v)

	v.BindEnv("server.port", "PORT")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("cache.redis.address", "REDIS_ADDRESS")
	v.BindEnv("cache.redis.password", "REDIS_PASSWORD")
	v.BindEnv("events.brokers", "KAFKA_BROKERS")
	v.BindEnv("events.topic", "KAFKA_TOPIC")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Auth.TokenTTL = parseDuration(v, "auth.token_ttl", 24*time.Hour)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Capture.Interval = parseDuration(v, "capture.interval", 2*time.Second)
	cfg.Capture.TickPeriod = parseDuration(v, "capture.tick_period", time.Second)
	cfg.Device.Sim.Latency = parseDuration(v, "device.sim.latency", 300*time.Millisecond)
	cfg.Cache.Redis.TTL = parseDuration(v, "cache.redis.ttl", 0)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8089)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "glass")
	v.SetDefault("auth.dev_tokens", false)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.send_buffer", 16)
	v.SetDefault("capture.interval", "2s")
	v.SetDefault("capture.tick_period", "1s")
	v.SetDefault("device.backend", "sim")
	v.SetDefault("device.sim.latency", "300ms")
	v.SetDefault("device.sim.users", []string{})
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "glass:photo")
	v.SetDefault("cache.redis.ttl", "0")
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local.base_path", "./data")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", "localhost:9092")
	v.SetDefault("events.topic", "glass-captures")
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}

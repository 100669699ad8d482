package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	USGS     USGSConfig
	PHIVOLCS PHIVOLCSConfig
	Cluster  ClusterConfig
	Worker   WorkerConfig
	Refresh  RefreshConfig
	Metrics  MetricsConfig
	Stream   StreamConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	FeedTTL  time.Duration
	StatsTTL time.Duration
}

type LogConfig struct {
	Level string
}

type USGSConfig struct {
	BaseURL     string
	QueryURL    string
	Timeout     time.Duration
	DefaultFeed string
}

type PHIVOLCSConfig struct {
	URL         string
	Enabled     bool
	MaxRows     int
	Timeout     time.Duration
	InsecureTLS bool
}

type ClusterConfig struct {
	Radius    float64
	MinZoom   int
	MaxZoom   int
	Extent    float64
	NodeSize  int
	MaxLeaves int
}

type WorkerConfig struct {
	Enabled      bool
	PollInterval time.Duration
	Feeds        []string
}

type RefreshConfig struct {
	Debounce time.Duration
}

type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// StreamConfig names the Redis stream that carries feed update notifications.
type StreamConfig struct {
	Enabled bool
	Name    string
	Group   string
}

var defaults = map[string]interface{}{
	"API_HOST":              "0.0.0.0",
	"API_PORT":              8080,
	"API_ENV":               "development",
	"REDIS_HOST":            "localhost",
	"REDIS_PORT":            6379,
	"REDIS_DB":              0,
	"FEED_CACHE_TTL":        60,
	"STATS_CACHE_TTL":       60,
	"LOG_LEVEL":             "info",
	"USGS_BASE_URL":         "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary",
	"USGS_QUERY_URL":        "https://earthquake.usgs.gov/fdsnws/event/1/query",
	"USGS_TIMEOUT":          10,
	"USGS_DEFAULT_FEED":     "usgs:2.5_day",
	"PHIVOLCS_URL":          "https://earthquake.phivolcs.dost.gov.ph",
	"PHIVOLCS_ENABLED":      false,
	"PHIVOLCS_MAX_ROWS":     100,
	"PHIVOLCS_TIMEOUT":      15,
	"PHIVOLCS_INSECURE_TLS": false,
	"CLUSTER_RADIUS":        60,
	"CLUSTER_MIN_ZOOM":      0,
	"CLUSTER_MAX_ZOOM":      16,
	"CLUSTER_EXTENT":        512,
	"CLUSTER_NODE_SIZE":     64,
	"CLUSTER_MAX_LEAVES":    10,
	"WORKER_ENABLED":        true,
	"WORKER_POLL_INTERVAL":  60,
	"WORKER_FEEDS":          "usgs:2.5_day",
	"REFRESH_DEBOUNCE":      100,
	"METRICS_ENABLED":       true,
	"METRICS_NAMESPACE":     "quakemap",
	"STREAM_ENABLED":        true,
	"STREAM_NAME":           "stream:quakemap:feed-updates",
	"STREAM_GROUP":          "quakemap-api",
}

// Load reads .env from the working directory, if present, and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile reads the given env file and the environment. A missing file is not an error;
// environment variables win over the file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("API_HOST"),
			Port: v.GetInt("API_PORT"),
			Env:  v.GetString("API_ENV"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			FeedTTL:  time.Duration(v.GetInt("FEED_CACHE_TTL")) * time.Second,
			StatsTTL: time.Duration(v.GetInt("STATS_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		USGS: USGSConfig{
			BaseURL:     strings.TrimRight(v.GetString("USGS_BASE_URL"), "/"),
			QueryURL:    v.GetString("USGS_QUERY_URL"),
			Timeout:     time.Duration(v.GetInt("USGS_TIMEOUT")) * time.Second,
			DefaultFeed: v.GetString("USGS_DEFAULT_FEED"),
		},
		PHIVOLCS: PHIVOLCSConfig{
			URL:         strings.TrimRight(v.GetString("PHIVOLCS_URL"), "/"),
			Enabled:     v.GetBool("PHIVOLCS_ENABLED"),
			MaxRows:     v.GetInt("PHIVOLCS_MAX_ROWS"),
			Timeout:     time.Duration(v.GetInt("PHIVOLCS_TIMEOUT")) * time.Second,
			InsecureTLS: v.GetBool("PHIVOLCS_INSECURE_TLS"),
		},
		Cluster: ClusterConfig{
			Radius:    v.GetFloat64("CLUSTER_RADIUS"),
			MinZoom:   v.GetInt("CLUSTER_MIN_ZOOM"),
			MaxZoom:   v.GetInt("CLUSTER_MAX_ZOOM"),
			Extent:    v.GetFloat64("CLUSTER_EXTENT"),
			NodeSize:  v.GetInt("CLUSTER_NODE_SIZE"),
			MaxLeaves: v.GetInt("CLUSTER_MAX_LEAVES"),
		},
		Worker: WorkerConfig{
			Enabled:      v.GetBool("WORKER_ENABLED"),
			PollInterval: time.Duration(v.GetInt("WORKER_POLL_INTERVAL")) * time.Second,
			Feeds:        parseList(v.GetString("WORKER_FEEDS")),
		},
		Refresh: RefreshConfig{
			Debounce: time.Duration(v.GetInt("REFRESH_DEBOUNCE")) * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled:   v.GetBool("METRICS_ENABLED"),
			Namespace: v.GetString("METRICS_NAMESPACE"),
		},
		Stream: StreamConfig{
			Enabled: v.GetBool("STREAM_ENABLED"),
			Name:    v.GetString("STREAM_NAME"),
			Group:   v.GetString("STREAM_GROUP"),
		},
	}

	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = time.Minute
	}
	if len(cfg.Worker.Feeds) == 0 {
		cfg.Worker.Feeds = []string{cfg.USGS.DefaultFeed}
	}
	if cfg.PHIVOLCS.MaxRows <= 0 {
		cfg.PHIVOLCS.MaxRows = 100
	}

	return cfg, nil
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

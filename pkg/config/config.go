package config

import (
	"fmt"
	"os"
	"time"

	"LottoStats/pkg/util"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowRequest     time.Duration `yaml:"slow_request"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		Output  string `yaml:"output"`
		Collect struct {
			Enabled        bool          `yaml:"enabled"`
			Interval       time.Duration `yaml:"interval"`
			CountThreshold int           `yaml:"count_threshold"`
			Topic          string        `yaml:"topic"`
		} `yaml:"collect"`
	} `yaml:"logging"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		MaxOpenConns     int           `yaml:"max_open_conns"`
		MaxIdleConns     int           `yaml:"max_idle_conns"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Cache struct {
		StatisticsTTL  time.Duration `yaml:"statistics_ttl"`
		PerformanceTTL time.Duration `yaml:"performance_ttl"`
		MemorySize     int           `yaml:"memory_size"`
		L1TTL          time.Duration `yaml:"l1_ttl"`
	} `yaml:"cache"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Workers    int           `yaml:"workers"`
		QueueSize  int           `yaml:"queue_size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		Mode       string        `yaml:"mode"`
	} `yaml:"queue"`
	Feed struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"feed"`
	Sync struct {
		Enabled   bool          `yaml:"enabled"`
		Schedule  string        `yaml:"schedule"`
		Timezone  string        `yaml:"timezone"`
		SourceURL string        `yaml:"source_url"`
		Limit     int           `yaml:"limit"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"sync"`
	Suggestion struct {
		HistoryLimit int           `yaml:"history_limit"`
		RemoteURL    string        `yaml:"remote_url"`
		Timeout      time.Duration `yaml:"timeout"`
		Attempts     int           `yaml:"attempts"`
		RateLimit    struct {
			Capacity int     `yaml:"capacity"`
			Refill   float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"suggestion"`
	Lotteries []string `yaml:"lotteries"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file in the working directory is loaded first when present.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("SYNC_SOURCE_URL"); v != "" {
		c.Sync.SourceURL = v
	}
	if v := os.Getenv("SUGGESTION_REMOTE_URL"); v != "" {
		c.Suggestion.RemoteURL = v
	}
	if v := os.Getenv("LOTTERIES"); v != "" {
		c.Lotteries = util.SplitList(v)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = util.SplitList(v)
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.SlowRequest == 0 {
		c.Server.SlowRequest = time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Cache.StatisticsTTL == 0 {
		c.Cache.StatisticsTTL = 10 * time.Minute
	}
	if c.Cache.PerformanceTTL == 0 {
		c.Cache.PerformanceTTL = 30 * time.Minute
	}
	if c.Cache.L1TTL == 0 {
		c.Cache.L1TTL = time.Minute
	}
	if c.Cache.MemorySize == 0 {
		c.Cache.MemorySize = 1000
	}
	if c.Sync.Schedule == "" {
		c.Sync.Schedule = "30 18 * * *"
	}
	if c.Sync.Timezone == "" {
		c.Sync.Timezone = "Asia/Ho_Chi_Minh"
	}
	if c.Sync.Limit == 0 {
		c.Sync.Limit = 20
	}
	if c.Suggestion.HistoryLimit == 0 {
		c.Suggestion.HistoryLimit = 500
	}
	if c.Suggestion.Attempts == 0 {
		c.Suggestion.Attempts = 2
	}
	if c.Suggestion.Timeout == 0 {
		c.Suggestion.Timeout = 3 * time.Second
	}
	if c.Suggestion.RateLimit.Capacity == 0 {
		c.Suggestion.RateLimit.Capacity = 20
	}
	if c.Suggestion.RateLimit.Refill == 0 {
		c.Suggestion.RateLimit.Refill = 1
	}
	if len(c.Lotteries) == 0 {
		c.Lotteries = []string{"power655", "mega645"}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka.brokers and kafka.topic are required for the kafka backend")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	for _, l := range c.Lotteries {
		if l != "power655" && l != "mega645" {
			return fmt.Errorf("lotteries: unknown lottery type '%s'", l)
		}
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue.enabled requires redis.enabled")
	}
	if c.Feed.Enabled && c.Feed.WebSocketURL == "" {
		return fmt.Errorf("feed.websocket_url is required when the feed is enabled")
	}
	if c.Sync.Enabled && c.Sync.SourceURL == "" {
		return fmt.Errorf("sync.source_url is required when sync is enabled")
	}
	if c.Logging.Collect.Enabled && c.Logging.Collect.Topic == "" {
		return fmt.Errorf("logging.collect.topic is required when log collection is enabled")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Engine struct {
		TickInterval      time.Duration `yaml:"tick_interval"`
		TickDeadline      time.Duration `yaml:"tick_deadline"`
		ObservationMaxAge time.Duration `yaml:"observation_max_age"`
		StatsWindow       int           `yaml:"stats_window"`
		Universe          []string      `yaml:"universe"`
	} `yaml:"engine"`
	Peg struct {
		DepegThresholdBps  float64       `yaml:"depeg_threshold_bps"`
		DevScaleBps        float64       `yaml:"dev_scale_bps"`
		VolScaleBps        float64       `yaml:"vol_scale_bps"`
		VolWindow          time.Duration `yaml:"vol_window"`
		QuoteFreshness     time.Duration `yaml:"quote_freshness"`
		MinConfidentVenues int           `yaml:"min_confident_venues"`
	} `yaml:"peg"`
	Liquidity struct {
		Capacity         map[string]float64 `yaml:"capacity"`
		DefaultCapacity  float64            `yaml:"default_capacity"`
		SpreadCeilingBps float64            `yaml:"spread_ceiling_bps"`
		VenuesExpected   int                `yaml:"venues_expected"`
	} `yaml:"liquidity"`
	Yield struct {
		Alpha float64 `yaml:"alpha"`
		Beta  float64 `yaml:"beta"`
	} `yaml:"yield"`
	Stress struct {
		Alpha     float64 `yaml:"alpha"`
		KurtScale float64 `yaml:"kurt_scale"`
		HighLevel float64 `yaml:"high_level"`
		LowLevel  float64 `yaml:"low_level"`
	} `yaml:"stress"`
	Regime struct {
		RiskFreeRate  float64 `yaml:"risk_free_rate"`
		HistoryWindow int     `yaml:"history_window"`
		SlopePeriods  int     `yaml:"slope_periods"`
	} `yaml:"regime"`
	Reconstitute struct {
		Interval     time.Duration `yaml:"interval"`
		MarketCapMin float64       `yaml:"market_cap_min"`
		MaxSize      int           `yaml:"max_size"`
		Workers      int           `yaml:"workers"`
		RetryLimit   int           `yaml:"retry_limit"`
		RetryDelay   time.Duration `yaml:"retry_delay"`
	} `yaml:"reconstitute"`
	Feed struct {
		Mode            string        `yaml:"mode"` // live or synthetic
		APIKey          string        `yaml:"api_key"`
		WebSocketURL    string        `yaml:"websocket_url"`
		MetadataURL     string        `yaml:"metadata_url"`
		MetadataRefresh time.Duration `yaml:"metadata_refresh"`
		ReconnectDelay  time.Duration `yaml:"reconnect_delay"`
		PingInterval    time.Duration `yaml:"ping_interval"`
		Synthetic       struct {
			Interval time.Duration `yaml:"interval"`
			Seed     int64         `yaml:"seed"`
		} `yaml:"synthetic"`
	} `yaml:"feed"`
	Ingest struct {
		MaxRPS     int `yaml:"max_rps"`
		BufferSize int `yaml:"buffer_size"`
	} `yaml:"ingest"`
	Kafka struct {
		Enabled           bool     `yaml:"enabled"`
		Brokers           []string `yaml:"brokers"`
		ObservationsTopic string   `yaml:"observations_topic"`
		SnapshotsTopic    string   `yaml:"snapshots_topic"`
		LogsTopic         string   `yaml:"logs_topic"`
		RequiredAcks      int      `yaml:"required_acks"`
		Compression       string   `yaml:"compression"`
		Producer          struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
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
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled   bool          `yaml:"enabled"`
		Host      string        `yaml:"host"`
		Port      int           `yaml:"port"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		LatestTTL time.Duration `yaml:"latest_ttl"`
	} `yaml:"redis"`
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

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("FEED_MODE"); v != "" {
		c.Feed.Mode = v
	}
	if v := os.Getenv("UNIVERSE"); v != "" {
		c.Engine.Universe = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Engine.Universe) == 0 {
		return fmt.Errorf("engine.universe cannot be empty")
	}
	if c.Feed.Mode != "live" && c.Feed.Mode != "synthetic" {
		return fmt.Errorf("feed.mode must be 'live' or 'synthetic', got '%s'", c.Feed.Mode)
	}
	if c.Feed.Mode == "live" {
		if c.Feed.WebSocketURL == "" {
			return fmt.Errorf("feed.websocket_url is required in live mode")
		}
	}
	if c.Yield.Alpha < 0 || c.Yield.Beta < 0 {
		return fmt.Errorf("yield exponents must be non-negative")
	}
	if c.Stress.Alpha < 0 || c.Stress.Alpha > 1 {
		return fmt.Errorf("stress.alpha must be within [0, 1]")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
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
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Queue struct {
		Namespace   string        `yaml:"namespace"`
		Workers     int           `yaml:"workers"`
		RetryLimit  int           `yaml:"retry_limit"`
		RetryDelay  time.Duration `yaml:"retry_delay"`
		PopTimeout  time.Duration `yaml:"pop_timeout"`
		BridgeDelay time.Duration `yaml:"bridge_delay"`
	} `yaml:"queue"`
	Engine struct {
		PumpJumpPct   float64 `yaml:"pump_jump_pct"`
		DumpDropPct   float64 `yaml:"dump_drop_pct"`
		RSIOverbought float64 `yaml:"rsi_overbought"`
		RSIOversold   float64 `yaml:"rsi_oversold"`
	} `yaml:"engine"`
	Ingest struct {
		Assets         []string      `yaml:"assets"`
		Tickers        []string      `yaml:"tickers"`
		Interval       time.Duration `yaml:"interval"`
		WhaleLookback  int           `yaml:"whale_lookback"`
		WhaleVolFactor float64       `yaml:"whale_vol_factor"`
	} `yaml:"ingest"`
	Stream struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Providers struct {
		RugcheckURL     string        `yaml:"rugcheck_url"`
		SnifferURL      string        `yaml:"sniffer_url"`
		Timeout         time.Duration `yaml:"timeout"`
		WhaleMinSOL     float64       `yaml:"whale_min_sol"`
		WhalesResultTTL time.Duration `yaml:"whales_result_ttl"`
	} `yaml:"providers"`
	Advice struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
	} `yaml:"advice"`
	Notifier struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"notifier"`
	Export struct {
		Kafka struct {
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port"`
			Database     string        `yaml:"database"`
			User         string        `yaml:"user"`
			Password     string        `yaml:"password"`
			BatchSize    int           `yaml:"batch_size"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			DialTimeout  time.Duration `yaml:"dial_timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"export"`
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
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("QUEUE_NAMESPACE"); v != "" {
		c.Queue.Namespace = v
	}
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Queue.Workers = n
		}
	}
	if v := os.Getenv("ASSETS"); v != "" {
		c.Ingest.Assets = strings.Split(v, ",")
	}
	if v := os.Getenv("TICKERS"); v != "" {
		c.Ingest.Tickers = strings.Split(v, ",")
	}
	if v := os.Getenv("RUGCHECK_API_URL"); v != "" {
		c.Providers.RugcheckURL = v
	}
	if v := os.Getenv("SNIFFER_API_URL"); v != "" {
		c.Providers.SnifferURL = v
	}
	if v := os.Getenv("ADVICE_URL"); v != "" {
		c.Advice.URL = v
	}
	if v := os.Getenv("ADVICE_API_KEY"); v != "" {
		c.Advice.APIKey = v
	}
	if v := os.Getenv("NOTIFIER_URL"); v != "" {
		c.Notifier.BaseURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Export.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8811
	}
	if c.Queue.Namespace == "" {
		c.Queue.Namespace = "tw"
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.RetryLimit <= 0 {
		c.Queue.RetryLimit = 3
	}
	if c.Queue.RetryDelay <= 0 {
		c.Queue.RetryDelay = 5 * time.Second
	}
	if c.Queue.PopTimeout <= 0 {
		c.Queue.PopTimeout = 5 * time.Second
	}
	if c.Queue.BridgeDelay <= 0 {
		c.Queue.BridgeDelay = time.Second
	}
	if c.Engine.PumpJumpPct == 0 {
		c.Engine.PumpJumpPct = 5
	}
	if c.Engine.DumpDropPct == 0 {
		c.Engine.DumpDropPct = 5
	}
	if c.Engine.RSIOverbought == 0 {
		c.Engine.RSIOverbought = 75
	}
	if c.Engine.RSIOversold == 0 {
		c.Engine.RSIOversold = 30
	}
	if c.Ingest.Interval <= 0 {
		c.Ingest.Interval = 5 * time.Second
	}
	if c.Ingest.WhaleLookback <= 0 {
		c.Ingest.WhaleLookback = 30
	}
	if c.Ingest.WhaleVolFactor <= 0 {
		c.Ingest.WhaleVolFactor = 3
	}
	if c.Stream.ReconnectDelay <= 0 {
		c.Stream.ReconnectDelay = 5 * time.Second
	}
	if c.Stream.PingInterval <= 0 {
		c.Stream.PingInterval = 30 * time.Second
	}
	if c.Providers.Timeout <= 0 {
		c.Providers.Timeout = 10 * time.Second
	}
	if c.Providers.WhaleMinSOL <= 0 {
		c.Providers.WhaleMinSOL = 500
	}
	if c.Providers.WhalesResultTTL <= 0 {
		c.Providers.WhalesResultTTL = 10 * time.Minute
	}
	if c.Notifier.Timeout <= 0 {
		c.Notifier.Timeout = 10 * time.Second
	}
	if c.Export.ClickHouse.BatchSize <= 0 {
		c.Export.ClickHouse.BatchSize = 100
	}
	if c.Export.ClickHouse.BatchTimeout <= 0 {
		c.Export.ClickHouse.BatchTimeout = 5 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

// Validate checks if the configuration is valid. Only genuinely fatal
// misconfiguration is rejected here; optional integrations (advice proxy,
// Kafka export, ClickHouse history) degrade at call time instead.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if len(c.Ingest.Assets) == 0 {
		return fmt.Errorf("ingest.assets cannot be empty")
	}
	return nil
}

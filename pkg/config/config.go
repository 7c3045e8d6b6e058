package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/shams7728/stock-market-project/pkg/logger"
)

// DefaultTickers is the NSE universe ingested when none is configured.
var DefaultTickers = []string{
	"RELIANCE.NS", "TCS.NS", "INFY.NS", "HDFCBANK.NS", "ICICIBANK.NS",
	"HINDUNILVR.NS", "SBIN.NS", "BAJFINANCE.NS", "BHARTIARTL.NS", "ITC.NS",
	"KOTAKBANK.NS", "WIPRO.NS", "ADANIENT.NS", "LT.NS", "AXISBANK.NS",
	"MARUTI.NS", "ULTRACEMCO.NS", "TITAN.NS", "SUNPHARMA.NS", "HCLTECH.NS",
	"POWERGRID.NS", "TECHM.NS", "ASIANPAINT.NS", "NTPC.NS", "M&M.NS",
}

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"required"`
	Server      Server        `yaml:"server"`
	Log         logger.Config `yaml:"log"`
	Store       Store         `yaml:"store"`
	Cache       Cache         `yaml:"cache"`
	Upstream    Upstream      `yaml:"upstream"`
	Ingest      Ingest        `yaml:"ingest"`
	Redis       Redis         `yaml:"redis"`
	Kafka       Kafka         `yaml:"kafka"`
	ClickHouse  ClickHouse    `yaml:"clickhouse"`
	Metrics     Metrics       `yaml:"metrics"`
}

type Server struct {
	Port            int           `yaml:"port" default:"8000" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	CORSOrigins     []string      `yaml:"cors_origins" default:"[\"http://localhost:3001\"]"`
	// LegacyStatusCodes answers every request with 200 and reports failures
	// only in the body.
	LegacyStatusCodes bool      `yaml:"legacy_status_codes"`
	RateLimit         RateLimit `yaml:"rate_limit"`
}

type RateLimit struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps" default:"20" validate:"gt=0"`
	Burst   int     `yaml:"burst" default:"40" validate:"gt=0"`
}

type Store struct {
	Type         string        `yaml:"type" default:"mongo" validate:"oneof=mongo memory"`
	URI          string        `yaml:"uri" default:"mongodb://localhost:27017"`
	Database     string        `yaml:"database" default:"stock_data"`
	Collection   string        `yaml:"collection" default:"stocks"`
	MaxPoolSize  uint64        `yaml:"max_pool_size" default:"50"`
	ConnTimeout  time.Duration `yaml:"conn_timeout" default:"10s"`
	QueryTimeout time.Duration `yaml:"query_timeout" default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type Cache struct {
	Enabled bool          `yaml:"enabled"`
	Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
	TTL     time.Duration `yaml:"ttl" default:"30s"`
	Prefix  string        `yaml:"prefix" default:"stocks:resp:"`
}

type Upstream struct {
	SeriesSource       string        `yaml:"series_source" default:"yahoo" validate:"oneof=yahoo csv"`
	FundamentalsSource string        `yaml:"fundamentals_source" default:"yahoo" validate:"oneof=yahoo none"`
	CSVDir             string        `yaml:"csv_dir" default:"stock_data"`
	BaseURL            string        `yaml:"base_url" default:"https://query2.finance.yahoo.com"`
	UserAgent          string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; stock-market-project/1.0)"`
	Timeout            time.Duration `yaml:"timeout" default:"15s"`
	// Suffix is appended to bare tickers when calling the provider.
	Suffix string `yaml:"suffix" default:".NS"`
}

type Ingest struct {
	Tickers  []string      `yaml:"tickers"`
	Lookback time.Duration `yaml:"lookback" default:"26280h"`
	Workers  int           `yaml:"workers" default:"4" validate:"gt=0"`
	Schedule string        `yaml:"schedule" default:"0 18 * * 1-5"`
	Suffixes []string      `yaml:"suffixes" default:"[\".NS\",\".BO\"]"`
	Queue    string        `yaml:"queue" default:"ingest"`
}

type Redis struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Kafka struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers" default:"[\"localhost:9092\"]"`
	Topic        string        `yaml:"topic" default:"stocks.ingested"`
	RequiredAcks int           `yaml:"required_acks" default:"1"`
	Compression  string        `yaml:"compression" default:"snappy"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
	// GroupID is the consumer group the API server uses to follow
	// ingestion events and drop stale cached responses.
	GroupID string `yaml:"group_id" default:"stocks-api"`
}

type ClickHouse struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host" default:"localhost"`
	Port         int           `yaml:"port" default:"9000"`
	Database     string        `yaml:"database" default:"stocks"`
	User         string        `yaml:"user" default:"default"`
	Password     string        `yaml:"password"`
	UseHTTP      bool          `yaml:"use_http"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
}

type Metrics struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path" default:"/metrics"`
}

var validate = validator.New()

// Load reads a YAML configuration file. An empty path yields defaults.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Ingest.Tickers) == 0 {
		c.Ingest.Tickers = append([]string(nil), DefaultTickers...)
	}

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

	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Store.URI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		c.Store.Database = v
	}
	if v := os.Getenv("STORE_TYPE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		c.Ingest.Tickers = splitList(v)
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("SERIES_SOURCE"); v != "" {
		c.Upstream.SeriesSource = v
	}
	if v := os.Getenv("SERIES_CSV_DIR"); v != "" {
		c.Upstream.CSVDir = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Store.Type == "mongo" && c.Store.URI == "" {
		return errors.New("store.uri is required for the mongo store")
	}
	if len(c.Ingest.Tickers) == 0 {
		return errors.New("ingest.tickers cannot be empty")
	}
	if c.Cache.Enabled && c.Cache.Backend != "memory" && !c.Redis.Enabled {
		return fmt.Errorf("cache.backend %s requires redis.enabled", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

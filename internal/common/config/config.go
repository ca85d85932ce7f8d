package config

import (
	"fmt"
	"time"
)

type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Server       ServerConfig            `mapstructure:"server"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Matching     MatchingConfig          `mapstructure:"matching"`
	Catalog      CatalogConfig           `mapstructure:"catalog"`
	Cache        CacheConfig             `mapstructure:"cache"`
	Notification NotificationConfig      `mapstructure:"notification"`
	Registry     RegistryConfig          `mapstructure:"registry"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Tracing      TracingConfig           `mapstructure:"tracing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address" validate:"required"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	UseTLS         bool   `mapstructure:"use_tls"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"min=1,max=65535"`
	Database       string `mapstructure:"database" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// MatchingConfig tunes the recommendation engine.
type MatchingConfig struct {
	Metro                string  `mapstructure:"metro" validate:"required"`
	FitWeight            float64 `mapstructure:"fit_weight" validate:"gte=0,lte=1"`
	MaxPageSize          int     `mapstructure:"max_page_size" validate:"gte=1"`
	CandidateLimit       int     `mapstructure:"candidate_limit" validate:"gte=1"`
	PairCandidateCap     int     `mapstructure:"pair_candidate_cap" validate:"gte=1"`
	MemoizeManagerScores bool    `mapstructure:"memoize_manager_scores"`
	KeywordsPath         string  `mapstructure:"keywords_path"`
	PredictionConfidence int     `mapstructure:"prediction_confidence" validate:"gte=0,lte=100"`
}

// CatalogConfig selects where animal candidates are read from.
type CatalogConfig struct {
	AnimalSource string        `mapstructure:"animal_source" validate:"oneof=postgres elasticsearch"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests      uint32 `mapstructure:"max_requests"`
	Interval         int    `mapstructure:"interval"` // milliseconds
	Timeout          int    `mapstructure:"timeout"`  // milliseconds
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
}

type CacheConfig struct {
	ManagerTTL int `mapstructure:"manager_ttl"` // seconds
}

// TracingConfig enables span export over OTLP/gRPC when Endpoint is set.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"otlp_endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"min=0,max=1"`
}

type NotificationConfig struct {
	AWSRegion    string  `mapstructure:"aws_region"`
	FromEmail    string  `mapstructure:"from_email" validate:"omitempty,email"`
	EmailEnabled bool    `mapstructure:"email_enabled"`
	SMSEnabled   bool    `mapstructure:"sms_enabled"`
	SMSPerSecond float64 `mapstructure:"sms_per_second"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}

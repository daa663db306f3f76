// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"speaker-negotiator/internal/negotiation"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Negotiation   negotiation.Config  `mapstructure:"negotiation"`
	Sentiment     SentimentConfig     `mapstructure:"sentiment"`
	Session       SessionConfig       `mapstructure:"session"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Audit         AuditConfig         `mapstructure:"audit"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// SentimentConfig 选择极性估计器。provider 为 lexicon 时使用内置词典，为 remote 时调用外部服务。
type SentimentConfig struct {
	Provider string             `mapstructure:"provider"`
	Lexicon  map[string]float64 `mapstructure:"lexicon"`
	Remote   RemoteSentiment    `mapstructure:"remote"`
}

// RemoteSentiment 存储远程情感服务及其断路器的配置。
type RemoteSentiment struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxFailures      uint32        `mapstructure:"max_failures"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
	HalfOpenRequests uint32        `mapstructure:"half_open_requests"`
}

// SessionConfig 存储议价会话存储的配置。store 为 redis 或 memory。
type SessionConfig struct {
	Store    string        `mapstructure:"store"`
	TTL      time.Duration `mapstructure:"ttl"`
	MaxTurns int           `mapstructure:"max_turns"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                  string `mapstructure:"secret"`
	AccessTokenExpireHours  int    `mapstructure:"access_token_expire_hours"`
	SessionTokenExpireHours int    `mapstructure:"session_token_expire_hours"`
}

// AdminConfig 存储管理员账号。PasswordHash 是 bcrypt 哈希。
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

// AuditConfig 控制是否启用 MySQL/Kafka/Elasticsearch/MinIO 审计链路。
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	BucketName      string        `mapstructure:"bucket_name"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

// setDefaults 注册所有键的默认值，配置文件可以只写需要覆盖的部分。
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	def := negotiation.DefaultConfig()
	v.SetDefault("negotiation.listing_price", def.ListingPrice)
	v.SetDefault("negotiation.floor_price", def.FloorPrice)
	v.SetDefault("negotiation.accept_offer", def.AcceptOffer)
	v.SetDefault("negotiation.low_offer", def.LowOffer)
	v.SetDefault("negotiation.counter_price", def.CounterPrice)
	v.SetDefault("negotiation.positive_threshold", def.PositiveThreshold)
	v.SetDefault("negotiation.negative_threshold", def.NegativeThreshold)
	v.SetDefault("negotiation.matching", string(def.Matching))

	v.SetDefault("sentiment.provider", "lexicon")
	v.SetDefault("sentiment.remote.base_url", "")
	v.SetDefault("sentiment.remote.api_key", "")
	v.SetDefault("sentiment.remote.timeout", 2*time.Second)
	v.SetDefault("sentiment.remote.max_failures", 5)
	v.SetDefault("sentiment.remote.open_timeout", 30*time.Second)
	v.SetDefault("sentiment.remote.half_open_requests", 1)

	v.SetDefault("session.store", "redis")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.max_turns", 50)

	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_token_expire_hours", 2)
	v.SetDefault("jwt.session_token_expire_hours", 24)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password_hash", "")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "negotiation-events")
	v.SetDefault("kafka.group_id", "speaker-negotiator-audit")
	v.SetDefault("elasticsearch.addresses", "")
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.index_name", "negotiation_turns")
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_name", "negotiation-transcripts")
	v.SetDefault("minio.url_expiry", time.Hour)
}

// Load 从指定路径读取 YAML 配置，NEGOTIATOR_ 前缀的环境变量可以覆盖任意键
// （例如 NEGOTIATOR_SERVER_PORT）。返回的配置已经过校验。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("NEGOTIATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	cfg.Negotiation = cfg.Negotiation.WithTemplateDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Init 加载配置到全局 Conf，失败时 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}

// Validate 在启动时校验一次全部配置。
func (c Config) Validate() error {
	var errs []error
	if err := c.Negotiation.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Sentiment.Provider {
	case "lexicon":
	case "remote":
		if c.Sentiment.Remote.BaseURL == "" {
			errs = append(errs, errors.New("sentiment.remote.base_url is required for the remote provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sentiment.provider %q", c.Sentiment.Provider))
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Database.Redis.Addr == "" {
			errs = append(errs, errors.New("database.redis.addr is required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session.store %q", c.Session.Store))
	}
	if c.Session.MaxTurns < 2 {
		errs = append(errs, errors.New("session.max_turns must be at least 2"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.Audit.Enabled && (c.Database.MySQL.DSN == "" || c.Kafka.Brokers == "" || c.Elasticsearch.Addresses == "" || c.MinIO.Endpoint == "") {
		errs = append(errs, errors.New("audit requires database.mysql.dsn, kafka.brokers, elasticsearch.addresses and minio.endpoint"))
	}
	return errors.Join(errs...)
}

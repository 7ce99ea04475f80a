package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

type Config struct {
	Port              string `envconfig:"PORT" default:"8080"`
	AWSRegion         string `envconfig:"AWS_REGION" default:"ap-northeast-2"`
	DynamoDBEndpoint  string `envconfig:"DYNAMODB_ENDPOINT"`
	ProductTableName  string `envconfig:"PRODUCT_TABLE_NAME" default:"products-table"`
	CategoryTableName string `envconfig:"CATEGORY_TABLE_NAME" default:"categories-table"`
	StoreBackend      string `envconfig:"STORE_BACKEND" default:"dynamodb"`
	MongoURI          string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase     string `envconfig:"MONGO_DATABASE" default:"catalog"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	LocalMode         bool   `envconfig:"LOCAL_MODE" default:"true"` // AWS 없이 로컬 실행 모드

	DefaultPageLimit int `envconfig:"DEFAULT_PAGE_LIMIT" default:"20"`
	MaxPageLimit     int `envconfig:"MAX_PAGE_LIMIT" default:"100"`

	CacheEnabled bool          `envconfig:"CACHE_ENABLED" default:"false"`
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	EventsEnabled bool   `envconfig:"EVENTS_ENABLED" default:"false"`
	KafkaBrokers  string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic    string `envconfig:"KAFKA_TOPIC" default:"catalog-events"`
	KafkaGroupID  string `envconfig:"KAFKA_GROUP_ID" default:"catalog-service"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	// LOCAL_MODE는 AWS/Mongo 없이 메모리 저장소 사용
	if cfg.LocalMode {
		cfg.StoreBackend = BackendMemory
	}
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)

	return &cfg, nil
}

func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewLogger builds a production zap logger unless running locally.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.LocalMode {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	RepositoryInMemory = "inmemory"
	RepositoryPostgres = "postgres"
	RepositoryMongo    = "mongo"
)

type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Mongo      MongoConfig      `yaml:"mongo" mapstructure:"mongo"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Repository RepositoryConfig `yaml:"repository" mapstructure:"repository"`
	CORS       CORSConfig       `yaml:"cors" mapstructure:"cors"`
	Bulk       BulkConfig       `yaml:"bulk" mapstructure:"bulk"`
	Worker     WorkerConfig     `yaml:"worker" mapstructure:"worker"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" mapstructure:"port"`
	Host            string        `yaml:"host" mapstructure:"host"`
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RateLimit       int           `yaml:"rate_limit" mapstructure:"rate_limit"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url" mapstructure:"url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinConnections int           `yaml:"min_connections" mapstructure:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

type MongoConfig struct {
	URI        string        `yaml:"uri" mapstructure:"uri"`
	Database   string        `yaml:"database" mapstructure:"database"`
	Collection string        `yaml:"collection" mapstructure:"collection"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type LoggingConfig struct {
	Development bool `yaml:"development" mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type" mapstructure:"type"` // "inmemory", "postgres" или "mongo"
}

type CORSConfig struct {
	Origins []string `yaml:"origins" mapstructure:"origins"`
}

type BulkConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

type WorkerConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Interval  time.Duration `yaml:"interval" mapstructure:"interval"`
	BatchSize int           `yaml:"batch_size" mapstructure:"batch_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 100)

	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)

	v.SetDefault("logging.development", false)

	v.SetDefault("mongo.database", "taskflow")
	v.SetDefault("mongo.collection", "tasks")
	v.SetDefault("mongo.timeout", 10*time.Second)

	v.SetDefault("repository.type", RepositoryInMemory)
	v.SetDefault("cors.origins", []string{"http://localhost:5173"})
	v.SetDefault("bulk.concurrency", 8)

	v.SetDefault("worker.enabled", false)
	v.SetDefault("worker.interval", 5*time.Minute)
	v.SetDefault("worker.batch_size", 100)
}

// Load читает .env, config.yml (если есть) и переменные окружения TASKFLOW_*.
// Пустой path - config.yml в текущей директории.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("чтение .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if !explicit {
		path = "config.yml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// переменные из старого деплоя
	_ = v.BindEnv("mongo.uri", "TASKFLOW_MONGO_URI", "MONGODB_URI", "MONGO_URI")
	_ = v.BindEnv("server.port", "TASKFLOW_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.url", "TASKFLOW_DATABASE_URL", "DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORS.Origins = splitList(origins)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryInMemory:
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url обязателен для repository.type=postgres")
		}
	case RepositoryMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri (MONGODB_URI) обязателен для repository.type=mongo")
		}
	default:
		return fmt.Errorf("неизвестный repository.type: %q", c.Repository.Type)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// YAML - итоговая конфигурация для команды config
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("сериализация конфигурации: %w", err)
	}
	return string(out), nil
}

func splitList(raw string) []string {
	res := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}

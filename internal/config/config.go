package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/sneakerzone/internal/log"
)

type Application struct {
	Env            string        `mapstructure:"env"             json:"env"`
	Host           string        `mapstructure:"host"            json:"host"`
	SecretKey      string        `mapstructure:"secret_key"      json:"-"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" json:"allowed_origins"`
	Port           int           `mapstructure:"port"            json:"port"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"     json:"session_ttl"`
	CartIdle       time.Duration `mapstructure:"cart_idle"       json:"cart_idle"`
}

type Backend struct {
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"  json:"timeout"`
}

type Storage struct {
	Driver string        `mapstructure:"driver" json:"driver"`
	TTL    time.Duration `mapstructure:"ttl"    json:"ttl"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	TimeZone       string `mapstructure:"timezone"        json:"timezone"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Otel struct {
	Host    string `mapstructure:"host"    json:"host"`
	Port    int    `mapstructure:"port"    json:"port"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

type Log struct {
	Path string `mapstructure:"path" json:"path"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Backend     `mapstructure:"backend"     json:"backend"`
	Storage     `mapstructure:"storage"     json:"storage"`
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Log         `mapstructure:"log"         json:"log"`
}

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.session_ttl", 24*time.Hour)
	v.SetDefault("application.cart_idle", 30*time.Minute)
	v.SetDefault("backend.base_url", "http://localhost:8080/api")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("storage.driver", "redis")
	v.SetDefault("storage.ttl", 7*24*time.Hour)
	v.SetDefault("db.migration_path", "file://migrations")
	v.SetDefault("db.max_connections", 10)
	v.SetDefault("db.min_connections", 2)
	v.SetDefault("db.port", 5432)
	v.SetDefault("cache.port", 6379)
	v.SetDefault("otel.port", 4317)
}

// Get reads ./env/<filename>.yaml once; environment variables such as APPLICATION_PORT override
// file values.
func Get(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "config Get").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		v := viper.New()
		v.SetConfigName(filename)
		v.AddConfigPath("./env")
		v.SetConfigType("yaml")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		setDefaults(v)

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := v.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		cfg := Config{}
		err = v.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger.Info().Any(log.KeyConfig, cfg).Msg("unmarshaled config")
	})
	return config
}

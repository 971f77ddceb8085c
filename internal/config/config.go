package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Storage  string `yaml:"storage" env:"STORAGE" env-default:"memory"`
	Redis    Redis  `yaml:"redis"`
	Game     Game   `yaml:"game"`
	Relay    Relay  `yaml:"relay"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Game struct {
	HistoryLimit int           `yaml:"history-limit" env-default:"200"`
	AIThinkMin   time.Duration `yaml:"ai-think-min" env-default:"700ms"`
	AIThinkMax   time.Duration `yaml:"ai-think-max" env-default:"1700ms"`
}

type Relay struct {
	MaxMembers  int           `yaml:"max-members" env-default:"4"`
	SendBuffer  int           `yaml:"send-buffer" env-default:"32"`
	SessionTTL  time.Duration `yaml:"session-ttl" env-default:"24h"`
	AllowedURLs []string      `yaml:"allowed-urls" env:"RELAY_ALLOWED_URLS" env-separator:"," env-default:"ws://localhost:9090/ws"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads the file at path and checks the values that have a fixed set of options.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	if that.Storage != StorageMemory && that.Storage != StorageRedis {
		return fmt.Errorf("unknown storage %q, expected %s or %s", that.Storage, StorageMemory, StorageRedis)
	}

	if that.Game.AIThinkMin > that.Game.AIThinkMax {
		return fmt.Errorf("game.ai-think-min %s is above game.ai-think-max %s", that.Game.AIThinkMin, that.Game.AIThinkMax)
	}

	if that.Relay.SessionTTL <= 0 {
		return fmt.Errorf("relay.session-ttl must be positive, got %s", that.Relay.SessionTTL)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Artifacts ArtifactsConfig
	Predictor PredictorConfig
	Alerting  AlertingConfig
	Batch     BatchConfig
	Registry  RegistryConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Telegram  TelegramConfig
	Chat      ChatConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type ArtifactsConfig struct {
	ScalerPath string
	ForestPath string
}

type PredictorConfig struct {
	Threshold float64
}

type AlertingConfig struct {
	PHSafeMin   float64
	PHSafeMax   float64
	SendTimeout int
}

type BatchConfig struct {
	Workers int
	MaxRows int
}

type RegistryConfig struct {
	Store string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type TelegramConfig struct {
	Token       string
	PollTimeout int
}

type ChatConfig struct {
	Enabled       bool
	Provider      string
	APIKey        string
	Model         string
	Temperature   float32
	MaxTokens     int
	MaxHistory    int
	GuidelineURLs []string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/sipca")

	viper.SetEnvPrefix("SIPCA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("artifacts.scalerPath", "./models/scaler.json")
	viper.SetDefault("artifacts.forestPath", "./models/forest.json")

	viper.SetDefault("predictor.threshold", 0.5)

	viper.SetDefault("alerting.phSafeMin", 6.5)
	viper.SetDefault("alerting.phSafeMax", 8.5)
	viper.SetDefault("alerting.sendTimeout", 10)

	viper.SetDefault("batch.workers", 4)
	viper.SetDefault("batch.maxRows", 10000)

	viper.SetDefault("registry.store", "sqlite")

	viper.SetDefault("sqlite.path", "./data/sipca.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("telegram.pollTimeout", 30)

	viper.SetDefault("chat.enabled", false)
	viper.SetDefault("chat.provider", "openai")
	viper.SetDefault("chat.model", "gpt-3.5-turbo")
	viper.SetDefault("chat.temperature", 0.7)
	viper.SetDefault("chat.maxTokens", 500)
	viper.SetDefault("chat.maxHistory", 20)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}

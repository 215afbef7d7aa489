package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	LLM     LLMConfig
	Upload  UploadConfig
	Reveal  RevealConfig
	Session SessionConfig
	Redis   RedisConfig
	Cache   CacheConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

// LLMConfig configures the generation oracle. APIKey is injected into the generation
// client at construction; it is checked per request, not at startup.
type LLMConfig struct {
	Provider        string
	Model           string
	APIKey          string
	ServerURL       string // ollama only
	VertexProject   string
	VertexRegion    string
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
	Timeout         time.Duration
}

type UploadConfig struct {
	MaxBytes int
}

type RevealConfig struct {
	TickInterval time.Duration
}

type SessionConfig struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 150)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("llm.provider", "googleai")
	v.SetDefault("llm.model", "gemini-2.0-flash-thinking-exp-01-21")
	v.SetDefault("llm.server", "http://localhost:11434")
	v.SetDefault("llm.vertex_region", "us-central1")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.top_k", 64)
	v.SetDefault("llm.max_output_tokens", 65536)
	v.SetDefault("llm.timeout", 120)
	v.SetDefault("upload.max_bytes", 10*1024*1024)
	v.SetDefault("reveal.tick_interval_ms", 10)
	v.SetDefault("session.idle_ttl", 30)
	v.SetDefault("session.cleanup_interval", 5)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 3600)
}

// LoadConfig reads config.yaml (if present) and applies environment overrides.
// A missing config file is not an error; defaults cover every setting.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("./configs")
	}

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Log the config file being used
	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	config := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: v.GetDuration("server.write_timeout") * time.Second,
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		LLM: LLMConfig{
			Provider:        v.GetString("llm.provider"),
			Model:           v.GetString("llm.model"),
			APIKey:          v.GetString("llm.api_key"),
			ServerURL:       v.GetString("llm.server"),
			VertexProject:   v.GetString("llm.vertex_project"),
			VertexRegion:    v.GetString("llm.vertex_region"),
			Temperature:     v.GetFloat64("llm.temperature"),
			TopP:            v.GetFloat64("llm.top_p"),
			TopK:            v.GetInt("llm.top_k"),
			MaxOutputTokens: v.GetInt("llm.max_output_tokens"),
			Timeout:         v.GetDuration("llm.timeout") * time.Second,
		},
		Upload: UploadConfig{
			MaxBytes: v.GetInt("upload.max_bytes"),
		},
		Reveal: RevealConfig{
			TickInterval: v.GetDuration("reveal.tick_interval_ms") * time.Millisecond,
		},
		Session: SessionConfig{
			IdleTTL:         v.GetDuration("session.idle_ttl") * time.Minute,
			CleanupInterval: v.GetDuration("session.cleanup_interval") * time.Minute,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			TTL:     v.GetDuration("cache.ttl") * time.Second,
		},
	}

	// Override with environment variables if set
	if env := os.Getenv("ENV"); env != "" {
		config.Logger.Env = env
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		v.Set("server.port", port)
		config.Server.Port = v.GetInt("server.port")
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if llmServer := os.Getenv("LLM_SERVER"); llmServer != "" {
		config.LLM.ServerURL = llmServer
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && config.LLM.Provider == "googleai" {
		config.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.LLM.Provider == "openai" {
		config.LLM.APIKey = apiKey
	}
	if project := os.Getenv("VERTEX_PROJECT"); project != "" {
		config.LLM.VertexProject = project
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}

	return config
}

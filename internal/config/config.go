package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Model       ModelConfig
	Risk        RiskConfig
	Mongo       MongoConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Recommender RecommenderConfig
	Embedding   EmbeddingConfig
	Chatbot     ChatbotConfig
	History     HistoryConfig
	Audit       AuditConfig
	Storage     StorageConfig
	Auth        AuthConfig
	Tracing     TracingConfig   `mapstructure:"tracing"`
	CORS        CORSConfig      `mapstructure:"cors"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`

	// 配置文件路径（运行时填充，用于热更新）
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Port    string
	Mode    string
	Version string
}

type LogConfig struct {
	Level string
	File  string
}

type ModelConfig struct {
	Kind         string `mapstructure:"kind"`
	Path         string `mapstructure:"path"`
	ScalerPath   string `mapstructure:"scaler_path"`
	EncodersPath string `mapstructure:"encoders_path"`
}

type RiskConfig struct {
	High   float64
	Medium float64
	Low    float64
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type RecommenderConfig struct {
	Backend      string
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
	Temperature  float64
	MaxTokens    int `mapstructure:"max_tokens"`
	Timeout      time.Duration
}

type EmbeddingConfig struct {
	Backend string
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string
	Timeout time.Duration
}

type ChatbotConfig struct {
	IntentsFile string  `mapstructure:"intents_file"`
	Threshold   float64 `mapstructure:"threshold"`
}

type HistoryConfig struct {
	Backend string
	Limit   int
	TTL     time.Duration
}

type AuditConfig struct {
	Enabled bool
	NodeID  int64 `mapstructure:"node_id"`
}

type StorageConfig struct {
	Type           string `mapstructure:"type"`
	ArchiveUploads bool   `mapstructure:"archive_uploads"`
	LocalPath      string `mapstructure:"local_path"`
	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessID  string `mapstructure:"minio_access_key"`
	MinioSecret    string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`
}

type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

const (
	RecommenderRules  = "rules"
	RecommenderGroq   = "groq"
	RecommenderLocal  = "local"
	RecommenderGemini = "gemini"

	EmbeddingLexical = "lexical"
	EmbeddingOpenAI  = "openai"
	EmbeddingGemini  = "gemini"

	HistoryMemory = "memory"
	HistoryRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.version", "1.0.0")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")

	v.SetDefault("model.kind", "lightgbm")
	v.SetDefault("model.path", "models/best_model_lightgbm.txt")
	v.SetDefault("model.scaler_path", "models/scaler.json")
	v.SetDefault("model.encoders_path", "models/label_encoders.json")

	v.SetDefault("risk.high", 0.7)
	v.SetDefault("risk.medium", 0.4)
	v.SetDefault("risk.low", 0.0)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "test")
	v.SetDefault("mongo.timeout", 10*time.Second)

	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("recommender.backend", RecommenderRules)
	v.SetDefault("recommender.model", "llama-3.1-8b-instant")
	v.SetDefault("recommender.gemini_model", "gemini-1.5-flash")
	v.SetDefault("recommender.temperature", 0.7)
	v.SetDefault("recommender.max_tokens", 500)
	v.SetDefault("recommender.timeout", 15*time.Second)

	v.SetDefault("embedding.backend", EmbeddingLexical)
	v.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	v.SetDefault("embedding.timeout", 10*time.Second)

	v.SetDefault("chatbot.intents_file", "configs/intents.yaml")
	v.SetDefault("chatbot.threshold", 0.5)

	v.SetDefault("history.backend", HistoryMemory)
	v.SetDefault("history.limit", 10)
	v.SetDefault("history.ttl", 24*time.Hour)

	v.SetDefault("audit.node_id", 1)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func bindEnv(v *viper.Viper) {
	// 兼容原有部署使用的环境变量名
	v.BindEnv("server.port", "API_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.file", "LOG_FILE")

	v.BindEnv("model.kind", "MODEL_KIND")
	v.BindEnv("model.path", "MODEL_PATH")
	v.BindEnv("model.scaler_path", "SCALER_PATH")
	v.BindEnv("model.encoders_path", "ENCODERS_PATH")

	v.BindEnv("risk.high", "RISK_THRESHOLD_HIGH")
	v.BindEnv("risk.medium", "RISK_THRESHOLD_MEDIUM")
	v.BindEnv("risk.low", "RISK_THRESHOLD_LOW")

	v.BindEnv("mongo.uri", "MONGODB_URI")
	v.BindEnv("mongo.database", "MONGODB_DATABASE")

	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	v.BindEnv("recommender.backend", "RECOMMENDER_BACKEND")
	v.BindEnv("recommender.base_url", "LLM_BASE_URL")
	v.BindEnv("recommender.api_key", "GROQ_API_KEY")
	v.BindEnv("recommender.model", "LLM_MODEL")
	v.BindEnv("recommender.gemini_api_key", "GEMINI_API_KEY")

	v.BindEnv("embedding.backend", "EMBEDDING_BACKEND")
	v.BindEnv("embedding.base_url", "EMBEDDING_BASE_URL")
	v.BindEnv("embedding.api_key", "EMBEDDING_API_KEY")
	v.BindEnv("embedding.model", "EMBEDDING_MODEL")

	v.BindEnv("history.backend", "HISTORY_BACKEND")
	v.BindEnv("audit.enabled", "AUDIT_ENABLED")

	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	v.BindEnv("auth.enabled", "AUTH_ENABLED")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")
}

// LoadConfig 读取 path 目录下的 config.yaml，环境变量优先
func LoadConfig(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SMART_LMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()

	// CORS_ORIGINS 是逗号分隔的列表
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = strings.Split(origins, ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" && cfg.Storage.ArchiveUploads {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	r := c.Risk
	if r.Low < 0 || r.Low > r.Medium || r.Medium >= r.High || r.High > 1 {
		return fmt.Errorf("invalid risk thresholds: low=%.2f medium=%.2f high=%.2f", r.Low, r.Medium, r.High)
	}

	if c.Model.Path == "" || c.Model.ScalerPath == "" || c.Model.EncodersPath == "" {
		return fmt.Errorf("model, scaler and encoders paths are required")
	}

	switch c.Recommender.Backend {
	case RecommenderRules, RecommenderGroq, RecommenderLocal, RecommenderGemini:
	default:
		return fmt.Errorf("unknown recommender backend %q", c.Recommender.Backend)
	}

	switch c.Embedding.Backend {
	case EmbeddingLexical, EmbeddingOpenAI, EmbeddingGemini:
	default:
		return fmt.Errorf("unknown embedding backend %q", c.Embedding.Backend)
	}

	switch c.History.Backend {
	case HistoryMemory:
	case HistoryRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("history backend redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}

	if c.Auth.Enabled && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters", len(c.Auth.JWTSecret))
	}

	return nil
}

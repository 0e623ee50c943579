package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	Fixture       FixtureConfig
	Static        StaticConfig
	Log           LogConfig
	OpenTelemetry OpenTelemetryConfig
	Environment   string `validate:"required"`
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port            int           `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `validate:"gte=0"`
	WriteTimeout    time.Duration `validate:"gte=0"`
	IdleTimeout     time.Duration `validate:"gte=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	// ResponseDelay リソースAPIの応答を遅延させる時間
	ResponseDelay time.Duration `validate:"gte=0"`
	// ReadOnly リソースAPIでGET以外を拒否
	ReadOnly bool
}

// FixtureConfig フィクスチャファイル設定
type FixtureConfig struct {
	Path    string `validate:"required"`
	IDField string `validate:"required"`
	Persist bool
	Watch   bool
}

// StaticConfig 静的ファイル配信設定
type StaticConfig struct {
	Dir string
}

// LogConfig ログ設定
type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string `validate:"required"`
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string `validate:"oneof=otlp stdout"`            // "otlp", "stdout"
	MetricsExporter string `validate:"oneof=otlp prometheus stdout"` // "otlp", "prometheus", "stdout"
	MetricsPath     string `validate:"startswith=/"`
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 3000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			ResponseDelay:   getEnvAsDuration("RESPONSE_DELAY", 0),
			ReadOnly:        getEnvAsBool("READ_ONLY", false),
		},
		Fixture: FixtureConfig{
			Path:    getEnv("FIXTURE_PATH", "db.json"),
			IDField: getEnv("FIXTURE_ID_FIELD", "id"),
			Persist: getEnvAsBool("FIXTURE_PERSIST", true),
			Watch:   getEnvAsBool("FIXTURE_WATCH", false),
		},
		Static: StaticConfig{
			Dir: getEnv("STATIC_DIR", "public"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "marketplace-mock"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
			MetricsPath:     getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate 設定の検証
func (c *Config) validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// Address リッスンアドレスを返す
func (c *ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// PrometheusEnabled Prometheusのスクレイプエンドポイントを公開するか
func (c *OpenTelemetryConfig) PrometheusEnabled() bool {
	return c.Enabled && c.MetricsExporter == "prometheus"
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

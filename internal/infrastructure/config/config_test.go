package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantError   bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "正常系: デフォルト値で設定を読み込む",
			env:  map[string]string{},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, time.Duration(0), cfg.Server.ResponseDelay)
				assert.False(t, cfg.Server.ReadOnly)
				assert.Equal(t, "db.json", cfg.Fixture.Path)
				assert.Equal(t, "id", cfg.Fixture.IDField)
				assert.True(t, cfg.Fixture.Persist)
				assert.False(t, cfg.Fixture.Watch)
				assert.Equal(t, "public", cfg.Static.Dir)
				assert.Equal(t, "info", cfg.Log.Level)
				assert.False(t, cfg.OpenTelemetry.Enabled)
				assert.Equal(t, "marketplace-mock", cfg.OpenTelemetry.ServiceName)
				assert.Equal(t, "/metrics", cfg.OpenTelemetry.MetricsPath)
			},
		},
		{
			name: "正常系: 環境変数から設定を読み込む",
			env: map[string]string{
				"ENVIRONMENT":           "test",
				"SERVER_PORT":           "9000",
				"RESPONSE_DELAY":        "250ms",
				"READ_ONLY":             "true",
				"FIXTURE_PATH":          "/tmp/fixture.json",
				"FIXTURE_ID_FIELD":      "_id",
				"FIXTURE_PERSIST":       "false",
				"FIXTURE_WATCH":         "true",
				"LOG_LEVEL":             "debug",
				"OTEL_ENABLED":          "true",
				"OTEL_METRICS_EXPORTER": "prometheus",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "test", cfg.Environment)
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, ":9000", cfg.Server.Address())
				assert.Equal(t, 250*time.Millisecond, cfg.Server.ResponseDelay)
				assert.True(t, cfg.Server.ReadOnly)
				assert.Equal(t, "/tmp/fixture.json", cfg.Fixture.Path)
				assert.Equal(t, "_id", cfg.Fixture.IDField)
				assert.False(t, cfg.Fixture.Persist)
				assert.True(t, cfg.Fixture.Watch)
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.True(t, cfg.OpenTelemetry.PrometheusEnabled())
			},
		},
		{
			name:      "異常系: ポート番号が範囲外",
			env:       map[string]string{"SERVER_PORT": "70000"},
			wantError: true,
		},
		{
			name:      "異常系: 不正なログレベル",
			env:       map[string]string{"LOG_LEVEL": "verbose"},
			wantError: true,
		},
		{
			name:      "異常系: 未対応のメトリクスエクスポーター",
			env:       map[string]string{"OTEL_METRICS_EXPORTER": "statsd"},
			wantError: true,
		},
		{
			name:      "異常系: メトリクスパスがスラッシュで始まらない",
			env:       map[string]string{"METRICS_PATH": "metrics"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, cfg)
				if tt.checkConfig != nil {
					tt.checkConfig(t, cfg)
				}
			}
		})
	}
}

func TestOpenTelemetryConfig_PrometheusEnabled(t *testing.T) {
	cfg := OpenTelemetryConfig{Enabled: false, MetricsExporter: "prometheus"}
	assert.False(t, cfg.PrometheusEnabled())

	cfg.Enabled = true
	assert.True(t, cfg.PrometheusEnabled())

	cfg.MetricsExporter = "otlp"
	assert.False(t, cfg.PrometheusEnabled())
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		want         int
	}{
		{
			name:         "環境変数が設定されている",
			envValue:     "123",
			defaultValue: 0,
			want:         123,
		},
		{
			name:         "環境変数が空",
			envValue:     "",
			defaultValue: 456,
			want:         456,
		},
		{
			name:         "環境変数が無効な値",
			envValue:     "invalid",
			defaultValue: 789,
			want:         789,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("TEST_INT", tt.envValue)
			defer os.Unsetenv("TEST_INT")

			got := getEnvAsInt("TEST_INT", tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{
			name:         "環境変数がtrue",
			envValue:     "true",
			defaultValue: false,
			want:         true,
		},
		{
			name:         "環境変数がfalse",
			envValue:     "false",
			defaultValue: true,
			want:         false,
		},
		{
			name:         "環境変数が空",
			envValue:     "",
			defaultValue: true,
			want:         true,
		},
		{
			name:         "環境変数が無効な値",
			envValue:     "invalid",
			defaultValue: false,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("TEST_BOOL", tt.envValue)
			defer os.Unsetenv("TEST_BOOL")

			got := getEnvAsBool("TEST_BOOL", tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
	}{
		{
			name:         "環境変数が有効な時間",
			envValue:     "1h",
			defaultValue: time.Minute,
			want:         time.Hour,
		},
		{
			name:         "環境変数が空",
			envValue:     "",
			defaultValue: time.Minute,
			want:         time.Minute,
		},
		{
			name:         "環境変数が無効な値",
			envValue:     "invalid",
			defaultValue: time.Hour,
			want:         time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("TEST_DURATION", tt.envValue)
			defer os.Unsetenv("TEST_DURATION")

			got := getEnvAsDuration("TEST_DURATION", tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

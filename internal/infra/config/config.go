package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Engine    EngineSettings    `mapstructure:"engine"`
	Audio     AudioSettings     `mapstructure:"audio"`
	Embedding EmbeddingSettings `mapstructure:"embedding"`
	Speech    SpeechSettings    `mapstructure:"speech"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures Kafka producer
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// RateLimitSettings configures rate limiting windows and max attempts per endpoint
type RateLimitSettings struct {
	WindowDuration      time.Duration `mapstructure:"window_duration"`
	AuthMaxAttempts     int           `mapstructure:"auth_max_attempts"`
	SampleMaxAttempts   int           `mapstructure:"sample_max_attempts"`
	RegisterMaxAttempts int           `mapstructure:"register_max_attempts"`
}

type JWTSettings struct {
	Secret         string        `mapstructure:"secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// EngineSettings carries the decision-engine thresholds. Validated at
// startup; the engine constructors reject anything out of range.
type EngineSettings struct {
	RequiredSamples           int           `mapstructure:"required_samples"`
	MinQualityScore           float64       `mapstructure:"min_quality_score"`
	MinAcceptableSamples      int           `mapstructure:"min_acceptable_samples"`
	AllowQualityOverride      bool          `mapstructure:"allow_quality_override"`
	RegistrationWindow        time.Duration `mapstructure:"registration_window"`
	MinimumEmbeddingsRequired int           `mapstructure:"minimum_embeddings_required"`
	AverageWeight             float64       `mapstructure:"average_weight"`
	MaxWeight                 float64       `mapstructure:"max_weight"`
	AuthenticationThreshold   float64       `mapstructure:"authentication_threshold"`
	HighConfidenceThreshold   float64       `mapstructure:"high_confidence_threshold"`
	ExpectedWordCount         int           `mapstructure:"expected_word_count"`
}

// AudioSettings configures the S3 audio store.
type AudioSettings struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// EmbeddingSettings configures the Lambda-backed embedding model.
type EmbeddingSettings struct {
	FunctionName string        `mapstructure:"function_name"`
	Region       string        `mapstructure:"region"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// SpeechSettings configures the transcription adapter.
type SpeechSettings struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("VOICEGW")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"jwt.secret",
		"jwt.issuer",
		"jwt.access_token_ttl",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"rate_limit.window_duration",
		"rate_limit.auth_max_attempts",
		"rate_limit.sample_max_attempts",
		"rate_limit.register_max_attempts",
		"engine.required_samples",
		"engine.min_quality_score",
		"engine.min_acceptable_samples",
		"engine.allow_quality_override",
		"engine.registration_window",
		"engine.minimum_embeddings_required",
		"engine.average_weight",
		"engine.max_weight",
		"engine.authentication_threshold",
		"engine.high_confidence_threshold",
		"engine.expected_word_count",
		"audio.bucket",
		"audio.region",
		"audio.key_prefix",
		"embedding.function_name",
		"embedding.region",
		"embedding.timeout",
		"speech.api_key",
		"speech.model",
		"speech.language",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the decision engine would refuse at
// construction, so misconfiguration fails at startup rather than on the
// first request.
func (c *AppConfig) Validate() error {
	e := c.Engine
	if e.RequiredSamples < 1 {
		return fmt.Errorf("engine.required_samples must be >= 1")
	}
	if e.MinQualityScore < 0 || e.MinQualityScore > 1 {
		return fmt.Errorf("engine.min_quality_score must be within [0,1]")
	}
	if e.MinAcceptableSamples < 1 {
		return fmt.Errorf("engine.min_acceptable_samples must be >= 1")
	}
	if e.RegistrationWindow <= 0 {
		return fmt.Errorf("engine.registration_window must be positive")
	}
	if e.MinimumEmbeddingsRequired < 1 {
		return fmt.Errorf("engine.minimum_embeddings_required must be >= 1")
	}
	if sum := e.AverageWeight + e.MaxWeight; sum < 0.999999 || sum > 1.000001 {
		return fmt.Errorf("engine.average_weight and engine.max_weight must sum to 1.0")
	}
	if e.AuthenticationThreshold < 0 || e.AuthenticationThreshold > 1 {
		return fmt.Errorf("engine.authentication_threshold must be within [0,1]")
	}
	if e.HighConfidenceThreshold < 0 || e.HighConfidenceThreshold > 1 {
		return fmt.Errorf("engine.high_confidence_threshold must be within [0,1]")
	}
	if e.ExpectedWordCount < 1 {
		return fmt.Errorf("engine.expected_word_count must be >= 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "voice-gateway")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "voice")
	v.SetDefault("postgres.password", "voice_password")
	v.SetDefault("postgres.database", "voice")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "voice")
	v.SetDefault("kafka.async", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "voice-gateway")
	v.SetDefault("jwt.access_token_ttl", "15m")

	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "voice-gateway")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.auth_max_attempts", 5)
	v.SetDefault("rate_limit.sample_max_attempts", 10)
	v.SetDefault("rate_limit.register_max_attempts", 3)

	v.SetDefault("engine.required_samples", 3)
	v.SetDefault("engine.min_quality_score", 0.7)
	v.SetDefault("engine.min_acceptable_samples", 3)
	v.SetDefault("engine.allow_quality_override", true)
	v.SetDefault("engine.registration_window", "45m")
	v.SetDefault("engine.minimum_embeddings_required", 1)
	v.SetDefault("engine.average_weight", 0.6)
	v.SetDefault("engine.max_weight", 0.4)
	v.SetDefault("engine.authentication_threshold", 0.80)
	v.SetDefault("engine.high_confidence_threshold", 0.85)
	v.SetDefault("engine.expected_word_count", 3)

	v.SetDefault("audio.bucket", "voice-gateway-audio")
	v.SetDefault("audio.region", "us-east-1")
	v.SetDefault("audio.key_prefix", "samples")

	v.SetDefault("embedding.function_name", "voice-embedding-generator")
	v.SetDefault("embedding.region", "us-east-1")
	v.SetDefault("embedding.timeout", "30s")

	v.SetDefault("speech.api_key", "")
	v.SetDefault("speech.model", "whisper-1")
	v.SetDefault("speech.language", "es")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "VOICEGW_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

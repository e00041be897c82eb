package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"podrecon/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	S3         S3Config
	Log        LogConfig
	CORS       CORSConfig
	Extraction ExtractionConfig
	Matcher    MatcherConfig
	Upload     UploadConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig holds credentials for one model provider.
type ProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Endpoint    string `mapstructure:"endpoint"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Variant is one provider/model pair in a fallback chain.
type Variant struct {
	Provider string
	Model    string
}

func (v Variant) String() string { return v.Provider + ":" + v.Model }

// ExtractionConfig holds structured extraction settings.
type ExtractionConfig struct {
	Claude ProviderConfig `mapstructure:"claude"`
	Gemini ProviderConfig `mapstructure:"gemini"`
	OpenAI ProviderConfig `mapstructure:"openai"`

	TextVariants   []Variant
	VisionVariants []Variant

	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	RateBurst      int           `mapstructure:"rate_burst"`
	Workers        int           `mapstructure:"workers"`
	Preflight      bool          `mapstructure:"preflight"`
}

// Provider returns the credentials for a provider name.
func (e *ExtractionConfig) Provider(name string) (*ProviderConfig, bool) {
	switch name {
	case e.Claude.Provider:
		return &e.Claude, true
	case e.Gemini.Provider:
		return &e.Gemini, true
	case e.OpenAI.Provider:
		return &e.OpenAI, true
	}
	return nil, false
}

// MatcherConfig holds parcel reconciliation settings.
type MatcherConfig struct {
	MinCandidateLength int      `mapstructure:"min_candidate_length"`
	EligibleStatuses   []string `mapstructure:"eligible_statuses"`
}

// UploadConfig limits POD uploads.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxFiles      int   `mapstructure:"max_files"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds bearer token verification settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds POD archive settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the PODRECON_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PODRECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "podrecon")
	v.SetDefault("db.password", "podrecon_secret")
	v.SetDefault("db.name", "podrecon_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "podrecon")

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "podrecon-pods")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Extraction defaults
	v.SetDefault("extraction.claude.api_key", "")
	v.SetDefault("extraction.claude.endpoint", "")
	v.SetDefault("extraction.claude.timeout_secs", 120)
	v.SetDefault("extraction.gemini.api_key", "")
	v.SetDefault("extraction.gemini.endpoint", "")
	v.SetDefault("extraction.gemini.timeout_secs", 120)
	v.SetDefault("extraction.openai.api_key", "")
	v.SetDefault("extraction.openai.endpoint", "")
	v.SetDefault("extraction.openai.timeout_secs", 120)
	v.SetDefault("extraction.text_variants", "claude:claude-3-haiku-20240307")
	v.SetDefault("extraction.vision_variants",
		"claude:claude-3-5-sonnet-20241022,claude:claude-3-5-sonnet-20240620,claude:claude-3-sonnet-20240229,claude:claude-3-opus-20240229")
	v.SetDefault("extraction.attempt_timeout", "60s")
	v.SetDefault("extraction.max_tokens", 1024)
	v.SetDefault("extraction.rate_per_second", 2.0)
	v.SetDefault("extraction.rate_burst", 2)
	v.SetDefault("extraction.workers", 4)
	v.SetDefault("extraction.preflight", false)

	v.SetDefault("matcher.min_candidate_length", 4)
	v.SetDefault("matcher.eligible_statuses", "")

	v.SetDefault("upload.max_file_size_mb", 20)
	v.SetDefault("upload.max_files", 50)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "PODRECON_SERVER_PORT",
		"server.read_timeout":            "PODRECON_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "PODRECON_SERVER_WRITE_TIMEOUT",
		"server.environment":             "PODRECON_SERVER_ENVIRONMENT",
		"db.host":                        "PODRECON_DB_HOST",
		"db.port":                        "PODRECON_DB_PORT",
		"db.user":                        "PODRECON_DB_USER",
		"db.password":                    "PODRECON_DB_PASSWORD",
		"db.name":                        "PODRECON_DB_NAME",
		"db.sslmode":                     "PODRECON_DB_SSLMODE",
		"db.max_open":                    "PODRECON_DB_MAX_OPEN",
		"db.max_idle":                    "PODRECON_DB_MAX_IDLE",
		"jwt.secret":                     "PODRECON_JWT_SECRET",
		"jwt.issuer":                     "PODRECON_JWT_ISSUER",
		"s3.region":                      "PODRECON_S3_REGION",
		"s3.bucket":                      "PODRECON_S3_BUCKET",
		"s3.endpoint":                    "PODRECON_S3_ENDPOINT",
		"s3.access_key":                  "PODRECON_S3_ACCESS_KEY",
		"s3.secret_key":                  "PODRECON_S3_SECRET_KEY",
		"s3.presign_expiry":              "PODRECON_S3_PRESIGN_EXPIRY",
		"log.level":                      "PODRECON_LOG_LEVEL",
		"log.format":                     "PODRECON_LOG_FORMAT",
		"cors.allowed_origins":           "PODRECON_CORS_ALLOWED_ORIGINS",
		"extraction.claude.api_key":      "PODRECON_EXTRACTION_CLAUDE_API_KEY",
		"extraction.claude.endpoint":     "PODRECON_EXTRACTION_CLAUDE_ENDPOINT",
		"extraction.claude.timeout_secs": "PODRECON_EXTRACTION_CLAUDE_TIMEOUT_SECS",
		"extraction.gemini.api_key":      "PODRECON_EXTRACTION_GEMINI_API_KEY",
		"extraction.gemini.endpoint":     "PODRECON_EXTRACTION_GEMINI_ENDPOINT",
		"extraction.gemini.timeout_secs": "PODRECON_EXTRACTION_GEMINI_TIMEOUT_SECS",
		"extraction.openai.api_key":      "PODRECON_EXTRACTION_OPENAI_API_KEY",
		"extraction.openai.endpoint":     "PODRECON_EXTRACTION_OPENAI_ENDPOINT",
		"extraction.openai.timeout_secs": "PODRECON_EXTRACTION_OPENAI_TIMEOUT_SECS",
		"extraction.text_variants":       "PODRECON_EXTRACTION_TEXT_VARIANTS",
		"extraction.vision_variants":     "PODRECON_EXTRACTION_VISION_VARIANTS",
		"extraction.attempt_timeout":     "PODRECON_EXTRACTION_ATTEMPT_TIMEOUT",
		"extraction.max_tokens":          "PODRECON_EXTRACTION_MAX_TOKENS",
		"extraction.rate_per_second":     "PODRECON_EXTRACTION_RATE_PER_SECOND",
		"extraction.rate_burst":          "PODRECON_EXTRACTION_RATE_BURST",
		"extraction.workers":             "PODRECON_EXTRACTION_WORKERS",
		"extraction.preflight":           "PODRECON_EXTRACTION_PREFLIGHT",
		"matcher.min_candidate_length":   "PODRECON_MATCHER_MIN_CANDIDATE_LENGTH",
		"matcher.eligible_statuses":      "PODRECON_MATCHER_ELIGIBLE_STATUSES",
		"upload.max_file_size_mb":        "PODRECON_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.max_files":               "PODRECON_UPLOAD_MAX_FILES",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if PODRECON_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PODRECON_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	textVariants, err := ParseVariants(v.GetString("extraction.text_variants"))
	if err != nil {
		return nil, fmt.Errorf("extraction.text_variants: %w", err)
	}
	visionVariants, err := ParseVariants(v.GetString("extraction.vision_variants"))
	if err != nil {
		return nil, fmt.Errorf("extraction.vision_variants: %w", err)
	}
	provider := func(name string) ProviderConfig {
		return ProviderConfig{
			Provider:    name,
			APIKey:      v.GetString("extraction." + name + ".api_key"),
			Endpoint:    v.GetString("extraction." + name + ".endpoint"),
			TimeoutSecs: v.GetInt("extraction." + name + ".timeout_secs"),
		}
	}
	cfg.Extraction = ExtractionConfig{
		Claude:         provider("claude"),
		Gemini:         provider("gemini"),
		OpenAI:         provider("openai"),
		TextVariants:   textVariants,
		VisionVariants: visionVariants,
		AttemptTimeout: v.GetDuration("extraction.attempt_timeout"),
		MaxTokens:      v.GetInt("extraction.max_tokens"),
		RatePerSecond:  v.GetFloat64("extraction.rate_per_second"),
		RateBurst:      v.GetInt("extraction.rate_burst"),
		Workers:        v.GetInt("extraction.workers"),
		Preflight:      v.GetBool("extraction.preflight"),
	}

	cfg.Matcher = MatcherConfig{
		MinCandidateLength: v.GetInt("matcher.min_candidate_length"),
		EligibleStatuses:   splitList(v.GetString("matcher.eligible_statuses")),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxFiles:      v.GetInt("upload.max_files"),
	}

	return cfg, nil
}

// Validate reports a domain.ErrConfiguration when no extraction chain can run.
func (c *Config) Validate() error {
	e := &c.Extraction
	if len(e.TextVariants) == 0 && len(e.VisionVariants) == 0 {
		return fmt.Errorf("%w: no extraction variants configured", domain.ErrConfiguration)
	}
	for _, variant := range append(append([]Variant{}, e.TextVariants...), e.VisionVariants...) {
		p, ok := e.Provider(variant.Provider)
		if !ok {
			return fmt.Errorf("%w: unknown provider %q in variant %s", domain.ErrConfiguration, variant.Provider, variant)
		}
		if p.APIKey == "" {
			return fmt.Errorf("%w: no API key for provider %q", domain.ErrConfiguration, variant.Provider)
		}
	}
	if e.Workers < 1 {
		return fmt.Errorf("%w: extraction.workers must be at least 1", domain.ErrConfiguration)
	}
	return nil
}

// ParseVariants parses a comma-separated "provider:model" list.
func ParseVariants(s string) ([]Variant, error) {
	var out []Variant
	for _, item := range splitList(s) {
		provider, model, ok := strings.Cut(item, ":")
		provider, model = strings.TrimSpace(provider), strings.TrimSpace(model)
		if !ok || provider == "" || model == "" {
			return nil, fmt.Errorf("invalid variant %q, want provider:model", item)
		}
		out = append(out, Variant{Provider: strings.ToLower(provider), Model: model})
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

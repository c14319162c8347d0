package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"skillsnap/internal/errors"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfig.
const EnvPrefix = "SKILLSNAP"

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (SKILLSNAP_AI_APIKEY, etc.), including a local .env file
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	NLP           NLPConfig           `mapstructure:"nlp"`
	Store         StoreConfig         `mapstructure:"store"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	prompts AllLoadedPrompts
}

// AIConfig holds generative provider configuration
type AIConfig struct {
	// Global/fallback configuration
	Enabled          bool          `mapstructure:"enabled"`
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	// Operation-specific configurations
	Feedback  OperationAIConfig `mapstructure:"feedback"`
	Optimize  OperationAIConfig `mapstructure:"optimize"`
	Compare   OperationAIConfig `mapstructure:"compare"`
	Quality   OperationAIConfig `mapstructure:"quality"`
	Explain   OperationAIConfig `mapstructure:"explain"`
	Interview OperationAIConfig `mapstructure:"interview"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for specific operations
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts PromptSet `mapstructure:"systemPrompts"`
	UserPrompts   PromptSet `mapstructure:"userPrompts"`
}

// PromptSet holds one inline prompt and one optional prompt file per provider operation.
type PromptSet struct {
	Suggest       string `mapstructure:"suggest"`
	SuggestFile   string `mapstructure:"suggestFile"`
	Optimize      string `mapstructure:"optimize"`
	OptimizeFile  string `mapstructure:"optimizeFile"`
	Compare       string `mapstructure:"compare"`
	CompareFile   string `mapstructure:"compareFile"`
	Quality       string `mapstructure:"quality"`
	QualityFile   string `mapstructure:"qualityFile"`
	Explain       string `mapstructure:"explain"`
	ExplainFile   string `mapstructure:"explainFile"`
	Interview     string `mapstructure:"interview"`
	InterviewFile string `mapstructure:"interviewFile"`
}

// NLPConfig configures the skill vocabulary and the embedding model behind the similarity scorer.
type NLPConfig struct {
	Embedder                string               `mapstructure:"embedder"` // hashing or gemini
	EmbeddingModel          string               `mapstructure:"embeddingModel"`
	Dimension               int                  `mapstructure:"dimension"`
	VocabularyFile          string               `mapstructure:"vocabularyFile"`
	MinJobDescriptionLength int                  `mapstructure:"minJobDescriptionLength"`
	InitTimeout             time.Duration        `mapstructure:"initTimeout"`
	CircuitBreaker          CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// StoreConfig selects the resume document store.
type StoreConfig struct {
	Driver      string      `mapstructure:"driver"` // memory or postgres
	DatabaseURL string      `mapstructure:"databaseURL"`
	Cache       CacheConfig `mapstructure:"cache"`
}

// CacheConfig configures the optional Redis read-through cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"readTimeout"`
	WriteTimeout  time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout   time.Duration `mapstructure:"idleTimeout"`
	MaxUploadSize int64         `mapstructure:"maxUploadSize"`

	// TLS Configuration
	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // TLS mode: "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)
	CAFile   string `mapstructure:"caFile"`   // CA certificate file for client cert verification (PEM, required for mutual mode)

	// Certificate content (used when loaded from Vault instead of files)
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"`       // "1.2" or "1.3"
	CipherSuites     []string `mapstructure:"cipherSuites"`     // Allowed cipher suites (optional)
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"

	// Reload certificate files when they change on disk
	AutoReload AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig holds configuration for automatic certificate reloading
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"` // Debounce delay for file change events
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int  `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	ConsoleOutput   bool              `mapstructure:"consoleOutput"`
	SampleRate      float64           `mapstructure:"sampleRate"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from environment variables, an optional .env file and a config file
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

// LoadConfigFile loads configuration like LoadConfig, reading the given file instead of searching for config.yaml.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err == nil {
		log.Println("[CONFIG] Loaded environment from .env")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	// an explicit --config file skips the search paths
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.AddConfigPath("/etc/skillsnap/")
		v.AddConfigPath("$HOME/.skillsnap")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if config.Vault.Enabled {
		vaultLogger, err := errors.New(config.App.LogLevel)
		if err != nil {
			vaultLogger = errors.NewNopLogger()
		}
		if err := ApplyVaultSecrets(&config, vaultLogger); err != nil {
			return nil, fmt.Errorf("failed to apply vault secrets: %w", err)
		}
	}

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}
	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// NeedsGemini reports whether any enabled component talks to the Gemini API.
func (c *Config) NeedsGemini() bool {
	return c.AI.Enabled || c.NLP.Embedder == EmbedderGemini
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.NeedsGemini() && c.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required when the provider or gemini embedder is enabled (set %s_AI_APIKEY)", EnvPrefix)
	}

	if c.AI.Enabled && c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	switch c.NLP.Embedder {
	case EmbedderHashing, EmbedderGemini:
	default:
		return fmt.Errorf("invalid nlp.embedder: %s (must be '%s' or '%s')", c.NLP.Embedder, EmbedderHashing, EmbedderGemini)
	}
	if c.NLP.Dimension <= 0 {
		return fmt.Errorf("nlp.dimension must be positive")
	}
	if c.NLP.MinJobDescriptionLength < 0 {
		return fmt.Errorf("nlp.minJobDescriptionLength must not be negative")
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.databaseURL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid store.driver: %s (must be '%s' or '%s')", c.Store.Driver, StoreMemory, StorePostgres)
	}
	if c.Store.Cache.Enabled && c.Store.Cache.Address == "" {
		return fmt.Errorf("store.cache.address is required when the cache is enabled")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.MaxUploadSize <= 0 {
		return fmt.Errorf("server.maxUploadSize must be positive")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// Embedder and store driver names accepted by the configuration.
const (
	EmbedderHashing = "hashing"
	EmbedderGemini  = "gemini"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromYAML(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))
	return LoadConfigFile(path)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadFromYAML(t, "app:\n  logLevel: info\n")
	require.NoError(t, err)

	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, EmbedderHashing, cfg.NLP.Embedder)
	assert.Equal(t, 384, cfg.NLP.Dimension)
	assert.Equal(t, 10, cfg.NLP.MinJobDescriptionLength)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "disabled", cfg.Server.TLS.Mode)
	assert.Equal(t, "skillsnap", cfg.Observability.ServiceName)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)

	optimize := cfg.GetOptimizeConfig()
	require.NotNil(t, optimize.Timeout)
	assert.Equal(t, 90*time.Second, *optimize.Timeout)
	assert.Equal(t, "gemini-2.0-flash", optimize.Model, "empty operation model falls back to the global one")
	assert.True(t, optimize.CircuitBreaker.Enabled)
	assert.Equal(t, 0.6, optimize.CircuitBreaker.FailureThreshold)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	t.Setenv("SKILLSNAP_AI_APIKEY", "env-key")
	t.Setenv("SKILLSNAP_SERVER_APIKEYS", "k1, k2")

	cfg, err := loadFromYAML(t, `
ai:
  enabled: true
  model: gemini-2.5-flash
  quality:
    model: gemini-2.5-pro
nlp:
  embedder: gemini
store:
  driver: postgres
  databaseURL: postgres://localhost/skillsnap
`)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.AI.APIKey)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-2.5-pro", cfg.GetQualityConfig().Model)
	assert.Equal(t, "gemini-2.5-flash", cfg.GetCompareConfig().Model)
	assert.Equal(t, "env-key", cfg.GetFeedbackConfig().APIKey)
	assert.True(t, cfg.NeedsGemini())
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("SKILLSNAP_AI_APIKEY", "")
	_, err := loadFromYAML(t, "nlp:\n  embedder: gemini\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI API key is required")
}

func validConfig() Config {
	return Config{
		AI:     AIConfig{Timeout: time.Second},
		NLP:    NLPConfig{Embedder: EmbedderHashing, Dimension: 384, MinJobDescriptionLength: 10},
		Store:  StoreConfig{Driver: StoreMemory},
		Server: ServerConfig{Port: "8080", MaxUploadSize: 1024, TLS: TLSConfig{Mode: "disabled"}},
		App:    AppConfig{DefaultFormat: "json", SupportedFormats: []string{"json", "text"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "provider without key", mutate: func(c *Config) { c.AI.Enabled = true }, errorMsg: "AI API key is required"},
		{name: "provider with key", mutate: func(c *Config) { c.AI.Enabled = true; c.AI.APIKey = "k" }},
		{name: "unknown embedder", mutate: func(c *Config) { c.NLP.Embedder = "bert" }, errorMsg: "invalid nlp.embedder"},
		{name: "zero dimension", mutate: func(c *Config) { c.NLP.Dimension = 0 }, errorMsg: "nlp.dimension"},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Driver = StorePostgres }, errorMsg: "store.databaseURL"},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, errorMsg: "invalid store.driver"},
		{name: "cache without address", mutate: func(c *Config) { c.Store.Cache.Enabled = true }, errorMsg: "store.cache.address"},
		{name: "no upload size", mutate: func(c *Config) { c.Server.MaxUploadSize = 0 }, errorMsg: "maxUploadSize"},
		{name: "bad format", mutate: func(c *Config) { c.App.DefaultFormat = "xml" }, errorMsg: "invalid default format"},
		{name: "bad tls", mutate: func(c *Config) { c.Server.TLS.Mode = "server" }, errorMsg: "TLS configuration error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorMsg != "" {
				assert.ErrorContains(t, err, tt.errorMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOperationConfigFallbacks(t *testing.T) {
	explicit := false
	temp := float32(0.05)
	cfg := &Config{AI: AIConfig{
		Provider:         "gemini",
		Model:            "global-model",
		Timeout:          time.Minute,
		APIKey:           "global-key",
		MaxRetries:       3,
		Temperature:      0.7,
		UseSystemPrompts: true,
		CustomPrompts: PromptConfig{
			SystemPrompts: PromptSet{Quality: "global quality system prompt", Compare: "global compare"},
		},
		Quality: OperationAIConfig{
			Temperature:      &temp,
			UseSystemPrompts: &explicit,
			CustomPrompts:    PromptConfig{SystemPrompts: PromptSet{Compare: "quality-level compare"}},
		},
	}}

	q := cfg.GetOperationConfig(OperationQuality)
	assert.Equal(t, "global-model", q.Model)
	assert.Equal(t, "global-key", q.APIKey)
	assert.Equal(t, time.Minute, *q.Timeout)
	assert.Equal(t, 3, *q.MaxRetries)
	assert.Equal(t, float32(0.05), *q.Temperature)
	assert.False(t, *q.UseSystemPrompts, "explicit false survives the global default")
	assert.Equal(t, "global quality system prompt", q.CustomPrompts.SystemPrompts.Inline(OperationQuality))
	assert.Equal(t, "quality-level compare", q.CustomPrompts.SystemPrompts.Compare)

	f := cfg.GetFeedbackConfig()
	assert.True(t, *f.UseSystemPrompts)
	assert.Equal(t, float32(0.7), *f.Temperature)
}

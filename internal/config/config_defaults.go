package config

import (
	"time"

	"github.com/spf13/viper"
)

type operationDefaults struct {
	timeout     time.Duration
	maxRetries  int
	temperature float64
}

var operationDefaultValues = map[string]operationDefaults{
	OperationFeedback:  {timeout: 30 * time.Second, maxRetries: 2, temperature: 0.4},
	OperationOptimize:  {timeout: 90 * time.Second, maxRetries: 2, temperature: 0.3},
	OperationCompare:   {timeout: 60 * time.Second, maxRetries: 3, temperature: 0.2},
	OperationQuality:   {timeout: 60 * time.Second, maxRetries: 3, temperature: 0.1},
	OperationExplain:   {timeout: 60 * time.Second, maxRetries: 3, temperature: 0.2},
	OperationInterview: {timeout: 60 * time.Second, maxRetries: 2, temperature: 0.5},
}

func setCircuitBreakerDefaults(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".circuitBreaker.enabled", true)
	v.SetDefault(prefix+".circuitBreaker.maxRequests", 3)
	v.SetDefault(prefix+".circuitBreaker.interval", 60*time.Second)
	v.SetDefault(prefix+".circuitBreaker.timeout", 60*time.Second)
	v.SetDefault(prefix+".circuitBreaker.minRequests", 3)
	v.SetDefault(prefix+".circuitBreaker.failureThreshold", 0.6)
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Provider - global defaults. Disabled providers leave audits on the rule-based feedback.
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	for op, d := range operationDefaultValues {
		prefix := "ai." + op
		v.SetDefault(prefix+".provider", "gemini")
		v.SetDefault(prefix+".model", "")
		v.SetDefault(prefix+".timeout", d.timeout)
		v.SetDefault(prefix+".apiKey", "")
		v.SetDefault(prefix+".maxRetries", d.maxRetries)
		v.SetDefault(prefix+".temperature", d.temperature)
		v.SetDefault(prefix+".useSystemPrompts", true)
		setCircuitBreakerDefaults(v, prefix)
	}

	// Scoring models. The hashing embedder is an offline bag of hashed unigrams and bigrams that
	// rewards shared wording only; set nlp.embedder to gemini for semantic sentence embeddings.
	v.SetDefault("nlp.embedder", EmbedderHashing)
	v.SetDefault("nlp.embeddingModel", "text-embedding-004")
	v.SetDefault("nlp.dimension", 384)
	v.SetDefault("nlp.vocabularyFile", "")
	v.SetDefault("nlp.minJobDescriptionLength", 10)
	v.SetDefault("nlp.initTimeout", 30*time.Second)
	setCircuitBreakerDefaults(v, "nlp")

	// Store
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.databaseURL", "")
	v.SetDefault("store.cache.enabled", false)
	v.SetDefault("store.cache.address", "localhost:6379")
	v.SetDefault("store.cache.password", "")
	v.SetDefault("store.cache.db", 0)
	v.SetDefault("store.cache.ttl", 10*time.Minute)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // optimization calls are slow
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxUploadSize", 10*1024*1024)
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{}) // Use Go defaults
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.debounceDelay", time.Second)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.databaseURL", "")
	v.SetDefault("vault.secrets.tlsCerts", "")
	v.SetDefault("vault.watch.enabled", false)
	v.SetDefault("vault.watch.pollInterval", 5*time.Minute)

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "skillsnap")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}

package server

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"skillsnap/internal/config"
	skillsnapErrors "skillsnap/internal/errors"
	"skillsnap/internal/resume"
)

// AnalyzeRequest is the body of POST /api/resumes/{id}/analyze. An empty job description runs a
// general audit.
type AnalyzeRequest struct {
	JobDescription string `json:"job_description"`
}

// ScoreRequest is the body of POST /api/score
type ScoreRequest struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description"`
}

// OptimizeRequest is the body of POST /api/resumes/{id}/optimize
type OptimizeRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
	CompanyName    string `json:"company_name"`
}

// CompareRequest is the body of POST /api/resumes/{id}/compare
type CompareRequest struct {
	Version1  int  `json:"version1" validate:"required,min=1"`
	Version2  int  `json:"version2" validate:"required,min=1"`
	Narrative bool `json:"narrative"`
}

// ExplainRequest is the body of POST /api/resumes/{id}/explain-score. The job description is
// optional for resumes analyzed without one.
type ExplainRequest struct {
	JobDescription string `json:"job_description"`
}

// InterviewRequest is the body of POST /api/resumes/{id}/interview-questions
type InterviewRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
}

// VocabularyResponse is returned by GET /api/vocabulary. Entries is set for a listing, Label and
// Known for a lookup.
type VocabularyResponse struct {
	Version string   `json:"version"`
	Size    int      `json:"size"`
	Entries []string `json:"entries,omitempty"`
	Label   string   `json:"label,omitempty"`
	Known   *bool    `json:"known,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Resume service and the collaborators behind it. Set by Start.
	Runtime *resume.Runtime

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys *APIKeySet

	// Polls Vault for rotated API keys
	APIKeyWatcher *VaultWatcher

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit, applied to uploads and JSON bodies
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *skillsnapErrors.Logger

	validate *validator.Validate
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *skillsnapErrors.Logger) *Server {
	if logger == nil {
		logger = skillsnapErrors.NewNopLogger()
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        NewAPIKeySet(cfg.APIKeys),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

// APIKeySet is the set of accepted API keys. It can be replaced while the server runs.
type APIKeySet struct {
	mu   sync.RWMutex
	keys map[string]bool
}

// NewAPIKeySet builds a set from keys, skipping empty entries.
func NewAPIKeySet(keys []string) *APIKeySet {
	s := &APIKeySet{}
	s.Replace(keys)
	return s
}

// Replace swaps the accepted keys and returns how many were installed.
func (s *APIKeySet) Replace(keys []string) int {
	next := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			next[key] = true
		}
	}
	s.mu.Lock()
	s.keys = next
	s.mu.Unlock()
	return len(next)
}

// Contains reports whether key is accepted.
func (s *APIKeySet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[key]
}

// Len returns the number of accepted keys. Zero disables authentication.
func (s *APIKeySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

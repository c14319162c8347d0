package server

import (
	"net/http"
	"strings"

	skillsnapErrors "skillsnap/internal/errors"
	"skillsnap/internal/observability"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	// protected wraps an API handler in rate limiting, authentication and the body size limit
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.authMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /api/resumes", protected(s.requireModels(s.createUploadHandler(om))))
	mux.HandleFunc("POST /api/resumes/{id}/analyze", protected(s.requireModels(s.createAnalyzeHandler(om))))
	mux.HandleFunc("POST /api/score", protected(s.requireModels(s.createScoreHandler(om))))
	mux.HandleFunc("GET /api/vocabulary", protected(s.requireModels(s.createVocabularyHandler(om))))

	mux.HandleFunc("GET /api/users/{user_id}/resumes", protected(s.createListHandler(om)))
	mux.HandleFunc("GET /api/resumes/{id}", protected(s.createGetHandler(om)))
	mux.HandleFunc("DELETE /api/resumes/{id}", protected(s.createDeleteHandler(om)))
	mux.HandleFunc("POST /api/resumes/{id}/optimize", protected(s.createOptimizeHandler(om)))
	mux.HandleFunc("GET /api/resumes/{id}/versions", protected(s.createVersionsHandler(om, false)))
	mux.HandleFunc("GET /api/resumes/{id}/lineage", protected(s.createVersionsHandler(om, true)))
	mux.HandleFunc("POST /api/resumes/{id}/compare", protected(s.createCompareHandler(om)))
	mux.HandleFunc("POST /api/resumes/{id}/quality-check", protected(s.createQualityCheckHandler(om)))
	mux.HandleFunc("POST /api/resumes/{id}/explain-score", protected(s.createExplainScoreHandler(om)))
	mux.HandleFunc("POST /api/resumes/{id}/interview-questions", protected(s.createInterviewQuestionsHandler(om)))

	if endpoint, handler := om.PrometheusHandler(); handler != nil && endpoint != "" {
		mux.Handle("GET "+endpoint, handler)
	}

	return mux
}

// requireModels rejects scoring requests with 503 until the vocabulary and embedder are loaded
func (s *Server) requireModels(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.Runtime.Barrier.Ready() {
			w.Header().Set("Retry-After", "5")
			writeAppError(w, skillsnapErrors.NewModelUnavailableError(skillsnapErrors.ErrCodeModelNotReady,
				"models are still loading", nil))
			return
		}
		next(w, r)
	}
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if s.APIKeys.Len() == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys.Contains(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestAPIKey reads X-API-Key, falling back to an Authorization Bearer token
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}

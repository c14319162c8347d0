package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"skillsnap/internal/ai"
	skillsnapErrors "skillsnap/internal/errors"
	"skillsnap/internal/nlp"
)

const (
	certCriticalThreshold = 24 * time.Hour
	certWarningThreshold  = 7 * 24 * time.Hour
)

// healthHandler reports model readiness, provider availability, circuit breakers and certificates
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "skillsnap",
		"version": s.Version,
	}
	overallHealthy := true

	models := s.checkModelsHealth(r.Context())
	response["models"] = models
	if ready, _ := models["ready"].(bool); !ready {
		overallHealthy = false
	}

	provider := s.checkProviderHealth(r.Context())
	response["ai_provider"] = provider
	if available, ok := provider["available"].(bool); ok && !available {
		overallHealthy = false
	}

	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkModelsHealth reports whether the vocabulary and embedder finished loading. While they are
// still loading it waits on the barrier for up to the health check timeout.
func (s *Server) checkModelsHealth(ctx context.Context) map[string]any {
	models, err := s.waitModels(ctx)
	if err != nil {
		status := map[string]any{"ready": false}
		if skillsnapErrors.IsType(err, skillsnapErrors.ErrorTypeModelUnavailable) && !s.Runtime.Barrier.Ready() {
			status["status"] = "loading"
		}
		status["error"] = err.Error()
		return status
	}
	return map[string]any{
		"ready": true,
		"info":  models.Info(),
	}
}

func (s *Server) waitModels(ctx context.Context) (*nlp.Models, error) {
	timeout := s.AppConfig.Observability.HealthCheck.Timeout
	if timeout <= 0 {
		return s.Runtime.Barrier.Models()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Runtime.Barrier.Wait(ctx)
}

// checkProviderHealth asks the generative provider whether its model is reachable
func (s *Server) checkProviderHealth(ctx context.Context) map[string]any {
	if s.Runtime.Provider == nil {
		return map[string]any{"enabled": false}
	}

	timeout := s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout
	if timeout <= 0 {
		timeout = s.AppConfig.Observability.HealthCheck.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	info := s.Runtime.Provider.GetModelInfo(ctx)
	return map[string]any{
		"enabled":   true,
		"available": info.Available,
		"model":     info,
	}
}

// checkCircuitBreakerHealth collects breaker statistics from the provider and the embedder
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	status := make(map[string]any)
	if reporter, ok := s.Runtime.Provider.(ai.BreakerReporter); ok {
		status["provider"] = reporter.GetCircuitBreakerStats()
	}
	if reporter, ok := s.Runtime.Embedder.(ai.BreakerReporter); ok {
		status["embedder"] = reporter.GetCircuitBreakerStats()
	}
	return status
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.String()

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
		certStatus["message"] = "Certificate has expired"
	case timeToExpiry <= certCriticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
		certStatus["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= certWarningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
		certStatus["message"] = "Certificate expires within 7 days"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
		certStatus["message"] = "Certificate is valid"
	}

	certStatus["auto_reload"] = s.CertificateManager.Status()
	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "skillsnap",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    s.APIKeys.Len(),
		},
		"store": map[string]any{
			"driver": s.Runtime.Store.Driver(),
		},
	}

	if models, err := s.Runtime.Barrier.Models(); err == nil {
		info := models.Info()
		response["vocabulary_version"] = info.VocabularyVersion
		response["vocabulary_size"] = info.VocabularySize
		response["embedder"] = info.Embedder
	} else if s.Runtime.Embedder != nil {
		response["embedder"] = s.Runtime.Embedder.Name()
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.APIKeyWatcher != nil {
		response["api_key_watcher"] = s.APIKeyWatcher.Status()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes the JSON body into v and runs its validate tags
func (s *Server) parseJSONRequest(r *http.Request, v any) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return skillsnapErrors.NewValidationError(skillsnapErrors.ErrCodeInvalidRequest,
			"content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return skillsnapErrors.NewValidationError(skillsnapErrors.ErrCodeInvalidRequest,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return skillsnapErrors.NewIOError(skillsnapErrors.ErrCodeFileNotReadable, "failed to read request body", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return skillsnapErrors.NewValidationError(skillsnapErrors.ErrCodeInvalidRequest, "failed to parse JSON", err)
	}

	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError turns validator field errors into a single validation AppError
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return skillsnapErrors.NewValidationError(skillsnapErrors.ErrCodeInvalidRequest, "invalid request", err)
	}

	parts := make([]string, 0, len(fieldErrs))
	code := skillsnapErrors.ErrCodeInvalidRequest
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			code = skillsnapErrors.ErrCodeMissingField
			parts = append(parts, fmt.Sprintf("%s is required", jsonFieldName(fe)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", jsonFieldName(fe), fe.Tag(), fe.Param()))
	}
	return skillsnapErrors.NewValidationError(code, strings.Join(parts, "; "), nil)
}

func jsonFieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "ResumeText":
		return "resume_text"
	case "JobDescription":
		return "job_description"
	case "Version1":
		return "version1"
	case "Version2":
		return "version2"
	default:
		return strings.ToLower(fe.Field())
	}
}

// writeAppError maps err to its HTTP status and writes it as an ErrorResponse
func writeAppError(w http.ResponseWriter, err error) {
	status := skillsnapErrors.HTTPStatus(err)

	var appErr *skillsnapErrors.AppError
	if stderrors.As(err, &appErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		encodeOrLog(w, ErrorResponse{
			Error:   http.StatusText(status),
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}
	writeErrorResponse(w, http.StatusText(status), err.Error(), status)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	encodeOrLog(w, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encodeOrLog(w, v)
}

func encodeOrLog(w io.Writer, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

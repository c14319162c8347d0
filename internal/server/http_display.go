package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                          - Health check")
	fmt.Println("  GET    /stats                           - Server statistics")
	fmt.Println("  POST   /api/resumes                     - Upload a resume (multipart: file, user_id)")
	fmt.Println("  POST   /api/resumes/{id}/analyze        - Score a stored resume")
	fmt.Println("  POST   /api/score                       - Score resume text without storing it")
	fmt.Println("  GET    /api/vocabulary                  - Skill vocabulary (?label= to look one up)")
	fmt.Println("  GET    /api/users/{user_id}/resumes     - List a user's resumes")
	fmt.Println("  GET    /api/resumes/{id}                - Get a resume")
	fmt.Println("  DELETE /api/resumes/{id}                - Delete a resume")
	fmt.Println("  POST   /api/resumes/{id}/optimize       - Create an optimized version (provider)")
	fmt.Println("  GET    /api/resumes/{id}/versions       - Direct versions")
	fmt.Println("  GET    /api/resumes/{id}/lineage        - All descendant versions")
	fmt.Println("  POST   /api/resumes/{id}/compare        - Compare two versions")
	fmt.Println("  POST   /api/resumes/{id}/quality-check  - Quality audit (provider)")
	fmt.Println("  POST   /api/resumes/{id}/explain-score  - Explain the stored score (provider)")
	fmt.Println("  POST   /api/resumes/{id}/interview-questions - Interview preparation (provider)")
	if s.AppConfig != nil && s.AppConfig.Observability.Prometheus.Enabled {
		fmt.Printf("  GET    %-32s - Prometheus metrics\n", s.AppConfig.Observability.Prometheus.Endpoint)
	}
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if n := s.APIKeys.Len(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /api/*")
		if s.APIKeyWatcher != nil {
			fmt.Println("  - Keys are refreshed from Vault")
		}
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}

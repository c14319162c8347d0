package cli

import (
	"fmt"

	"skillsnap/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API for storing, scoring and versioning resumes.

The listener starts immediately; scoring endpoints answer 503 until the skill
vocabulary and embedder are loaded. If loading fails the server shuts down.

Semantic similarity uses the offline hashing embedder by default, which only
rewards shared wording. Set nlp.embedder to gemini for semantic sentence embeddings.

Available endpoints:
- POST   /api/resumes                     Upload a resume (multipart: file, user_id)
- POST   /api/resumes/{id}/analyze        Score a stored resume
- POST   /api/score                       Score resume text without storing it
- GET    /api/vocabulary                  Skill vocabulary (?label= to look one up)
- GET    /api/users/{user_id}/resumes     List a user's resumes
- GET    /api/resumes/{id}                Get a resume
- DELETE /api/resumes/{id}                Delete a resume
- POST   /api/resumes/{id}/optimize       Create an optimized version
- GET    /api/resumes/{id}/versions       Direct versions
- GET    /api/resumes/{id}/lineage        All descendant versions
- POST   /api/resumes/{id}/compare        Compare two versions
- POST   /api/resumes/{id}/quality-check  Quality audit
- POST   /api/resumes/{id}/explain-score  Explain the stored score
- POST   /api/resumes/{id}/interview-questions  Interview questions
- GET    /health, /stats

/health waits up to observability.healthCheck.timeout for the models to finish
loading before it reports the service as degraded.

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Flags win over the loaded configuration
	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	}
	for name, target := range overrides {
		if !cmd.Flags().Changed(name) {
			continue
		}
		value, err := cmd.Flags().GetString(name)
		if err != nil {
			return err
		}
		*target = value
	}

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxUploadSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, logger).Start(cmd.Context())
}

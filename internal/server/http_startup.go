package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"skillsnap/internal/config"
	"skillsnap/internal/observability"
	"skillsnap/internal/resume"
)

const shutdownTimeout = 30 * time.Second

// Start builds the runtime, loads models in the background and serves until ctx is cancelled.
// A model initialization failure stops the server.
func (s *Server) Start(ctx context.Context) error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	rt, err := resume.Open(ctx, s.AppConfig, s.Logger, om.GetMetrics())
	if err != nil {
		return fmt.Errorf("failed to initialize resume service: %w", err)
	}
	s.Runtime = rt
	defer func() {
		if err := rt.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close resume runtime")
		}
	}()

	modelsDone := rt.StartModels(ctx)

	httpServer := s.setupHTTPServer(om)

	if err := s.startAPIKeyWatcher(); err != nil {
		return err
	}

	if err := s.configureTLS(httpServer, om); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(ctx, httpServer, modelsDone)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(s.AppConfig, s.Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	mux := s.setupRoutes(om)
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      om.HTTPMiddleware()(mux),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startAPIKeyWatcher polls Vault for rotated API keys when vault.watch is enabled
func (s *Server) startAPIKeyWatcher() error {
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || !vaultCfg.Watch.Enabled || vaultCfg.Secrets.APIKeys == "" {
		return nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Vault client: %w", err)
	}

	watcher := NewVaultWatcher(client, vaultCfg.Secrets.APIKeys, vaultCfg.Watch.PollInterval,
		func(keys []string, err error) {
			if err != nil {
				s.Logger.Warn("Keeping current API keys", "reason", err.Error())
				return
			}
			n := s.APIKeys.Replace(keys)
			s.Logger.Info("API keys rotated from Vault", "count", n)
		}, s.Logger)

	if err := watcher.Prime(); err != nil {
		s.Logger.LogError(err, "Initial Vault API key check failed")
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start Vault API key watcher: %w", err)
	}
	s.APIKeyWatcher = watcher
	return nil
}

// startWithGracefulShutdown serves until ctx is done, the listener fails or model loading fails
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server, modelsDone <-chan error) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// certificates come from the certificate manager
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	for {
		select {
		case err := <-serverErrors:
			s.stopBackground()
			return fmt.Errorf("server failed to start: %w", err)
		case err, ok := <-modelsDone:
			if !ok {
				modelsDone = nil
				continue
			}
			if err != nil {
				s.Logger.LogError(err, "Model initialization failed, shutting down")
				if shutdownErr := s.performGracefulShutdown(server); shutdownErr != nil {
					return shutdownErr
				}
				return fmt.Errorf("model initialization failed: %w", err)
			}
			s.Logger.Info("Scoring endpoints are ready")
		case <-ctx.Done():
			s.Logger.Info("Received shutdown signal, starting graceful shutdown",
				"reason", context.Cause(ctx).Error())
			return s.performGracefulShutdown(server)
		}
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopBackground()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// stopBackground stops the certificate manager, the API key watcher and the rate limiter
func (s *Server) stopBackground() {
	if s.CertificateManager != nil {
		if err := s.CertificateManager.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate manager")
		}
	}
	if s.APIKeyWatcher != nil {
		if err := s.APIKeyWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop Vault API key watcher")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}

package server

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"skillsnap/internal/observability"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server, om *observability.ObservabilityManager) error {
	addr := httpServer.Addr

	switch s.TLSConfig.Mode {
	case "server":
		fmt.Printf("Starting server with HTTPS (server-only TLS) on https://%s\n", addr)
		fmt.Println("TLS mode: Server-only (no client certificates required)")
	case "mutual":
		fmt.Printf("Starting server with mTLS (mutual TLS) on https://%s\n", addr)
		fmt.Println("TLS mode: Mutual (client certificates required)")
	case "disabled", "":
		fmt.Printf("Starting server on http://%s\n", addr)
		fmt.Println("TLS mode: Disabled (HTTP only)")
		return nil
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	if err := s.setupCertificateManager(om); err != nil {
		return err
	}

	tlsConfig, err := s.buildTLSConfig()
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig
	return nil
}

// setupCertificateManager loads the certificates and starts watching them when auto-reload is on
func (s *Server) setupCertificateManager(om *observability.ObservabilityManager) error {
	certManager := NewCertificateManager(&s.TLSConfig, om.GetMetrics(), s.Logger)
	if err := certManager.Start(); err != nil {
		return fmt.Errorf("failed to start certificate manager: %w", err)
	}
	s.CertificateManager = certManager

	certManager.AddReloadCallback(func(success bool, err error) {
		if success {
			s.Logger.Info("TLS certificates reloaded successfully")
		}
	})

	if s.TLSConfig.AutoReload.Enabled {
		fmt.Println("TLS auto-reload: ENABLED (file watching)")
	}
	return nil
}

// buildTLSConfig creates the TLS configuration served by the certificate manager
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:     minTLSVersion(s.TLSConfig.MinVersion),
		CipherSuites:   cipherSuites(s.TLSConfig.CipherSuites),
		GetCertificate: s.CertificateManager.GetServerCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if s.TLSConfig.Mode == "mutual" {
		pool := s.CertificateManager.GetCACertPool()
		if pool == nil {
			return nil, fmt.Errorf("CA certificate is required for mutual TLS mode")
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
		tlsConfig.GetConfigForClient = s.CertificateManager.ConfigForClient(tlsConfig)
	}

	return tlsConfig, nil
}

func minTLSVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// cipherSuites maps configured names to IDs, skipping unknown names
func cipherSuites(names []string) []uint16 {
	if len(names) == 0 {
		return nil
	}
	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		if id := getCipherSuiteID(name); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// clientAuthPolicy returns the appropriate client authentication policy
func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

// getCipherSuiteID returns the cipher suite ID for a given name
func getCipherSuiteID(name string) uint16 {
	for _, suite := range tls.CipherSuites() {
		if suite.Name == name {
			return suite.ID
		}
	}
	return 0
}

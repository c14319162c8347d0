package config

import "fmt"

// pemSource names one PEM input that may come from a file or from inline content.
type pemSource struct {
	field, file, content string
}

func (p pemSource) present() bool { return p.file != "" || p.content != "" }

func (p pemSource) ambiguous() error {
	if p.file != "" && p.content != "" {
		return fmt.Errorf("cannot specify both %sFile and %sContent - choose one", p.field, p.field)
	}
	return nil
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS
	cert := pemSource{"cert", tls.CertFile, tls.CertContent}
	key := pemSource{"key", tls.KeyFile, tls.KeyContent}
	ca := pemSource{"ca", tls.CAFile, tls.CAContent}

	switch tls.Mode {
	case "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	if !cert.present() || !key.present() {
		return fmt.Errorf("TLS certificate and key are required for %s mode (provide either files or content)", tls.Mode)
	}
	sources := []pemSource{cert, key}

	if tls.Mode == "mutual" {
		if !ca.present() {
			return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
		}
		sources = append(sources, ca)

		switch tls.ClientAuthPolicy {
		case "require", "request", "verify", "": // empty defaults to require
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	}

	for _, s := range sources {
		if err := s.ambiguous(); err != nil {
			return err
		}
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

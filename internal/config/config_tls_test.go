package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name     string
		tls      TLSConfig
		errorMsg string
	}{
		{
			name: "disabled mode",
			tls:  TLSConfig{Mode: "disabled", MinVersion: "0.9"},
		},
		{
			name: "server mode with files",
			tls:  TLSConfig{Mode: "server", CertFile: "/path/to/cert.pem", KeyFile: "/path/to/key.pem", MinVersion: "1.2"},
		},
		{
			name: "mutual mode with vault content",
			tls: TLSConfig{Mode: "mutual", CertContent: "cert", KeyContent: "key", CAContent: "ca",
				ClientAuthPolicy: "require", MinVersion: "1.3"},
		},
		{
			name: "mutual mode with empty policy",
			tls:  TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k", CAFile: "ca"},
		},
		{
			name:     "invalid mode",
			tls:      TLSConfig{Mode: "invalid", CertFile: "c", KeyFile: "k"},
			errorMsg: "invalid TLS mode: invalid",
		},
		{
			name:     "server mode missing key",
			tls:      TLSConfig{Mode: "server", CertFile: "c"},
			errorMsg: "TLS certificate and key are required for server mode",
		},
		{
			name:     "mutual mode missing certificates",
			tls:      TLSConfig{Mode: "mutual", CAFile: "ca"},
			errorMsg: "TLS certificate and key are required for mutual mode",
		},
		{
			name:     "mutual mode missing CA",
			tls:      TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k"},
			errorMsg: "CA certificate is required for mutual TLS mode",
		},
		{
			name:     "cert from file and content",
			tls:      TLSConfig{Mode: "server", CertFile: "c", CertContent: "c", KeyFile: "k"},
			errorMsg: "cannot specify both certFile and certContent",
		},
		{
			name:     "key from file and content",
			tls:      TLSConfig{Mode: "server", CertFile: "c", KeyFile: "k", KeyContent: "k"},
			errorMsg: "cannot specify both keyFile and keyContent",
		},
		{
			name:     "CA from file and content",
			tls:      TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k", CAFile: "ca", CAContent: "ca"},
			errorMsg: "cannot specify both caFile and caContent",
		},
		{
			name:     "invalid client auth policy",
			tls:      TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k", CAFile: "ca", ClientAuthPolicy: "optional"},
			errorMsg: "invalid clientAuthPolicy: optional",
		},
		{
			name:     "invalid version",
			tls:      TLSConfig{Mode: "server", CertFile: "c", KeyFile: "k", MinVersion: "1.0"},
			errorMsg: "invalid TLS minVersion: 1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Config{Server: ServerConfig{TLS: tt.tls}}
			err := config.ValidateTLSConfig()

			if tt.errorMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

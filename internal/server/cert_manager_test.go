package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsnap/internal/config"
)

// writeSelfSigned writes a self-signed certificate and key valid for validFor into dir
func writeSelfSigned(t *testing.T, dir string, validFor time.Duration) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(validFor),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestCertificateManagerReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, 30*24*time.Hour)

	cm := NewCertificateManager(&config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, nil)
	require.NoError(t, cm.Start())
	t.Cleanup(func() { _ = cm.Stop() })

	expiry, err := cm.CheckExpiry()
	require.NoError(t, err)
	assert.InDelta(t, (30 * 24 * time.Hour).Hours(), expiry.Hours(), 1)

	cert, err := cm.GetServerCertificate(nil)
	require.NoError(t, err)
	require.NotNil(t, cert.Leaf)
	assert.Nil(t, cm.GetCACertPool())

	writeSelfSigned(t, dir, 2*time.Hour)
	require.NoError(t, cm.ReloadCertificates())
	expiry, err = cm.CheckExpiry()
	require.NoError(t, err)
	assert.Less(t, expiry, 3*time.Hour)

	metrics := cm.GetMetrics()
	assert.Equal(t, int64(2), metrics.ReloadCount)
	assert.Equal(t, int64(2), metrics.ReloadSuccessCount)
	assert.True(t, metrics.LastReloadSuccess)
}

func TestCertificateManagerKeepsCertificateOnFailedReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, 48*time.Hour)

	cm := NewCertificateManager(&config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, nil)
	require.NoError(t, cm.Start())
	t.Cleanup(func() { _ = cm.Stop() })

	before, err := cm.GetServerCertificate(nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(certFile, []byte("garbage"), 0o600))
	require.Error(t, cm.ReloadCertificates())

	after, err := cm.GetServerCertificate(nil)
	require.NoError(t, err)
	assert.Same(t, before, after)

	metrics := cm.GetMetrics()
	assert.Equal(t, int64(1), metrics.ReloadFailureCount)
	assert.False(t, metrics.LastReloadSuccess)
	assert.NotEmpty(t, metrics.LastReloadError)
}

func TestCertificateManagerMissingCertificate(t *testing.T) {
	cm := NewCertificateManager(&config.TLSConfig{Mode: "server"}, nil, nil)
	require.Error(t, cm.Start())

	_, err := cm.CheckExpiry()
	assert.Error(t, err)
}

func TestBuildTLSConfigMutual(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, 30*24*time.Hour)

	tlsCfg := config.TLSConfig{
		Mode:             "mutual",
		CertFile:         certFile,
		KeyFile:          keyFile,
		CAFile:           certFile,
		MinVersion:       "1.3",
		ClientAuthPolicy: "verify",
	}
	s := NewServer(&config.Config{}, ServerConfig{TLSConfig: tlsCfg}, nil)
	s.CertificateManager = NewCertificateManager(&s.TLSConfig, nil, nil)
	require.NoError(t, s.CertificateManager.Start())
	t.Cleanup(func() { _ = s.CertificateManager.Stop() })

	got, err := s.buildTLSConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS13), got.MinVersion)
	assert.Equal(t, tls.VerifyClientCertIfGiven, got.ClientAuth)
	assert.NotNil(t, got.ClientCAs)

	perClient, err := got.GetConfigForClient(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	assert.NotNil(t, perClient.ClientCAs)
	assert.Nil(t, perClient.GetConfigForClient)
}

func TestMutualModeRequiresCA(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, time.Hour)

	cm := NewCertificateManager(&config.TLSConfig{Mode: "mutual", CertFile: certFile, KeyFile: keyFile}, nil, nil)
	err := cm.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CA certificate is required")
}

func TestCipherSuites(t *testing.T) {
	ids := cipherSuites([]string{"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256", "NOT_A_SUITE"})
	assert.Equal(t, []uint16{tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256}, ids)
	assert.Nil(t, cipherSuites(nil))
	assert.Equal(t, uint16(tls.VersionTLS12), minTLSVersion(""))
}

func TestCertificateManagerAutoReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, 30*24*time.Hour)

	cfg := &config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}
	cfg.AutoReload.Enabled = true
	cfg.AutoReload.DebounceDelay = 50 * time.Millisecond

	cm := NewCertificateManager(cfg, nil, nil)
	require.NoError(t, cm.Start())
	t.Cleanup(func() { _ = cm.Stop() })

	status := cm.Status()
	assert.Equal(t, true, status["file_watcher_running"])
	assert.ElementsMatch(t, []string{certFile, keyFile}, status["watched_files"])

	writeSelfSigned(t, dir, 2*time.Hour)
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(certFile, later, later))

	assert.Eventually(t, func() bool {
		expiry, err := cm.CheckExpiry()
		return err == nil && expiry < 3*time.Hour
	}, 5*time.Second, 20*time.Millisecond)
}

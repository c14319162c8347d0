package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"skillsnap/internal/config"
	"skillsnap/internal/errors"
	"skillsnap/internal/observability"
)

const expiryReportInterval = time.Minute

// CertificateManager holds the serving certificate and client CA pool and swaps them when the
// files change on disk.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert       *tls.Certificate
	caCertPool       *x509.CertPool
	serverCertExpiry time.Time
	lastReloadTime   time.Time

	fileWatcher *CertWatcher

	config  *config.TLSConfig
	metrics *observability.Metrics
	logger  *errors.Logger

	reloadCallbacks []ReloadCallback

	reloadCount        int64
	reloadSuccessCount int64
	reloadFailureCount int64
	lastReloadSuccess  bool
	lastReloadError    string

	stopChan chan struct{}
	stopOnce sync.Once
}

// ReloadCallback is called when certificates are reloaded
type ReloadCallback func(success bool, err error)

// CertificateMetrics holds metrics about certificate operations
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

// NewCertificateManager creates a new certificate manager
func NewCertificateManager(tlsConfig *config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) *CertificateManager {
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &CertificateManager{
		config:   tlsConfig,
		metrics:  metrics,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start loads the certificates and, when auto-reload is enabled for file-based certificates,
// starts watching them.
func (cm *CertificateManager) Start() error {
	if err := cm.ReloadCertificates(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	go cm.expiryLoop()

	if !cm.config.AutoReload.Enabled || !cm.usesFiles() {
		return nil
	}

	cm.fileWatcher = NewCertWatcher(
		[]string{cm.config.CertFile, cm.config.KeyFile, cm.config.CAFile},
		cm.config.AutoReload.DebounceDelay,
		cm.triggerReload,
		cm.logger,
	)
	if err := cm.fileWatcher.Start(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	return nil
}

// Stop stops the file watcher and the expiry reporter
func (cm *CertificateManager) Stop() error {
	cm.stopOnce.Do(func() { close(cm.stopChan) })
	if cm.fileWatcher != nil {
		return cm.fileWatcher.Stop()
	}
	return nil
}

// GetServerCertificate returns the current server certificate for TLS handshakes
func (cm *CertificateManager) GetServerCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cm.serverCert, nil
}

// GetCACertPool returns the current CA certificate pool
func (cm *CertificateManager) GetCACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// ConfigForClient returns a GetConfigForClient hook that serves base with the current client CA
// pool, so a reloaded CA applies to new handshakes.
func (cm *CertificateManager) ConfigForClient(base *tls.Config) func(*tls.ClientHelloInfo) (*tls.Config, error) {
	return func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := base.Clone()
		cfg.GetConfigForClient = nil
		if pool := cm.GetCACertPool(); pool != nil {
			cfg.ClientCAs = pool
		}
		return cfg, nil
	}
}

// AddReloadCallback adds a callback to be called when certificates are reloaded
func (cm *CertificateManager) AddReloadCallback(callback ReloadCallback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.reloadCallbacks = append(cm.reloadCallbacks, callback)
}

// CheckExpiry returns the time until the server certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.serverCertExpiry.IsZero() {
		return 0, fmt.Errorf("no server certificate loaded")
	}
	return time.Until(cm.serverCertExpiry), nil
}

// GetMetrics returns certificate management metrics
func (cm *CertificateManager) GetMetrics() *CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return &CertificateMetrics{
		ReloadCount:        cm.reloadCount,
		ReloadSuccessCount: cm.reloadSuccessCount,
		ReloadFailureCount: cm.reloadFailureCount,
		LastReloadTime:     cm.lastReloadTime,
		LastReloadSuccess:  cm.lastReloadSuccess,
		LastReloadError:    cm.lastReloadError,
	}
}

// Status describes auto-reload state for the health endpoint
func (cm *CertificateManager) Status() map[string]any {
	m := cm.GetMetrics()
	status := map[string]any{
		"enabled":              cm.config.AutoReload.Enabled,
		"reload_count":         m.ReloadCount,
		"reload_success_count": m.ReloadSuccessCount,
		"reload_failure_count": m.ReloadFailureCount,
		"last_reload_time":     m.LastReloadTime,
		"last_reload_success":  m.LastReloadSuccess,
	}
	if m.LastReloadError != "" {
		status["last_reload_error"] = m.LastReloadError
	}
	if cm.fileWatcher != nil {
		status["file_watcher_running"] = cm.fileWatcher.IsRunning()
		status["watched_files"] = cm.fileWatcher.GetWatchedFiles()
	}
	return status
}

// ReloadCertificates reads the certificates again and swaps them in. On failure the previous
// certificates stay in place.
func (cm *CertificateManager) ReloadCertificates() error {
	cert, expiry, err := cm.loadServerCertificate()
	if err == nil {
		var pool *x509.CertPool
		if pool, err = cm.loadCACertPool(); err == nil {
			cm.mu.Lock()
			cm.serverCert = cert
			cm.serverCertExpiry = expiry
			cm.caCertPool = pool
			cm.mu.Unlock()
		}
	}

	cm.recordReload(err, expiry)
	if err != nil {
		cm.logger.LogError(err, "Failed to reload certificates")
		return err
	}
	cm.logger.Info("Certificates loaded", "server_cert_expiry", expiry)
	return nil
}

func (cm *CertificateManager) usesFiles() bool {
	return cm.config.CertFile != "" || cm.config.KeyFile != "" || cm.config.CAFile != ""
}

// loadServerCertificate loads the key pair from content or files and reads its expiry
func (cm *CertificateManager) loadServerCertificate() (*tls.Certificate, time.Time, error) {
	var (
		cert tls.Certificate
		err  error
	)
	switch {
	case cm.config.CertContent != "" && cm.config.KeyContent != "":
		cert, err = tls.X509KeyPair([]byte(cm.config.CertContent), []byte(cm.config.KeyContent))
	case cm.config.CertFile != "" && cm.config.KeyFile != "":
		cert, err = tls.LoadX509KeyPair(cm.config.CertFile, cm.config.KeyFile)
	default:
		return nil, time.Time{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load server certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf
	return &cert, leaf.NotAfter, nil
}

// loadCACertPool loads the client CA for mutual TLS. Other modes have no pool.
func (cm *CertificateManager) loadCACertPool() (*x509.CertPool, error) {
	if cm.config.Mode != "mutual" {
		return nil, nil
	}

	var caCert []byte
	switch {
	case cm.config.CAContent != "":
		caCert = []byte(cm.config.CAContent)
	case cm.config.CAFile != "":
		var err error
		if caCert, err = os.ReadFile(cm.config.CAFile); err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}

// recordReload updates counters, exports the reload metric and notifies callbacks
func (cm *CertificateManager) recordReload(err error, expiry time.Time) {
	cm.mu.Lock()
	cm.reloadCount++
	cm.lastReloadTime = time.Now()
	cm.lastReloadSuccess = err == nil
	if err == nil {
		cm.reloadSuccessCount++
		cm.lastReloadError = ""
	} else {
		cm.reloadFailureCount++
		cm.lastReloadError = err.Error()
	}
	callbacks := append([]ReloadCallback(nil), cm.reloadCallbacks...)
	cm.mu.Unlock()

	cm.metrics.RecordCertReload(context.Background(), err == nil, expiry)
	for _, callback := range callbacks {
		go callback(err == nil, err)
	}
}

// triggerReload is the file watcher callback
func (cm *CertificateManager) triggerReload() {
	cm.logger.Info("Certificate reload triggered by file watcher")
	_ = cm.ReloadCertificates()
}

// expiryLoop refreshes the expiry gauge so it counts down between reloads
func (cm *CertificateManager) expiryLoop() {
	ticker := time.NewTicker(expiryReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cm.mu.RLock()
			expiry := cm.serverCertExpiry
			cm.mu.RUnlock()
			if !expiry.IsZero() {
				cm.metrics.CertExpiryTime.Record(context.Background(), time.Until(expiry).Seconds())
			}
		case <-cm.stopChan:
			return
		}
	}
}

package server

import (
	"fmt"
	"sync"
	"time"

	"skillsnap/internal/config"
	"skillsnap/internal/errors"
)

// apiKeysSecretField is the comma-separated key list inside the API key secret
const apiKeysSecretField = "keys"

// VaultClientInterface defines the interface for Vault operations
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// APIKeysCallback receives the key list of a new secret version, or the error that prevented
// reading it.
type APIKeysCallback func(keys []string, err error)

// VaultWatcher polls the API key secret and reports new versions. The version read at startup
// is recorded by Prime so the first poll does not reinstall the same keys.
type VaultWatcher struct {
	mu sync.RWMutex

	client       VaultClientInterface
	secretPath   string
	pollInterval time.Duration
	onChange     APIKeysCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastCheck   time.Time
	lastError   string
}

// NewVaultWatcher creates a new VaultWatcher
func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, onChange APIKeysCallback, logger *errors.Logger) *VaultWatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onChange:     onChange,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Prime records the current secret version without invoking the callback.
func (vw *VaultWatcher) Prime() error {
	_, err := vw.checkForUpdates()
	return err
}

// Start begins polling Vault for secret changes
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	vw.running = true
	go vw.pollLoop()
	if vw.logger != nil {
		vw.logger.Info("Vault API key watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	}
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	if vw.logger != nil {
		vw.logger.Info("Vault API key watcher stopped")
	}
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll runs one check and hands new keys, or the read error, to the callback
func (vw *VaultWatcher) poll() {
	changed, err := vw.checkForUpdates()
	if err != nil {
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to check Vault for updates")
		}
		return
	}
	if !changed {
		return
	}

	keys, err := vw.fetchAPIKeys()
	if err != nil {
		vw.recordError(err)
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to fetch API keys from Vault")
		}
		vw.onChange(nil, err)
		return
	}
	if vw.logger != nil {
		vw.logger.Info("API key secret changed in Vault", "count", len(keys))
	}
	vw.onChange(keys, nil)
}

// checkForUpdates checks if the Vault secret version has changed
func (vw *VaultWatcher) checkForUpdates() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	vw.mu.Lock()
	defer vw.mu.Unlock()
	vw.lastCheck = time.Now()
	if err != nil {
		vw.lastError = err.Error()
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		vw.lastError = "secret not found"
		return false, fmt.Errorf("secret not found at path: %s", vw.secretPath)
	}
	vw.lastError = ""
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return true, nil
	}
	return false, nil
}

// fetchAPIKeys reads the comma-separated key list from the secret
func (vw *VaultWatcher) fetchAPIKeys() ([]string, error) {
	keys, err := vw.client.GetStringSliceSecret(vw.secretPath, apiKeysSecretField)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch API keys from vault: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("secret %s holds no API keys", vw.secretPath)
	}
	return keys, nil
}

func (vw *VaultWatcher) recordError(err error) {
	vw.mu.Lock()
	vw.lastError = err.Error()
	vw.mu.Unlock()
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	status := map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
	if !vw.lastCheck.IsZero() {
		status["last_check"] = vw.lastCheck
	}
	if vw.lastError != "" {
		status["last_error"] = vw.lastError
	}
	return status
}

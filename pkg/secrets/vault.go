// Package secrets resolves sensitive configuration values (JWT signing key,
// database password) from HashiCorp Vault when available, falling back to
// environment variables otherwise.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"university-chat/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

// Common errors
var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrNoVaultToken   = errors.New("no vault token provided")
)

// VaultConfig holds configuration for the Vault client
type VaultConfig struct {
	Address     string
	Token       string
	Namespace   string
	SecretsPath string
	Enabled     bool
}

// Manager resolves secrets with an in-memory cache. When Vault is disabled
// (or a key is missing there) it reads the matching environment variable.
type Manager struct {
	client   *vault.Client
	config   VaultConfig
	cache    map[string]string
	mu       sync.RWMutex
	log      *logger.Logger
	cacheTTL time.Duration
}

// NewManager creates a secrets manager from VAULT_* environment variables.
// Without VAULT_ADDR the manager is env-only, which is the development default.
func NewManager(log *logger.Logger) (*Manager, error) {
	config := VaultConfig{
		Address:     os.Getenv("VAULT_ADDR"),
		Token:       os.Getenv("VAULT_TOKEN"),
		Namespace:   os.Getenv("VAULT_NAMESPACE"),
		SecretsPath: os.Getenv("VAULT_SECRETS_PATH"),
		Enabled:     os.Getenv("VAULT_ADDR") != "",
	}

	m := &Manager{
		config:   config,
		cache:    make(map[string]string),
		log:      log.WithComponent("secrets"),
		cacheTTL: 5 * time.Minute,
	}

	if !config.Enabled {
		return m, nil
	}

	if config.Token == "" {
		return nil, ErrNoVaultToken
	}
	if config.SecretsPath == "" {
		config.SecretsPath = "university-chat"
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = config.Address
	vaultConfig.Timeout = 10 * time.Second

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(config.Token)
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	m.client = client
	m.config = config

	go m.expireCache()

	return m, nil
}

// GetSecret retrieves a secret, preferring Vault over the environment
func (m *Manager) GetSecret(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	cached, found := m.cache[key]
	m.mu.RUnlock()
	if found {
		return cached, nil
	}

	if m.client != nil {
		value, err := m.getFromVault(ctx, key)
		if err == nil {
			m.store(key, value)
			return value, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			return "", err
		}
		m.log.Warn("secret not in vault, falling back to environment", "key", key)
	}

	return m.getFromEnvironment(key)
}

// GetSecretWithDefault retrieves a secret with a default when unresolvable
func (m *Manager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (m *Manager) getFromVault(ctx context.Context, key string) (string, error) {
	secret, err := m.client.KVv2("secret").Get(ctx, m.config.SecretsPath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	value, ok := secret.Data[key].(string)
	if !ok {
		return "", ErrSecretNotFound
	}

	return value, nil
}

func (m *Manager) getFromEnvironment(key string) (string, error) {
	envKey := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))

	value := os.Getenv(envKey)
	if value == "" {
		return "", ErrSecretNotFound
	}

	m.store(key, value)
	return value, nil
}

func (m *Manager) store(key, value string) {
	m.mu.Lock()
	m.cache[key] = value
	m.mu.Unlock()
}

// expireCache periodically clears cached secrets to pick up rotations
func (m *Manager) expireCache() {
	ticker := time.NewTicker(m.cacheTTL)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		m.cache = make(map[string]string)
		m.mu.Unlock()
	}
}

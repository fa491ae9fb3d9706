// Package vault wraps HashiCorp Vault's KV engine to store the three
// external API keys this backend depends on: the quotes provider, the
// exchange account credentials, and the AI provider — instead of
// holding them in plain environment variables.
package vault

import (
	"context"
	"fmt"
	"sync"

	"binance-trading-bot/config"

	"github.com/hashicorp/vault/api"
)

// Secret is one named credential bundle stored under a service key
// (e.g. "quotes", "exchange", "ai").
type Secret struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// Client wraps the HashiCorp Vault client with an in-memory cache and
// a disabled-vault fallback for local development.
type Client struct {
	client       *api.Client
	config       config.VaultConfig
	mu           sync.RWMutex
	cache        map[string]*Secret
	cacheEnabled bool
}

func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config:       cfg,
			cache:        make(map[string]*Secret),
			cacheEnabled: true,
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{CACert: cfg.CACert}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{
		client:       client,
		config:       cfg,
		cache:        make(map[string]*Secret),
		cacheEnabled: true,
	}, nil
}

// StoreSecret stores the credential bundle for a named service
// ("quotes", "exchange", "ai").
func (c *Client) StoreSecret(ctx context.Context, service string, secret Secret) error {
	if !c.config.Enabled {
		c.mu.Lock()
		c.cache[service] = &secret
		c.mu.Unlock()
		return nil
	}

	path := c.secretPath(service)
	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"api_key":    secret.APIKey,
			"api_secret": secret.APISecret,
		},
	}

	if _, err := c.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		return fmt.Errorf("failed to store secret in vault: %w", err)
	}

	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[service] = &secret
		c.mu.Unlock()
	}

	return nil
}

// GetSecret retrieves the credential bundle for a named service.
func (c *Client) GetSecret(ctx context.Context, service string) (*Secret, error) {
	if c.cacheEnabled {
		c.mu.RLock()
		if cached, ok := c.cache[service]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()
	}

	if !c.config.Enabled {
		return nil, fmt.Errorf("secret %q not found and vault is disabled", service)
	}

	path := c.secretPath(service)
	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret %q not found", service)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format for %q", service)
	}

	result := &Secret{
		APIKey:    getString(data, "api_key"),
		APISecret: getString(data, "api_secret"),
	}

	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[service] = result
		c.mu.Unlock()
	}

	return result, nil
}

// ClearCache clears the in-memory secret cache.
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*Secret)
	c.mu.Unlock()
}

// IsEnabled returns whether Vault is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Health checks the Vault connection.
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().Health()
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}
	return nil
}

func (c *Client) secretPath(service string) string {
	return fmt.Sprintf("%s/data/%s/%s", c.config.MountPath, c.config.SecretPath, service)
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// NewMockClient creates a disabled-vault client for tests.
func NewMockClient() *Client {
	return &Client{
		config:       config.VaultConfig{Enabled: false},
		cache:        make(map[string]*Secret),
		cacheEnabled: true,
	}
}

package secrets

import (
	"context"
	"fmt"
	"time"

	"github.com/debitflow/sdd-reconciler/internal/adapters/ports"
	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// VaultConfig contains configuration for the HashiCorp Vault adapter
type VaultConfig struct {
	// Vault server address (e.g., "https://vault.example.com:8200")
	Address string

	// Authentication method: "token" or "approle"
	AuthMethod string

	// Token for token authentication
	Token string

	// AppRole credentials (if using AppRole auth)
	RoleID   string
	SecretID string

	// Vault namespace (Vault Enterprise)
	Namespace string

	// KV v2 secrets engine mount path (default: "secret")
	MountPath string

	// Key inside the KV entry holding the secret value (default: "value")
	ValueKey string

	// Cache TTL
	CacheTTL time.Duration

	// Enable caching
	EnableCache bool
}

// DefaultVaultConfig returns default configuration for the Vault adapter
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:     address,
		AuthMethod:  "token",
		MountPath:   "secret",
		ValueKey:    "value",
		CacheTTL:    5 * time.Minute,
		EnableCache: true,
	}
}

// vaultSecretSource implements the SecretSource port for HashiCorp Vault (KV v2)
type vaultSecretSource struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger
	cache  *secretCache
}

// NewVaultSecretSource creates a new HashiCorp Vault secret source
func NewVaultSecretSource(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (ports.SecretSource, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault secret source initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
	)

	return &vaultSecretSource{
		client: client,
		config: cfg,
		logger: logger,
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}, nil
}

// authenticateVault handles authentication with Vault
func authenticateVault(ctx context.Context, client *vault.Client, cfg *VaultConfig) error {
	switch cfg.AuthMethod {
	case "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		data := map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", data)
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret retrieves a secret from the KV v2 engine.
// Path is relative to the mount, e.g. "sdd-reconciler/gateway".
func (v *vaultSecretSource) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := v.cache.get(path); cached != nil {
		v.logger.Debug("Secret retrieved from cache", zap.String("path", path))
		return cached, nil
	}

	kv := v.client.KVv2(v.config.MountPath)

	kvSecret, err := kv.Get(ctx, path)
	if err != nil {
		v.logger.Error("Failed to read secret from Vault",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get secret %s: %w", path, err)
	}

	raw, ok := kvSecret.Data[v.config.ValueKey]
	if !ok {
		return nil, fmt.Errorf("secret %s has no %q key", path, v.config.ValueKey)
	}
	value, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("secret %s key %q is not a string", path, v.config.ValueKey)
	}

	secret := &ports.Secret{
		Value:    value,
		Metadata: make(map[string]string),
	}
	if kvSecret.VersionMetadata != nil {
		secret.Version = fmt.Sprintf("%d", kvSecret.VersionMetadata.Version)
		secret.CreatedAt = kvSecret.VersionMetadata.CreatedTime.Format(time.RFC3339)
	}

	v.logger.Info("Secret retrieved from Vault", zap.String("path", path))

	v.cache.set(path, secret)

	return secret, nil
}

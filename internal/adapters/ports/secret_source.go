package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., the gateway shared secret)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretSource defines the port for retrieving secrets from a secret backend.
// Supported backends: environment variables (development), AWS Secrets Manager,
// HashiCorp Vault. Implementations are responsible for authentication with the
// backend and for caching with an appropriate TTL; callers read secrets once at
// startup and inject the values into the components that need them.
type SecretSource interface {
	// GetSecret retrieves a secret by its path/name.
	// Path format depends on the backend:
	//   - env:   the environment variable name
	//   - AWS:   "sdd-reconciler/gateway/secret"
	//   - Vault: "sdd-reconciler/gateway" with the value under the "secret" key
	// Returns an error if the secret does not exist, permissions are
	// insufficient, or the backend is unreachable.
	GetSecret(ctx context.Context, path string) (*Secret, error)
}

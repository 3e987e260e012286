package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/debitflow/sdd-reconciler/internal/adapters/ports"
	"go.uber.org/zap"
)

// envSecretSource implements SecretSource by reading environment variables.
// WARNING: development/default only. Use AWS Secrets Manager or Vault in production.
type envSecretSource struct {
	logger *zap.Logger
}

// NewEnvSecretSource creates a secret source backed by process environment variables
func NewEnvSecretSource(logger *zap.Logger) ports.SecretSource {
	logger.Warn("Using environment variable secret source - not recommended for production")
	return &envSecretSource{logger: logger}
}

// GetSecret reads the environment variable named by path
func (s *envSecretSource) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	value := os.Getenv(path)
	if value == "" {
		return nil, fmt.Errorf("secret not found: environment variable %s is empty", path)
	}

	s.logger.Debug("Secret read from environment", zap.String("path", path))

	return &ports.Secret{
		Value:   value,
		Version: "v1",
	}, nil
}

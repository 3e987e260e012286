package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/debitflow/sdd-reconciler/internal/adapters/ports"
	"github.com/debitflow/sdd-reconciler/internal/adapters/secrets"
	"github.com/debitflow/sdd-reconciler/internal/config"
)

// resolveGatewaySecret returns the shared secret the gateway signs webhook
// notifications with. An inline GATEWAY_SHARED_SECRET takes precedence;
// otherwise the secret is fetched from the configured source.
//
// Environment variables:
//   - SECRET_SOURCE: "env", "aws" or "vault" (default: env)
//   - AWS_REGION: required when SECRET_SOURCE=aws
//   - VAULT_ADDR, VAULT_TOKEN (or VAULT_ROLE_ID/VAULT_SECRET_ID): required when SECRET_SOURCE=vault
func resolveGatewaySecret(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, error) {
	if cfg.Gateway.SharedSecret != "" {
		return cfg.Gateway.SharedSecret, nil
	}

	source, err := initSecretSource(ctx, logger)
	if err != nil {
		return "", err
	}

	secret, err := source.GetSecret(ctx, cfg.Gateway.SecretPath)
	if err != nil {
		return "", fmt.Errorf("fetch gateway secret %q: %w", cfg.Gateway.SecretPath, err)
	}

	return secret.Value, nil
}

// initSecretSource initializes the secret source selected by SECRET_SOURCE
func initSecretSource(ctx context.Context, logger *zap.Logger) (ports.SecretSource, error) {
	sourceType := os.Getenv("SECRET_SOURCE")
	if sourceType == "" {
		sourceType = "env"
	}

	switch sourceType {
	case "env":
		logger.Info("Using environment secret source")
		return secrets.NewEnvSecretSource(logger), nil

	case "aws":
		region := os.Getenv("AWS_REGION")
		if region == "" {
			return nil, fmt.Errorf("AWS_REGION is required when SECRET_SOURCE=aws")
		}

		awsCfg := secrets.DefaultAWSSecretsManagerConfig(region)
		awsCfg.Profile = os.Getenv("AWS_PROFILE")
		awsCfg.Endpoint = os.Getenv("AWS_SECRETS_ENDPOINT")

		source, err := secrets.NewAWSSecretsManagerSource(ctx, awsCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize AWS Secrets Manager: %w", err)
		}

		logger.Info("AWS Secrets Manager initialized", zap.String("region", region))
		return source, nil

	case "vault":
		address := os.Getenv("VAULT_ADDR")
		if address == "" {
			return nil, fmt.Errorf("VAULT_ADDR is required when SECRET_SOURCE=vault")
		}

		vaultCfg := secrets.DefaultVaultConfig(address)
		vaultCfg.Token = os.Getenv("VAULT_TOKEN")
		vaultCfg.Namespace = os.Getenv("VAULT_NAMESPACE")
		if mount := os.Getenv("VAULT_MOUNT_PATH"); mount != "" {
			vaultCfg.MountPath = mount
		}
		if roleID := os.Getenv("VAULT_ROLE_ID"); roleID != "" {
			vaultCfg.AuthMethod = "approle"
			vaultCfg.RoleID = roleID
			vaultCfg.SecretID = os.Getenv("VAULT_SECRET_ID")
		}

		source, err := secrets.NewVaultSecretSource(ctx, vaultCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize Vault secret source: %w", err)
		}

		logger.Info("Vault secret source initialized", zap.String("address", address))
		return source, nil

	default:
		return nil, fmt.Errorf("unknown SECRET_SOURCE %q (supported: env, aws, vault)", sourceType)
	}
}

// Package awssm reads secrets from AWS Secrets Manager. Elevated lookups can be
// routed to a second client that assumes an IAM role through STS.
package awssm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/alapierre/secret-helper/pkg/logging"
	"github.com/alapierre/secret-helper/pkg/secrets"
)

const (
	resourceNotFoundException = "ResourceNotFoundException"
	accessDeniedException     = "AccessDeniedException"

	elevatedSessionName = "secret-helper"
)

var (
	ErrNotFound     = errors.New("secret not found")
	ErrAccessDenied = errors.New("access denied")
)

var logger = logging.Component("pkg/secrets/awssm")

// SecretsManagerAPI is the part of the Secrets Manager client the store uses.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

type clientKey struct{}

// Store implements secrets.Source on top of Secrets Manager.
type Store struct {
	client SecretsManagerAPI
}

func NewStore(client SecretsManagerAPI) *Store {
	return &Store{client: client}
}

// NewFromConfig creates a store with a Secrets Manager client built from cfg.
func NewFromConfig(cfg aws.Config) *Store {
	return NewStore(newClient(cfg))
}

// LoadConfig loads the default AWS configuration. A non-empty endpoint points
// the clients at a local emulator such as LocalStack and uses static test
// credentials.
func LoadConfig(ctx context.Context, region, endpoint string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if endpoint != "" {
		if region == "" {
			opts = append(opts, config.WithRegion("us-east-1"))
		}
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}
	return cfg, nil
}

func newClient(cfg aws.Config) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(cfg)
}

// ElevateWith returns an Elevator that sends wrapped calls through client.
func ElevateWith(client SecretsManagerAPI) secrets.Elevator {
	return func(next secrets.GetValueFunc) secrets.GetValueFunc {
		return func(ctx context.Context, name string) (string, error) {
			return next(context.WithValue(ctx, clientKey{}, client), name)
		}
	}
}

// AssumeRoleElevator returns an Elevator whose calls use credentials obtained
// by assuming roleARN with the identity in cfg.
func AssumeRoleElevator(cfg aws.Config, roleARN string) secrets.Elevator {
	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), roleARN,
		func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = elevatedSessionName
		},
	)

	elevated := cfg.Copy()
	elevated.Credentials = aws.NewCredentialsCache(provider)
	logger.Debugf("Elevated lookups assume role %s", roleARN)
	return ElevateWith(newClient(elevated))
}

func (s *Store) GetSecretValue(ctx context.Context, name string) (string, error) {
	client := s.client
	if c, ok := ctx.Value(clientKey{}).(SecretsManagerAPI); ok {
		client = c
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", classify(name, err)
	}

	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	return string(out.SecretBinary), nil
}

func classify(name string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case resourceNotFoundException:
			return fmt.Errorf("%w: %s: %w", ErrNotFound, name, err)
		case accessDeniedException:
			return fmt.Errorf("%w: %s: %w", ErrAccessDenied, name, err)
		}
		return fmt.Errorf("secrets manager %s for %s: %s: %w", apiErr.ErrorCode(), name, apiErr.ErrorMessage(), err)
	}
	return fmt.Errorf("failed to get secret %s: %w", name, err)
}

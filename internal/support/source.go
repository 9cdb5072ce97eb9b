package support

import (
	"context"
	"fmt"

	"github.com/alapierre/secret-helper/pkg/cache"
	"github.com/alapierre/secret-helper/pkg/config"
	"github.com/alapierre/secret-helper/pkg/secrets"
	"github.com/alapierre/secret-helper/pkg/secrets/awssm"
)

// Configuration keys read by OpenSource and CoordinatorOptions.
const (
	KeyBackend           = config.EnvPrefix + "BACKEND"
	KeyCacheTTL          = config.EnvPrefix + "CACHE_TTL"
	KeyCheckPeriod       = config.EnvPrefix + "CHECK_PERIOD"
	KeyCoalesce          = config.EnvPrefix + "COALESCE"
	KeyEvictOnParseError = config.EnvPrefix + "EVICT_ON_PARSE_ERROR"
	KeyKeyringService    = config.EnvPrefix + "KEYRING_SERVICE"
	KeyHTTPURL           = config.EnvPrefix + "HTTP_URL"
	KeyHTTPToken         = config.EnvPrefix + "HTTP_TOKEN"
	KeyHTTPElevatedToken = config.EnvPrefix + "HTTP_ELEVATED_TOKEN"
	KeyAWSRegion         = config.EnvPrefix + "AWS_REGION"
	KeyAWSEndpoint       = config.EnvPrefix + "AWS_ENDPOINT"
	KeyAWSElevateRoleARN = config.EnvPrefix + "AWS_ELEVATE_ROLE_ARN"
	KeyMemoryPrefix      = config.EnvPrefix + "MEMORY_"
)

const (
	BackendMemory  = "memory"
	BackendKeyring = "keyring"
	BackendHTTP    = "http"
	BackendAWS     = "aws"
)

// Source is a configured platform store together with its elevation
// capability.
type Source struct {
	Backend  string
	Get      secrets.GetValueFunc
	Elevator secrets.Elevator
}

// OpenSource builds the store selected by SECRET_HELPER_BACKEND.
func OpenSource(ctx context.Context, cfg config.Config) (*Source, error) {
	backend := cfg.Get(KeyBackend, BackendKeyring)
	logger.Debugf("Using %s backend", backend)

	switch backend {
	case BackendMemory:
		store := secrets.NewMemoryStore(cfg.WithPrefix(KeyMemoryPrefix))
		return &Source{Backend: backend, Get: secrets.FromSource(store), Elevator: secrets.NoElevation}, nil

	case BackendKeyring:
		store := secrets.NewKeyringStore(cfg.Get(KeyKeyringService, secrets.DefaultKeyringService))
		return &Source{Backend: backend, Get: secrets.FromSource(store), Elevator: secrets.NoElevation}, nil

	case BackendHTTP:
		baseURL := cfg.Get(KeyHTTPURL, "")
		if baseURL == "" {
			return nil, fmt.Errorf("missing required configuration (%s)", KeyHTTPURL)
		}
		store := secrets.NewHTTPStore(baseURL, cfg.Get(KeyHTTPToken, ""), cfg.Get(KeyHTTPElevatedToken, ""))
		return &Source{Backend: backend, Get: secrets.FromSource(store), Elevator: store.Elevator()}, nil

	case BackendAWS:
		awsCfg, err := awssm.LoadConfig(ctx, cfg.Get(KeyAWSRegion, ""), cfg.Get(KeyAWSEndpoint, ""))
		if err != nil {
			return nil, err
		}
		src := &Source{
			Backend:  backend,
			Get:      secrets.FromSource(awssm.NewFromConfig(awsCfg)),
			Elevator: secrets.NoElevation,
		}
		if roleARN := cfg.Get(KeyAWSElevateRoleARN, ""); roleARN != "" {
			src.Elevator = awssm.AssumeRoleElevator(awsCfg, roleARN)
		}
		return src, nil
	}

	return nil, fmt.Errorf("unsupported backend: %s", backend)
}

// CoordinatorOptions translates the cache settings in cfg.
func CoordinatorOptions(cfg config.Config) []secrets.Option {
	return []secrets.Option{
		secrets.WithTTL(cfg.Duration(KeyCacheTTL, cache.DefaultTTL)),
		secrets.WithCheckPeriod(cfg.Duration(KeyCheckPeriod, cache.DefaultCheckPeriod)),
		secrets.WithCoalescing(cfg.Bool(KeyCoalesce, false)),
		secrets.WithEvictOnParseError(cfg.Bool(KeyEvictOnParseError, false)),
	}
}

// NewCoordinator opens the configured store and wraps it in a Coordinator.
// Extra options are applied after the configured ones.
func NewCoordinator(ctx context.Context, cfg config.Config, opts ...secrets.Option) (*secrets.Coordinator, *Source, error) {
	src, err := OpenSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	all := append(CoordinatorOptions(cfg), secrets.WithElevator(src.Elevator))
	all = append(all, opts...)
	return secrets.NewCoordinator(src.Get, all...), src, nil
}

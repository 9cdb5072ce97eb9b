package secrets

import "context"

// GetValueFunc fetches the current value of a secret from the platform store.
// An empty string means the store answered without a value.
type GetValueFunc func(ctx context.Context, name string) (string, error)

// Elevator wraps a GetValueFunc so that the wrapped call runs with elevated
// privilege. How the elevation happens is up to the implementation.
type Elevator func(GetValueFunc) GetValueFunc

// Source is implemented by the store adapters in this module.
type Source interface {
	GetSecretValue(ctx context.Context, name string) (string, error)
}

// FromSource adapts a Source to a GetValueFunc.
func FromSource(s Source) GetValueFunc {
	return s.GetSecretValue
}

// NoElevation returns fn unchanged. It is used when the store has no notion
// of elevated access.
func NoElevation(fn GetValueFunc) GetValueFunc {
	return fn
}

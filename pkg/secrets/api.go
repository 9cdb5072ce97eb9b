package secrets

import "context"

// RequestOption adjusts a Request built by the convenience getters.
type RequestOption func(*Request)

// WithCache enables (the default) or disables the cache lookup.
func WithCache(enabled bool) RequestOption {
	return func(r *Request) {
		r.DisableCache = !enabled
	}
}

// WithElevation enables (the default) or disables elevated access.
func WithElevation(enabled bool) RequestOption {
	return func(r *Request) {
		r.SkipElevation = !enabled
	}
}

// NewRequest builds a Request for name with the defaults applied.
func NewRequest(name string, parseJSON bool, opts ...RequestOption) Request {
	req := Request{Name: name, ParseJSON: parseJSON}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// GetSecretValue returns the secret as a string.
func (c *Coordinator) GetSecretValue(ctx context.Context, name string, opts ...RequestOption) (string, error) {
	v, err := c.Resolve(ctx, NewRequest(name, false, opts...))
	if err != nil {
		return "", err
	}
	return v.Raw, nil
}

// GetSecretJSON returns the secret decoded as JSON: map[string]any, []any,
// string, float64, bool or nil.
func (c *Coordinator) GetSecretJSON(ctx context.Context, name string, opts ...RequestOption) (any, error) {
	v, err := c.Resolve(ctx, NewRequest(name, true, opts...))
	if err != nil {
		return nil, err
	}
	return v.Parsed, nil
}

// GetSecretValueLegacy takes the lookup flags as positional arguments. It
// always fetches with elevated access and returns either a string or the
// decoded JSON value.
func (c *Coordinator) GetSecretValueLegacy(ctx context.Context, name string, parseJSON, cacheEnabled bool) (any, error) {
	v, err := c.Resolve(ctx, Request{
		Name:         name,
		ParseJSON:    parseJSON,
		DisableCache: !cacheEnabled,
	})
	if err != nil {
		return nil, err
	}
	if parseJSON {
		return v.Parsed, nil
	}
	return v.Raw, nil
}

// GetSecretAs decodes the secret into a T. The raw string is served from the
// cache like GetSecretValue; the decoded T itself is not cached.
func GetSecretAs[T any](ctx context.Context, c *Coordinator, name string, opts ...RequestOption) (T, error) {
	var out T
	raw, err := c.GetSecretValue(ctx, name, opts...)
	if err != nil {
		return out, err
	}
	if err := json.UnmarshalFromString(raw, &out); err != nil {
		c.metrics.ParseFailure()
		return out, newError("decode", name, ErrParse, err)
	}
	return out, nil
}

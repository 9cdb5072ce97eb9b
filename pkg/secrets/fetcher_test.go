package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alapierre/secret-helper/pkg/cache"
)

func TestFetcher_Fetch(t *testing.T) {
	raw := cache.New[string](RawCache, time.Minute, cache.WithCheckPeriod(0))
	store := NewMemoryStore(map[string]string{"API_KEY": "abc123"})
	f := NewFetcher(FromSource(store), nil, raw, nil)

	val, err := f.Fetch(context.Background(), "API_KEY", true)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if val != "abc123" {
		t.Errorf("Expected abc123, got %s", val)
	}
	if cached, ok := raw.Get("API_KEY"); !ok || cached != "abc123" {
		t.Errorf("Expected raw store to hold abc123, got %q (found %t)", cached, ok)
	}
}

func TestFetcher_Failures(t *testing.T) {
	unavailable := errors.New("store unavailable")
	get := func(_ context.Context, name string) (string, error) {
		if name == "BROKEN" {
			return "", unavailable
		}
		return "", nil
	}
	raw := cache.New[string](RawCache, time.Minute, cache.WithCheckPeriod(0))
	f := NewFetcher(get, nil, raw, nil)

	tests := []struct {
		name string
		kind error
	}{
		{"", ErrInvalidArgument},
		{"BROKEN", ErrFetch},
		{"UNSET", ErrEmptySecret},
	}

	for _, tt := range tests {
		_, err := f.Fetch(context.Background(), tt.name, false)
		if !errors.Is(err, tt.kind) {
			t.Errorf("Fetch(%q): expected %v, got %v", tt.name, tt.kind, err)
		}
		var serr *Error
		if !errors.As(err, &serr) {
			t.Errorf("Fetch(%q): expected *Error, got %T", tt.name, err)
		}
	}

	_, err := f.Fetch(context.Background(), "BROKEN", false)
	if !errors.Is(err, unavailable) {
		t.Errorf("Expected cause to be wrapped, got %v", err)
	}
	if raw.Len() != 0 {
		t.Errorf("Expected failures to leave the raw store empty, got %d entries", raw.Len())
	}
}

func TestFetcher_Elevation(t *testing.T) {
	var seen []string
	get := func(ctx context.Context, name string) (string, error) {
		mode, _ := ctx.Value(elevatedTokenKey{}).(string)
		seen = append(seen, mode)
		return "v", nil
	}
	elevator := func(next GetValueFunc) GetValueFunc {
		return func(ctx context.Context, name string) (string, error) {
			return next(context.WithValue(ctx, elevatedTokenKey{}, "elevated"), name)
		}
	}
	f := NewFetcher(get, elevator, nil, nil)

	if _, err := f.Fetch(context.Background(), "A", true); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "A", false); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(seen) != 2 || seen[0] != "elevated" || seen[1] != "" {
		t.Errorf("Expected [elevated \"\"], got %q", seen)
	}
}

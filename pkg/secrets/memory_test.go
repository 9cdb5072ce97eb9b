package secrets

import (
	"context"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	ss := NewMemoryStore(map[string]string{"API_KEY": "abc123"})

	val, err := ss.GetSecretValue(ctx, "API_KEY")
	if err != nil {
		t.Fatalf("GetSecretValue failed: %v", err)
	}
	if val != "abc123" {
		t.Errorf("Expected abc123, got %s", val)
	}

	ss.Set("OTHER", "val")
	val, _ = ss.GetSecretValue(ctx, "OTHER")
	if val != "val" {
		t.Errorf("Expected val, got %s", val)
	}

	ss.Delete("OTHER")
	val, err = ss.GetSecretValue(ctx, "OTHER")
	if err != nil {
		t.Fatalf("GetSecretValue failed: %v", err)
	}
	if val != "" {
		t.Errorf("Expected empty value for deleted secret, got %s", val)
	}
}

package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPStore(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer reader" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/secrets/API_KEY":
			w.Write([]byte(`{"value":"abc123"}`))
		case "/secrets/UNSET":
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	ctx := context.Background()
	h := NewHTTPStore(ts.URL+"/", "reader", "")

	val, err := h.GetSecretValue(ctx, "API_KEY")
	if err != nil {
		t.Fatalf("GetSecretValue failed: %v", err)
	}
	if val != "abc123" {
		t.Errorf("Expected abc123, got %s", val)
	}

	val, err = h.GetSecretValue(ctx, "UNSET")
	if err != nil {
		t.Fatalf("GetSecretValue failed: %v", err)
	}
	if val != "" {
		t.Errorf("Expected empty value, got %s", val)
	}

	if _, err := h.GetSecretValue(ctx, "MISSING"); err == nil {
		t.Error("Expected error for missing secret")
	}
}

func TestHTTPStore_Retry(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"value":"abc123"}`))
	}))
	defer ts.Close()

	h := NewHTTPStore(ts.URL, "", "")
	val, err := h.GetSecretValue(context.Background(), "API_KEY")
	if err != nil {
		t.Fatalf("GetSecretValue failed after retry: %v", err)
	}
	if val != "abc123" {
		t.Errorf("Expected abc123, got %s", val)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestHTTPStore_NoRetryOnForbidden(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	h := NewHTTPStore(ts.URL, "", "")
	h.MaxElapsedTime = time.Second
	if _, err := h.GetSecretValue(context.Background(), "API_KEY"); err == nil {
		t.Fatal("Expected error for forbidden secret")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestHTTPStore_Elevator(t *testing.T) {
	var tokens []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get("Authorization"))
		w.Write([]byte(`{"value":"abc123"}`))
	}))
	defer ts.Close()

	ctx := context.Background()
	h := NewHTTPStore(ts.URL, "reader", "admin")
	plain := FromSource(h)
	elevated := h.Elevator()(plain)

	if _, err := plain(ctx, "API_KEY"); err != nil {
		t.Fatalf("plain call failed: %v", err)
	}
	if _, err := elevated(ctx, "API_KEY"); err != nil {
		t.Fatalf("elevated call failed: %v", err)
	}

	if len(tokens) != 2 || tokens[0] != "Bearer reader" || tokens[1] != "Bearer admin" {
		t.Errorf("Expected [Bearer reader Bearer admin], got %v", tokens)
	}
}

package awssm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/alapierre/secret-helper/pkg/secrets"
)

type mockAPI struct {
	label  string
	values map[string]*secretsmanager.GetSecretValueOutput
	err    error
	calls  []string
}

func (m *mockAPI) GetSecretValue(
	_ context.Context,
	params *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	m.calls = append(m.calls, aws.ToString(params.SecretId))
	if m.err != nil {
		return nil, m.err
	}
	if out, ok := m.values[aws.ToString(params.SecretId)]; ok {
		return out, nil
	}
	return nil, &smithy.GenericAPIError{Code: resourceNotFoundException, Message: "Secret not found"}
}

func TestStore_GetSecretValue(t *testing.T) {
	api := &mockAPI{values: map[string]*secretsmanager.GetSecretValueOutput{
		"API_KEY": {SecretString: aws.String("abc123")},
		"CERT":    {SecretBinary: []byte("binary")},
		"EMPTY":   {},
	}}
	s := NewStore(api)

	tests := map[string]string{
		"API_KEY": "abc123",
		"CERT":    "binary",
		"EMPTY":   "",
	}
	for name, want := range tests {
		got, err := s.GetSecretValue(context.Background(), name)
		if err != nil {
			t.Fatalf("GetSecretValue(%s) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("GetSecretValue(%s): expected %q, got %q", name, want, got)
		}
	}
}

func TestStore_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", nil, ErrNotFound},
		{"access denied", &smithy.GenericAPIError{Code: accessDeniedException, Message: "Access denied"}, ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(&mockAPI{err: tt.err})
			_, err := s.GetSecretValue(context.Background(), "MISSING")
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			var apiErr smithy.APIError
			if !errors.As(err, &apiErr) {
				t.Error("Expected the API error to stay reachable")
			}
		})
	}

	s := NewStore(&mockAPI{err: &smithy.GenericAPIError{Code: "InvalidRequestException", Message: "bad"}})
	_, err := s.GetSecretValue(context.Background(), "X")
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected an unclassified error, got %v", err)
	}
}

func TestElevateWith(t *testing.T) {
	plain := &mockAPI{values: map[string]*secretsmanager.GetSecretValueOutput{
		"API_KEY": {SecretString: aws.String("plain")},
	}}
	elevated := &mockAPI{values: map[string]*secretsmanager.GetSecretValueOutput{
		"API_KEY": {SecretString: aws.String("elevated")},
	}}

	c := secrets.NewCoordinator(secrets.FromSource(NewStore(plain)),
		secrets.WithElevator(ElevateWith(elevated)),
		secrets.WithCheckPeriod(0),
	)
	ctx := context.Background()

	got, err := c.GetSecretValue(ctx, "API_KEY", secrets.WithCache(false))
	if err != nil {
		t.Fatalf("GetSecretValue failed: %v", err)
	}
	if got != "elevated" {
		t.Errorf("Expected elevated client by default, got %s", got)
	}

	got, err = c.GetSecretValue(ctx, "API_KEY", secrets.WithCache(false), secrets.WithElevation(false))
	if err != nil {
		t.Fatalf("GetSecretValue failed: %v", err)
	}
	if got != "plain" {
		t.Errorf("Expected plain client, got %s", got)
	}

	if len(plain.calls) != 1 || len(elevated.calls) != 1 {
		t.Errorf("Expected one call per client, got %d plain and %d elevated", len(plain.calls), len(elevated.calls))
	}
}

func TestAssumeRoleElevator(t *testing.T) {
	cfg := aws.Config{Region: "eu-central-1"}
	e := AssumeRoleElevator(cfg, "arn:aws:iam::123456789012:role/secret-reader")
	if e == nil {
		t.Fatal("Expected an elevator")
	}

	var seen SecretsManagerAPI
	next := func(ctx context.Context, _ string) (string, error) {
		seen, _ = ctx.Value(clientKey{}).(SecretsManagerAPI)
		return "", nil
	}
	e(next)(context.Background(), "API_KEY")
	if seen == nil {
		t.Error("Expected elevated client on the context")
	}
}

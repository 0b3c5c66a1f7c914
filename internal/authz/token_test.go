package authz

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	t.Setenv(secretEnvVariable, "unit-test-secret")
	ResetSecretForTests()
	defer ResetSecretForTests()

	token, err := GenerateToken("Lawyer@Firm.example", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	identity, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if identity.Email != "lawyer@firm.example" {
		t.Fatalf("expected normalized email, got %q", identity.Email)
	}

	if _, err := ParseAndValidate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := ParseAndValidate(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestGenerateTokenValidation(t *testing.T) {
	t.Setenv(secretEnvVariable, "unit-test-secret")
	ResetSecretForTests()
	defer ResetSecretForTests()

	if _, err := GenerateToken("", time.Minute); err == nil {
		t.Fatal("expected error for empty email")
	}
	if _, err := GenerateToken("a@b.example", 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	t.Setenv(secretEnvVariable, "")
	ResetSecretForTests()
	defer ResetSecretForTests()

	if _, err := GenerateToken("a@b.example", time.Minute); !errors.Is(err, errMissingSecret) {
		t.Fatalf("expected missing-secret error, got %v", err)
	}
}

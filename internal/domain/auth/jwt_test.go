package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, expiresAt, err := svc.GenerateAccessToken("u1", "alice", "alice@example.com", []string{"sales"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Error("expiry must be in the future")
	}

	user, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user.UserID != "u1" || user.Username != "alice" || user.Email != "alice@example.com" {
		t.Errorf("claims mismatch: %+v", user)
	}
	if len(user.Roles) != 1 || user.Roles[0] != "sales" {
		t.Errorf("roles mismatch: %v", user.Roles)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret-a"))
	token, _, err := svc.GenerateAccessToken("u1", "alice", "", nil)
	if err != nil {
		t.Fatal(err)
	}

	other := NewJWTService(DefaultJWTConfig("secret-b"))
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}
}

func TestTokenExpired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken("u1", "alice", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expired token must be rejected")
	}
}

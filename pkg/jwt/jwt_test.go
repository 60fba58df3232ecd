package jwt

import (
	"testing"
	"time"

	"staff-roster/config"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16-chars",
		AccessTokenTTL: ttl,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	mgr := newTestManager(15 * time.Minute)

	token, err := mgr.GenerateAccessToken("user-001", "manager")
	if err != nil {
		t.Fatalf("生成 Token 应成功: %v", err)
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 应成功: %v", err)
	}
	if claims.UserID != "user-001" {
		t.Errorf("期望 UserID=user-001，实际=%s", claims.UserID)
	}
	if claims.Role != "manager" {
		t.Errorf("期望 Role=manager，实际=%s", claims.Role)
	}
	if claims.ID == "" {
		t.Error("JWT ID 不应为空")
	}
}

func TestParseToken_Expired(t *testing.T) {
	mgr := newTestManager(-time.Minute)

	token, err := mgr.GenerateAccessToken("user-001", "staff")
	if err != nil {
		t.Fatalf("生成 Token 应成功: %v", err)
	}

	if _, err := mgr.ParseToken(token); err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	mgr := newTestManager(15 * time.Minute)
	other := NewManager(&config.AuthConfig{
		JWTSecret:      "another-secret-16-chars-min",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, err := mgr.GenerateAccessToken("user-001", "staff")
	if err != nil {
		t.Fatalf("生成 Token 应成功: %v", err)
	}

	if _, err := other.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	mgr := newTestManager(15 * time.Minute)

	if _, err := mgr.ParseToken("not.a.token"); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

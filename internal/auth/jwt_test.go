package auth

import (
	"strings"
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, exp, err := m.Sign("64b7f0c2a1b2c3d4e5f60718", "admin")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Errorf("expiry too early: %v", exp)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != "64b7f0c2a1b2c3d4e5f60718" || claims.Role != "admin" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, _ := NewTokenManager("one", time.Hour).Sign("u", "user")
	if _, err := NewTokenManager("two", time.Hour).Parse(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, _ := m.Sign("u", "user")
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	if _, err := m.Parse("not.a.token"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := m.Parse(strings.Repeat("a", 10)); err == nil {
		t.Fatal("expected error")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "hunter22" {
		t.Fatal("hash must not equal plain text")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("expected match")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("expected mismatch")
	}
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "secret123" {
		t.Error("hash must not equal the plaintext")
	}
	if !CheckPasswordHash("secret123", hash) {
		t.Error("correct password must verify")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password must not verify")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	SetSecret("test-secret")

	tok, err := GenerateJWT("user-1", "a@b.com", "Alice", "manager", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "manager" || claims.Email != "a@b.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestParseToken_Expired(t *testing.T) {
	SetSecret("test-secret")

	claims := &JWTClaims{
		UserID: "user-1",
		Role:   "manager",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JwtSecret)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	if _, err := ParseToken(tok); err == nil {
		t.Error("expired token must not parse")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	SetSecret("test-secret")
	tok, err := GenerateJWT("user-1", "a@b.com", "Alice", "manager", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	SetSecret("other-secret")
	defer SetSecret("test-secret")
	if _, err := ParseToken(tok); err == nil {
		t.Error("token signed with a different secret must not parse")
	}
}

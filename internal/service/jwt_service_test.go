package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTService_IssueParseAccess(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute)

	token, err := svc.IssueAccessToken(" u1 ", "user@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "user@example.com" || claims.Subject != "u1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTService_RejectsEmptySecret(t *testing.T) {
	svc := NewJWTService("", 15*time.Minute)
	if svc.Enabled() {
		t.Fatalf("expected service without secret to be disabled")
	}
	if _, err := svc.IssueAccessToken("u1", ""); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid on empty secret, got %v", err)
	}
	if _, err := svc.ParseAccessToken("anything"); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid on empty secret, got %v", err)
	}
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	issuer := NewJWTService("other-secret", time.Minute)
	token, err := issuer.IssueAccessToken("u1", "")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	svc := NewJWTService("secret", time.Minute)
	if _, err := svc.ParseAccessToken(token); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for foreign signature, got %v", err)
	}
}

func signTestClaims(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTService_ParseAccessTokenClaimsChecks(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute)
	now := time.Now().UTC()

	tests := []struct {
		name   string
		claims Claims
		want   error
	}{
		{
			name: "expired",
			claims: Claims{UserID: "u1", TokenType: "access", RegisteredClaims: jwt.RegisteredClaims{
				Issuer: "career-guide", Subject: "u1",
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			}},
			want: ErrJWTExpired,
		},
		{
			name: "wrong issuer",
			claims: Claims{UserID: "u1", TokenType: "access", RegisteredClaims: jwt.RegisteredClaims{
				Issuer: "other-issuer", Subject: "u1",
				ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			}},
			want: ErrJWTInvalid,
		},
		{
			name: "wrong token type",
			claims: Claims{UserID: "u1", TokenType: "refresh", RegisteredClaims: jwt.RegisteredClaims{
				Issuer: "career-guide", Subject: "u1",
				ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			}},
			want: ErrJWTInvalid,
		},
		{
			name: "subject mismatch",
			claims: Claims{UserID: "u1", TokenType: "access", RegisteredClaims: jwt.RegisteredClaims{
				Issuer: "career-guide", Subject: "u2",
				ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			}},
			want: ErrJWTInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ParseAccessToken(signTestClaims(t, tt.claims)); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

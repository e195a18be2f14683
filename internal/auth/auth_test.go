package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"medibook-console/internal/auth"
	"medibook-console/internal/exceptions"
	"medibook-console/internal/model"
)

const secret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	tok, err := auth.MakeToken("u1", "patient", secret, 15*time.Minute)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	claims, err := auth.ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "patient" || claims.Issuer != auth.Issuer {
		t.Errorf("claims mismatch: %+v", claims)
	}

	// verify expiry is ~15 min from now
	diff := time.Until(claims.ExpiresAt.Time)
	if diff < 14*time.Minute || diff > 16*time.Minute {
		t.Errorf("expected ~15min expiry, got %v", diff)
	}
}

func TestAlgorithmConfusion(t *testing.T) {
	tok, _ := auth.MakeToken("uid", "admin", secret, time.Minute)

	if _, err := auth.ParseToken(tok, "wrong-secret"); !errors.Is(err, auth.ErrBadToken) {
		t.Fatalf("expected ErrBadToken for wrong secret, got %v", err)
	}
	if _, err := auth.ParseToken("not.a.token", secret); err == nil {
		t.Fatal("expected error for garbage token")
	}

	// alg=none must be refused
	none := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: "uid"})
	raw, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := auth.ParseToken(raw, secret); !errors.Is(err, auth.ErrBadToken) {
		t.Fatalf("expected ErrBadToken for unsigned token, got %v", err)
	}

	// foreign issuer and missing exp
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{UserID: "uid", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "elsewhere",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}})
	raw, _ = foreign.SignedString([]byte(secret))
	if _, err := auth.ParseToken(raw, secret); !errors.Is(err, auth.ErrBadToken) {
		t.Fatalf("expected ErrBadToken for foreign issuer, got %v", err)
	}
	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{UserID: "uid", RegisteredClaims: jwt.RegisteredClaims{Issuer: auth.Issuer}})
	raw, _ = noExp.SignedString([]byte(secret))
	if _, err := auth.ParseToken(raw, secret); !errors.Is(err, auth.ErrBadToken) {
		t.Fatalf("expected ErrBadToken for token without exp, got %v", err)
	}
}

func TestPeekWithoutSecret(t *testing.T) {
	tok, _ := auth.MakeToken("u9", "provider", secret, time.Hour)
	c, err := auth.Peek(tok)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if c.UserID != "u9" || c.Role != "provider" {
		t.Errorf("unexpected claims %+v", c)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	live, _ := auth.MakeToken("u", "patient", secret, time.Hour)
	dead, _ := auth.MakeToken("u", "patient", secret, -time.Minute)

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"live", live, false},
		{"expired", dead, true},
		{"opaque", "3f9c1d2e", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := auth.Expired(tt.raw, now); got != tt.want {
				t.Errorf("Expired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := auth.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !auth.CheckPassword(h, "secret1") {
		t.Error("password should match")
	}
	if auth.CheckPassword(h, "secret2") {
		t.Error("wrong password should not match")
	}
}

func TestPortalAdmit(t *testing.T) {
	tests := []struct {
		portal auth.Portal
		role   model.Role
		ok     bool
		text   string
	}{
		{auth.PatientPortal, model.RolePatient, true, ""},
		{auth.AdminPortal, model.RoleAdmin, true, ""},
		{auth.AdminPortal, model.RolePatient, false, "Access denied: Not an admin."},
		{auth.ProviderPortal, model.RoleAdmin, false, "Access denied: Not a provider."},
		{auth.PatientPortal, model.RoleProvider, false, "Access denied: Not a patient."},
	}
	for _, tt := range tests {
		t.Run(string(tt.portal)+"/"+string(tt.role), func(t *testing.T) {
			err := tt.portal.Admit(tt.role)
			if tt.ok {
				if err != nil {
					t.Fatalf("expected admit, got %v", err)
				}
				return
			}
			if !errors.Is(err, exceptions.ErrAccessDenied) {
				t.Fatalf("expected access denied, got %v", err)
			}
			if got := exceptions.Message(err, ""); got != tt.text {
				t.Errorf("got %q, want %q", got, tt.text)
			}
		})
	}
}

func TestParsePortal(t *testing.T) {
	if _, err := auth.ParsePortal("admin"); err != nil {
		t.Fatalf("admin portal: %v", err)
	}
	if _, err := auth.ParsePortal("root"); err == nil {
		t.Fatal("expected unknown portal error")
	}
}

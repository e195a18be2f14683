package apitest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medibook-console/internal/model"
)

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateRejectsMissingAndRevokedTokens(t *testing.T) {
	a := New("s", nil)
	a.AddUser("u1", "a@b.com", "pw", "Ada", model.RolePatient)
	tok := a.Token("u1")

	if rec := do(t, a.Handler(), http.MethodGet, "/users/profile", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d", rec.Code)
	}
	if rec := do(t, a.Handler(), http.MethodGet, "/users/profile", tok, ""); rec.Code != http.StatusOK {
		t.Errorf("valid token: %d", rec.Code)
	}
	a.Revoke()
	rec := do(t, a.Handler(), http.MethodGet, "/users/profile", tok, "")
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "token failed") {
		t.Errorf("revoked token: %d %s", rec.Code, rec.Body)
	}
}

func TestAdminOnly(t *testing.T) {
	a := New("s", nil)
	a.AddUser("u1", "a@b.com", "pw", "Ada", model.RolePatient)
	if rec := do(t, a.Handler(), http.MethodGet, "/admin/users", a.Token("u1"), ""); rec.Code != http.StatusForbidden {
		t.Errorf("patient reached admin route: %d", rec.Code)
	}
}

func TestFailInjection(t *testing.T) {
	a := New("s", nil)
	a.AddUser("u1", "a@b.com", "pw", "Ada", model.RolePatient)
	tok := a.Token("u1")

	a.Fail(http.MethodGet, "/appointments/my-appointments", http.StatusBadGateway, "upstream down", 2)
	for i := 0; i < 2; i++ {
		rec := do(t, a.Handler(), http.MethodGet, "/appointments/my-appointments", tok, "")
		if rec.Code != http.StatusBadGateway || !strings.Contains(rec.Body.String(), "upstream down") {
			t.Fatalf("call %d: %d %s", i, rec.Code, rec.Body)
		}
	}
	if rec := do(t, a.Handler(), http.MethodGet, "/appointments/my-appointments", tok, ""); rec.Code != http.StatusOK {
		t.Errorf("failure outlived its count: %d", rec.Code)
	}

	a.Fail(http.MethodGet, "/users/profile", http.StatusInternalServerError, "", 0)
	do(t, a.Handler(), http.MethodGet, "/users/profile", tok, "")
	if rec := do(t, a.Handler(), http.MethodGet, "/users/profile", tok, ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("open-ended failure stopped early: %d", rec.Code)
	}
	a.Heal()
	if rec := do(t, a.Handler(), http.MethodGet, "/users/profile", tok, ""); rec.Code != http.StatusOK {
		t.Errorf("after heal: %d", rec.Code)
	}
	if n := a.Count(http.MethodGet, "/users/profile"); n != 3 {
		t.Errorf("recorded %d profile requests", n)
	}
}

func TestCreateConflict(t *testing.T) {
	a := New("s", nil)
	a.AddUser("u1", "a@b.com", "pw", "Ada", model.RolePatient)
	a.AddUser("p1", "p@b.com", "pw", "Dr. P", model.RoleProvider)
	a.AddAppointment("a1", "u1", "p1", time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC), "scheduled")

	body := `{"dateTime":"2025-08-15T09:00:00.000Z","providerId":"p1"}`
	rec := do(t, a.Handler(), http.MethodPost, "/appointments", a.Token("u1"), body)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected conflict, got %d %s", rec.Code, rec.Body)
	}

	body = `{"dateTime":"2025-08-15T09:00:00.000Z","providerId":"u1"}`
	if rec := do(t, a.Handler(), http.MethodPost, "/appointments", a.Token("u1"), body); rec.Code != http.StatusBadRequest {
		t.Errorf("non-provider accepted: %d", rec.Code)
	}
}

func TestLimitAuthThrottlesPerAddress(t *testing.T) {
	a := New("s", nil)
	a.AddUser("u1", "a@b.com", "pw", "Ada", model.RolePatient)
	a.LimitAuth(0.001, 2)

	login := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.com","password":"pw"}`))
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := login("10.0.0.1:4000"); code != http.StatusOK {
			t.Fatalf("login %d: %d", i, code)
		}
	}
	if code := login("10.0.0.1:4001"); code != http.StatusTooManyRequests {
		t.Errorf("third login from same address: %d", code)
	}
	if code := login("10.0.0.2:4000"); code != http.StatusOK {
		t.Errorf("other address shares the bucket: %d", code)
	}
	if rec := do(t, a.Handler(), http.MethodGet, "/users/profile", a.Token("u1"), ""); rec.Code != http.StatusOK {
		t.Errorf("data routes are not throttled: %d", rec.Code)
	}

	a.LimitAuth(0, 0)
	if code := login("10.0.0.1:4000"); code != http.StatusOK {
		t.Errorf("limit not lifted: %d", code)
	}
}

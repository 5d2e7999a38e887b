package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wafflestudio/seminar-system/internal/api/handler"
	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

type stubVerifier map[string]*ports.Claims

func (v stubVerifier) VerifyToken(token string) (*ports.Claims, error) {
	claims, ok := v[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func newTestRouter() http.Handler {
	return NewRouter(Deps{
		Log: zerolog.Nop(),
		Verifier: stubVerifier{
			"participant-token": {UserID: 2, Email: "s@snu.ac.kr", Role: domain.RoleParticipant},
		},
		Health: map[string]handler.Pinger{
			"store": handler.PingFunc(func(context.Context) error { return nil }),
		},
	})
}

func serve(t *testing.T, h http.Handler, method, target, token string) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body errorResponse
	if rec.Code >= http.StatusBadRequest {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
		}
	}
	return rec, body
}

func TestRouter_RequiresToken(t *testing.T) {
	r := newTestRouter()

	rec, body := serve(t, r, http.MethodGet, "/api/v1/me", "")
	if rec.Code != http.StatusUnauthorized || body.Code != domain.ErrMissingToken.Code {
		t.Fatalf("expected 401 %s, got %d %+v", domain.ErrMissingToken.Code, rec.Code, body)
	}

	rec, body = serve(t, r, http.MethodGet, "/api/v1/seminar", "forged")
	if rec.Code != http.StatusUnauthorized || body.Code != domain.ErrInvalidToken.Code {
		t.Fatalf("expected 401 %s, got %d %+v", domain.ErrInvalidToken.Code, rec.Code, body)
	}
}

func TestRouter_RegisterParticipantIsInstructorOnly(t *testing.T) {
	rec, body := serve(t, newTestRouter(), http.MethodPost, "/api/v1/user/participant", "participant-token")
	if rec.Code != http.StatusForbidden || body.Code != domain.ErrRoleNotAllowed.Code {
		t.Fatalf("expected 403 %s, got %d %+v", domain.ErrRoleNotAllowed.Code, rec.Code, body)
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r := newTestRouter()

	for _, target := range []string{"/health", "/health/ready", "/metrics"} {
		rec, _ := serve(t, r, http.MethodGet, target, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", target, rec.Code)
		}
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	rec, body := serve(t, newTestRouter(), http.MethodGet, "/nowhere", "")
	if rec.Code != http.StatusNotFound || body.Code != "http.not_found" {
		t.Fatalf("expected 404 http.not_found, got %d %+v", rec.Code, body)
	}
}

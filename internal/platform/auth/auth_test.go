package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sasilab/medbot/internal/domain/policy"
)

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_credentials.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// UserStore
// ---------------------------------------------------------------------------

func TestLoadUserStore_Authenticate(t *testing.T) {
	path := writeCredentials(t, "username,password,role\n"+
		"nurse1,secret1,Nurse\n"+
		"pharm1,secret2,Pharmacist\n"+
		"doc1,secret3,Doctor\n"+
		"super1,secret4,Supervisor\n")

	store, err := LoadUserStore(path)
	if err != nil {
		t.Fatal(err)
	}

	role, err := store.Authenticate("nurse1", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if role != policy.RoleNurse {
		t.Errorf("role = %s, want Nurse", role)
	}

	// Wrong password and unknown user look identical.
	_, wrongPw := store.Authenticate("nurse1", "bad")
	_, unknown := store.Authenticate("ghost", "secret1")
	if !errors.Is(wrongPw, ErrAuthenticationFailed) || !errors.Is(unknown, ErrAuthenticationFailed) {
		t.Errorf("errors = (%v, %v), want ErrAuthenticationFailed", wrongPw, unknown)
	}
}

func TestLoadUserStore_BadRole(t *testing.T) {
	path := writeCredentials(t, "username,password,role\nx,y,Janitor\n")
	if _, err := LoadUserStore(path); err == nil {
		t.Error("expected error for unknown role in credentials")
	}
}

func TestLoadUserStore_MissingColumn(t *testing.T) {
	path := writeCredentials(t, "username,password\nx,y\n")
	if _, err := LoadUserStore(path); err == nil {
		t.Error("expected error for missing role column")
	}
}

// ---------------------------------------------------------------------------
// TokenIssuer
// ---------------------------------------------------------------------------

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	token, session, err := issuer.Issue("doc1", policy.RoleDoctor)
	if err != nil {
		t.Fatal(err)
	}

	verified, err := issuer.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if verified.Username != "doc1" || verified.Role != policy.RoleDoctor {
		t.Errorf("verified = %+v", verified)
	}
	if verified.SessionID != session.SessionID {
		t.Error("session id not preserved")
	}
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer("secret-a", time.Hour)
	b, _ := NewTokenIssuer("secret-b", time.Hour)

	token, _, err := a.Issue("doc1", policy.RoleDoctor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Error("token verified with wrong secret")
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Nanosecond)
	token, _, err := issuer.Issue("doc1", policy.RoleDoctor)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := issuer.Verify(token); err == nil {
		t.Error("expired token verified")
	}
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Error("empty secret accepted")
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestMiddleware_AttachesSession(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Hour)
	token, _, _ := issuer.Issue("super1", policy.RoleSupervisor)

	e := echo.New()
	handler := Middleware(issuer)(func(c echo.Context) error {
		session, ok := SessionFromContext(c)
		if !ok {
			t.Fatal("session missing from context")
		}
		if session.Role != policy.RoleSupervisor {
			t.Errorf("role = %s", session.Role)
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Hour)

	e := echo.New()
	handler := Middleware(issuer)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := handler(e.NewContext(req, httptest.NewRecorder()))
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("err = %v, want 401", err)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	run := func(session *Session, roles ...policy.Role) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if session != nil {
			c.Set(sessionContextKey, *session)
		}
		return RequireRole(roles...)(next)(c)
	}

	if err := run(&Session{Role: policy.RoleSupervisor}, policy.RoleSupervisor); err != nil {
		t.Errorf("supervisor rejected: %v", err)
	}

	err := run(&Session{Role: policy.RoleNurse}, policy.RoleSupervisor)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Errorf("nurse not rejected with 403: %v", err)
	}

	err = run(nil, policy.RoleSupervisor)
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("missing session not rejected with 401: %v", err)
	}
}

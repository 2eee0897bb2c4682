package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"formlink/token"
)

func newTokens(t *testing.T) *token.Service {
	t.Helper()
	tokens, err := token.New("test-secret", 9*time.Hour)
	if err != nil {
		t.Fatalf("token.New: %v", err)
	}
	return tokens
}

func okHandler(t *testing.T, wantUser string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			t.Error("claims missing from context")
		} else if wantUser != "" && claims.Username != wantUser {
			t.Errorf("username = %q, want %q", claims.Username, wantUser)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func request(tok string) *http.Request {
	r := httptest.NewRequest("GET", "/api/runQuery", nil)
	if tok != "" {
		r.AddCookie(&http.Cookie{Name: "token", Value: tok})
	}
	return r
}

func TestAuthValidToken(t *testing.T) {
	tokens := newTokens(t)
	tok, err := tokens.Issue("somsak", 50)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := httptest.NewRecorder()
	Auth(tokens)(okHandler(t, "somsak")).ServeHTTP(w, request(tok))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuthRejections(t *testing.T) {
	tokens := newTokens(t)

	cases := []struct {
		name string
		tok  string
	}{
		{"missing cookie", ""},
		{"garbage token", "not-a-token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler must not run")
			}))
			handler.ServeHTTP(w, request(tc.tok))

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestRequireLevel(t *testing.T) {
	tokens := newTokens(t)

	cases := []struct {
		name  string
		level int
		allow func(int) bool
		want  int
	}{
		{"frontend passes standard", 50, token.AllowsStandard, http.StatusOK},
		{"frontend fails elevated", 50, token.AllowsElevated, http.StatusForbidden},
		{"backend passes elevated", 99, token.AllowsElevated, http.StatusOK},
		{"low level fails standard", 10, token.AllowsStandard, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := tokens.Issue("user", tc.level)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			w := httptest.NewRecorder()
			handler := Auth(tokens)(RequireLevel(tc.allow)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))
			handler.ServeHTTP(w, request(tok))

			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestPageGateRedirectsToLogin(t *testing.T) {
	tokens := newTokens(t)

	w := httptest.NewRecorder()
	handler := PageGate(tokens, token.AllowsElevated)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))
	r := httptest.NewRequest("GET", "/backenduser/editor?form=1", nil)
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	location := w.Header().Get("location")
	want := "/?redirect=%2Fbackenduser%2Feditor%3Fform%3D1"
	if location != want {
		t.Errorf("location = %q, want %q", location, want)
	}
}

func TestPageGateRejectsNonGETWithoutToken(t *testing.T) {
	tokens := newTokens(t)

	for _, method := range []string{"POST", "HEAD", "PUT", "DELETE"} {
		t.Run(method, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler := PageGate(tokens, token.AllowsElevated)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler must not run")
			}))
			handler.ServeHTTP(w, httptest.NewRequest(method, "/backenduser/editor", nil))

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			if location := w.Header().Get("location"); location != "" {
				t.Errorf("unexpected redirect on %s: %q", method, location)
			}
		})
	}
}

func TestPageGateRejectsNonGETWrongLevel(t *testing.T) {
	tokens := newTokens(t)
	tok, err := tokens.Issue("somsak", 50)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := httptest.NewRecorder()
	handler := PageGate(tokens, token.AllowsElevated)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))
	r := httptest.NewRequest("POST", "/backenduser/editor", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: tok})
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestPageGateRedirectsWrongLevelHome(t *testing.T) {
	tokens := newTokens(t)
	tok, err := tokens.Issue("somsak", 50)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := httptest.NewRecorder()
	handler := PageGate(tokens, token.AllowsElevated)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))
	r := httptest.NewRequest("GET", "/backenduser", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: tok})
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	if location := w.Header().Get("location"); location != "/frontenduser" {
		t.Errorf("location = %q, want /frontenduser", location)
	}
}

func TestPageGatePassesAllowedUser(t *testing.T) {
	tokens := newTokens(t)
	tok, err := tokens.Issue("admin", 99)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := httptest.NewRecorder()
	handler := PageGate(tokens, token.AllowsElevated)(okHandler(t, "admin"))
	r := httptest.NewRequest("GET", "/backenduser", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: tok})
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

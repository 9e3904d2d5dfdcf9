package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, GetAuthSubject(c))
	})

	valid := signToken(t, testSecret, time.Now().Add(time.Hour))
	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"valid header", "Bearer " + valid, "", http.StatusOK},
		{"valid query", "", "?token=" + valid, http.StatusOK},
		{"wrong secret", "Bearer " + signToken(t, "other", time.Now().Add(time.Hour)), "", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, time.Now().Add(-time.Hour)), "", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secure"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusOK && w.Body.String() != "42" {
				t.Fatalf("subject = %q", w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	env := newTestEnv(t, "")
	if w := env.do(http.MethodGet, "/api/v1/alerts/summary", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 without secret, got %d", w.Code)
	}

	env = newTestEnv(t, testSecret)
	if w := env.do(http.MethodGet, "/api/v1/alerts/summary", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with secret, got %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/ping", ""); w.Code != http.StatusOK {
		t.Fatalf("public routes must stay open, got %d", w.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:5173"}, true))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight: expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("missing allow-origin header")
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow-origin for unknown origin")
	}
}

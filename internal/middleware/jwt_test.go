package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newProtectedRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", JWTAuth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyOperator))
	})
	return router
}

func serve(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	router := newProtectedRouter("secret")
	token, expires, err := IssueToken("secret", "admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("token already expired")
	}

	w := serve(router, "Bearer "+token)
	if w.Code != http.StatusOK || w.Body.String() != "admin" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestJWTAuthRejects(t *testing.T) {
	router := newProtectedRouter("secret")
	wrongSecret, _, _ := IssueToken("other", "admin", time.Hour)
	expired, _, _ := IssueToken("secret", "admin", -time.Minute)
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{Operator: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"missing":      "",
		"bad format":   "Token abc",
		"wrong secret": "Bearer " + wrongSecret,
		"expired":      "Bearer " + expired,
		"none alg":     "Bearer " + noneAlg,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			if w := serve(router, header); w.Code != http.StatusUnauthorized {
				t.Fatalf("got %d, want 401", w.Code)
			}
		})
	}
}

func TestJWTAuthRefusesWithoutSecret(t *testing.T) {
	router := newProtectedRouter("")
	token, _, err := IssueToken("change-me-in-production", "admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if w := serve(router, "Bearer "+token); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", w.Code)
	}
}

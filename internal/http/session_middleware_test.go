package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"echowipe/internal/service"
)

func TestSessionMiddleware_ClearsCookieWithSecureFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := service.NewSessionService("test-secret", time.Hour, service.NewMemorySessionStore())

	for _, secure := range []bool{true, false} {
		r := gin.New()
		r.GET("/dashboard", SessionMiddleware(zap.NewNop(), sessions, secure), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "not-a-token"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("secure=%v: expected status 303, got %d", secure, rec.Code)
		}
		var cleared *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == sessionCookieName {
				cleared = c
			}
		}
		if cleared == nil || cleared.MaxAge >= 0 {
			t.Fatalf("secure=%v: expected session cookie to be cleared, got %+v", secure, cleared)
		}
		if cleared.Secure != secure || !cleared.HttpOnly {
			t.Fatalf("secure=%v: unexpected cookie flags %+v", secure, cleared)
		}
	}
}

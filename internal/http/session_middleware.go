package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"echowipe/internal/domain"
	"echowipe/internal/service"
)

const (
	sessionCookieName = "echowipe_session"
	sessionKey        = "session"
)

// SessionMiddleware exige una cookie de sesión válida; si no, redirige a "/".
// cookieSecure debe coincidir con el flag usado al emitir la cookie.
func SessionMiddleware(logger *zap.Logger, sessions *service.SessionService, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil || token == "" {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}

		session, err := sessions.Parse(token)
		if err != nil {
			logger.Debug("session rejected", zap.Error(err))
			clearSessionCookie(c, cookieSecure)
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// GetSession obtiene la sesión autenticada desde el contexto.
func GetSession(c *gin.Context) (domain.Session, bool) {
	val, ok := c.Get(sessionKey)
	if !ok {
		return domain.Session{}, false
	}
	session, ok := val.(domain.Session)
	return session, ok
}

func setSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, maxAge, "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", secure, true)
}

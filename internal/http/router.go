package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"echowipe/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	sessions *service.SessionService,
	userH *UserHandler,
	detectH *DetectHandler,
) *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(loadTemplates())

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/", userH.Index)
	r.POST("/", userH.Submit)
	r.GET("/logout", userH.Logout)
	r.GET("/echowipe", Liveness)

	authed := r.Group("/", SessionMiddleware(logger, sessions, userH.cookieSecure))
	authed.GET("/dashboard", userH.Dashboard)
	authed.POST("/detect", detectH.DetectPage)

	api := r.Group("/api", jsonContentTypeMiddleware())
	api.POST("/detect", detectH.DetectAPI)

	return r
}

// Liveness maneja GET /echowipe.
func Liveness(c *gin.Context) {
	c.String(http.StatusOK, "running")
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request", fields...)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

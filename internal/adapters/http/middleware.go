package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/wstail/internal/domain"
)

// AuthMiddleware rejects requests whose Authorization header does not carry
// the bearer token. An empty token disables the check.
func AuthMiddleware(token string) gin.HandlerFunc {
	want := domain.BearerHeader(token)
	return func(c *gin.Context) {
		if want != "" && c.GetHeader("Authorization") != want {
			log.Warn().Str("module", "adapters.http").Str("ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("unauthorized")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("module", "adapters.http").
			Str("ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

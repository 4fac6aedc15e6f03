package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/wstail/internal/config"
	"github.com/dkeye/wstail/internal/domain"
)

// SetupRouter wires the supervisor endpoints the client tails. Streams stop
// when ctx is done.
func SetupRouter(ctx context.Context, cfg config.Mock, sup *Supervisor, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(AuthMiddleware(cfg.Token))

	log.Info().Str("module", "adapters.http").Bool("auth", cfg.Token != "").Msg("router setup")

	r.GET(domain.LogStreamPath, func(c *gin.Context) {
		sup.HandleLogs(ctx, c)
	})
	r.GET(domain.LogsPath, func(c *gin.Context) {
		sup.HandleLogs(ctx, c)
	})
	r.GET(domain.HardwareStatusPath, func(c *gin.Context) {
		sup.HandleHardwareStatus(ctx, c)
	})

	return r
}

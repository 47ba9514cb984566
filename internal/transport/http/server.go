package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/auth"
	"github.com/vovakirdan/linechat-server/internal/config"
	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/store"
)

// NewServer builds the HTTP server carrying the WebSocket chat endpoint and
// the admin API. The admin API is mounted only when an admin JWT secret is
// configured. events may be nil when auditing is disabled.
func NewServer(hub *core.Hub, events store.EventStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg.RequestLimit(), cfg.WriteTimeout, logger)))

	if cfg.AdminJWTSecret == "" {
		logger.Warn().Msg("admin_jwt_secret not set, admin API disabled")
	} else {
		handlers := NewAPIHandlers(hub, events, logger)
		api := router.Group("/api")
		api.Use(AuthMiddleware(&auth.JWTConfig{
			Secret: []byte(cfg.AdminJWTSecret),
			Issuer: cfg.AdminJWTIssuer,
		}, logger))
		api.GET("/names", handlers.Names)
		api.GET("/history", handlers.History)
		api.GET("/sessions", handlers.Sessions)
	}

	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

package http

import (
	stdhttp "net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lanechat/lanechat-server/internal/auth"
	"github.com/lanechat/lanechat-server/internal/config"
	"github.com/lanechat/lanechat-server/internal/core"
)

// NewServer builds the HTTP server: health, channel list API, the
// WebSocket endpoint, and static client assets.
func NewServer(hub *core.Hub, tokens *auth.TokenService, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", healthHandler)
	router.GET("/api/channels", channelListHandler(hub, logger))
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, tokens, logger)))

	if cfg.StaticDir != "" {
		router.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))
		router.Static("/static", cfg.StaticDir)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// ErrorResponse is the JSON error body for API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// channelListHandler exposes a read-only channel snapshot.
// GET /api/channels
func channelListHandler(hub *core.Hub, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := hub.Channels(c.Request.Context())
		if err != nil {
			logger.Warn().Err(err).Msg("channel snapshot failed")
			c.JSON(stdhttp.StatusServiceUnavailable, ErrorResponse{Error: "unavailable"})
			return
		}
		channels := make([]ChannelResponse, 0, len(summaries))
		for _, ch := range summaries {
			channels = append(channels, ChannelResponse{
				ID:       ch.ID,
				Name:     ch.Name,
				Vitality: ch.Vitality,
				OwnerID:  ch.OwnerID,
			})
		}
		c.JSON(stdhttp.StatusOK, channels)
	}
}

// ChannelResponse represents a channel in API responses.
type ChannelResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Vitality int    `json:"vitality"`
	OwnerID  string `json:"ownerId"`
}

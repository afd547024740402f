package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chirp-im/chirp/internal/adapters/signal"
	"github.com/chirp-im/chirp/internal/config"
	"github.com/chirp-im/chirp/internal/core"
	"github.com/chirp-im/chirp/internal/presence"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// Deps is everything the HTTP surface needs: the WS controller for the
// signaling endpoint, and the external-collaborator ports for the
// conventional request/response routes around it.
type Deps struct {
	Signal   *signal.Controller
	Registry *presence.Registry
	Dir      core.Directory
	Tokens   core.MediaTokens
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ChirpSessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	h := &handlers{registry: deps.Registry, dir: deps.Dir, tokens: deps.Tokens}

	api := r.Group("/api")
	api.GET("/ws/signal", deps.Signal.HandleSignal)

	auth := api.Group("/auth")
	auth.POST("/check-user", h.checkUser)
	auth.POST("/onboard", h.onboardUser)
	auth.GET("/contacts", h.contacts)
	auth.GET("/token/:userId/:roomId", h.mediaToken)

	api.POST("/messages", h.addMessage)

	return r
}

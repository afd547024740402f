package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/chirp-im/chirp/internal/core"
	"github.com/chirp-im/chirp/internal/directory"
	"github.com/chirp-im/chirp/internal/domain"
	"github.com/chirp-im/chirp/internal/presence"
)

// handlers are the conventional request/response routes around the
// signaling core: user lookup and onboarding, contacts, media tokens, and
// message persistence. They talk to the ports, never to the router.
type handlers struct {
	registry *presence.Registry
	dir      core.Directory
	tokens   core.MediaTokens
}

func (h *handlers) checkUser(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error(), "status": false})
		return
	}
	user, err := h.dir.FindUser(c.Request.Context(), req.Email)
	if errors.Is(err, directory.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"msg": "User not found", "status": false})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error(), "status": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "User Found", "status": true, "data": user})
}

func (h *handlers) onboardUser(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Name      string `json:"name" binding:"required"`
		About     string `json:"about"`
		AvatarURL string `json:"profilePicture"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error(), "status": false})
		return
	}
	user, err := h.dir.CreateUser(c.Request.Context(), req.Email, req.Name, req.About, req.AvatarURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error(), "status": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "Success", "status": true, "user": user})
}

func (h *handlers) contacts(c *gin.Context) {
	grouped, err := h.dir.ListUsersByInitial(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "users": grouped})
}

func (h *handlers) mediaToken(c *gin.Context) {
	user := domain.UserID(c.Param("userId"))
	room := domain.RoomID(c.Param("roomId"))
	token, err := h.tokens.Issue(user, room)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("token issue")
		c.JSON(http.StatusInternalServerError, gin.H{"status": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "token": token})
}

// addMessage persists through the directory before any relay happens. The
// stored status is delivered when the recipient is online right now, sent
// otherwise; the actual relay is the client's separate send-message event.
func (h *handlers) addMessage(c *gin.Context) {
	var req struct {
		To      string          `json:"to" binding:"required"`
		From    string          `json:"from" binding:"required"`
		Message json.RawMessage `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error(), "status": false})
		return
	}
	_, online := h.registry.Lookup(domain.UserID(req.To))
	rec, err := h.dir.PersistMessage(c.Request.Context(), domain.MessageEnvelope{
		From:    domain.UserID(req.From),
		To:      domain.UserID(req.To),
		Payload: req.Message,
	}, online)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": true, "message": rec})
}

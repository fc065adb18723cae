package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"botdeck/internal/auth"
	"botdeck/internal/gateway"
	"botdeck/internal/metrics"
	"botdeck/internal/models"
	"botdeck/internal/staff"
)

// Handler wires HTTP routes to the message gateway and staff auth.
type Handler struct {
	gateway   *gateway.Gateway
	staff     *staff.Service
	auth      *auth.Service
	staticDir string
}

// NewHandler constructs a Handler instance. staticDir may be empty to
// skip serving the dashboard assets.
func NewHandler(gw *gateway.Gateway, staffService *staff.Service, authService *auth.Service, staticDir string) *Handler {
	return &Handler{
		gateway:   gw,
		staff:     staffService,
		auth:      authService,
		staticDir: staticDir,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if h.staticDir != "" {
		router.Static("/dashboard", h.staticDir)
	}

	api := router.Group("/api")
	api.GET("/health", h.health)
	api.POST("/staff/register", h.registerStaff)
	api.POST("/staff/login", h.loginStaff)

	secured := api.Group("")
	secured.Use(h.auth.Middleware(), h.auth.CSRFMiddleware())
	secured.POST("/staff/logout", h.logoutStaff)
	secured.GET("/channels", h.listChannels)
	secured.GET("/messages", h.listMessages)
	secured.POST("/send-message", h.sendMessage)
	secured.PUT("/edit-message/:id", h.editMessage)
	secured.DELETE("/delete-message/:id", h.deleteMessage)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) registerStaff(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	acct, err := h.staff.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         acct.ID,
		"username":   acct.Username,
		"created_at": acct.CreatedAt,
	})
}

func (h *Handler) loginStaff(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	acct, err := h.staff.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	authToken, err := h.auth.IssueToken(c.Request.Context(), acct.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	h.setAuthCookies(c, authToken, csrfToken)
	c.JSON(http.StatusOK, gin.H{
		"id":         acct.ID,
		"username":   acct.Username,
		"auth_token": authToken,
	})
}

func (h *Handler) logoutStaff(c *gin.Context) {
	token, _ := auth.AuthTokenFromContext(c)
	if err := h.auth.RevokeToken(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, h.gateway.Status())
}

func (h *Handler) listChannels(c *gin.Context) {
	guilds, err := h.gateway.ListChannels(c.Request.Context())
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, guilds)
}

func (h *Handler) listMessages(c *gin.Context) {
	records := h.gateway.ListMessages()
	if records == nil {
		records = []models.MessageRecord{}
	}
	c.JSON(http.StatusOK, records)
}

type sendMessageRequest struct {
	ChannelID string `json:"channelId"`
	Content   string `json:"content"`
	UseEmbed  bool   `json:"useEmbed"`
	Title     string `json:"title"`
	Color     string `json:"color"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	record, err := h.gateway.Send(req.ChannelID, req.Content, req.UseEmbed, req.Title, req.Color)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"messageId":   record.ID,
		"messageData": record,
	})
}

type editMessageRequest struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	Color   string `json:"color"`
}

func (h *Handler) editMessage(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	record, err := h.gateway.Edit(c.Param("id"), req.Content, req.Title, req.Color)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"messageData": record,
	})
}

func (h *Handler) deleteMessage(c *gin.Context) {
	if err := h.gateway.Delete(c.Param("id")); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, gateway.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	maxAge := int(h.auth.TokenTTL().Seconds())
	c.SetCookie(h.auth.AuthCookieName(), authToken, maxAge, "/", "", false, true)
	c.SetCookie(h.auth.CSRFCookieName(), csrfToken, maxAge, "/", "", false, false)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(h.auth.AuthCookieName(), "", -1, "/", "", false, true)
	c.SetCookie(h.auth.CSRFCookieName(), "", -1, "/", "", false, false)
}

package handlers

import (
	"errors"
	"net/http"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data"`
}

type DevAuthRequest struct {
	Username string `json:"username"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Auth logs in with Telegram WebApp init_data.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	token, user, err := h.AuthService.LoginTelegram(c.Request.Context(), req.InitData, loginMeta(c))
	if err != nil {
		authError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// DevAuth logs in by username. Only routed in DEV_MODE.
func (h *Handler) DevAuth(c *gin.Context) {
	var req DevAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	token, user, err := h.AuthService.LoginDev(c.Request.Context(), req.Username, loginMeta(c))
	if err != nil {
		authError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

func loginMeta(c *gin.Context) service.LoginMeta {
	return service.LoginMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func authError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInitData):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidInitData.Error()})
	case errors.Is(err, service.ErrInvalidUsername):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrLoginDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
	}
}

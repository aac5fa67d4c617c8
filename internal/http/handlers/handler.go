package handlers

import (
	"net/http"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	TaskService  *service.TaskService
	AuthService  *service.AuthService
	AuditService *service.AuditService

	MaxCoverBytes int64
}

func NewHandler(tasks *service.TaskService, auth *service.AuthService, audit *service.AuditService, maxCoverBytes int64) *Handler {
	if maxCoverBytes <= 0 {
		maxCoverBytes = domain.DefaultMaxCoverBytes
	}
	return &Handler{
		TaskService:   tasks,
		AuthService:   auth,
		AuditService:  audit,
		MaxCoverBytes: maxCoverBytes,
	}
}

// maxBody bounds a whole upload request: the cover plus room for the other
// form fields.
func (h *Handler) maxBody() int64 {
	return h.MaxCoverBytes + 1<<20
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
	}
	return id, ok
}

package handlers

import (
	"net/http"
	"strconv"

	"todo_webapp/internal/logger"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.AuthService.Me(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// MyAudit lists the caller's recent audit entries.
// GET /me/audit?limit=
func (h *Handler) MyAudit(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := h.AuditService.GetUserAuditLogs(c.Request.Context(), userID, limit)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("audit query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) DownloadPlan(c *gin.Context) {
	pdf, filename, err := h.flow.DownloadPlan(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) Health(c *gin.Context) {
	dbStatus := "disabled"
	if h.ledger != nil {
		dbStatus = "ok"
		if err := h.ledger.Ping(c.Request.Context()); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "Honest Travel API",
		"database": dbStatus,
	})
}

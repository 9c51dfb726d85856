package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Plan renders the travel plan. The full plan needs ?unblur=true and a
// confirmed payment; hotels are paged with ?hotel_page=.
func (h *Handler) Plan(c *gin.Context) {
	unblur := c.Query("unblur") == "true"
	page, err := strconv.Atoi(c.DefaultQuery("hotel_page", "1"))
	if err != nil {
		page = 1
	}

	view, err := h.flow.Plan(c.Request.Context(), sessionID(c), unblur, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Session returns the typed session snapshot for page hydration.
func (h *Handler) Session(c *gin.Context) {
	trip, err := h.flow.Snapshot(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

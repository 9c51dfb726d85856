package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"honesttravel/autocomplete"
)

type SuggestResponse struct {
	Query       string                    `json:"query"`
	Suggestions []autocomplete.Suggestion `json:"suggestions"`
}

// SuggestCities answers the city search box. Requests are debounced per
// session; a request replaced by a newer keystroke gets 204 and no body.
func (h *Handler) SuggestCities(c *gin.Context) {
	q := c.Query("q")
	sid := sessionID(c)
	ctx := c.Request.Context()

	suppressed, err := h.flow.SuggestionsSuppressed(ctx, sid, q)
	if err != nil {
		h.fail(c, err)
		return
	}
	if suppressed {
		h.debouncer.Cancel(sid)
		c.JSON(http.StatusOK, SuggestResponse{Query: q, Suggestions: []autocomplete.Suggestion{}})
		return
	}

	var suggestions []autocomplete.Suggestion
	err = h.debouncer.Do(ctx, sid, func(context.Context) error {
		suggestions = h.engine.Suggest(q)
		return nil
	})
	switch {
	case errors.Is(err, autocomplete.ErrSuperseded):
		c.Status(http.StatusNoContent)
		return
	case err != nil:
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, SuggestResponse{Query: q, Suggestions: suggestions})
}

type SelectCityRequest struct {
	City string `json:"city" binding:"required"`
}

// SelectCity confirms a suggestion and returns its background image.
func (h *Handler) SelectCity(c *gin.Context) {
	var req SelectCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sid := sessionID(c)
	h.debouncer.Cancel(sid)

	image, err := h.flow.SelectCity(c.Request.Context(), sid, req.City)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": strings.TrimSpace(req.City), "backgroundImage": image})
}

// CityImage looks up a representative photo. Lookup failures still answer
// 200 with the default image.
func (h *Handler) CityImage(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No city provided"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": h.images.CityImage(c.Request.Context(), city)})
}

const maxPlaceholderSide = 4000

// Placeholder redirects to a generated placeholder image of the given size.
func (h *Handler) Placeholder(c *gin.Context) {
	w, errW := strconv.Atoi(c.Param("w"))
	hgt, errH := strconv.Atoi(c.Param("h"))
	if errW != nil || errH != nil || w <= 0 || hgt <= 0 || w > maxPlaceholderSide || hgt > maxPlaceholderSide {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size parameters"})
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("https://via.placeholder.com/%dx%d?text=Placeholder+Image", w, hgt))
}

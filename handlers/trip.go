package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"honesttravel/flow"
)

type TripRequest struct {
	City      string `json:"city"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Travelers int    `json:"travelers"`
}

// ConfirmTrip stores the Home form and starts loading the city page.
func (h *Handler) ConfirmTrip(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.flow.ConfirmTrip(c.Request.Context(), sessionID(c), flow.TripRequest{
		City:      req.City,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Travelers: req.Travelers,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"redirect": flow.CityDetail.Path(strings.TrimSpace(req.City))})
}

// CityDetail answers 202 while the city content is still being generated.
func (h *Handler) CityDetail(c *gin.Context) {
	view, err := h.flow.CityDetail(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if view.Loading {
		status = http.StatusAccepted
	}
	c.JSON(status, view)
}

type ActivitiesRequest struct {
	Activities []string `json:"activities"`
}

func (h *Handler) SelectActivities(c *gin.Context) {
	var req ActivitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sid := sessionID(c)
	if err := h.flow.SelectActivities(c.Request.Context(), sid, req.Activities); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": flow.Survey.Path(h.city(c))})
}

func (h *Handler) SurveyQuestions(c *gin.Context) {
	view, err := h.flow.SurveyQuestions(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type SurveyAnswersRequest struct {
	// Answers maps question text to the chosen option.
	Answers map[string]string `json:"answers" binding:"required"`
}

func (h *Handler) SubmitSurvey(c *gin.Context) {
	var req SurveyAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.flow.SubmitSurvey(c.Request.Context(), sessionID(c), req.Answers); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": flow.Packages.Path(h.city(c))})
}

// Package handlers is the HTTP surface the page shell calls. Each handler
// resolves the caller's session and delegates to the flow controller.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"honesttravel/autocomplete"
	"honesttravel/flow"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Flow      *flow.Controller
	Engine    *autocomplete.Engine
	Debouncer *autocomplete.Debouncer
	Images    flow.ImageGateway
	// Ledger is optional; health reports it as disabled when nil.
	Ledger  Pinger
	Metrics http.Handler
	Logger  *zap.Logger
}

type Handler struct {
	flow      *flow.Controller
	engine    *autocomplete.Engine
	debouncer *autocomplete.Debouncer
	images    flow.ImageGateway
	ledger    Pinger
	metrics   http.Handler
	log       *zap.Logger
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		flow:      d.Flow,
		engine:    d.Engine,
		debouncer: d.Debouncer,
		images:    d.Images,
		ledger:    d.Ledger,
		metrics:   d.Metrics,
		log:       log,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/session", h.Session)

		api.GET("/cities/suggest", h.SuggestCities)
		api.POST("/cities/select", h.SelectCity)
		api.GET("/image", h.CityImage)
		api.GET("/placeholder/:w/:h", h.Placeholder)

		api.POST("/trip", h.ConfirmTrip)
		api.GET("/city", h.CityDetail)
		api.POST("/city/activities", h.SelectActivities)

		api.GET("/survey", h.SurveyQuestions)
		api.POST("/survey", h.SubmitSurvey)

		api.GET("/packages", h.Packages)
		api.POST("/packages/select", h.SelectPackage)
		api.POST("/login", h.Login)
		api.POST("/payment/confirm", h.ConfirmPayment)
		api.POST("/logout", h.Logout)

		api.GET("/plan", h.Plan)
		api.GET("/plan/download", h.DownloadPlan)
	}
}

// fail maps a flow error onto a status code and a JSON body. Stage errors
// carry the page the client should move to.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var se *flow.StageError
	switch {
	case errors.Is(err, flow.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationMessage(err)})
	case errors.Is(err, flow.ErrMissingTrip):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "redirect": flow.Home.Path("")})
	case errors.Is(err, flow.ErrPurchaseRequired):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "redirect": flow.Packages.Path(h.city(c))})
	case errors.As(err, &se):
		status := http.StatusConflict
		if se.Err != nil {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error":    se.Message,
			"stage":    se.Stage,
			"redirect": se.Fallback.Path(h.city(c)),
		})
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the body
		c.Status(499)
	default:
		h.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), flow.ErrValidation.Error()+": ")
}

// city is the trip city used to build redirect paths.
func (h *Handler) city(c *gin.Context) string {
	trip, err := h.flow.Snapshot(c.Request.Context(), sessionID(c))
	if err != nil {
		return ""
	}
	return trip.City
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

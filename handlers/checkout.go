package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"honesttravel/flow"
)

func (h *Handler) Packages(c *gin.Context) {
	view, err := h.flow.Packages(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type SelectPackageRequest struct {
	PackageID string `json:"packageId" binding:"required"`
}

// SelectPackage picks a tier; the client shows the login form next.
func (h *Handler) SelectPackage(c *gin.Context) {
	var req SelectPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pkg, err := h.flow.SelectPackage(c.Request.Context(), sessionID(c), req.PackageID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selectedPackage": pkg, "showLogin": true})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login logs the user in and answers with the hosted checkout to redirect to.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkout, err := h.flow.Login(c.Request.Context(), sessionID(c), flow.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// ConfirmPayment is called from the payment-success page with the checkout
// session ID the processor appended to the return URL.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.flow.ConfirmPayment(c.Request.Context(), sessionID(c), req.SessionID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": flow.Plan.Path(h.city(c)) + "?unblur=true"})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.flow.Logout(c.Request.Context(), sessionID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

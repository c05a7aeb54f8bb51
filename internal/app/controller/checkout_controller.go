package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type CheckoutController struct {
	checkout service.CheckoutService
}

func NewCheckoutController(checkout service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkout: checkout,
	}
}

// GetSummary prices the local cart
// GET /api/v1/checkout/summary
func (ctrl *CheckoutController) GetSummary(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.checkout.Summary(session))
}

// PlaceOrder submits the billing address and clears the local cart
// POST /api/v1/checkout
func (ctrl *CheckoutController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	var address model.BillingAddress
	if err := c.ShouldBindJSON(&address); err != nil {
		log.Warn("Invalid billing address payload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid billing address")
		return
	}

	summary, err := ctrl.checkout.PlaceOrder(c.Request.Context(), session, address)
	if err != nil {
		var missing *service.MissingFieldsError
		if errors.As(err, &missing) {
			fields := make(map[string]string, len(missing.Fields))
			for _, f := range missing.Fields {
				fields[f] = "This field is required."
			}
			apperrors.RespondWithValidationError(c, fields)
			return
		}
		apperrors.ParseAndRespond(c, err, "place order")
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"username": session.Username(),
		"total":    summary.Total,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully!",
		"order":   summary,
	})
}

// GetCountries
// GET /api/v1/countries
func (ctrl *CheckoutController) GetCountries(c *gin.Context) {
	countries, err := ctrl.checkout.ListCountries(c.Request.Context())
	if err != nil {
		apperrors.ParseAndRespond(c, err, "fetch countries")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"countries": countries,
	})
}

package service

import (
	"context"
	"math"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

const taxRate = 0.10

type OrderSummary struct {
	Items    []model.LineItem `json:"items"`
	Subtotal float64          `json:"subtotal"`
	Shipping float64          `json:"shipping"`
	Tax      float64          `json:"tax"`
	Total    float64          `json:"total"`
}

type CheckoutService interface {
	Summary(session *Session) OrderSummary
	PlaceOrder(ctx context.Context, session *Session, address model.BillingAddress) (*OrderSummary, error)
	ListCountries(ctx context.Context) ([]model.Country, error)
}

type checkoutService struct {
	api      *shopapi.Client
	notifier Notifier
}

func NewCheckoutService(api *shopapi.Client, notifier Notifier) CheckoutService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &checkoutService{api: api, notifier: notifier}
}

// Summary prices the session's local cart: free shipping, 10% tax.
func (s *checkoutService) Summary(session *Session) OrderSummary {
	return summarize(session.Cart.Snapshot().Cart)
}

func summarize(items []model.LineItem) OrderSummary {
	subtotal := roundCents(cartSubtotal(items))
	tax := roundCents(subtotal * taxRate)
	return OrderSummary{
		Items:    items,
		Subtotal: subtotal,
		Shipping: 0,
		Tax:      tax,
		Total:    roundCents(subtotal + tax),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// PlaceOrder submits the billing address and empties the local cart on success.
func (s *checkoutService) PlaceOrder(ctx context.Context, session *Session, address model.BillingAddress) (*OrderSummary, error) {
	username := session.Username()
	summary := s.Summary(session)

	if len(summary.Items) == 0 {
		s.notifier.Notify(session.ID, model.NewToast(model.ToastWarning, "Your cart is empty"))
		return nil, ErrCartEmpty
	}
	if missing := address.MissingFields(); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	logger.Info("Placing order", map[string]interface{}{
		"username": username,
		"items":    len(summary.Items),
		"total":    summary.Total,
	})

	if err := session.API().CreateBillingAddress(ctx, address); err != nil {
		logger.Error("Failed to place order", err, map[string]interface{}{
			"username": username,
		})
		s.notifier.Notify(session.ID, model.NewToast(model.ToastError, "Failed to place order. Please try again."))
		return nil, err
	}

	session.Cart.ClearCart(ctx, username)
	s.notifier.Notify(session.ID, model.NewToast(model.ToastSuccess, "Order placed successfully!"))

	logger.Info("Order placed", map[string]interface{}{
		"username": username,
		"total":    summary.Total,
	})
	return &summary, nil
}

func (s *checkoutService) ListCountries(ctx context.Context) ([]model.Country, error) {
	countries, err := s.api.ListCountries(ctx)
	if err != nil {
		logger.Error("Failed to load countries", err)
		return nil, err
	}
	if countries == nil {
		countries = []model.Country{}
	}
	return countries, nil
}

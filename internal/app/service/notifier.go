package service

import "github.com/ikkim/storefront-backend/internal/app/model"

//go:generate mockgen -source=notifier.go -destination=notifier_mock_test.go -package=service

// Notifier delivers transient toasts to the connections of one session.
type Notifier interface {
	Notify(sessionID string, toast model.Toast)
}

type nopNotifier struct{}

// NopNotifier drops every toast.
func NopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) Notify(string, model.Toast) {}

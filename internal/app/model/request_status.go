package model

// RequestStatus tracks one async operation: idle -> pending -> fulfilled | rejected.
type RequestStatus string

const (
	StatusIdle      RequestStatus = "idle"
	StatusPending   RequestStatus = "pending"
	StatusFulfilled RequestStatus = "fulfilled"
	StatusRejected  RequestStatus = "rejected"
)

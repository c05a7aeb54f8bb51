package model

type UserRole string

const (
	RoleVendor   UserRole = "vendor"
	RoleCustomer UserRole = "customer"
)

type User struct {
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Role     UserRole `json:"role"`
	// Type mirrors Role; kept for clients that switch on it.
	Type UserRole `json:"type"`
}

// TokenPair is issued by the shop API on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

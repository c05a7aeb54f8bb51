package service

import (
	"sync"

	"github.com/ikkim/storefront-backend/internal/app/model"
)

type UserSnapshot struct {
	User            *model.User `json:"user"`
	IsAuthenticated bool        `json:"is_authenticated"`
	Connections     []string    `json:"connections"`
}

// UserState tracks who is logged in on a session and the users they are connected with
// (buyers for a vendor, vendors for a buyer).
type UserState struct {
	mu              sync.Mutex
	user            *model.User
	isAuthenticated bool
	connections     []string
}

func NewUserState() *UserState {
	return &UserState{connections: []string{}}
}

func (u *UserState) LoginSuccess(user model.User) {
	u.mu.Lock()
	defer u.mu.Unlock()

	user.Type = user.Role
	u.user = &user
	u.isAuthenticated = true
}

func (u *UserState) Logout() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.user = nil
	u.isAuthenticated = false
	u.connections = []string{}
}

// AddConnection is idempotent.
func (u *UserState) AddConnection(username string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, c := range u.connections {
		if c == username {
			return
		}
	}
	u.connections = append(u.connections, username)
}

func (u *UserState) RemoveConnection(username string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	kept := make([]string, 0, len(u.connections))
	for _, c := range u.connections {
		if c != username {
			kept = append(kept, c)
		}
	}
	u.connections = kept
}

// Username is empty when nobody is logged in.
func (u *UserState) Username() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.user == nil {
		return ""
	}
	return u.user.Username
}

func (u *UserState) Snapshot() UserSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()

	snap := UserSnapshot{
		IsAuthenticated: u.isAuthenticated,
		Connections:     append([]string{}, u.connections...),
	}
	if u.user != nil {
		user := *u.user
		snap.User = &user
	}
	return snap
}

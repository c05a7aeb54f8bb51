package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
	"github.com/ikkim/storefront-backend/pkg/util"
)

const minPasswordLength = 6

// Session is the server-side state of one logged-in browser.
type Session struct {
	ID         string
	CreatedAt  time.Time
	User       *UserState
	Cart       LocalCartStore
	ServerCart SyncedCartStore

	api *shopapi.Client

	mu       sync.Mutex
	lastSeen time.Time
}

// API returns a shop API client carrying the session's access token.
func (s *Session) API() *shopapi.Client {
	return s.api
}

func (s *Session) Username() string {
	return s.User.Username()
}

func (s *Session) Role() model.UserRole {
	snap := s.User.Snapshot()
	if snap.User == nil {
		return ""
	}
	return snap.User.Role
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

type LoginResult struct {
	Session   *Session
	Token     string
	ExpiresAt time.Time
}

type SessionService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Get(sessionID string) (*Session, error)
	Touch(sessionID string)
	EvictIdle(maxIdle time.Duration) int
	Count() int
}

type sessionService struct {
	api           *shopapi.Client
	carts         *UserCollection[model.LineItem]
	wishlists     *UserCollection[model.WishlistEntry]
	notifier      Notifier
	jwtSecret     string
	sessionExpiry time.Duration
	now           func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionService(
	api *shopapi.Client,
	carts *UserCollection[model.LineItem],
	wishlists *UserCollection[model.WishlistEntry],
	notifier Notifier,
	jwtSecret string,
	sessionExpiry time.Duration,
) SessionService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &sessionService{
		api:           api,
		carts:         carts,
		wishlists:     wishlists,
		notifier:      notifier,
		jwtSecret:     jwtSecret,
		sessionExpiry: sessionExpiry,
		now:           time.Now,
		sessions:      make(map[string]*Session),
	}
}

// Login exchanges credentials with the shop API, then opens a session with the
// user's persisted cart and wishlist loaded.
func (s *sessionService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	switch {
	case username == "":
		return nil, ErrUsernameRequired
	case password == "":
		return nil, ErrPasswordRequired
	case len(password) < minPasswordLength:
		return nil, ErrPasswordTooShort
	}

	logger.Info("Login attempt", map[string]interface{}{
		"username": username,
	})

	pair, err := s.api.ObtainToken(ctx, username, password)
	if err != nil {
		logger.Warn("Login rejected by shop API", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		return nil, err
	}

	api := s.api.WithToken(pair.Access)
	user, err := api.CurrentUser(ctx)
	if err != nil {
		logger.Error("Failed to fetch user after login", err, map[string]interface{}{
			"username": username,
		})
		return nil, err
	}

	sessionID := uuid.NewString()
	now := s.now()
	session := &Session{
		ID:         sessionID,
		CreatedAt:  now,
		User:       NewUserState(),
		Cart:       NewLocalCartStore(s.carts, s.wishlists),
		ServerCart: NewSyncedCartStore(api, s.notifier, sessionID),
		api:        api,
		lastSeen:   now,
	}
	session.User.LoginSuccess(*user)
	session.Cart.LoadUserCart(ctx, user.Username)
	session.Cart.LoadUserWishlist(ctx, user.Username)

	token, expiresAt, err := util.GenerateSessionToken(sessionID, user.Username, string(user.Role), s.jwtSecret, s.sessionExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.mu.Lock()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.notifier.Notify(sessionID, model.NewToast(model.ToastSuccess, fmt.Sprintf("Welcome back, %s!", user.Username)))

	logger.Info("User logged in", map[string]interface{}{
		"username":   user.Username,
		"role":       user.Role,
		"session_id": sessionID,
	})
	return &LoginResult{Session: session, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout clears the session's in-memory state; persisted carts and wishlists are kept.
func (s *sessionService) Logout(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	username := session.Username()
	session.Cart.Logout()
	session.User.Logout()

	logger.Info("User logged out", map[string]interface{}{
		"username":   username,
		"session_id": sessionID,
	})
	return nil
}

func (s *sessionService) Get(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) Touch(sessionID string) {
	session, err := s.Get(sessionID)
	if err != nil {
		return
	}
	session.touch(s.now())
}

// EvictIdle drops sessions not seen for longer than maxIdle and returns how many were removed.
func (s *sessionService) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var evicted []*Session
	for id, session := range s.sessions {
		if session.LastSeen().Before(cutoff) {
			evicted = append(evicted, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range evicted {
		session.Cart.Logout()
		session.User.Logout()
	}
	if len(evicted) > 0 {
		logger.Info("Evicted idle sessions", map[string]interface{}{
			"count":    len(evicted),
			"max_idle": maxIdle.String(),
		})
	}
	return len(evicted)
}

func (s *sessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

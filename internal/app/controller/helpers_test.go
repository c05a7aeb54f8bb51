package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
	"github.com/ikkim/storefront-backend/pkg/shopapi/shopapitest"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type recordingNotifier struct {
	mu     sync.Mutex
	toasts map[string][]model.Toast
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{toasts: make(map[string][]model.Toast)}
}

func (n *recordingNotifier) Notify(sessionID string, toast model.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts[sessionID] = append(n.toasts[sessionID], toast)
}

func (n *recordingNotifier) messages(sessionID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, t := range n.toasts[sessionID] {
		out = append(out, string(t.Type)+": "+t.Message)
	}
	return out
}

type fakeDisconnector struct {
	mu           sync.Mutex
	disconnected []string
}

func (d *fakeDisconnector) DisconnectSession(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disconnected = append(d.disconnected, sessionID)
}

type fakePresigner struct{}

func (fakePresigner) PresignProductImage(_ context.Context, seller, filename, _ string) (*storage.PresignedURLResponse, error) {
	key := "products/" + seller + "/" + filename
	return &storage.PresignedURLResponse{
		UploadURL: "https://upload.example.com/" + key,
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

type testAPI struct {
	router   *gin.Engine
	fake     *shopapitest.Server
	sessions service.SessionService
	repo     repository.CollectionRepository
	notifier *recordingNotifier
	conns    *fakeDisconnector
}

func setupTestAPI(t *testing.T) *testAPI {
	gin.SetMode(gin.TestMode)

	fake := shopapitest.NewServer(t)
	api, err := shopapi.NewClient(shopapi.Config{BaseURL: fake.BaseURL(), Timeout: 2 * time.Second})
	require.NoError(t, err)

	repo := repository.NewMemoryCollectionRepository()
	carts := service.NewUserCollection[model.LineItem](repo, service.CollectionUserCarts)
	wishlists := service.NewUserCollection[model.WishlistEntry](repo, service.CollectionUserWishlists)
	notifier := newRecordingNotifier()
	conns := &fakeDisconnector{}

	sessions := service.NewSessionService(api, carts, wishlists, notifier, testJWTSecret, time.Hour)
	auth := middleware.NewAuthMiddleware(testJWTSecret, sessions)

	authCtrl := NewAuthController(sessions, conns)
	productCtrl := NewProductController(service.NewCatalogService(api))
	cartCtrl := NewCartController(notifier)
	wishlistCtrl := NewWishlistController(notifier)
	serverCartCtrl := NewServerCartController()
	storeCtrl := NewStoreController()
	checkoutCtrl := NewCheckoutController(service.NewCheckoutService(api, notifier))
	sellerCtrl := NewSellerController(service.NewSellerService(api, fakePresigner{}, notifier))

	r := gin.New()
	v1 := r.Group("/api/v1")

	v1.POST("/auth/login", authCtrl.Login)
	v1.POST("/auth/logout", auth.Authenticate(), authCtrl.Logout)
	v1.GET("/auth/me", auth.Authenticate(), authCtrl.GetMe)
	v1.POST("/auth/connections", auth.Authenticate(), authCtrl.AddConnection)
	v1.DELETE("/auth/connections/:username", auth.Authenticate(), authCtrl.RemoveConnection)

	v1.GET("/products", auth.OptionalAuthenticate(), productCtrl.GetProducts)
	v1.GET("/products/state", productCtrl.GetState)
	v1.DELETE("/products/selected", productCtrl.ClearSelectedProduct)
	v1.GET("/products/:id", productCtrl.GetProductByID)
	v1.GET("/categories", productCtrl.GetCategories)
	v1.GET("/countries", checkoutCtrl.GetCountries)

	authed := v1.Group("", auth.Authenticate())
	authed.GET("/cart", cartCtrl.GetCart)
	authed.GET("/cart/state", cartCtrl.GetState)
	authed.POST("/cart", cartCtrl.AddToCart)
	authed.DELETE("/cart", cartCtrl.ClearCart)
	authed.DELETE("/cart/:product_id", cartCtrl.RemoveFromCart)

	authed.GET("/wishlist", wishlistCtrl.GetWishlist)
	authed.POST("/wishlist", wishlistCtrl.AddToWishlist)
	authed.DELETE("/wishlist/:product_id", wishlistCtrl.RemoveFromWishlist)
	authed.POST("/wishlist/:product_id/move-to-cart", wishlistCtrl.MoveToCart)

	authed.GET("/server-cart", serverCartCtrl.GetCart)
	authed.GET("/server-cart/state", serverCartCtrl.GetState)
	authed.POST("/server-cart", serverCartCtrl.AddItem)
	authed.PATCH("/server-cart/:id", serverCartCtrl.UpdateItem)
	authed.DELETE("/server-cart/:id", serverCartCtrl.RemoveItem)

	authed.GET("/store/items", storeCtrl.GetItems)
	authed.PUT("/store/items", storeCtrl.SetItems)
	authed.POST("/store/items", storeCtrl.AddItem)
	authed.PATCH("/store/items/:id", storeCtrl.UpdateItem)
	authed.DELETE("/store/items/:id", storeCtrl.DeleteItem)

	authed.GET("/checkout/summary", checkoutCtrl.GetSummary)
	authed.POST("/checkout", checkoutCtrl.PlaceOrder)

	seller := authed.Group("/seller", auth.RequireRole(model.RoleVendor))
	seller.GET("/categories", sellerCtrl.GetCategories)
	seller.GET("/products", sellerCtrl.GetProducts)
	seller.POST("/products", sellerCtrl.CreateProduct)
	seller.GET("/products/export", sellerCtrl.ExportProducts)
	seller.POST("/products/import", sellerCtrl.ImportProducts)
	seller.PUT("/products/:id", sellerCtrl.UpdateProduct)
	seller.DELETE("/products/:id", sellerCtrl.DeleteProduct)
	seller.POST("/uploads/presign", sellerCtrl.PresignImage)

	return &testAPI{
		router:   r,
		fake:     fake,
		sessions: sessions,
		repo:     repo,
		notifier: notifier,
		conns:    conns,
	}
}

// login returns the session token and id of a freshly logged in user.
func (a *testAPI) login(t *testing.T, username string, role model.UserRole) (string, string) {
	a.fake.AddUser(username, "secret1", role)
	w := a.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := util.ValidateToken(resp.Token, testJWTSecret)
	require.NoError(t, err)
	return resp.Token, claims.SessionID
}

func (a *testAPI) session(t *testing.T, sessionID string) *service.Session {
	session, err := a.sessions.Get(sessionID)
	require.NoError(t, err)
	return session
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func product(id uint, name string, price float64, stock int) model.Product {
	return model.Product{ID: id, Name: name, Price: model.Money(price), Stock: stock, IsActive: true}
}

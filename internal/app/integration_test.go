package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
	"github.com/ikkim/storefront-backend/pkg/shopapi/shopapitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type TestServer struct {
	URL      string
	Shop     *shopapitest.Server
	Hub      *ws.Hub
	Sessions service.SessionService
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	// Collections persist through gorm on sqlite
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	shop := shopapitest.NewServer(t)
	api, err := shopapi.NewClient(shopapi.Config{BaseURL: shop.BaseURL(), Timeout: 2 * time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)

	collections := repository.NewCollectionRepository(testDB)
	carts := service.NewUserCollection[model.LineItem](collections, service.CollectionUserCarts)
	wishlists := service.NewUserCollection[model.WishlistEntry](collections, service.CollectionUserWishlists)
	sessions := service.NewSessionService(api, carts, wishlists, hub, testJWTSecret, time.Hour)

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	r := router.NewRouter(
		controller.NewAuthController(sessions, hub),
		controller.NewProductController(service.NewCatalogService(api)),
		controller.NewCartController(hub),
		controller.NewWishlistController(hub),
		controller.NewServerCartController(),
		controller.NewStoreController(),
		controller.NewCheckoutController(service.NewCheckoutService(api, hub)),
		controller.NewSellerController(service.NewSellerService(api, nil, hub)),
		controller.NewWSController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(testJWTSecret, sessions),
		cfg,
	)

	srv := httptest.NewServer(r.Setup())
	t.Cleanup(srv.Close)

	return &TestServer{URL: srv.URL, Shop: shop, Hub: hub, Sessions: sessions}
}

func (s *TestServer) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (s *TestServer) login(t *testing.T, username string) string {
	t.Helper()
	resp, body := s.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Token
}

func (s *TestServer) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/v1/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForToast reads frames until a toast with the given message arrives.
func waitForToast(t *testing.T, conn *websocket.Conn, message string) model.Toast {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for toast %q", message)

		var msg ws.ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == "toast" && msg.Toast != nil && msg.Toast.Message == message {
			return *msg.Toast
		}
	}
}

func TestIntegration_HealthCheck(t *testing.T) {
	server := setupIntegrationTest(t)

	resp, body := server.request(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}

func TestIntegration_ShopperJourney(t *testing.T) {
	server := setupIntegrationTest(t)
	server.Shop.AddUser("alice", "secret1", model.RoleCustomer)
	server.Shop.AddProduct(model.Product{ID: 1, Name: "Mug", Price: 10, Stock: 5, IsActive: true})
	server.Shop.AddProduct(model.Product{ID: 2, Name: "Pen", Price: 2.5, Stock: 5, IsActive: true})
	server.Shop.AddCountry(model.Country{ID: 1, Name: "Netherlands", Code: "NL"})

	token := server.login(t, "alice")
	conn := server.dial(t, token)

	resp, _ := server.request(t, http.MethodGet, "/api/v1/products", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := server.request(t, http.MethodPost, "/api/v1/cart", token, gin.H{"product_id": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	toast := waitForToast(t, conn, "Added to cart")
	assert.Equal(t, model.ToastSuccess, toast.Type)

	resp, body = server.request(t, http.MethodPost, "/api/v1/wishlist", token, gin.H{"product_id": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	waitForToast(t, conn, "Added to wishlist")

	// Logging out closes the socket; the next login restores the persisted collections.
	resp, _ = server.request(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = server.request(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token = server.login(t, "alice")
	resp, body = server.request(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cart struct {
		Cart  []model.LineItem `json:"cart"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &cart))
	require.Len(t, cart.Cart, 1)
	assert.Equal(t, "Mug", cart.Cart[0].Name)

	resp, body = server.request(t, http.MethodGet, "/api/v1/wishlist", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Pen")

	// Checkout empties the cart and the empty cart is persisted too.
	conn = server.dial(t, token)
	address := model.BillingAddress{
		FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", Phone: "555",
		Address: "Main 1", City: "Utrecht", ZipCode: "3511", Country: "NL",
	}
	resp, body = server.request(t, http.MethodPost, "/api/v1/checkout", token, address)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	waitForToast(t, conn, "Order placed successfully!")
	assert.Len(t, server.Shop.Addresses(), 1)

	token = server.login(t, "alice")
	_, body = server.request(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.NoError(t, json.Unmarshal(body, &cart))
	assert.Empty(t, cart.Cart)
}

func TestIntegration_WelcomeToastReachesFirstSocket(t *testing.T) {
	server := setupIntegrationTest(t)
	server.Shop.AddUser("alice", "secret1", model.RoleCustomer)

	token := server.login(t, "alice")
	conn := server.dial(t, token)

	toast := waitForToast(t, conn, "Welcome back, alice!")
	assert.Equal(t, model.ToastSuccess, toast.Type)
}

func TestIntegration_CartsAreScopedPerUser(t *testing.T) {
	server := setupIntegrationTest(t)
	server.Shop.AddUser("alice", "secret1", model.RoleCustomer)
	server.Shop.AddUser("bob", "secret1", model.RoleCustomer)
	server.Shop.AddProduct(model.Product{ID: 1, Name: "Mug", Price: 10, Stock: 5, IsActive: true})

	alice := server.login(t, "alice")
	bob := server.login(t, "bob")

	resp, _ := server.request(t, http.MethodPost, "/api/v1/cart", alice, gin.H{"product_id": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := server.request(t, http.MethodGet, "/api/v1/cart", bob, nil)
	var cart struct {
		Cart []model.LineItem `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(body, &cart))
	assert.Empty(t, cart.Cart)
}

func TestIntegration_VendorOnlyRoutes(t *testing.T) {
	server := setupIntegrationTest(t)
	server.Shop.AddUser("alice", "secret1", model.RoleCustomer)
	server.Shop.AddUser("vera", "secret1", model.RoleVendor)

	customer := server.login(t, "alice")
	vendor := server.login(t, "vera")

	resp, _ := server.request(t, http.MethodGet, "/api/v1/seller/products", customer, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = server.request(t, http.MethodGet, "/api/v1/seller/products", vendor, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Image uploads are disabled without a presigner.
	resp, _ = server.request(t, http.MethodPost, "/api/v1/seller/uploads/presign", vendor, gin.H{
		"filename": "a.png", "content_type": "image/png",
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestIntegration_WebSocketRequiresSession(t *testing.T) {
	server := setupIntegrationTest(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

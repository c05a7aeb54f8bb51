// Package shopapitest provides an in-memory shop API served over httptest for tests.
package shopapitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
)

const apiPrefix = "/api"

type account struct {
	password string
	user     model.User
}

type failure struct {
	status int
	body   string
}

// Server is a fake shop API. Paths passed to its helpers are relative to BaseURL, e.g. "/cart/".
type Server struct {
	srv *httptest.Server

	mu            sync.Mutex
	products      map[uint]model.Product
	nextProductID uint
	categories    []model.Category
	countries     []model.Country
	accounts      map[string]account
	tokens        map[string]string
	carts         map[string][]model.ServerCartItem
	nextCartID    uint
	addresses     []model.BillingAddress
	requests      []string
	failures      map[string]failure
}

// NewServer starts a fake shop API; it is closed when the test ends.
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		products:      make(map[uint]model.Product),
		nextProductID: 1,
		accounts:      make(map[string]account),
		tokens:        make(map[string]string),
		carts:         make(map[string][]model.ServerCartItem),
		nextCartID:    1,
		failures:      make(map[string]failure),
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL is the API root to configure shop API clients with.
func (s *Server) BaseURL() string {
	return s.srv.URL + apiPrefix
}

func (s *Server) routes() http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.record)

	api := r.Group(apiPrefix)
	api.POST("/token/", s.obtainToken)
	api.GET("/products/", s.listProducts)
	api.GET("/products/:id/", s.getProduct)
	api.GET("/categories/", s.listCategories)
	api.GET("/countries/", s.listCountries)

	authed := api.Group("")
	authed.Use(s.authenticate)
	authed.GET("/user/", s.currentUser)
	authed.GET("/cart/", s.listCart)
	authed.POST("/cart/", s.addCartItem)
	authed.PATCH("/cart/:id/", s.updateCartItem)
	authed.DELETE("/cart/:id/", s.deleteCartItem)
	authed.POST("/products/", s.createProduct)
	authed.PUT("/products/:id/", s.updateProduct)
	authed.DELETE("/products/:id/", s.deleteProduct)
	authed.POST("/billing-addresses/", s.createBillingAddress)
	return r
}

// Seeding and inspection helpers

func (s *Server) AddUser(username, password string, role model.UserRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = account{
		password: password,
		user:     model.User{Username: username, Email: username + "@example.com", Role: role, Type: role},
	}
}

// TokenFor returns an access token for an existing user without going through /token/.
func (s *Server) TokenFor(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "access-" + username
	s.tokens[token] = username
	return token
}

func (s *Server) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextProductID
	}
	if p.ID >= s.nextProductID {
		s.nextProductID = p.ID + 1
	}
	s.products[p.ID] = p
	return p
}

func (s *Server) Product(id uint) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Server) AddCategory(c model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
}

func (s *Server) AddCountry(c model.Country) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countries = append(s.countries, c)
}

func (s *Server) Cart(username string) []model.ServerCartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ServerCartItem(nil), s.carts[username]...)
}

// SetCart replaces a user's cart as if another client had changed it.
func (s *Server) SetCart(username string, items []model.ServerCartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[username] = append([]model.ServerCartItem(nil), items...)
	for _, item := range items {
		if item.ID >= s.nextCartID {
			s.nextCartID = item.ID + 1
		}
	}
}

func (s *Server) Addresses() []model.BillingAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.BillingAddress(nil), s.addresses...)
}

// Requests lists every request received as "METHOD /path".
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// FailNext makes the next request matching method and path answer with status and body.
func (s *Server) FailNext(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Handlers

func (s *Server) record(c *gin.Context) {
	key := c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.Path, apiPrefix)

	s.mu.Lock()
	s.requests = append(s.requests, key)
	f, failing := s.failures[key]
	if failing {
		delete(s.failures, key)
	}
	s.mu.Unlock()

	if failing {
		c.Data(f.status, "application/json", []byte(f.body))
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")

	s.mu.Lock()
	username, ok := s.tokens[token]
	s.mu.Unlock()

	if header == "" || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		c.Abort()
		return
	}
	c.Set("username", username)
	c.Next()
}

func (s *Server) obtainToken(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
		return
	}

	access := s.TokenFor(req.Username)
	c.JSON(http.StatusOK, model.TokenPair{Access: access, Refresh: "refresh-" + req.Username})
}

func (s *Server) currentUser(c *gin.Context) {
	s.mu.Lock()
	acc := s.accounts[c.GetString("username")]
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"username": acc.user.Username, "email": acc.user.Email, "role": acc.user.Role})
}

func (s *Server) listProducts(c *gin.Context) {
	s.mu.Lock()
	products := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	s.mu.Unlock()

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	c.JSON(http.StatusOK, products)
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, found := s.Product(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c *gin.Context) {
	var p model.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if p.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"name": []string{"This field is required."}})
		return
	}
	p.ID = 0
	p.Seller = c.GetString("username")
	now := time.Now().UTC()
	p.CreatedAt = &now
	c.JSON(http.StatusCreated, s.AddProduct(p))
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p model.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	existing, found := s.products[id]
	if found {
		p.ID = id
		p.Seller = existing.Seller
		p.CreatedAt = existing.CreatedAt
		s.products[id] = p
	}
	s.mu.Unlock()

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.products[id]
	delete(s.products, id)
	s.mu.Unlock()

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listCategories(c *gin.Context) {
	s.mu.Lock()
	categories := append([]model.Category{}, s.categories...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, categories)
}

func (s *Server) listCountries(c *gin.Context) {
	s.mu.Lock()
	countries := append([]model.Country{}, s.countries...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, countries)
}

func (s *Server) listCart(c *gin.Context) {
	items := s.Cart(c.GetString("username"))
	if items == nil {
		items = []model.ServerCartItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) addCartItem(c *gin.Context) {
	var req struct {
		Product  uint `json:"product"`
		Quantity int  `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	username := c.GetString("username")

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[req.Product]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"product": []string{fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", req.Product)}})
		return
	}

	cart := s.carts[username]
	for i := range cart {
		if cart[i].Product == req.Product {
			cart[i].Quantity += req.Quantity
			c.JSON(http.StatusOK, cart[i])
			return
		}
	}
	item := model.ServerCartItem{
		ID:           s.nextCartID,
		Product:      req.Product,
		Quantity:     req.Quantity,
		ProductName:  product.Name,
		ProductPrice: product.Price,
	}
	s.nextCartID++
	s.carts[username] = append(cart, item)
	c.JSON(http.StatusCreated, item)
}

func (s *Server) updateCartItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	username := c.GetString("username")

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[username]
	for i := range cart {
		if cart[i].ID == id {
			cart[i].Quantity = req.Quantity
			c.JSON(http.StatusOK, cart[i])
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

func (s *Server) deleteCartItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	username := c.GetString("username")

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[username]
	for i := range cart {
		if cart[i].ID == id {
			s.carts[username] = append(cart[:i:i], cart[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

func (s *Server) createBillingAddress(c *gin.Context) {
	var addr model.BillingAddress
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	s.addresses = append(s.addresses, addr)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, addr)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return uint(id), true
}

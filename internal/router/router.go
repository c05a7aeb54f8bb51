package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type Router struct {
	authController       *controller.AuthController
	productController    *controller.ProductController
	cartController       *controller.CartController
	wishlistController   *controller.WishlistController
	serverCartController *controller.ServerCartController
	storeController      *controller.StoreController
	checkoutController   *controller.CheckoutController
	sellerController     *controller.SellerController
	wsController         *controller.WSController
	authMiddleware       *middleware.AuthMiddleware
	config               *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	wishlistController *controller.WishlistController,
	serverCartController *controller.ServerCartController,
	storeController *controller.StoreController,
	checkoutController *controller.CheckoutController,
	sellerController *controller.SellerController,
	wsController *controller.WSController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:       authController,
		productController:    productController,
		cartController:       cartController,
		wishlistController:   wishlistController,
		serverCartController: serverCartController,
		storeController:      storeController,
		checkoutController:   checkoutController,
		sellerController:     sellerController,
		wsController:         wsController,
		authMiddleware:       authMiddleware,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.POST("/connections", r.authMiddleware.Authenticate(), r.authController.AddConnection)
			auth.DELETE("/connections/:username", r.authMiddleware.Authenticate(), r.authController.RemoveConnection)
		}

		products := v1.Group("/products")
		products.Use(r.authMiddleware.OptionalAuthenticate())
		{
			products.GET("", r.productController.GetProducts)
			products.GET("/state", r.productController.GetState)
			products.DELETE("/selected", r.productController.ClearSelectedProduct)
			products.GET("/:id", r.productController.GetProductByID)
		}
		v1.GET("/categories", r.productController.GetCategories)
		v1.GET("/countries", r.checkoutController.GetCountries)

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.GET("/state", r.cartController.GetState)
			cart.POST("", r.cartController.AddToCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.DELETE("/:product_id", r.cartController.RemoveFromCart)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(r.authMiddleware.Authenticate())
		{
			wishlist.GET("", r.wishlistController.GetWishlist)
			wishlist.POST("", r.wishlistController.AddToWishlist)
			wishlist.DELETE("/:product_id", r.wishlistController.RemoveFromWishlist)
			wishlist.POST("/:product_id/move-to-cart", r.wishlistController.MoveToCart)
		}

		serverCart := v1.Group("/server-cart")
		serverCart.Use(r.authMiddleware.Authenticate())
		{
			serverCart.GET("", r.serverCartController.GetCart)
			serverCart.GET("/state", r.serverCartController.GetState)
			serverCart.POST("", r.serverCartController.AddItem)
			serverCart.PATCH("/:id", r.serverCartController.UpdateItem)
			serverCart.DELETE("/:id", r.serverCartController.RemoveItem)
		}

		store := v1.Group("/store/items")
		store.Use(r.authMiddleware.Authenticate())
		{
			store.GET("", r.storeController.GetItems)
			store.PUT("", r.storeController.SetItems)
			store.POST("", r.storeController.AddItem)
			store.PATCH("/:id", r.storeController.UpdateItem)
			store.DELETE("/:id", r.storeController.DeleteItem)
		}

		checkout := v1.Group("/checkout")
		checkout.Use(r.authMiddleware.Authenticate())
		{
			checkout.GET("/summary", r.checkoutController.GetSummary)
			checkout.POST("", r.checkoutController.PlaceOrder)
		}

		seller := v1.Group("/seller")
		seller.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole(model.RoleVendor))
		{
			seller.GET("/categories", r.sellerController.GetCategories)
			seller.GET("/products", r.sellerController.GetProducts)
			seller.POST("/products", r.sellerController.CreateProduct)
			seller.GET("/products/export", r.sellerController.ExportProducts)
			seller.POST("/products/import", r.sellerController.ImportProducts)
			seller.PUT("/products/:id", r.sellerController.UpdateProduct)
			seller.DELETE("/products/:id", r.sellerController.DeleteProduct)
			seller.POST("/uploads/presign", r.sellerController.PresignImage)
		}

		v1.GET("/ws", r.authMiddleware.Authenticate(), r.wsController.HandleWebSocket)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

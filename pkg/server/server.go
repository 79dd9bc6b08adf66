// Package server exposes the storefront over JSON HTTP. Handlers stay
// thin: they bind the request, resolve the acting user, call one
// service method and map the result onto a status code.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/example/eshiroflex/pkg/account"
	"github.com/example/eshiroflex/pkg/cart"
	"github.com/example/eshiroflex/pkg/catalog"
	"github.com/example/eshiroflex/pkg/config"
	"github.com/example/eshiroflex/pkg/order"
	"github.com/example/eshiroflex/pkg/payment"
	"github.com/example/eshiroflex/pkg/wishlist"
)

// Notifier is told about refunds after they are recorded.
type Notifier interface {
	PaymentRefunded(paymentID, userID string, amount decimal.Decimal)
}

type Server struct {
	config    *config.Config
	logger    *zap.Logger
	accounts  *account.Service
	catalog   *catalog.Service
	cart      *cart.Service
	wishlists *wishlist.Service
	orders    *order.Workflow
	payments  *payment.Ledger
	notifier  Notifier
	router    *gin.Engine
}

func New(
	cfg *config.Config,
	logger *zap.Logger,
	accounts *account.Service,
	cat *catalog.Service,
	carts *cart.Service,
	wishlists *wishlist.Service,
	orders *order.Workflow,
	payments *payment.Ledger,
	notifier Notifier,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	s := &Server{
		config:    cfg,
		logger:    logger,
		accounts:  accounts,
		catalog:   cat,
		cart:      carts,
		wishlists: wishlists,
		orders:    orders,
		payments:  payments,
		notifier:  notifier,
		router:    router,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.router.Group("/api/v1")

	// Public routes: browsing the catalog and registering do not need
	// an authenticated caller.
	v1.GET("/products", s.listProducts)
	v1.GET("/products/:id", s.getProduct)
	v1.GET("/categories", s.listCategories)
	v1.POST("/users", s.createUser)

	authed := v1.Group("")
	authed.Use(s.identity())
	{
		users := authed.Group("/users")
		{
			users.GET("", s.listUsers)
			users.GET("/:id", s.getUser)
			users.PUT("/:id", s.updateUser)
			users.DELETE("/:id", s.deleteUser)
		}

		products := authed.Group("/products")
		{
			products.POST("", s.createProduct)
			products.PUT("/:id", s.updateProduct)
			products.DELETE("/:id", s.deleteProduct)
		}

		categories := authed.Group("/categories")
		{
			categories.POST("", s.createCategory)
			categories.DELETE("/:id", s.deleteCategory)
		}

		cartRoutes := authed.Group("/cart")
		{
			cartRoutes.POST("/add", s.addToCart)
			cartRoutes.GET("", s.listCart)
			cartRoutes.DELETE("/:id", s.removeFromCart)
		}

		wishlistRoutes := authed.Group("/wishlist")
		{
			wishlistRoutes.POST("/add", s.addToWishlist)
			wishlistRoutes.GET("", s.listWishlist)
			wishlistRoutes.DELETE("/:id", s.removeFromWishlist)
		}

		orders := authed.Group("/orders")
		{
			orders.POST("", s.placeOrder)
			orders.POST("/direct", s.placeOrderDirect)
			orders.GET("", s.listOrders)
			orders.GET("/:id", s.getOrder)
			orders.POST("/:id/recalculate", s.recalculateOrder)
		}

		payments := authed.Group("/payments")
		{
			payments.POST("", s.createPayment)
			payments.GET("", s.listPayments)
			payments.GET("/:id", s.getPayment)
			payments.POST("/:id/refund", s.refundPayment)
		}
	}

	// Swagger
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

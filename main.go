package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/OmarShahwanGitHub/POS-App/audit"
	"github.com/OmarShahwanGitHub/POS-App/cache"
	"github.com/OmarShahwanGitHub/POS-App/config"
	"github.com/OmarShahwanGitHub/POS-App/events"
	"github.com/OmarShahwanGitHub/POS-App/handlers"
	"github.com/OmarShahwanGitHub/POS-App/metrics"
	"github.com/OmarShahwanGitHub/POS-App/models"
	"github.com/OmarShahwanGitHub/POS-App/payments"
	"github.com/OmarShahwanGitHub/POS-App/pricing"
	"github.com/OmarShahwanGitHub/POS-App/services"
	"github.com/OmarShahwanGitHub/POS-App/store"
	"github.com/OmarShahwanGitHub/POS-App/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.Server.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := gorm.Open(sqlite.Open(cfg.Database.URI), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.CustomizationTemplate{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemCustomization{},
	); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	metrics.Register()

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	squareBase := payments.SandboxBaseURL
	if cfg.Square.Production() {
		squareBase = payments.ProductionBaseURL
	}
	gateway := payments.NewSquareGateway(squareBase, cfg.Square.AccessToken, cfg.Square.Timeout, logger)

	var orderCache *cache.OrderCache
	if cfg.Redis.Addr != "" {
		orderCache = cache.NewOrderCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := orderCache.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, running without order cache", zap.Error(err))
			orderCache = nil
		} else {
			defer orderCache.Close()
		}
		cancel()
	}

	var trail *audit.Trail
	if cfg.Mongo.URI != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		trail, err = audit.NewTrail(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
		cancel()
		if err != nil {
			logger.Warn("mongo unreachable, running without audit trail", zap.Error(err))
			trail = nil
		} else {
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				trail.Close(closeCtx)
				cancel()
			}()
		}
	}

	orderStore := store.NewOrderStore(db, logger)
	menuStore := store.NewMenuStore(db)

	orderService := services.NewOrderService(
		orderStore,
		menuStore,
		pricing.NewEngine(cfg.Pricing.CardRate, cfg.Pricing.CardFee),
		gateway,
		broker,
		orderCache,
		trail,
		logger,
		services.Config{
			KitchenLimit:        cfg.Kitchen.MaxOrders,
			Currency:            "USD",
			SquareApplicationID: cfg.Square.ApplicationID,
			TerminalCallbackURL: cfg.Square.CallbackURL,
		},
	)

	h := &handlers.Handlers{
		DB:        db,
		Orders:    orderService,
		Menu:      menuStore,
		Broker:    broker,
		Tokens:    utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Logger:    logger,
		Keepalive: cfg.Stream.KeepaliveInterval,
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	var corsConfig cors.Config
	if cfg.Server.Env == "development" || cfg.Server.Env == "debug" {
		// Development: Allow all origins
		corsConfig = cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}
	} else {
		// Production: Be specific and secure
		corsConfig = cors.Config{
			AllowOrigins:     []string{"https://your-production-frontend.com"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", metrics.Handler())

	// --- Authentication Routes ---
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	// --- Public Menu Routes --- (Auth token not needed)
	publicGroup := router.Group("/public")
	{
		publicGroup.GET("/menu", h.ListMenu)
		publicGroup.GET("/menu/:item_id", h.GetMenuItem)
	}

	// --- Customer Protected Routes ---
	customerRoutes := router.Group("/orders", h.AuthMiddleware())
	{
		customerRoutes.POST("", h.PlaceOrder)
		customerRoutes.GET("/mine", h.MyOrders)
		customerRoutes.GET("/:order_id", h.GetOrder)
		customerRoutes.GET("/:order_id/status", h.GetOrderStatus)
	}

	// --- Cashier Protected Routes ---
	cashierRoutes := router.Group("/cashier", h.AuthMiddleware(), handlers.RequireRole(models.RoleCashier, models.RoleAdmin))
	{
		orderRoutes := cashierRoutes.Group("/orders")
		{
			orderRoutes.GET("", h.ListOrders)
			orderRoutes.PUT("/:order_id", h.EditOrder)
			orderRoutes.POST("/:order_id/payment", h.CapturePayment)
			orderRoutes.POST("/:order_id/renumber", h.RenumberOrder)
			orderRoutes.POST("/:order_id/complete-through", h.CompleteThrough)
			orderRoutes.POST("/:order_id/terminal-checkout", h.TerminalCheckout)
			orderRoutes.GET("/:order_id/terminal-status", h.TerminalStatus)
			orderRoutes.POST("/:order_id/simulate-payment", h.SimulatePayment)
		}
	}

	// --- Kitchen Protected Routes ---
	kitchenRoutes := router.Group("/kitchen", h.AuthMiddleware(), handlers.RequireRole(models.RoleKitchen, models.RoleAdmin))
	{
		kitchenRoutes.GET("/orders", h.KitchenOrders)
		kitchenRoutes.PATCH("/orders/:order_id/status", h.UpdateOrderStatus)
		kitchenRoutes.GET("/orders/stream", h.OrderStream)
	}

	// --- Admin Protected Routes ---
	adminRoutes := router.Group("/admin", h.AuthMiddleware(), handlers.RequireRole(models.RoleAdmin))
	{
		adminRoutes.GET("/summary", h.Summary)

		menuRoutes := adminRoutes.Group("/menu")
		{
			menuRoutes.GET("", h.ListMenuAdmin)
			menuRoutes.POST("", h.CreateMenuItem)
			menuRoutes.PUT("/:item_id", h.UpdateMenuItem)
			menuRoutes.DELETE("/:item_id", h.DeleteMenuItem)

			menuRoutes.GET("/:item_id/customizations", h.ListCustomizations)
			menuRoutes.POST("/:item_id/customizations", h.AddCustomization)
			menuRoutes.PUT("/:item_id/customizations/:customization_id", h.UpdateCustomization)
			menuRoutes.DELETE("/:item_id/customizations/:customization_id", h.DeleteCustomization)
		}

		userRoutes := adminRoutes.Group("/users")
		{
			userRoutes.GET("", h.ListUsers)
			userRoutes.PUT("/:user_id/role", h.UpdateUserRole)
			userRoutes.DELETE("/:user_id", h.DeleteUser)
		}
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	// Stop the broker first so open event streams end instead of holding
	// Shutdown until its deadline.
	broker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

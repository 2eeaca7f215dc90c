package main

import (
	"context"                      // context package is needed for Redis operations
	"log"                          // log package is needed for logging
	"subtrack/internal/agent"      // Custom package for the agent evaluator
	"subtrack/internal/api"        // Custom package for API handlers
	"subtrack/internal/config"     // Custom package for configuration
	"subtrack/internal/middleware" // Custom package for middleware
	"subtrack/internal/store"      // Custom package for the storage layer

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Prometheus metrics handler
	"github.com/redis/go-redis/v9"                            // Redis client
	"github.com/sirupsen/logrus"                              // Logrus for structured logging
	"gorm.io/driver/mysql"                                    // MySQL driver for GORM
	"gorm.io/gorm"                                            // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Stores and the evaluator over them
	ledger := store.NewLedgerStore(db)
	subs := store.NewSubscriptionStore(db)
	groups := store.NewGroupStore(db)
	evaluator := agent.NewEvaluator(ledger, subs)

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes
	r.POST("/api/register", api.RegisterHandler(db, ledger))                             // Registration endpoint
	r.POST("/api/login", api.LoginHandler(db, cfg.JWTSecret))                            // Login endpoint
	r.POST("/api/logout", middleware.JWTAuthMiddleware(cfg.JWTSecret), api.LogoutHandler()) // Logout endpoint
	r.GET("/api/user", middleware.OptionalJWTMiddleware(cfg.JWTSecret), api.CurrentUserHandler(db)) // Current user, null when anonymous

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/api/wallet")
	walletGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	walletGroup.GET("", api.GetWalletHandler(ledger, redisClient))                          // Get wallet endpoint
	walletGroup.POST("/deposit", api.DepositHandler(ledger, redisClient))                   // Deposit endpoint
	walletGroup.POST("/withdraw", api.WithdrawHandler(ledger, redisClient))                 // Withdraw endpoint
	walletGroup.GET("/transactions", api.GetTransactionHistoryHandler(ledger, redisClient)) // Transaction history endpoint

	// Subscription routes (protected by JWT)
	subGroup := r.Group("/api/subscriptions")
	subGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	subGroup.GET("", api.ListSubscriptionsHandler(subs))          // List subscriptions endpoint
	subGroup.POST("", api.CreateSubscriptionHandler(subs))        // Create subscription endpoint
	subGroup.PUT("/:id", api.UpdateSubscriptionHandler(subs))     // Update subscription endpoint
	subGroup.DELETE("/:id", api.DeleteSubscriptionHandler(subs))  // Delete subscription endpoint

	// Agent route (protected by JWT)
	r.POST("/api/agent/run", middleware.JWTAuthMiddleware(cfg.JWTSecret), api.RunAgentHandler(evaluator, redisClient)) // Agent run endpoint

	// Group routes (protected by JWT)
	groupRoutes := r.Group("/api/groups")
	groupRoutes.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	groupRoutes.GET("", api.ListGroupsHandler(groups))          // List groups endpoint
	groupRoutes.POST("", api.CreateGroupHandler(db, groups))    // Create group endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/api/admin")
	// Protect admin routes with JWT and AdminOnly middleware
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/users", api.ListUsersHandler(db, redisClient))               // List users endpoint
	adminGroup.GET("/transactions", api.ListTransactionsHandler(db, redisClient)) // List transactions endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}

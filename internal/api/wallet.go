package api

import (
	"context"                  // Context for Redis operations
	"errors"                   // Sentinel error comparison
	"net/http"                 // HTTP status codes
	"strconv"                  // String conversion
	"subtrack/internal/domain" // Importing domain models
	"subtrack/internal/store"  // Ledger store
	"subtrack/internal/utils"  // Utility functions
	"time"                     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// AmountRequest represents a deposit or withdrawal request
type AmountRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"` // Amount, must be positive
}

// GetWalletHandler returns wallet info for the authenticated user
func GetWalletHandler(ledger *store.LedgerStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()                     // Context for Redis operations
		cacheKey := utils.WalletCacheKey(userID.(uint)) // Cache key for wallet
		var wallet domain.Wallet                        // Wallet struct to hold data
		// Caching is optional, handlers run without Redis in tests
		if rdb != nil {
			found, err := utils.GetCache(ctx, rdb, cacheKey, &wallet) // Try to get from cache
			// If found in cache, return it
			if err == nil && found {
				// Return cached wallet
				c.JSON(http.StatusOK, gin.H{"wallet": wallet, "cached": true})
				return
			}
		}
		// If not in cache, fetch from the ledger store
		w, err := ledger.GetWallet(userID.(uint))
		if err != nil {
			// Return not found if wallet doesn't exist
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		if rdb != nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, w, 60*time.Second) // Cache the wallet for 60 seconds
		}
		c.JSON(http.StatusOK, gin.H{"wallet": w, "cached": false}) // Return wallet info
	}
}

// DepositHandler allows a user to deposit funds into their wallet
func DepositHandler(ledger *store.LedgerStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req AmountRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		// Credit the wallet and append the deposit entry atomically
		wallet, err := ledger.Deposit(userID.(uint), req.Amount)
		if err != nil {
			// Missing wallet is the caller's problem, everything else is ours
			if errors.Is(err, store.ErrWalletNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
				return
			}
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"amount":  req.Amount,  // Deposit amount
				"error":   err.Error(), // Error message
			}).Error("Deposit failed") // Log deposit failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Deposit failed"}) // Return internal server error
			return
		}
		// Log successful deposit
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,                          // User ID
			"amount":    req.Amount,                      // Deposit amount
			"type":      domain.TxDeposit,                // Transaction type
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Deposit transaction") // Log deposit success
		// Invalidate wallet and transaction history cache
		if rdb != nil {
			utils.InvalidateWalletCaches(context.Background(), rdb, userID.(uint))
		}
		// Return the updated wallet
		c.JSON(http.StatusOK, gin.H{"message": "Deposit successful", "wallet": wallet})
	}
}

// WithdrawHandler allows a user to withdraw funds from their wallet
func WithdrawHandler(ledger *store.LedgerStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req AmountRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		// Debit the wallet and append the withdrawal entry atomically
		wallet, err := ledger.Withdraw(userID.(uint), req.Amount)
		if err != nil {
			// A withdrawal may never overdraw the wallet
			if errors.Is(err, store.ErrInsufficientFunds) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
				return
			}
			if errors.Is(err, store.ErrWalletNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
				return
			}
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"amount":  req.Amount,  // Withdrawal amount
				"error":   err.Error(), // Error message
			}).Error("Withdrawal failed") // Log withdrawal failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Withdrawal failed"}) // Return internal server error
			return
		}
		// Log successful withdrawal
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,                          // User ID
			"amount":    req.Amount,                      // Withdrawal amount
			"type":      domain.TxWithdrawal,             // Transaction type
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Withdrawal transaction") // Log withdrawal success
		// Invalidate wallet and transaction history cache
		if rdb != nil {
			utils.InvalidateWalletCaches(context.Background(), rdb, userID.(uint))
		}
		// Return the updated wallet
		c.JSON(http.StatusOK, gin.H{"message": "Withdrawal successful", "wallet": wallet})
	}
}

// GetTransactionHistoryHandler returns the authenticated user's transaction log, newest first
func GetTransactionHistoryHandler(ledger *store.LedgerStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Get user's wallet
		wallet, err := ledger.GetWallet(userID.(uint))
		if err != nil {
			// Return not found if wallet doesn't exist
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		page := 1      // Default page
		pageSize := 20 // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			// Convert page to integer
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			// Convert page_size to integer
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size if valid
			}
		}
		offset := (page - 1) * pageSize                                    // Calculate offset
		cacheKey := utils.TxHistoryCacheKey(userID.(uint), page, pageSize) // Redis cache key
		ctx := context.Background()                                        // Context for Redis operations
		var cached struct {
			Transactions []domain.Transaction `json:"transactions"` // List of transactions
			Page         int                  `json:"page"`         // Current page
			PageSize     int                  `json:"page_size"`    // Page size
			Total        int64                `json:"total"`        // Total transactions
			TotalPages   int                  `json:"total_pages"`  // Total pages
		}
		if rdb != nil {
			// Try to get from cache
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
			// If found in cache, return it
			if err == nil && found {
				c.JSON(http.StatusOK, gin.H{
					"transactions": cached.Transactions, // Cached transactions
					"page":         cached.Page,         // Current page
					"page_size":    cached.PageSize,     // Page size
					"total":        cached.Total,        // Total transactions
					"total_pages":  cached.TotalPages,   // Total pages
					"cached":       true,
				})
				return
			}
		}
		// Count total transactions for pagination
		total, err := ledger.CountTransactions(wallet.ID)
		if err != nil {
			// If counting fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		// Fetch paginated transactions
		transactions, err := ledger.ListTransactionsPage(wallet.ID, offset, pageSize)
		if err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transactions": transactions, // List of transactions
			"page":         page,         // Current page
			"page_size":    pageSize,     // Page size
			"total":        total,        // Total transactions
			"total_pages":  totalPages,   // Total pages
			"cached":       false,        // Not from cache
		}
		if rdb != nil {
			// Cache the result for 60 seconds
			_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		}
		c.JSON(http.StatusOK, resp) // Return transaction history
	}
}

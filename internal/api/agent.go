package api

import (
	"context"                 // Context for Redis operations
	"errors"                  // Sentinel error comparison
	"net/http"                // HTTP status codes
	"subtrack/internal/agent" // The evaluator
	"subtrack/internal/store" // Sentinel errors
	"subtrack/internal/utils" // Cache invalidation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// RunAgentHandler triggers one synchronous evaluator run for the caller and
// returns its report
func RunAgentHandler(evaluator *agent.Evaluator, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Run the evaluator for this user
		report, err := evaluator.Run(userID.(uint))
		if err != nil {
			// The agent refuses to run without a wallet
			if errors.Is(err, store.ErrWalletNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
				return
			}
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Agent run failed") // Log run failure
			// Partial mutations may have committed before the failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Agent run failed"})
			return
		}
		agentRunsTotal.Inc()                                          // Count the run
		agentCancellationsTotal.Add(float64(report.Cancelled))        // Count the cancellations
		// Refunds changed the wallet, drop its caches
		if rdb != nil && report.Cancelled > 0 {
			utils.InvalidateWalletCaches(context.Background(), rdb, userID.(uint))
		}
		c.JSON(http.StatusOK, report) // Return the run report
	}
}

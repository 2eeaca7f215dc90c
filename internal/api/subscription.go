package api

import (
	"errors"                   // Sentinel error comparison
	"net/http"                 // HTTP status codes
	"strconv"                  // Path parameter conversion
	"subtrack/internal/domain" // Importing domain models
	"subtrack/internal/store"  // Subscription store
	"time"                     // Date fields

	"github.com/gin-gonic/gin" // Gin web framework
)

// SubscriptionRequest represents a subscription creation request
type SubscriptionRequest struct {
	Name            string     `json:"name" binding:"required"`                              // Service name
	Price           float64    `json:"price" binding:"required,gt=0"`                        // Price per billing cycle
	BillingCycle    string     `json:"billing_cycle" binding:"required,oneof=monthly yearly"` // Billing cycle
	StartDate       time.Time  `json:"start_date" binding:"required"`                        // Subscription start
	NextBillingDate time.Time  `json:"next_billing_date" binding:"required"`                 // Next charge date
	Category        string     `json:"category" binding:"required"`                          // Category label
	AutoCancel      bool       `json:"auto_cancel"`                                          // Agent opt-in
	UsageCount      *int       `json:"usage_count"`                                          // Monthly usage, optional
	LastUsedDate    *time.Time `json:"last_used_date"`                                       // Last recorded use, optional
	Logo            string     `json:"logo"`                                                 // Display hint
}

// UpdateSubscriptionRequest represents a partial subscription update; nil
// fields are left unchanged
type UpdateSubscriptionRequest struct {
	Name            *string    `json:"name"`                                        // Service name
	Price           *float64   `json:"price" binding:"omitempty,gt=0"`              // Price per billing cycle
	BillingCycle    *string    `json:"billing_cycle" binding:"omitempty,oneof=monthly yearly"` // Billing cycle
	NextBillingDate *time.Time `json:"next_billing_date"`                           // Next charge date
	Status          *string    `json:"status" binding:"omitempty,oneof=active cancelled"` // Status
	Category        *string    `json:"category"`                                    // Category label
	AutoCancel      *bool      `json:"auto_cancel"`                                 // Agent opt-in
	UsageCount      *int       `json:"usage_count"`                                 // Monthly usage
	LastUsedDate    *time.Time `json:"last_used_date"`                              // Last recorded use
	Logo            *string    `json:"logo"`                                        // Display hint
}

// ListSubscriptionsHandler returns the authenticated user's subscriptions
func ListSubscriptionsHandler(subs *store.SubscriptionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Fetch all subscriptions for the user
		list, err := subs.List(userID.(uint))
		if err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions"})
			return
		}
		c.JSON(http.StatusOK, list) // Return the subscriptions
	}
}

// CreateSubscriptionHandler registers a new subscription for the user
func CreateSubscriptionHandler(subs *store.SubscriptionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req SubscriptionRequest // Bind JSON request to struct
		// Validate request against the schema
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription: " + err.Error()})
			return
		}
		// Build the subscription owned by the caller
		sub := domain.Subscription{
			UserID:          userID.(uint),         // Owner
			Name:            req.Name,              // Service name
			Price:           req.Price,             // Price per billing cycle
			BillingCycle:    req.BillingCycle,      // Billing cycle
			StartDate:       req.StartDate,         // Subscription start
			NextBillingDate: req.NextBillingDate,   // Next charge date
			Status:          domain.StatusActive,   // New subscriptions start active
			Category:        req.Category,          // Category label
			AutoCancel:      req.AutoCancel,        // Agent opt-in
			UsageCount:      req.UsageCount,        // Monthly usage
			LastUsedDate:    req.LastUsedDate,      // Last recorded use
			Logo:            req.Logo,              // Display hint
		}
		// Save the subscription
		if err := subs.Create(&sub); err != nil {
			// If saving fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subscription"})
			return
		}
		c.JSON(http.StatusCreated, sub) // Return the new subscription
	}
}

// UpdateSubscriptionHandler applies a partial update to a subscription the
// caller owns
func UpdateSubscriptionHandler(subs *store.SubscriptionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Parse the subscription id from the path
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription id"})
			return
		}
		var req UpdateSubscriptionRequest // Bind JSON request to struct
		// Validate request against the schema
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update: " + err.Error()})
			return
		}
		// The record must exist and belong to the caller
		existing, err := subs.Get(uint(id))
		if err != nil || existing.UserID != userID.(uint) {
			// Hide other users' subscriptions behind not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		// Collect only the provided fields
		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.BillingCycle != nil {
			updates["billing_cycle"] = *req.BillingCycle
		}
		if req.NextBillingDate != nil {
			updates["next_billing_date"] = *req.NextBillingDate
		}
		if req.Status != nil {
			updates["status"] = *req.Status
		}
		if req.Category != nil {
			updates["category"] = *req.Category
		}
		if req.AutoCancel != nil {
			updates["auto_cancel"] = *req.AutoCancel
		}
		if req.UsageCount != nil {
			updates["usage_count"] = *req.UsageCount
		}
		if req.LastUsedDate != nil {
			updates["last_used_date"] = *req.LastUsedDate
		}
		if req.Logo != nil {
			updates["logo"] = *req.Logo
		}
		// Apply the partial update
		updated, err := subs.Update(uint(id), updates)
		if err != nil {
			if errors.Is(err, store.ErrSubscriptionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
				return
			}
			// If updating fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subscription"})
			return
		}
		c.JSON(http.StatusOK, updated) // Return the updated subscription
	}
}

// DeleteSubscriptionHandler removes a subscription the caller owns. Deleting
// an already-absent id succeeds.
func DeleteSubscriptionHandler(subs *store.SubscriptionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Parse the subscription id from the path
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription id"})
			return
		}
		// A record that exists must belong to the caller; an absent one is fine
		existing, err := subs.Get(uint(id))
		if err == nil && existing.UserID != userID.(uint) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		// Delete is idempotent
		if err := subs.Delete(uint(id)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete subscription"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Subscription deleted"}) // Return success
	}
}

package api

import (
	"errors"                   // Sentinel error comparison
	"net/http"                 // HTTP status codes
	"strings"                  // Username normalization
	"subtrack/internal/domain" // Importing domain models
	"subtrack/internal/store"  // Group store

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// GroupMemberRequest names one member and their share
type GroupMemberRequest struct {
	Username        string  `json:"username" binding:"required"`                 // Member username
	SplitPercentage float64 `json:"split_percentage" binding:"required,gt=0,lte=100"` // Member's share
}

// CreateGroupRequest represents a group creation request
type CreateGroupRequest struct {
	Name    string               `json:"name" binding:"required"` // Group name
	Members []GroupMemberRequest `json:"members"`                 // Members with their splits
}

// ListGroupsHandler returns every group the caller belongs to
func ListGroupsHandler(groups *store.GroupStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Fetch groups through memberships
		list, err := groups.ListForUser(userID.(uint))
		if err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
			return
		}
		c.JSON(http.StatusOK, list) // Return the groups
	}
}

// CreateGroupHandler creates a group with the caller as creator. Member split
// percentages must sum to 100; the server enforces this, not the client.
func CreateGroupHandler(db *gorm.DB, groups *store.GroupStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateGroupRequest // Bind JSON request to struct
		// Validate request against the schema
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group: " + err.Error()})
			return
		}
		// Resolve member usernames to users
		members := make([]domain.GroupMember, 0, len(req.Members))
		for _, m := range req.Members {
			var user domain.User // Fetch member from database
			if err := db.Where("username = ?", strings.ToLower(m.Username)).First(&user).Error; err != nil {
				// Unknown member, reject the group
				c.JSON(http.StatusNotFound, gin.H{"error": "Member not found: " + m.Username})
				return
			}
			members = append(members, domain.GroupMember{
				UserID:          user.ID,           // Resolved member
				SplitPercentage: m.SplitPercentage, // Member's share
			})
		}
		// Build the group owned by the caller
		group := domain.Group{
			Name:      req.Name,      // Group name
			CreatorID: userID.(uint), // The caller
		}
		// Save group and memberships atomically
		if err := groups.Create(&group, members); err != nil {
			// Splits that don't cover the whole expense are a caller error
			if errors.Is(err, store.ErrInvalidSplit) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
			return
		}
		c.JSON(http.StatusCreated, group) // Return the new group
	}
}

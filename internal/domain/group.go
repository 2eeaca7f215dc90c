package domain

import "time"

// Group Model, a shared expense pool
type Group struct {
	ID           uint          `gorm:"primaryKey" json:"id"`              // Primary key
	Name         string        `gorm:"not null" json:"name"`              // Group name
	CreatorID    uint          `gorm:"not null" json:"creator_id"`        // User who created the group
	TotalExpense float64       `gorm:"default:0" json:"total_expense"`    // Running total of group spend
	Members      []GroupMember `gorm:"constraint:OnDelete:CASCADE;" json:"members,omitempty"` // Group members with their splits
}

// GroupMember Model
type GroupMember struct {
	ID              uint      `gorm:"primaryKey" json:"id"`        // Primary key
	GroupID         uint      `gorm:"index" json:"group_id"`       // Foreign key to Group
	UserID          uint      `gorm:"index" json:"user_id"`        // Foreign key to User
	SplitPercentage float64   `gorm:"default:0" json:"split_percentage"` // Member's share of group expenses
	JoinedAt        time.Time `gorm:"autoCreateTime" json:"joined_at"`   // When the member joined
}

package domain

import "time"

// User Model
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`                                                          // Primary key
	Username      string         `gorm:"unique;not null" json:"username"`                                               // Unique username
	Password      string         `gorm:"not null" json:"-"`                                                             // Hashed password, never serialized
	Role          string         `gorm:"default:user" json:"role"`                                                      // Role: user or admin
	CreatedAt     time.Time      `json:"created_at"`                                                                    // Account creation time
	Wallet        Wallet         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"wallet,omitempty"`        // One-to-one relationship with Wallet
	Subscriptions []Subscription `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"subscriptions,omitempty"` // One-to-many relationship with Subscription
}

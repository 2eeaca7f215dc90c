package domain

import "time"

// Subscription statuses
const (
	StatusActive    = "active"    // Billing continues
	StatusCancelled = "cancelled" // Cancelled by the user or the agent
)

// Billing cycles
const (
	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
)

// Subscription Model
type Subscription struct {
	ID              uint       `gorm:"primaryKey" json:"id"`                 // Primary key
	UserID          uint       `gorm:"index" json:"user_id"`                 // Foreign key to User
	Name            string     `gorm:"not null" json:"name"`                 // Service name
	Price           float64    `gorm:"not null" json:"price"`                // Price per billing cycle
	BillingCycle    string     `gorm:"not null" json:"billing_cycle"`        // Billing cycle: monthly or yearly
	StartDate       time.Time  `gorm:"not null" json:"start_date"`           // When the subscription started
	NextBillingDate time.Time  `gorm:"not null" json:"next_billing_date"`    // Next charge date
	Status          string     `gorm:"not null;default:active" json:"status"` // Status: active or cancelled
	Category        string     `gorm:"not null" json:"category"`             // Category label, e.g. Entertainment
	AutoCancel      bool       `gorm:"default:false" json:"auto_cancel"`     // Whether the agent may cancel this subscription
	UsageCount      *int       `json:"usage_count"`                          // Uses in the current month, nil when untracked
	LastUsedDate    *time.Time `json:"last_used_date"`                       // Last recorded use
	Logo            string     `json:"logo"`                                 // Display hint for clients
}

package domain

// Wallet Model
type Wallet struct {
	ID      uint    `gorm:"primaryKey" json:"id"`              // Primary key
	UserID  uint    `gorm:"uniqueIndex" json:"user_id"`        // Foreign key to User, one wallet per user
	Balance float64 `gorm:"not null;default:0" json:"balance"` // Wallet balance
}

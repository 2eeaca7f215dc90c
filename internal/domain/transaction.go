package domain

import "time"

// Transaction types
const (
	TxDeposit    = "deposit"    // Funds added by the user
	TxWithdrawal = "withdrawal" // Funds removed by the user
	TxPayment    = "payment"    // Subscription charge
	TxRefund     = "refund"     // Agent-issued refund
)

// Transaction Model. Entries are append-only: never updated or deleted.
type Transaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`        // Primary key
	WalletID    uint      `gorm:"index" json:"wallet_id"`      // Foreign key to Wallet
	Amount      float64   `gorm:"not null" json:"amount"`      // Amount, always a positive magnitude
	Type        string    `gorm:"not null" json:"type"`        // Transaction type: deposit, withdrawal, payment, refund
	Description string    `gorm:"not null" json:"description"` // Human-readable description
	CreatedAt   time.Time `json:"created_at"`                  // Timestamp of creation
}

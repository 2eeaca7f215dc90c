package store

import (
	"errors"  // Error wrapping and comparison
	"math"    // Absolute value for transaction amounts
	"subtrack/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// LedgerStore owns wallet balances and their append-only transaction log.
// Every balance mutation and its matching log entry commit in one database
// transaction, so the log never disagrees with the stored balance.
type LedgerStore struct {
	db *gorm.DB // Database handle
}

// NewLedgerStore creates a LedgerStore backed by the given database
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// GetWallet returns the wallet owned by userID
func (s *LedgerStore) GetWallet(userID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet // Wallet struct to hold data
	// Query wallet by user ID
	if err := s.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		// Map missing record to the sentinel error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err // Other database error
	}
	return &wallet, nil
}

// CreateWallet creates a zero-balance wallet for userID
func (s *LedgerStore) CreateWallet(userID uint) (*domain.Wallet, error) {
	wallet := domain.Wallet{UserID: userID, Balance: 0} // New wallet with zero balance
	// Save the new wallet
	if err := s.db.Create(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// AdjustBalance applies delta (which may be negative) to the user's wallet and
// appends a transaction of the given type in the same database transaction.
// A negative delta that would overdraw the wallet fails with
// ErrInsufficientFunds and leaves the balance unchanged.
func (s *LedgerStore) AdjustBalance(userID uint, delta float64, txType, description string) (*domain.Wallet, error) {
	var wallet domain.Wallet // Wallet struct to hold data
	// Run balance update and log append atomically
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Load the wallet inside the transaction
		if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound // Map missing record to the sentinel error
			}
			return err
		}
		// Reject debits that exceed the current balance
		if delta < 0 && wallet.Balance+delta < 0 {
			return ErrInsufficientFunds
		}
		// Apply the delta atomically
		if err := tx.Model(&wallet).Update("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
			return err // Return error to rollback
		}
		// Append the log entry, amount stored as a positive magnitude
		t := domain.Transaction{
			WalletID:    wallet.ID,        // Wallet the entry belongs to
			Amount:      math.Abs(delta),  // Positive magnitude
			Type:        txType,           // Transaction type
			Description: description,      // Human-readable description
		}
		// Save transaction
		if err := tx.Create(&t).Error; err != nil {
			return err // Return error to rollback
		}
		wallet.Balance += delta // Reflect the new balance in the returned struct
		return nil              // Commit transaction
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Deposit credits a positive amount and records a deposit transaction
func (s *LedgerStore) Deposit(userID uint, amount float64) (*domain.Wallet, error) {
	return s.AdjustBalance(userID, amount, domain.TxDeposit, "Wallet Top-up")
}

// Withdraw debits a positive amount and records a withdrawal transaction.
// Fails with ErrInsufficientFunds when amount exceeds the balance.
func (s *LedgerStore) Withdraw(userID uint, amount float64) (*domain.Wallet, error) {
	return s.AdjustBalance(userID, -amount, domain.TxWithdrawal, "Wallet Withdrawal")
}

// ListTransactions returns the wallet's transaction log, newest first
func (s *LedgerStore) ListTransactions(walletID uint) ([]domain.Transaction, error) {
	var txs []domain.Transaction // Slice to hold transactions
	// Fetch transactions ordered by creation time descending
	if err := s.db.Where("wallet_id = ?", walletID).
		Order("created_at desc, id desc").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// CountTransactions returns the number of log entries for a wallet
func (s *LedgerStore) CountTransactions(walletID uint) (int64, error) {
	var total int64 // Total transaction count
	// Count entries for the wallet
	if err := s.db.Model(&domain.Transaction{}).Where("wallet_id = ?", walletID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListTransactionsPage returns one page of the wallet's transaction log, newest first
func (s *LedgerStore) ListTransactionsPage(walletID uint, offset, limit int) ([]domain.Transaction, error) {
	var txs []domain.Transaction // Slice to hold transactions
	// Fetch paginated transactions ordered by creation time descending
	if err := s.db.Where("wallet_id = ?", walletID).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

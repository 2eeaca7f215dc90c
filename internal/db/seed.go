package db

import (
	"subtrack/internal/domain" // Importing domain models
	"subtrack/internal/store"  // Ledger and subscription stores
	"time"                     // Seed dates

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// intPtr returns a pointer to v
func intPtr(v int) *int { return &v }

// timePtr returns a pointer to t
func timePtr(t time.Time) *time.Time { return &t }

// Seed loads the demo account with a funded wallet and a spread of
// subscriptions, including one low-usage auto-cancel candidate for the agent.
// Idempotent: does nothing when the demo user already exists.
func Seed(db *gorm.DB) error {
	var existing domain.User // Check for the demo user
	if err := db.Where("username = ?", "demo").First(&existing).Error; err == nil {
		return nil // Already seeded
	}
	logrus.Info("Seeding database...") // Log seeding start

	// Demo credentials: demo / demo123
	hash, err := bcrypt.GenerateFromPassword([]byte("demo123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := domain.User{Username: "demo", Password: string(hash)}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	// Seed wallet with an initial deposit
	ledger := store.NewLedgerStore(db)
	if _, err := ledger.CreateWallet(user.ID); err != nil {
		return err
	}
	if _, err := ledger.AdjustBalance(user.ID, 5000, domain.TxDeposit, "Initial Deposit"); err != nil {
		return err
	}

	// Seed subscriptions
	today := time.Now()
	nextMonth := today.AddDate(0, 1, 0)
	subs := []domain.Subscription{
		{
			UserID:          user.ID,
			Name:            "Netflix",
			Price:           499,
			BillingCycle:    domain.CycleMonthly,
			StartDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			NextBillingDate: nextMonth,
			Status:          domain.StatusActive,
			Category:        "Entertainment",
			AutoCancel:      false,
			UsageCount:      intPtr(15),
			LastUsedDate:    timePtr(today),
			Logo:            "N",
		},
		{
			UserID:          user.ID,
			Name:            "Spotify",
			Price:           119,
			BillingCycle:    domain.CycleMonthly,
			StartDate:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			NextBillingDate: nextMonth,
			Status:          domain.StatusActive,
			Category:        "Music",
			AutoCancel:      true,
			UsageCount:      intPtr(25),
			LastUsedDate:    timePtr(today),
			Logo:            "S",
		},
		{
			UserID:          user.ID,
			Name:            "Adobe Creative Cloud",
			Price:           1675,
			BillingCycle:    domain.CycleMonthly,
			StartDate:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			NextBillingDate: nextMonth,
			Status:          domain.StatusActive,
			Category:        "Productivity",
			AutoCancel:      true,
			UsageCount:      intPtr(1), // Low usage, candidate for the agent
			LastUsedDate:    timePtr(today.AddDate(0, 0, -40)),
			Logo:            "A",
		},
		{
			UserID:          user.ID,
			Name:            "Amazon Prime",
			Price:           1499,
			BillingCycle:    domain.CycleYearly,
			StartDate:       time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			NextBillingDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Status:          domain.StatusActive,
			Category:        "Shopping",
			AutoCancel:      false,
			UsageCount:      intPtr(5),
			LastUsedDate:    timePtr(today),
			Logo:            "P",
		},
	}
	// Save each subscription
	for i := range subs {
		if err := db.Create(&subs[i]).Error; err != nil {
			return err
		}
	}
	logrus.Info("Seeding complete. User: demo / demo123") // Log seeding end
	return nil
}

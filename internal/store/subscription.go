package store

import (
	"errors"                   // Error comparison
	"subtrack/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// SubscriptionStore owns subscription records
type SubscriptionStore struct {
	db *gorm.DB // Database handle
}

// NewSubscriptionStore creates a SubscriptionStore backed by the given database
func NewSubscriptionStore(db *gorm.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// List returns all subscriptions owned by userID
func (s *SubscriptionStore) List(userID uint) ([]domain.Subscription, error) {
	var subs []domain.Subscription // Slice to hold subscriptions
	// Query subscriptions by user ID
	if err := s.db.Where("user_id = ?", userID).Order("id").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// Get returns a subscription by id
func (s *SubscriptionStore) Get(id uint) (*domain.Subscription, error) {
	var sub domain.Subscription // Subscription struct to hold data
	// Query subscription by primary key
	if err := s.db.First(&sub, id).Error; err != nil {
		// Map missing record to the sentinel error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// Create saves a new subscription
func (s *SubscriptionStore) Create(sub *domain.Subscription) error {
	return s.db.Create(sub).Error
}

// Update applies a partial set of fields to a subscription and returns the
// updated record. Fails with ErrSubscriptionNotFound if the id is absent.
func (s *SubscriptionStore) Update(id uint, updates map[string]any) (*domain.Subscription, error) {
	var sub domain.Subscription // Subscription struct to hold data
	// Ensure the record exists before updating
	if err := s.db.First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	// Apply the partial update
	if err := s.db.Model(&sub).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Delete removes a subscription by id. Deleting an absent id is not an error.
func (s *SubscriptionStore) Delete(id uint) error {
	return s.db.Delete(&domain.Subscription{}, id).Error
}

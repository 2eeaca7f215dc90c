package store

import (
	"math"                     // Tolerance check for split sums
	"subtrack/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// splitTolerance absorbs float rounding when validating that splits sum to 100
const splitTolerance = 0.01

// GroupStore owns shared expense groups and their memberships
type GroupStore struct {
	db *gorm.DB // Database handle
}

// NewGroupStore creates a GroupStore backed by the given database
func NewGroupStore(db *gorm.DB) *GroupStore {
	return &GroupStore{db: db}
}

// ListForUser returns every group the user is a member of
func (s *GroupStore) ListForUser(userID uint) ([]domain.Group, error) {
	var memberships []domain.GroupMember // Membership rows for the user
	// Query memberships by user ID
	if err := s.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	// Collect group IDs from the memberships
	ids := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}
	if len(ids) == 0 {
		return []domain.Group{}, nil // No memberships, empty list
	}
	var groups []domain.Group // Slice to hold groups
	// Fetch the groups with their members preloaded
	if err := s.db.Preload("Members").Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// Create saves a group and its member rows in one transaction. The creator is
// always a member: when not listed they absorb whatever share the listed
// members leave over. Split percentages must sum to 100, enforced here rather
// than trusted to the client.
func (s *GroupStore) Create(group *domain.Group, members []domain.GroupMember) error {
	// Sum the listed shares and look for the creator
	var sum float64
	creatorIncluded := false
	for _, m := range members {
		sum += m.SplitPercentage
		if m.UserID == group.CreatorID {
			creatorIncluded = true
		}
	}
	if !creatorIncluded {
		// The creator takes the remainder of the pool
		creatorShare := 100 - sum
		if creatorShare < -splitTolerance {
			return ErrInvalidSplit // Listed members already exceed 100
		}
		if creatorShare < 0 {
			creatorShare = 0
		}
		members = append([]domain.GroupMember{{
			UserID:          group.CreatorID, // The creator
			SplitPercentage: creatorShare,    // Remaining share
		}}, members...)
		sum += creatorShare
	}
	// Shares must cover exactly the whole expense
	if math.Abs(sum-100) > splitTolerance {
		return ErrInvalidSplit
	}
	// Insert group and memberships atomically
	return s.db.Transaction(func(tx *gorm.DB) error {
		// Save the group first to obtain its ID
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		// Add every member row
		for i := range members {
			members[i].GroupID = group.ID // Link to the new group
			if err := tx.Create(&members[i]).Error; err != nil {
				return err // Return error to rollback
			}
		}
		group.Members = append(group.Members, members...)
		return nil // Commit transaction
	})
}

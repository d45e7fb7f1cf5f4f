package persistence

import "gorm.io/gorm"

// OwnedBy restricts a query to rows of one owner. Every owner scoped lookup
// goes through it so that no repository method forgets the filter.
func OwnedBy(ownerID int64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID)
	}
}

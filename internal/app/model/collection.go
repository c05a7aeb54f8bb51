package model

import "time"

// StoredCollection is one serialized user-scoped collection blob (e.g. userCarts).
type StoredCollection struct {
	CollectionKey string    `gorm:"primaryKey;type:varchar(191)" json:"collection_key"`
	Data          string    `gorm:"type:text;not null" json:"data"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (StoredCollection) TableName() string {
	return "stored_collections"
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// StoredBlob is the relational row behind the postgres blob driver.
type StoredBlob struct {
	Key       string         `gorm:"primaryKey;size:255"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (StoredBlob) TableName() string {
	return "storage_blobs"
}

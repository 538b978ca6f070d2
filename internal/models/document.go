package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is the storage row behind the schemaless document store. Field
// shapes inside Data are imposed by convention in the repository layer.
type Document struct {
	Collection string         `gorm:"primaryKey;size:100"`
	ID         string         `gorm:"primaryKey;size:64"`
	Data       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"index"`
	UpdatedAt  time.Time
}

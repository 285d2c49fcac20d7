package eventlog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record is one archived bridge notification.
type Record struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence   uint64    `gorm:"uniqueIndex"`
	Type       string    `gorm:"size:64;index"`
	MessageID  string    `gorm:"size:66;index"`
	Attributes string    `gorm:"type:text"`
	CreatedAt  time.Time
}

// TableName pins the archive table name.
func (Record) TableName() string { return "bridge_events" }

// AutoMigrate performs the schema migration for the archive.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Record{})
}

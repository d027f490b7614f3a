package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog — запись о действии администратора
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	AdminID   uint           `gorm:"index" json:"admin_id"`
	Action    string         `gorm:"index" json:"action"`
	Entity    string         `json:"entity"`
	EntityID  uint           `json:"entity_id"`
	Details   datatypes.JSON `json:"details,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

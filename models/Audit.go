package models

import (
	"time"
)

// AdminAudit is an append-only log of privileged admin mutations.
type AdminAudit struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ActorID      uint      `json:"actorID" gorm:"index;not null"`
	TargetUserID *uint     `json:"targetUserID" gorm:"index"`
	Action       string    `json:"action" gorm:"size:100;index;not null"`
	Details      string    `json:"details" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt"`
}

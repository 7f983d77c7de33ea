package models

import (
	"time"

	"gorm.io/gorm"
)

type Student struct {
	gorm.Model
	UserID                  uint       `json:"userID" gorm:"uniqueIndex;not null"`
	StudentID               string     `json:"studentID" gorm:"size:50;index"` // uniqueness enforced in handlers, empty when not supplied
	Institution             string     `json:"institution" gorm:"size:100"`
	ConsecutiveBookingCount int        `json:"consecutiveBookingCount" gorm:"default:0"`
	LastBookingDate         *time.Time `json:"lastBookingDate"`
	User                    *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

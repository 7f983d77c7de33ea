package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment proof statuses
const (
	ProofStatusPending  = "pending"
	ProofStatusAccepted = "accepted"
	ProofStatusRejected = "rejected"
)

type PaymentProof struct {
	gorm.Model
	UserID           uint       `json:"userID" gorm:"index;not null"`
	Filename         string     `json:"filename" gorm:"size:300;not null"`
	OriginalFilename string     `json:"originalFilename" gorm:"size:300"`
	Status           string     `json:"status" gorm:"type:varchar(20);default:pending"`
	AdminID          *uint      `json:"adminID"`
	AdminComment     string     `json:"adminComment" gorm:"type:text"`
	ReviewedAt       *time.Time `json:"reviewedAt"`
	Student          *User      `json:"student,omitempty" gorm:"foreignKey:UserID"`
}

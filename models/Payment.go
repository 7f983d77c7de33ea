package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment types
const (
	PaymentTypeRoomRental          = "room_rental"
	PaymentTypeSubscription        = "subscription"
	PaymentTypeStudentVerification = "student_verification"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

type Payment struct {
	gorm.Model
	PaymentType          string     `json:"paymentType" gorm:"type:varchar(30);not null"`
	PayerID              uint       `json:"payerID" gorm:"index;not null"`
	RecipientID          *uint      `json:"recipientID" gorm:"index"`
	Amount               float64    `json:"amount" gorm:"not null"`
	Currency             string     `json:"currency" gorm:"size:10;default:USD"`
	PaymentMethod        string     `json:"paymentMethod" gorm:"size:50;not null"`
	Status               string     `json:"status" gorm:"type:varchar(20);default:pending"`
	TransactionID        string     `json:"transactionID" gorm:"size:100;uniqueIndex"`
	TransactionReference string     `json:"transactionReference" gorm:"size:100;index"`
	GatewayResponse      string     `json:"-" gorm:"type:text"`
	PaymentDate          time.Time  `json:"paymentDate"`
	ConfirmedDate        *time.Time `json:"confirmedDate"`
	HouseID              *uint      `json:"houseID"`
	RoomID               *uint      `json:"roomID"`
	RentalPeriodStart    *time.Time `json:"rentalPeriodStart"`
	RentalPeriodEnd      *time.Time `json:"rentalPeriodEnd"`
	SubscriptionMonth    string     `json:"subscriptionMonth" gorm:"size:7"` // "2025-01"
	Notes                string     `json:"notes" gorm:"type:text"`
	Payer                *User      `json:"payer,omitempty" gorm:"foreignKey:PayerID"`
	Recipient            *User      `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
}

func (p *Payment) MarkCompleted() {
	now := time.Now().UTC()
	p.Status = PaymentStatusCompleted
	p.ConfirmedDate = &now
}

func (p *Payment) MarkFailed(reason string) {
	p.Status = PaymentStatusFailed
	if reason != "" {
		p.Notes = "Failed: " + reason
	}
}

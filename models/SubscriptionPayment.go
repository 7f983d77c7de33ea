package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Subscription statuses
const (
	SubscriptionStatusPending = "pending"
	SubscriptionStatusPaid    = "paid"
	SubscriptionStatusOverdue = "overdue"
	SubscriptionStatusWaived  = "waived"
)

type SubscriptionPayment struct {
	gorm.Model
	HouseOwnerID      uint       `json:"houseOwnerID" gorm:"index;not null"`
	HouseID           uint       `json:"houseID" gorm:"index;not null"`
	PaymentID         *uint      `json:"paymentID"`
	SubscriptionMonth string     `json:"subscriptionMonth" gorm:"size:7;not null"` // "2025-01"
	AmountDue         float64    `json:"amountDue" gorm:"not null"`
	AmountPaid        float64    `json:"amountPaid" gorm:"default:0"`
	Status            string     `json:"status" gorm:"type:varchar(20);default:pending"`
	DueDate           time.Time  `json:"dueDate" gorm:"not null"`
	PaidDate          *time.Time `json:"paidDate"`
	GracePeriodDays   int        `json:"gracePeriodDays" gorm:"default:7"`
	HouseOwner        *User      `json:"houseOwner,omitempty" gorm:"foreignKey:HouseOwnerID"`
	House             *House     `json:"house,omitempty" gorm:"foreignKey:HouseID"`
}

func (s *SubscriptionPayment) graceEnd() time.Time {
	return s.DueDate.Add(time.Duration(s.GracePeriodDays) * 24 * time.Hour)
}

func (s *SubscriptionPayment) IsOverdue() bool {
	if s.Status == SubscriptionStatusPaid {
		return false
	}
	return time.Now().UTC().After(s.graceEnd())
}

func (s *SubscriptionPayment) DaysOverdue() int {
	if !s.IsOverdue() {
		return 0
	}
	return int(time.Since(s.graceEnd()).Hours() / 24)
}

func (s *SubscriptionPayment) MarshalJSON() ([]byte, error) {
	type Alias SubscriptionPayment
	return json.Marshal(&struct {
		*Alias
		IsOverdue   bool `json:"isOverdue"`
		DaysOverdue int  `json:"daysOverdue"`
	}{
		Alias:       (*Alias)(s),
		IsOverdue:   s.IsOverdue(),
		DaysOverdue: s.DaysOverdue(),
	})
}

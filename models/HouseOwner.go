package models

import (
	"time"

	"gorm.io/gorm"
)

// HouseOwner payment statuses
const (
	OwnerPaymentPaid    = "paid"
	OwnerPaymentPending = "pending"
	OwnerPaymentOverdue = "overdue"
)

type HouseOwner struct {
	gorm.Model
	UserID           uint       `json:"userID" gorm:"uniqueIndex;not null"`
	LastPaymentDate  *time.Time `json:"lastPaymentDate"`
	NextPaymentDue   *time.Time `json:"nextPaymentDue"`
	PaymentStatus    string     `json:"paymentStatus" gorm:"type:varchar(20);default:pending"`
	TotalAmountPaid  float64    `json:"totalAmountPaid" gorm:"default:0"`
	EcocashNumber    string     `json:"ecocashNumber" gorm:"size:20"`
	BankAccount      string     `json:"bankAccount" gorm:"size:50"`
	OtherPaymentInfo string     `json:"otherPaymentInfo" gorm:"type:text"`
	User             *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

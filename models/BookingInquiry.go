package models

import (
	"time"

	"gorm.io/gorm"
)

// Inquiry statuses
const (
	InquiryStatusSent      = "sent"
	InquiryStatusVerified  = "verified"
	InquiryStatusCancelled = "cancelled"
)

type BookingInquiry struct {
	gorm.Model
	StudentID    uint       `json:"studentID" gorm:"index;not null"`
	HouseID      uint       `json:"houseID" gorm:"index;not null"`
	Subject      string     `json:"subject" gorm:"size:200;not null"`
	Message      string     `json:"message" gorm:"type:text;not null"`
	Status       string     `json:"status" gorm:"type:varchar(20);default:sent"`
	Response     string     `json:"response" gorm:"type:text"`
	ResponseDate *time.Time `json:"responseDate"`
	Student      *User      `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	House        *House     `json:"house,omitempty" gorm:"foreignKey:HouseID"`
}

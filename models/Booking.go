package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Booking types
const (
	BookingTypeInquiry   = "inquiry"
	BookingTypeReserved  = "reserved"
	BookingTypeConfirmed = "confirmed"
	BookingTypeCancelled = "cancelled"
)

// Owner status annotations, independent of the booking type.
const (
	OwnerStatusPending   = "pending"
	OwnerStatusAccepted  = "accepted"
	OwnerStatusCancelled = "cancelled"
)

type Booking struct {
	gorm.Model
	StudentID          uint       `json:"studentID" gorm:"index;not null"`
	HouseID            uint       `json:"houseID" gorm:"index;not null"`
	RoomID             uint       `json:"roomID" gorm:"index;not null"`
	BookingType        string     `json:"bookingType" gorm:"type:varchar(20);not null"` // inquiry, reserved, confirmed, cancelled
	BookingDate        time.Time  `json:"bookingDate"`
	ExpiryDate         *time.Time `json:"expiryDate"` // reserved bookings only
	MoveInDate         *time.Time `json:"moveInDate"`
	MoveOutDate        *time.Time `json:"moveOutDate"`
	IsPaid             bool       `json:"isPaid" gorm:"default:false"`
	PaymentID          *uint      `json:"paymentID"`
	Notes              string     `json:"notes" gorm:"type:text"`
	OwnerStatus        string     `json:"ownerStatus" gorm:"type:varchar(20);default:pending"`
	OwnerResponse      string     `json:"ownerResponse" gorm:"type:text"`
	OwnerResponseDate  *time.Time `json:"ownerResponseDate"`
	CancellationReason string     `json:"cancellationReason" gorm:"type:text"`
	Student            *User      `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	House              *House     `json:"house,omitempty" gorm:"foreignKey:HouseID"`
	Room               *Room      `json:"room,omitempty" gorm:"foreignKey:RoomID"`
}

// IsExpired is computed on read; reserved bookings past their expiry date
// still hold the room until a confirm attempt fails or a cancel runs.
func (b *Booking) IsExpired() bool {
	if b.BookingType != BookingTypeReserved || b.ExpiryDate == nil {
		return false
	}
	return time.Now().UTC().After(*b.ExpiryDate)
}

func (b *Booking) DaysUntilExpiry() int {
	if b.BookingType != BookingTypeReserved || b.ExpiryDate == nil {
		return 0
	}
	days := int(time.Until(*b.ExpiryDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func (b *Booking) SetExpiryDate(days int) {
	expiry := time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour)
	b.ExpiryDate = &expiry
}

func (b *Booking) MarshalJSON() ([]byte, error) {
	type Alias Booking
	return json.Marshal(&struct {
		*Alias
		IsExpired       bool `json:"isExpired"`
		DaysUntilExpiry int  `json:"daysUntilExpiry"`
	}{
		Alias:           (*Alias)(b),
		IsExpired:       b.IsExpired(),
		DaysUntilExpiry: b.DaysUntilExpiry(),
	})
}

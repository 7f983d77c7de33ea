package models

import (
	"time"

	"gorm.io/gorm"
)

type Room struct {
	gorm.Model
	HouseID            uint       `json:"houseID" gorm:"index;not null"`
	RoomNumber         string     `json:"roomNumber" gorm:"size:20;not null"`
	Capacity           int        `json:"capacity" gorm:"not null"`
	PricePerMonth      float64    `json:"pricePerMonth" gorm:"not null"`
	IsOccupied         bool       `json:"isOccupied" gorm:"default:false"`
	IsAvailable        bool       `json:"isAvailable" gorm:"default:true"`
	CurrentTenantID    *uint      `json:"currentTenantID"`
	OccupancyStartDate *time.Time `json:"occupancyStartDate"`
	OccupancyEndDate   *time.Time `json:"occupancyEndDate"`
}

// IsFree reports whether a new tenant could take the room.
func (r *Room) IsFree() bool { return r.IsAvailable && !r.IsOccupied }

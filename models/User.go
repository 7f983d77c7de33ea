package models

import (
	"time"

	"gorm.io/gorm"
)

// User types
const (
	UserTypeAdmin      = "admin"
	UserTypeHouseOwner = "house_owner"
	UserTypeStudent    = "student"
)

type User struct {
	gorm.Model
	Email                  string     `json:"email" gorm:"size:120;uniqueIndex"`
	Password               string     `json:"-"`
	FullName               string     `json:"fullName" gorm:"size:100"`
	PhoneNumber            string     `json:"phoneNumber" gorm:"size:20;uniqueIndex"`
	UserType               string     `json:"userType" gorm:"type:varchar(20);index"` // admin, house_owner, student
	CreatedByAdminID       *uint      `json:"createdByAdminID"`
	IsActive               bool       `json:"isActive" gorm:"default:true"`
	EmailVerified          bool       `json:"emailVerified" gorm:"default:false"`
	EmailVerifiedAt        *time.Time `json:"emailVerifiedAt"`
	EmailVerificationToken string     `json:"-" gorm:"size:128;index"`
	AdminVerified          bool       `json:"adminVerified" gorm:"default:false"`
	AdminVerifiedAt        *time.Time `json:"adminVerifiedAt"`
	AdminVerifiedExpiresAt *time.Time `json:"adminVerifiedExpiresAt"`
}

// IsVerificationExpired reports whether the 30-day admin verification window
// has passed. A user that was never verified is not expired.
func (u *User) IsVerificationExpired() bool {
	if !u.AdminVerified || u.AdminVerifiedExpiresAt == nil {
		return false
	}
	return time.Now().UTC().After(*u.AdminVerifiedExpiresAt)
}

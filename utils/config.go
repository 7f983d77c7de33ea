package utils

import (
	"os"
	"strconv"
)

// Environment-backed settings with the documented defaults.

const AdminVerificationDays = 30

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

// BookingExpiryDays is how long a reserved booking remains valid.
func BookingExpiryDays() int {
	return envInt("BOOKING_EXPIRY_DAYS", 7)
}

// MaxConsecutiveBookings caps unconfirmed reservations per student.
func MaxConsecutiveBookings() int {
	return envInt("MAX_CONSECUTIVE_BOOKINGS", 2)
}

// MonthlySubscriptionFee is the amount house owners owe the platform monthly.
func MonthlySubscriptionFee() float64 {
	return envFloat("MONTHLY_SUBSCRIPTION_FEE", 50)
}

// EcoCashVerificationAmount is the fixed student-verification charge.
func EcoCashVerificationAmount() float64 {
	return envFloat("ECOCASH_VERIFICATION_AMOUNT_USD", 0.5)
}

// MaxHouseImages limits images stored per house.
func MaxHouseImages() int {
	return envInt("MAX_HOUSE_IMAGES", 3)
}

// EcoCashCallbackPath is where the gateway posts payment results.
func EcoCashCallbackPath() string {
	if path := os.Getenv("ECOCASH_CALLBACK_PATH"); path != "" {
		return path
	}
	return "/api/v1/ecocash/callback"
}

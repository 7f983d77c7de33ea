package utils

import (
	"regexp"
	"strings"
)

var (
	nonDigitRe    = regexp.MustCompile(`\D`)
	localMobileRe = regexp.MustCompile(`^07(1|7|8)\d{7}$`)
	bareMobileRe  = regexp.MustCompile(`^7\d{8}$`)
)

// NormalizePhoneNumber converts accepted inputs to the local 10-digit
// 07xXXXXXXX format. Accepts local 07x numbers, +263/263/00263 international
// forms and bare 9-digit mobiles starting with 7. Returns "" when invalid.
func NormalizePhoneNumber(phoneNumber string) string {
	digits := nonDigitRe.ReplaceAllString(phoneNumber, "")
	if digits == "" {
		return ""
	}

	if strings.HasPrefix(digits, "00263") {
		rest := digits[5:]
		if bareMobileRe.MatchString(rest) {
			return "0" + rest
		}
		return ""
	}

	if strings.HasPrefix(digits, "263") {
		rest := digits[3:]
		if bareMobileRe.MatchString(rest) {
			return "0" + rest
		}
		return ""
	}

	if strings.HasPrefix(digits, "0") {
		if localMobileRe.MatchString(digits) {
			return digits
		}
		return ""
	}

	if bareMobileRe.MatchString(digits) {
		return "0" + digits
	}

	return ""
}

// ValidatePhoneNumber reports whether the input normalizes to a valid local
// mobile number.
func ValidatePhoneNumber(phoneNumber string) bool {
	return NormalizePhoneNumber(phoneNumber) != ""
}

// PhoneDigits strips everything but digits; used for claim-matching admin
// records that may carry country-code variants.
func PhoneDigits(phoneNumber string) string {
	return nonDigitRe.ReplaceAllString(phoneNumber, "")
}

// PhoneSuffixMatch compares two phone numbers by their last nine digits so
// +263771234567 and 0771234567 compare equal.
func PhoneSuffixMatch(a, b string) bool {
	da, db := PhoneDigits(a), PhoneDigits(b)
	if da == "" || db == "" {
		return false
	}
	if len(da) > 9 {
		da = da[len(da)-9:]
	}
	if len(db) > 9 {
		db = db[len(db)-9:]
	}
	return da == db
}

// MSISDNInternational converts a normalized local number to the 263-prefixed
// international format the payment gateway expects.
func MSISDNInternational(phoneNumber string) string {
	local := NormalizePhoneNumber(phoneNumber)
	if local == "" {
		return ""
	}
	return "263" + local[1:]
}

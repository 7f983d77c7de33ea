package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
)

func TestRegisterStudent(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":       "New.Student@Example.com",
		"password":    "password123",
		"fullName":    "New Student",
		"phoneNumber": "+263 77 123 4567",
		"userType":    "student",
		"studentID":   "R2100123",
		"institution": "MSU",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var user models.User
	require.NoError(t, storage.DB.Where("email = ?", "new.student@example.com").First(&user).Error)
	require.Equal(t, "0771234567", user.PhoneNumber)
	require.False(t, user.EmailVerified)
	require.NotEmpty(t, user.EmailVerificationToken)

	var student models.Student
	require.NoError(t, storage.DB.Where("user_id = ?", user.ID).First(&student).Error)
	require.Equal(t, "R2100123", student.StudentID)

	// Email verification completes with the issued token.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/verify-email", "", map[string]interface{}{
		"token": user.EmailVerificationToken,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, storage.DB.First(&user, user.ID).Error)
	require.True(t, user.EmailVerified)
	require.Empty(t, user.EmailVerificationToken)

	// A used token is gone.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/verify-email", "", map[string]interface{}{
		"token": "nonexistent",
	})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRegisterRejectsBadPhone(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":       "student@example.com",
		"password":    "password123",
		"fullName":    "Student",
		"phoneNumber": "0123456789",
		"userType":    "student",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "071, 077, or 078")
}

func TestRegisterDuplicateStudentID(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	existing := createTestStudent(t, "first@example.com", false)
	require.NoError(t, storage.DB.Model(&models.Student{}).
		Where("user_id = ?", existing.ID).Update("student_id", "R2100999").Error)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":       "second@example.com",
		"password":    "password123",
		"fullName":    "Second Student",
		"phoneNumber": "0772345678",
		"userType":    "student",
		"studentID":   "R2100999",
	})
	require.Equal(t, http.StatusConflict, resp.Code)
	require.Contains(t, resp.Body.String(), "Student ID already registered")

	// The transaction rolled the account back too.
	var count int64
	storage.DB.Model(&models.User{}).Where("email = ?", "second@example.com").Count(&count)
	require.Zero(t, count)
}

func TestOwnerRegistrationClaimsSeededHouse(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	area := models.ResidentialArea{Name: "Nehosho"}
	require.NoError(t, storage.DB.Create(&area).Error)
	house := models.House{
		HouseNumber:       "25B",
		StreetAddress:     "Third Street",
		Latitude:          -19.5,
		Longitude:         29.83,
		ResidentialAreaID: area.ID,
		IsVerified:        true,
		IsActive:          true,
		OwnerName:         "Tariro Moyo",
		OwnerEmail:        "tariro@example.com",
		OwnerPhone:        "0782222222",
	}
	require.NoError(t, storage.DB.Create(&house).Error)

	// Mismatched name -> rejected without touching the house.
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":           "tariro@example.com",
		"password":        "password123",
		"fullName":        "Someone Else",
		"phoneNumber":     "0782222222",
		"userType":        "house_owner",
		"houseNumber":     "25B",
		"streetAddress":   "Third Street",
		"residentialArea": "Nehosho",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "name does not match")

	var untouched models.House
	require.NoError(t, storage.DB.First(&untouched, house.ID).Error)
	require.Nil(t, untouched.OwnerID)
	require.False(t, untouched.IsClaimed)

	// Matching details claim the house. The phone matches across formats.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":           "tariro@example.com",
		"password":        "password123",
		"fullName":        "tariro moyo",
		"phoneNumber":     "+263782222222",
		"userType":        "house_owner",
		"houseNumber":     "25b",
		"streetAddress":   "third street",
		"residentialArea": "nehosho",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var claimed models.House
	require.NoError(t, storage.DB.First(&claimed, house.ID).Error)
	require.True(t, claimed.IsClaimed)
	require.NotNil(t, claimed.OwnerID)

	var owner models.User
	require.NoError(t, storage.DB.First(&owner, *claimed.OwnerID).Error)
	require.Equal(t, models.UserTypeHouseOwner, owner.UserType)

	// The same house cannot be claimed twice.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":           "other@example.com",
		"password":        "password123",
		"fullName":        "Tariro Moyo",
		"phoneNumber":     "0783333333",
		"userType":        "house_owner",
		"houseNumber":     "25B",
		"streetAddress":   "Third Street",
		"residentialArea": "Nehosho",
	})
	require.Equal(t, http.StatusConflict, resp.Code)
	require.Contains(t, resp.Body.String(), "already been claimed")
}

func TestLoginGates(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	student := createTestStudent(t, "student@example.com", false)

	// Unverified email blocks student login.
	require.NoError(t, storage.DB.Model(&models.User{}).
		Where("id = ?", student.ID).Update("email_verified", false).Error)
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    "student@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Contains(t, resp.Body.String(), "verify your email")

	// Wrong password is a generic 401.
	require.NoError(t, storage.DB.Model(&models.User{}).
		Where("id = ?", student.ID).Update("email_verified", true).Error)
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    "student@example.com",
		"password": "wrongpassword",
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	// Deactivated accounts cannot log in.
	require.NoError(t, storage.DB.Model(&models.User{}).
		Where("id = ?", student.ID).Update("is_active", false).Error)
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    "student@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Contains(t, resp.Body.String(), "deactivated")
}

func TestLoginWithPhoneIdentifier(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	student := createTestStudent(t, "student@example.com", false)

	var stored models.User
	require.NoError(t, storage.DB.First(&stored, student.ID).Error)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    "+263" + stored.PhoneNumber[1:],
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	body := decodeBody(t, resp)
	require.Equal(t, "Login successful", body["message"])
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["refreshToken"])
}

func TestChangePassword(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	student := createTestStudent(t, "student@example.com", false)
	token := signTestToken(t, student)

	resp := doJSON(t, app, http.MethodPut, "/api/auth/me/password", token, map[string]interface{}{
		"currentPassword": "nottheone",
		"newPassword":     "freshpassword",
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, app, http.MethodPut, "/api/auth/me/password", token, map[string]interface{}{
		"currentPassword": "password123",
		"newPassword":     "freshpassword",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	// New password works for login.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    "student@example.com",
		"password": "freshpassword",
	})
	require.Equal(t, http.StatusOK, resp.Code)
}

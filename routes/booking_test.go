package routes

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

func TestReserveConfirmLifecycle(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 1)
	student := createTestStudent(t, "student@example.com", true)
	token := signTestToken(t, student)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/reserve", token, map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	body := decodeBody(t, resp)
	require.Equal(t, "Room reserved successfully", body["message"])

	// Reserving counts toward the consecutive-booking limit.
	var profile models.Student
	require.NoError(t, storage.DB.Where("user_id = ?", student.ID).First(&profile).Error)
	require.Equal(t, 1, profile.ConsecutiveBookingCount)

	// Reserved room stays unoccupied until confirmation.
	var room models.Room
	require.NoError(t, storage.DB.First(&room, house.Rooms[0].ID).Error)
	require.False(t, room.IsOccupied)

	booking := body["booking"].(map[string]interface{})
	bookingID := uint(booking["ID"].(float64))

	resp = doJSON(t, app, http.MethodPost, "/api/bookings/confirm", token, map[string]interface{}{
		"bookingID": bookingID,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, storage.DB.First(&room, room.ID).Error)
	require.True(t, room.IsOccupied)
	require.NotNil(t, room.CurrentTenantID)
	require.Equal(t, student.ID, *room.CurrentTenantID)

	// Single-room house becomes full once occupied.
	var updatedHouse models.House
	require.NoError(t, storage.DB.First(&updatedHouse, house.ID).Error)
	require.True(t, updatedHouse.IsFull)

	// Confirming resets the consecutive count.
	require.NoError(t, storage.DB.Where("user_id = ?", student.ID).First(&profile).Error)
	require.Equal(t, 0, profile.ConsecutiveBookingCount)
}

func TestReserveRejectsFullHouse(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 1)
	require.NoError(t, storage.DB.Model(&models.House{}).
		Where("id = ?", house.ID).Update("is_full", true).Error)

	student := createTestStudent(t, "student@example.com", true)
	resp := doJSON(t, app, http.MethodPost, "/api/bookings/reserve", signTestToken(t, student), map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "House is full")
}

func TestReserveEnforcesConsecutiveLimit(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 3)
	student := createTestStudent(t, "student@example.com", true)
	token := signTestToken(t, student)

	for i := 0; i < utils.MaxConsecutiveBookings(); i++ {
		resp := doJSON(t, app, http.MethodPost, "/api/bookings/reserve", token, map[string]interface{}{
			"houseID": house.ID,
			"roomID":  house.Rooms[i].ID,
		})
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/reserve", token, map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[2].ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(),
		fmt.Sprintf("maximum of %d consecutive bookings", utils.MaxConsecutiveBookings()))
}

func TestReserveRejectsAlreadyReservedRoom(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 2)
	first := createTestStudent(t, "first@example.com", true)
	second := createTestStudent(t, "second@example.com", true)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/reserve", signTestToken(t, first), map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	// The reservation holds the room against anyone else.
	resp = doJSON(t, app, http.MethodPost, "/api/bookings/reserve", signTestToken(t, second), map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "active reservation")

	// A direct confirm on the held room is refused the same way.
	resp = doJSON(t, app, http.MethodPost, "/api/bookings/confirm", signTestToken(t, second), map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "active reservation")

	var count int64
	storage.DB.Model(&models.Booking{}).
		Where("room_id = ? AND booking_type = ?", house.Rooms[0].ID, models.BookingTypeReserved).
		Count(&count)
	require.EqualValues(t, 1, count)

	// The other room is unaffected.
	resp = doJSON(t, app, http.MethodPost, "/api/bookings/reserve", signTestToken(t, second), map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[1].ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
}

func TestExpiredReservationDoesNotHoldRoom(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 1)
	first := createTestStudent(t, "first@example.com", true)
	second := createTestStudent(t, "second@example.com", true)

	expired := time.Now().UTC().AddDate(0, 0, -1)
	stale := models.Booking{
		StudentID:   first.ID,
		HouseID:     house.ID,
		RoomID:      house.Rooms[0].ID,
		BookingType: models.BookingTypeReserved,
		BookingDate: expired.AddDate(0, 0, -7),
		ExpiryDate:  &expired,
		OwnerStatus: models.OwnerStatusPending,
	}
	require.NoError(t, storage.DB.Create(&stale).Error)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/reserve", signTestToken(t, second), map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
}

func TestConfirmReservationRejectsOccupiedRoom(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 1)
	holder := createTestStudent(t, "holder@example.com", true)
	tenant := createTestStudent(t, "tenant@example.com", true)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/reserve", signTestToken(t, holder), map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	bookingID := uint(decodeBody(t, resp)["booking"].(map[string]interface{})["ID"].(float64))

	// The room gets taken behind the reservation's back.
	require.NoError(t, storage.DB.Model(&models.Room{}).Where("id = ?", house.Rooms[0].ID).
		Updates(map[string]interface{}{
			"is_occupied":       true,
			"current_tenant_id": tenant.ID,
		}).Error)

	resp = doJSON(t, app, http.MethodPost, "/api/bookings/confirm", signTestToken(t, holder), map[string]interface{}{
		"bookingID": bookingID,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "not available")

	// The sitting tenant was never displaced.
	var room models.Room
	require.NoError(t, storage.DB.First(&room, house.Rooms[0].ID).Error)
	require.True(t, room.IsOccupied)
	require.NotNil(t, room.CurrentTenantID)
	require.Equal(t, tenant.ID, *room.CurrentTenantID)
}

func TestConfirmExpiredReservationRejected(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 1)
	student := createTestStudent(t, "student@example.com", true)

	expired := time.Now().UTC().AddDate(0, 0, -1)
	booking := models.Booking{
		StudentID:   student.ID,
		HouseID:     house.ID,
		RoomID:      house.Rooms[0].ID,
		BookingType: models.BookingTypeReserved,
		BookingDate: expired.AddDate(0, 0, -7),
		ExpiryDate:  &expired,
		OwnerStatus: models.OwnerStatusPending,
	}
	require.NoError(t, storage.DB.Create(&booking).Error)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/confirm", signTestToken(t, student), map[string]interface{}{
		"bookingID": booking.ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "Booking has expired")

	// The room was never taken.
	var room models.Room
	require.NoError(t, storage.DB.First(&room, house.Rooms[0].ID).Error)
	require.False(t, room.IsOccupied)
}

func TestCancelReleasesRoomAndRejectsDoubleCancel(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 1)
	student := createTestStudent(t, "student@example.com", true)
	token := signTestToken(t, student)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/confirm", token, map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	bookingID := uint(body["booking"].(map[string]interface{})["ID"].(float64))

	var updatedHouse models.House
	require.NoError(t, storage.DB.First(&updatedHouse, house.ID).Error)
	require.True(t, updatedHouse.IsFull)

	resp = doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/bookings/%d/cancel", bookingID), token,
		map[string]interface{}{"reason": "Changed plans"})
	require.Equal(t, http.StatusOK, resp.Code)

	var room models.Room
	require.NoError(t, storage.DB.First(&room, house.Rooms[0].ID).Error)
	require.False(t, room.IsOccupied)
	require.Nil(t, room.CurrentTenantID)

	require.NoError(t, storage.DB.First(&updatedHouse, house.ID).Error)
	require.False(t, updatedHouse.IsFull)

	resp = doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/bookings/%d/cancel", bookingID), token, nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "already cancelled")
}

func TestBookingGateRequiresVerification(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 1)
	unverified := createTestStudent(t, "student@example.com", false)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/reserve", signTestToken(t, unverified), map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Contains(t, resp.Body.String(), "pending admin verification")
}

func TestExpiredAdminVerificationBlocksBooking(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 1)
	student := createTestStudent(t, "student@example.com", true)

	// Push the verification window into the past.
	past := time.Now().UTC().AddDate(0, 0, -1)
	require.NoError(t, storage.DB.Model(&models.User{}).Where("id = ?", student.ID).
		Update("admin_verified_expires_at", past).Error)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/reserve", signTestToken(t, student), map[string]interface{}{
		"houseID": house.ID,
		"roomID":  house.Rooms[0].ID,
	})
	require.Equal(t, http.StatusForbidden, resp.Code)

	// The lazy expiry also cleared the stale flag.
	var refreshed models.User
	require.NoError(t, storage.DB.First(&refreshed, student.ID).Error)
	require.False(t, refreshed.AdminVerified)
}

func TestSendInquiryRequiresOwnedHouse(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	house := createTestHouse(t, nil, 1)
	student := createTestStudent(t, "student@example.com", true)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings/inquiry", signTestToken(t, student), map[string]interface{}{
		"houseID": house.ID,
		"message": "Is the room still open?",
	})
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Contains(t, resp.Body.String(), "no owner")
}

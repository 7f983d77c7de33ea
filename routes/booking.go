package routes

import (
	"errors"
	"fmt"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/services"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

// SendInquiry records a question to the house owner without holding a room.
func SendInquiry(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var input InquiryInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var house models.House
	found := storage.DB.Limit(1).Find(&house, input.HouseID)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}
	if house.OwnerID == nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House has no owner assigned.", ctx)
		return
	}

	subject := input.Subject
	if subject == "" {
		subject = "Room Inquiry"
	}

	inquiry := models.BookingInquiry{
		StudentID: user.ID,
		HouseID:   input.HouseID,
		Subject:   subject,
		Message:   input.Message,
		Status:    models.InquiryStatusSent,
	}
	if err := storage.DB.Create(&inquiry).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"success": true,
		"message": "Inquiry sent successfully",
		"inquiry": inquiry,
	})
}

// ReserveRoom holds a room for the booking-expiry window without payment.
func ReserveRoom(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var input ReserveRoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var student models.Student
	hasProfile := storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&student).RowsAffected > 0
	if hasProfile && student.ConsecutiveBookingCount >= utils.MaxConsecutiveBookings() {
		utils.JSONError(ctx, iris.StatusBadRequest,
			fmt.Sprintf("You have reached the maximum of %d consecutive bookings", utils.MaxConsecutiveBookings()))
		return
	}

	var house models.House
	houseFound := storage.DB.Limit(1).Find(&house, input.HouseID)
	if houseFound.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if houseFound.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House or room not found.", ctx)
		return
	}
	if house.IsFull {
		utils.JSONError(ctx, iris.StatusBadRequest, "House is full; cannot reserve rooms at this time")
		return
	}

	var moveInDate *time.Time
	if input.MoveInDate != "" {
		parsed, parseErr := time.Parse("2006-01-02", input.MoveInDate)
		if parseErr != nil {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid move-in date; expected YYYY-MM-DD.", ctx)
			return
		}
		moveInDate = &parsed
	}

	var booking models.Booking
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		room, lockErr := services.LockRoom(tx, input.RoomID)
		if lockErr != nil {
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				return errRoomNotFound
			}
			return lockErr
		}
		if room.HouseID != house.ID {
			return errRoomWrongHouse
		}
		if !room.IsFree() {
			return errRoomUnavailable
		}
		held, holdErr := roomHasActiveReservation(tx, room.ID, 0)
		if holdErr != nil {
			return holdErr
		}
		if held {
			return errRoomReserved
		}

		booking = models.Booking{
			StudentID:   user.ID,
			HouseID:     input.HouseID,
			RoomID:      input.RoomID,
			BookingType: models.BookingTypeReserved,
			BookingDate: time.Now().UTC(),
			MoveInDate:  moveInDate,
			Notes:       input.Notes,
			OwnerStatus: models.OwnerStatusPending,
		}
		booking.SetExpiryDate(utils.BookingExpiryDays())
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		if hasProfile {
			now := time.Now().UTC()
			student.ConsecutiveBookingCount++
			student.LastBookingDate = &now
			if err := tx.Save(&student).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if handled := handleBookingTxError(txErr, ctx); handled {
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"success":       true,
		"message":       "Room reserved successfully",
		"booking":       &booking,
		"expiresInDays": booking.DaysUntilExpiry(),
	})
}

// ConfirmBooking confirms an existing reservation or creates a direct
// confirmed booking. Confirming marks the room occupied and resets the
// student's consecutive-booking count.
func ConfirmBooking(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var input ConfirmBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var moveInDate *time.Time
	if input.MoveInDate != "" {
		parsed, parseErr := time.Parse("2006-01-02", input.MoveInDate)
		if parseErr != nil {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid move-in date; expected YYYY-MM-DD.", ctx)
			return
		}
		moveInDate = &parsed
	}

	var booking models.Booking
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if input.BookingID != 0 {
			found := tx.Limit(1).Find(&booking, input.BookingID)
			if found.Error != nil {
				return found.Error
			}
			if found.RowsAffected == 0 || booking.StudentID != user.ID {
				return errBookingNotFound
			}
			if booking.IsExpired() {
				return errBookingExpired
			}
			booking.BookingType = models.BookingTypeConfirmed
			booking.IsPaid = true
			if moveInDate != nil {
				booking.MoveInDate = moveInDate
			}
			if err := tx.Save(&booking).Error; err != nil {
				return err
			}
		} else {
			if input.HouseID == 0 || input.RoomID == 0 {
				return errMissingHouseRoom
			}
			var house models.House
			houseFound := tx.Limit(1).Find(&house, input.HouseID)
			if houseFound.Error != nil {
				return houseFound.Error
			}
			if houseFound.RowsAffected > 0 && house.IsFull {
				return errHouseFull
			}

			booking = models.Booking{
				StudentID:   user.ID,
				HouseID:     input.HouseID,
				RoomID:      input.RoomID,
				BookingType: models.BookingTypeConfirmed,
				BookingDate: time.Now().UTC(),
				IsPaid:      true,
				MoveInDate:  moveInDate,
				Notes:       input.Notes,
				OwnerStatus: models.OwnerStatusPending,
			}
			if err := tx.Create(&booking).Error; err != nil {
				return err
			}
		}

		room, lockErr := services.LockRoom(tx, booking.RoomID)
		if lockErr != nil {
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				return errRoomNotFound
			}
			return lockErr
		}
		if input.BookingID == 0 {
			if !room.IsFree() {
				return errRoomUnavailable
			}
			held, holdErr := roomHasActiveReservation(tx, room.ID, user.ID)
			if holdErr != nil {
				return holdErr
			}
			if held {
				return errRoomReserved
			}
		} else if room.IsOccupied && (room.CurrentTenantID == nil || *room.CurrentTenantID != user.ID) {
			// The room was taken after this reservation was made; never occupy
			// over another tenant.
			return errRoomUnavailable
		}

		start := time.Now().UTC()
		if booking.MoveInDate != nil {
			start = *booking.MoveInDate
		}
		if err := services.OccupyRoom(tx, room, user.ID, start); err != nil {
			return err
		}

		return tx.Model(&models.Student{}).Where("user_id = ?", user.ID).
			Update("consecutive_booking_count", 0).Error
	})
	if handled := handleBookingTxError(txErr, ctx); handled {
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Booking confirmed successfully",
		"booking": &booking,
	})
}

func GetMyBookings(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var bookings []models.Booking
	if err := storage.DB.Preload("House").Preload("House.ResidentialArea").Preload("Room").
		Where("student_id = ?", user.ID).
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":  true,
		"count":    len(bookings),
		"bookings": bookings,
	})
}

// CancelBooking releases the room (if held) and marks the booking cancelled.
func CancelBooking(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input CancelBookingInput
	ctx.ReadJSON(&input) // body optional

	var booking models.Booking
	found := storage.DB.Limit(1).Find(&booking, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 || booking.StudentID != user.ID {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Booking not found.", ctx)
		return
	}

	if booking.BookingType == models.BookingTypeCancelled {
		utils.JSONError(ctx, iris.StatusBadRequest, "Booking is already cancelled")
		return
	}

	reason := input.Reason
	if reason == "" {
		reason = "Cancelled by student"
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		room, lockErr := services.LockRoom(tx, booking.RoomID)
		if lockErr == nil {
			if err := services.ReleaseRoom(tx, room); err != nil {
				return err
			}
		}

		booking.BookingType = models.BookingTypeCancelled
		booking.CancellationReason = reason
		return tx.Save(&booking).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Booking cancelled",
		"booking": &booking,
	})
}

// GetMyInquiries returns sent inquiries for students and received inquiries
// for house owners.
func GetMyInquiries(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var inquiries []models.BookingInquiry

	switch user.UserType {
	case models.UserTypeStudent:
		if err := storage.DB.Where("student_id = ?", user.ID).
			Order("created_at DESC").Find(&inquiries).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	case models.UserTypeHouseOwner:
		var houseIDs []uint
		storage.DB.Model(&models.House{}).Where("owner_id = ?", user.ID).Pluck("id", &houseIDs)
		if len(houseIDs) == 0 {
			ctx.JSON(iris.Map{"success": true, "count": 0, "inquiries": []models.BookingInquiry{}})
			return
		}
		if err := storage.DB.Where("house_id IN ?", houseIDs).
			Order("created_at DESC").Find(&inquiries).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	default:
		utils.CreateForbidden("Invalid user type.", ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":   true,
		"count":     len(inquiries),
		"inquiries": inquiries,
	})
}

// CancelMyInquiry is the student's soft cancel of their own inquiry.
func CancelMyInquiry(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var inquiry models.BookingInquiry
	found := storage.DB.Limit(1).Find(&inquiry, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 || inquiry.StudentID != user.ID {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Inquiry not found.", ctx)
		return
	}

	if err := storage.DB.Model(&inquiry).Update("status", models.InquiryStatusCancelled).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Inquiry cancelled",
	})
}

// roomHasActiveReservation reports whether a live reservation holds the room
// inside the current transaction. Expired and cancelled reservations do not
// count; excludeStudentID lets a student act on their own hold.
func roomHasActiveReservation(tx *gorm.DB, roomID, excludeStudentID uint) (bool, error) {
	query := tx.Model(&models.Booking{}).
		Where("room_id = ? AND booking_type = ?", roomID, models.BookingTypeReserved).
		Where("expiry_date IS NULL OR expiry_date > ?", time.Now().UTC())
	if excludeStudentID != 0 {
		query = query.Where("student_id <> ?", excludeStudentID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var (
	errRoomNotFound     = errors.New("room not found")
	errRoomWrongHouse   = errors.New("room does not belong to this house")
	errRoomUnavailable  = errors.New("room is not available")
	errRoomReserved     = errors.New("room has an active reservation")
	errBookingNotFound  = errors.New("booking not found")
	errBookingExpired   = errors.New("booking has expired")
	errMissingHouseRoom = errors.New("house id and room id are required")
	errHouseFull        = errors.New("house is full")
)

func handleBookingTxError(txErr error, ctx iris.Context) bool {
	switch {
	case txErr == nil:
		return false
	case errors.Is(txErr, errRoomNotFound):
		utils.CreateError(iris.StatusNotFound, "Not Found", "House or room not found.", ctx)
	case errors.Is(txErr, errRoomWrongHouse):
		utils.JSONError(ctx, iris.StatusBadRequest, "Room does not belong to this house")
	case errors.Is(txErr, errRoomUnavailable):
		utils.JSONError(ctx, iris.StatusBadRequest, "Room is not available")
	case errors.Is(txErr, errRoomReserved):
		utils.JSONError(ctx, iris.StatusBadRequest, "Room already has an active reservation")
	case errors.Is(txErr, errBookingNotFound):
		utils.CreateError(iris.StatusNotFound, "Not Found", "Booking not found.", ctx)
	case errors.Is(txErr, errBookingExpired):
		utils.JSONError(ctx, iris.StatusBadRequest, "Booking has expired")
	case errors.Is(txErr, errMissingHouseRoom):
		utils.JSONError(ctx, iris.StatusBadRequest, "House ID and Room ID are required")
	case errors.Is(txErr, errHouseFull):
		utils.JSONError(ctx, iris.StatusBadRequest, "House is full; cannot create booking at this time")
	default:
		utils.CreateInternalServerError(ctx)
	}
	return true
}

type InquiryInput struct {
	HouseID uint   `json:"houseID" validate:"required"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

type ReserveRoomInput struct {
	HouseID    uint   `json:"houseID" validate:"required"`
	RoomID     uint   `json:"roomID" validate:"required"`
	MoveInDate string `json:"moveInDate"`
	Notes      string `json:"notes"`
}

type ConfirmBookingInput struct {
	BookingID  uint   `json:"bookingID"`
	HouseID    uint   `json:"houseID"`
	RoomID     uint   `json:"roomID"`
	MoveInDate string `json:"moveInDate"`
	Notes      string `json:"notes"`
}

type CancelBookingInput struct {
	Reason string `json:"reason"`
}

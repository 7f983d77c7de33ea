package routes

import (
	"fmt"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/services"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

// GetMyHouses returns every house owned by the current owner. The singular
// "house" key carries the first one for older clients.
func GetMyHouses(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var houses []models.House
	if err := storage.DB.Preload("Rooms").Preload("ResidentialArea").
		Where("owner_id = ?", user.ID).Find(&houses).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var first *models.House
	if len(houses) > 0 {
		first = &houses[0]
	}

	ctx.JSON(iris.Map{
		"success": true,
		"house":   first,
		"houses":  houses,
	})
}

// UpdateMyHouse edits description, rules, coordinates, amenities, images and
// optionally replaces the room list wholesale.
func UpdateMyHouse(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	house := ownedHouse(user, ctx)
	if house == nil {
		return
	}

	var input UpdateHouseInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Description != nil {
		house.Description = *input.Description
	}
	if input.Rules != nil {
		house.Rules = *input.Rules
	}

	if input.Latitude != nil {
		if *input.Latitude < -90 || *input.Latitude > 90 {
			utils.JSONError(ctx, iris.StatusBadRequest, "Latitude must be between -90 and 90")
			return
		}
		house.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		if *input.Longitude < -180 || *input.Longitude > 180 {
			utils.JSONError(ctx, iris.StatusBadRequest, "Longitude must be between -180 and 180")
			return
		}
		house.Longitude = *input.Longitude
	}

	applyAmenities(house, input.Amenities)

	if input.ImageFilenames != nil {
		house.SetImageList(input.ImageFilenames)
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(house).Error; err != nil {
			return err
		}

		if input.Rooms != nil {
			if err := tx.Where("house_id = ?", house.ID).Delete(&models.Room{}).Error; err != nil {
				return err
			}
			for _, roomInput := range input.Rooms {
				room := models.Room{
					HouseID:         house.ID,
					RoomNumber:      roomInput.RoomNumber,
					Capacity:        roomInput.Capacity,
					PricePerMonth:   roomInput.PricePerMonth,
					IsAvailable:     true,
					IsOccupied:      roomInput.IsOccupied,
					CurrentTenantID: roomInput.CurrentTenantID,
				}
				if roomInput.IsAvailable != nil {
					room.IsAvailable = *roomInput.IsAvailable
				}
				if err := tx.Create(&room).Error; err != nil {
					return err
				}
			}
		}

		return services.RefreshHouseFullness(tx, house.ID)
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var updated models.House
	storage.DB.Preload("Rooms").Preload("ResidentialArea").First(&updated, house.ID)

	ctx.JSON(iris.Map{
		"success": true,
		"message": "House updated",
		"house":   &updated,
	})
}

// UpdatePaymentMethods edits the channels tenants use to pay the owner.
func UpdatePaymentMethods(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var input UpdateOwnerProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var profile models.HouseOwner
	found := storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&profile)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		profile = models.HouseOwner{UserID: user.ID, PaymentStatus: models.OwnerPaymentPending}
	}

	if input.EcocashNumber != nil {
		profile.EcocashNumber = *input.EcocashNumber
	}
	if input.BankAccount != nil {
		profile.BankAccount = *input.BankAccount
	}
	if input.OtherPaymentInfo != nil {
		profile.OtherPaymentInfo = *input.OtherPaymentInfo
	}

	if err := storage.DB.Save(&profile).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":   true,
		"message":   "Payment methods updated",
		"ownerInfo": profile,
	})
}

// UploadHouseImages accepts multipart "images" files, capped per house.
func UploadHouseImages(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	house := ownedHouse(user, ctx)
	if house == nil {
		return
	}

	form := ctx.Request().MultipartForm
	if form == nil {
		if err := ctx.Request().ParseMultipartForm(32 << 20); err != nil {
			utils.JSONError(ctx, iris.StatusBadRequest, "No files provided")
			return
		}
		form = ctx.Request().MultipartForm
	}

	files := form.File["images"]
	if len(files) == 0 {
		utils.JSONError(ctx, iris.StatusBadRequest, "No files provided")
		return
	}

	existing := house.ImageList()
	if len(existing)+len(files) > utils.MaxHouseImages() {
		utils.JSONError(ctx, iris.StatusBadRequest,
			fmt.Sprintf("You can upload at most %d images per house. Currently %d image(s) present.",
				utils.MaxHouseImages(), len(existing)))
		return
	}

	prefix := fmt.Sprintf("owner%d_%d_", user.ID, time.Now().UTC().Unix())
	saved := []string{}
	for _, header := range files {
		name := storage.SanitizeFilename(header.Filename)
		if name == "" || !storage.AllowedImageFile(name) {
			continue
		}
		file, openErr := header.Open()
		if openErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		storedName := prefix + name
		saveErr := storage.SaveUploadedFile(file, storage.HouseImageDir, storedName)
		file.Close()
		if saveErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		saved = append(saved, storedName)
	}

	combined := append(existing, saved...)
	house.SetImageList(combined)
	if err := storage.DB.Model(house).Update("image_filenames", house.ImageFilenames).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"success":      true,
		"filenames":    saved,
		"allFilenames": combined,
	})
}

// DeleteHouseImage removes one image from the owner's house. A failed disk
// delete is non-fatal once the database row is updated.
func DeleteHouseImage(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	house := ownedHouse(user, ctx)
	if house == nil {
		return
	}

	filename := ctx.Params().Get("filename")
	existing := house.ImageList()

	remaining := make([]string, 0, len(existing))
	removed := false
	for _, fn := range existing {
		if fn == filename {
			removed = true
			continue
		}
		remaining = append(remaining, fn)
	}
	if !removed {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Image not found.", ctx)
		return
	}

	house.SetImageList(remaining)
	if err := storage.DB.Model(house).Update("image_filenames", house.ImageFilenames).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.RemoveStoredFile(storage.HouseImageDir, filename)

	ctx.JSON(iris.Map{
		"success":            true,
		"message":            "Image deleted",
		"remainingFilenames": remaining,
	})
}

// GetOwnerBookings returns bookings and inquiries across all the owner's
// houses, newest first.
func GetOwnerBookings(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var houseIDs []uint
	storage.DB.Model(&models.House{}).Where("owner_id = ?", user.ID).Pluck("id", &houseIDs)
	if len(houseIDs) == 0 {
		ctx.JSON(iris.Map{
			"success":   true,
			"bookings":  []models.Booking{},
			"inquiries": []models.BookingInquiry{},
		})
		return
	}

	var bookings []models.Booking
	if err := storage.DB.Preload("Student").Preload("House").Preload("Room").
		Where("house_id IN ?", houseIDs).
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var inquiries []models.BookingInquiry
	if err := storage.DB.Where("house_id IN ?", houseIDs).
		Order("created_at DESC").
		Find(&inquiries).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":   true,
		"bookings":  bookings,
		"inquiries": inquiries,
	})
}

// AcceptBooking records the owner's acceptance. It only annotates; the
// booking lifecycle stays with the student.
func AcceptBooking(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	booking := ownedBooking(user, ctx)
	if booking == nil {
		return
	}

	var input OwnerBookingResponseInput
	ctx.ReadJSON(&input) // body optional

	now := time.Now().UTC()
	booking.OwnerStatus = models.OwnerStatusAccepted
	booking.OwnerResponseDate = &now
	if input.Message != "" {
		booking.OwnerResponse = input.Message
	}

	if err := storage.DB.Save(booking).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Booking accepted",
		"booking": booking,
	})
}

// OwnerCancelBooking cancels the booking on the owner's side and frees the
// room.
func OwnerCancelBooking(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	booking := ownedBooking(user, ctx)
	if booking == nil {
		return
	}

	var input OwnerCancelBookingInput
	ctx.ReadJSON(&input) // body optional

	reason := input.Reason
	if reason == "" {
		reason = "Cancelled by house owner"
	}

	now := time.Now().UTC()
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		room, lockErr := services.LockRoom(tx, booking.RoomID)
		if lockErr == nil {
			if err := services.ReleaseRoom(tx, room); err != nil {
				return err
			}
		}

		booking.OwnerStatus = models.OwnerStatusCancelled
		booking.BookingType = models.BookingTypeCancelled
		booking.CancellationReason = reason
		booking.OwnerResponseDate = &now
		if input.Message != "" {
			booking.OwnerResponse = input.Message
		}
		return tx.Save(booking).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Booking cancelled",
		"booking": booking,
	})
}

// DeleteBooking removes the record entirely, releasing the room first.
func DeleteBooking(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	booking := ownedBooking(user, ctx)
	if booking == nil {
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		room, lockErr := services.LockRoom(tx, booking.RoomID)
		if lockErr == nil {
			if err := services.ReleaseRoom(tx, room); err != nil {
				return err
			}
		}
		return tx.Delete(booking).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":   true,
		"message":   "Booking deleted",
		"deletedID": booking.ID,
	})
}

// SetRoomOccupancy is the owner's manual toggle for a room they let outside
// the platform.
func SetRoomOccupancy(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	roomID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input SetRoomOccupancyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if input.IsOccupied == nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "isOccupied field required")
		return
	}

	var room models.Room
	found := storage.DB.Limit(1).Find(&room, roomID)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found.", ctx)
		return
	}

	var house models.House
	houseFound := storage.DB.Limit(1).Find(&house, room.HouseID)
	if houseFound.Error != nil || houseFound.RowsAffected == 0 || house.OwnerID == nil || *house.OwnerID != user.ID {
		utils.CreateForbidden("Not authorized for this room.", ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		locked, lockErr := services.LockRoom(tx, room.ID)
		if lockErr != nil {
			return lockErr
		}
		return services.SetRoomOccupancy(tx, locked, *input.IsOccupied)
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.First(&room, roomID)
	storage.DB.Preload("Rooms").First(&house, house.ID)

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Room occupancy updated",
		"room":    &room,
		"house":   &house,
	})
}

// VerifyInquiry approves an inquiry for one of the owner's houses.
func VerifyInquiry(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	inquiry := ownedInquiry(user, ctx)
	if inquiry == nil {
		return
	}

	var input InquiryResponseInput
	ctx.ReadJSON(&input) // body optional

	inquiry.Status = models.InquiryStatusVerified
	if input.Response != "" {
		now := time.Now().UTC()
		inquiry.Response = input.Response
		inquiry.ResponseDate = &now
	}

	if err := storage.DB.Save(inquiry).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Inquiry verified"})
}

func OwnerCancelInquiry(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	inquiry := ownedInquiry(user, ctx)
	if inquiry == nil {
		return
	}

	if err := storage.DB.Model(inquiry).Update("status", models.InquiryStatusCancelled).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Inquiry cancelled"})
}

func OwnerDeleteInquiry(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	inquiry := ownedInquiry(user, ctx)
	if inquiry == nil {
		return
	}

	if err := storage.DB.Delete(inquiry).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Inquiry deleted"})
}

func ownedHouse(user *models.User, ctx iris.Context) *models.House {
	var house models.House
	found := storage.DB.Preload("Rooms").Where("owner_id = ?", user.ID).Limit(1).Find(&house)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}
	if found.RowsAffected == 0 {
		utils.JSONError(ctx, iris.StatusBadRequest, "No house assigned to this owner")
		return nil
	}
	return &house
}

func ownedBooking(user *models.User, ctx iris.Context) *models.Booking {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return nil
	}

	var booking models.Booking
	found := storage.DB.Preload("House").Preload("Student").Preload("Room").Limit(1).Find(&booking, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}
	if found.RowsAffected == 0 || booking.House == nil ||
		booking.House.OwnerID == nil || *booking.House.OwnerID != user.ID {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Booking not found.", ctx)
		return nil
	}
	return &booking
}

func ownedInquiry(user *models.User, ctx iris.Context) *models.BookingInquiry {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return nil
	}

	var inquiry models.BookingInquiry
	found := storage.DB.Limit(1).Find(&inquiry, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Inquiry not found.", ctx)
		return nil
	}

	var house models.House
	houseFound := storage.DB.Limit(1).Find(&house, inquiry.HouseID)
	if houseFound.Error != nil || houseFound.RowsAffected == 0 ||
		house.OwnerID == nil || *house.OwnerID != user.ID {
		utils.CreateForbidden("Not authorized for this inquiry.", ctx)
		return nil
	}
	return &inquiry
}

func applyAmenities(house *models.House, amenities *AmenitiesInput) {
	if amenities == nil {
		return
	}
	if amenities.IsTiled != nil {
		house.IsTiled = *amenities.IsTiled
	}
	if amenities.HasSolar != nil {
		house.HasSolar = *amenities.HasSolar
	}
	if amenities.HasJojoTank != nil {
		house.HasJojoTank = *amenities.HasJojoTank
	}
	if amenities.HasWifi != nil {
		house.HasWifi = *amenities.HasWifi
	}
	if amenities.HasParking != nil {
		house.HasParking = *amenities.HasParking
	}
	if amenities.HasKitchen != nil {
		house.HasKitchen = *amenities.HasKitchen
	}
	if amenities.HasLaundry != nil {
		house.HasLaundry = *amenities.HasLaundry
	}
}

type UpdateHouseInput struct {
	Description    *string         `json:"description"`
	Rules          *string         `json:"rules"`
	Latitude       *float64        `json:"latitude"`
	Longitude      *float64        `json:"longitude"`
	Amenities      *AmenitiesInput `json:"amenities"`
	ImageFilenames []string        `json:"imageFilenames"`
	Rooms          []RoomInput     `json:"rooms"`
}

type AmenitiesInput struct {
	IsTiled     *bool `json:"isTiled"`
	HasSolar    *bool `json:"hasSolar"`
	HasJojoTank *bool `json:"hasJojoTank"`
	HasWifi     *bool `json:"hasWifi"`
	HasParking  *bool `json:"hasParking"`
	HasKitchen  *bool `json:"hasKitchen"`
	HasLaundry  *bool `json:"hasLaundry"`
}

type RoomInput struct {
	RoomNumber      string  `json:"roomNumber"`
	Capacity        int     `json:"capacity"`
	PricePerMonth   float64 `json:"pricePerMonth"`
	IsAvailable     *bool   `json:"isAvailable"`
	IsOccupied      bool    `json:"isOccupied"`
	CurrentTenantID *uint   `json:"currentTenantID"`
}

type OwnerBookingResponseInput struct {
	Message string `json:"message"`
}

type OwnerCancelBookingInput struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type SetRoomOccupancyInput struct {
	IsOccupied *bool `json:"isOccupied"`
}

type InquiryResponseInput struct {
	Response string `json:"response"`
}

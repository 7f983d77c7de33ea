package routes

import (
	"fmt"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

// AdminCreateHouse registers a verified house, optionally seeding the real
// owner's contact details so they can claim it later.
func AdminCreateHouse(ctx iris.Context) {
	var input AdminCreateHouseInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Latitude < -90 || input.Latitude > 90 {
		utils.JSONError(ctx, iris.StatusBadRequest, "Latitude must be between -90 and 90")
		return
	}
	if input.Longitude < -180 || input.Longitude > 180 {
		utils.JSONError(ctx, iris.StatusBadRequest, "Longitude must be between -180 and 180")
		return
	}

	var area models.ResidentialArea
	areaFound := storage.DB.Limit(1).Find(&area, input.ResidentialAreaID)
	if areaFound.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if areaFound.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Residential area not found.", ctx)
		return
	}

	house := models.House{
		HouseNumber:       input.HouseNumber,
		StreetAddress:     input.StreetAddress,
		Latitude:          input.Latitude,
		Longitude:         input.Longitude,
		ResidentialAreaID: area.ID,
		Description:       input.Description,
		Rules:             input.Rules,
		IsVerified:        true,
		IsActive:          true,
	}
	if input.OwnerDetails != nil {
		house.OwnerName = input.OwnerDetails.FullName
		house.OwnerEmail = input.OwnerDetails.Email
		house.OwnerPhone = utils.NormalizePhoneNumber(input.OwnerDetails.PhoneNumber)
		house.IsClaimed = false
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&house).Error; err != nil {
			return err
		}
		for _, roomInput := range input.Rooms {
			room := models.Room{
				HouseID:       house.ID,
				RoomNumber:    roomInput.RoomNumber,
				Capacity:      roomInput.Capacity,
				PricePerMonth: roomInput.PricePerMonth,
				IsAvailable:   true,
			}
			if err := tx.Create(&room).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var created models.House
	storage.DB.Preload("Rooms").Preload("ResidentialArea").First(&created, house.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"success": true,
		"message": "House created",
		"house":   &created,
	})
}

// AdminListHouses lists houses with area/active/owner filters. Unlike the
// public catalog, unverified and inactive houses are included.
func AdminListHouses(ctx iris.Context) {
	query := storage.DB.Preload("Rooms").Preload("ResidentialArea").Preload("Owner")

	if areaID := ctx.URLParamIntDefault("areaID", 0); areaID > 0 {
		query = query.Where("residential_area_id = ?", areaID)
	}
	switch ctx.URLParam("isActive") {
	case "true":
		query = query.Where("is_active = ?", true)
	case "false":
		query = query.Where("is_active = ?", false)
	}
	switch ctx.URLParam("hasOwner") {
	case "true":
		query = query.Where("owner_id IS NOT NULL")
	case "false":
		query = query.Where("owner_id IS NULL")
	}

	var houses []models.House
	if err := query.Find(&houses).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "count": len(houses), "houses": houses})
}

// AdminUpdateHouse edits flags, description, coordinates and amenities.
func AdminUpdateHouse(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var house models.House
	found := storage.DB.Limit(1).Find(&house, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}

	var input AdminUpdateHouseInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.IsActive != nil {
		house.IsActive = *input.IsActive
	}
	if input.IsVerified != nil {
		house.IsVerified = *input.IsVerified
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
	applyAmenities(&house, input.Amenities)

	if err := storage.DB.Save(&house).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "House updated",
		"house":   &house,
	})
}

// AdminDeleteHouse removes a house. Houses with bookings require ?force=true,
// which deletes the bookings too.
func AdminDeleteHouse(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var house models.House
	found := storage.DB.Limit(1).Find(&house, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}

	var bookingCount int64
	storage.DB.Model(&models.Booking{}).Where("house_id = ?", house.ID).Count(&bookingCount)

	force := ctx.URLParamDefault("force", "false") == "true"
	if bookingCount > 0 && !force {
		utils.JSONError(ctx, iris.StatusBadRequest,
			fmt.Sprintf("Cannot delete house with %d existing bookings. Pass ?force=true to delete bookings and the house.", bookingCount))
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("house_id = ?", house.ID).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("house_id = ?", house.ID).Delete(&models.BookingInquiry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("house_id = ?", house.ID).Delete(&models.Room{}).Error; err != nil {
			return err
		}
		return tx.Delete(&house).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "House deleted"})
}

// UnassignHouseOwner detaches the owner from a house without touching the
// owner's account.
func UnassignHouseOwner(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var house models.House
	found := storage.DB.Limit(1).Find(&house, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}

	if house.OwnerID == nil {
		ctx.JSON(iris.Map{"success": true, "message": "House had no owner"})
		return
	}

	previousOwner := *house.OwnerID
	if err := storage.DB.Model(&house).Updates(map[string]interface{}{
		"owner_id": nil,
	}).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "unassign_house_owner", &previousOwner,
		fmt.Sprintf("Owner %d unassigned from house %d", previousOwner, house.ID))

	ctx.JSON(iris.Map{"success": true, "message": "Owner unassigned successfully"})
}

// GetHouseBookings lists a house's bookings with student details.
func GetHouseBookings(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var house models.House
	found := storage.DB.Limit(1).Find(&house, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}

	var bookings []models.Booking
	if err := storage.DB.Preload("Student").Preload("Room").
		Where("house_id = ?", house.ID).
		Order("booking_date DESC").Find(&bookings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":  true,
		"count":    len(bookings),
		"bookings": bookings,
	})
}

type AdminCreateHouseInput struct {
	HouseNumber       string             `json:"houseNumber" validate:"required"`
	StreetAddress     string             `json:"streetAddress" validate:"required"`
	ResidentialAreaID uint               `json:"residentialAreaID" validate:"required"`
	Latitude          float64            `json:"latitude" validate:"required"`
	Longitude         float64            `json:"longitude" validate:"required"`
	Description       string             `json:"description"`
	Rules             string             `json:"rules"`
	OwnerDetails      *OwnerDetailsInput `json:"ownerDetails"`
	Rooms             []RoomInput        `json:"rooms"`
}

type OwnerDetailsInput struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type AdminUpdateHouseInput struct {
	IsActive    *bool           `json:"isActive"`
	IsVerified  *bool           `json:"isVerified"`
	Description *string         `json:"description"`
	Rules       *string         `json:"rules"`
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
	Amenities   *AmenitiesInput `json:"amenities"`
}

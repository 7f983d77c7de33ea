package routes

import (
	"sort"
	"strings"

	"github.com/kataras/iris/v12"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

const pendingVerificationMsg = "Account pending admin verification. Upload proof of payment and wait for admin approval."

// blockUnverifiedStudent enforces the catalog gate for logged-in students on
// otherwise public endpoints. Anonymous requests and invalid tokens pass
// through as public traffic.
func blockUnverifiedStudent(ctx iris.Context) bool {
	header := ctx.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}

	claims, err := utils.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return false
	}

	var user models.User
	if err := storage.DB.First(&user, claims.ID).Error; err != nil {
		return false
	}

	if user.UserType == models.UserTypeStudent && !utils.ExpireStaleVerification(&user) {
		utils.JSONError(ctx, iris.StatusForbidden, pendingVerificationMsg)
		return true
	}
	return false
}

// GetHouses lists active, verified houses with optional filters:
// areaID, hasAccommodation, minPrice, maxPrice, capacity.
func GetHouses(ctx iris.Context) {
	if blockUnverifiedStudent(ctx) {
		return
	}

	query := storage.DB.Preload("Rooms").Preload("ResidentialArea").Preload("Owner").
		Where("is_active = ? AND is_verified = ?", true, true)

	if areaID := ctx.URLParamIntDefault("areaID", 0); areaID > 0 {
		query = query.Where("residential_area_id = ?", areaID)
	}

	var houses []models.House
	if err := query.Find(&houses).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	hasAccommodation := ctx.URLParam("hasAccommodation")
	minPrice := ctx.URLParamFloat64Default("minPrice", 0)
	maxPrice := ctx.URLParamFloat64Default("maxPrice", 0)
	capacity := ctx.URLParamIntDefault("capacity", 0)

	// Price and capacity are per-room filters; a house stays listed when at
	// least one free room matches.
	filtered := make([]models.House, 0, len(houses))
	for i := range houses {
		house := houses[i]

		if hasAccommodation == "true" && !house.HasAccommodation() {
			continue
		}
		if hasAccommodation == "false" && house.HasAccommodation() {
			continue
		}

		if minPrice > 0 || maxPrice > 0 || capacity > 0 {
			matched := false
			for _, room := range house.Rooms {
				if !room.IsAvailable {
					continue
				}
				if minPrice > 0 && room.PricePerMonth < minPrice {
					continue
				}
				if maxPrice > 0 && room.PricePerMonth > maxPrice {
					continue
				}
				if capacity > 0 && room.Capacity != capacity {
					continue
				}
				matched = true
				break
			}
			if !matched {
				continue
			}
		}

		filtered = append(filtered, house)
	}

	ctx.JSON(iris.Map{
		"success": true,
		"count":   len(filtered),
		"houses":  filtered,
	})
}

func GetHouseDetails(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var house models.House
	found := storage.DB.Preload("Rooms").Preload("ResidentialArea").Preload("Owner").
		Limit(1).Find(&house, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}

	if !house.IsActive || !house.IsVerified {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House is not available.", ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"house":   house,
	})
}

// GetHousesByArea splits the area's houses into those still taking tenants
// and those already full.
func GetHousesByArea(ctx iris.Context) {
	if blockUnverifiedStudent(ctx) {
		return
	}

	areaID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var area models.ResidentialArea
	found := storage.DB.Limit(1).Find(&area, areaID)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Residential area not found.", ctx)
		return
	}

	var houses []models.House
	if err := storage.DB.Preload("Rooms").Preload("Owner").
		Where("residential_area_id = ? AND is_active = ? AND is_verified = ?", areaID, true, true).
		Find(&houses).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	withAccommodation := make([]models.House, 0, len(houses))
	full := make([]models.House, 0)
	for i := range houses {
		if houses[i].HasAccommodation() {
			withAccommodation = append(withAccommodation, houses[i])
		} else {
			full = append(full, houses[i])
		}
	}

	ctx.JSON(iris.Map{
		"success":                 true,
		"area":                    &area,
		"housesWithAccommodation": withAccommodation,
		"housesFull":              full,
	})
}

// SearchHouses filters by free-text term, area name and amenity list.
func SearchHouses(ctx iris.Context) {
	query := storage.DB.Preload("Rooms").Preload("ResidentialArea").Preload("Owner").
		Where("is_active = ? AND is_verified = ?", true, true)

	if term := strings.TrimSpace(ctx.URLParam("q")); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where(
			"lower(house_number) LIKE ? OR lower(street_address) LIKE ? OR lower(description) LIKE ?",
			like, like, like)
	}

	if areaName := strings.TrimSpace(ctx.URLParam("area")); areaName != "" {
		query = query.Joins("JOIN residential_areas ON residential_areas.id = houses.residential_area_id").
			Where("lower(residential_areas.name) LIKE ?", "%"+strings.ToLower(areaName)+"%")
	}

	if amenities := strings.TrimSpace(ctx.URLParam("amenities")); amenities != "" {
		for _, amenity := range strings.Split(amenities, ",") {
			switch strings.ToLower(strings.TrimSpace(amenity)) {
			case "solar":
				query = query.Where("has_solar = ?", true)
			case "wifi":
				query = query.Where("has_wifi = ?", true)
			case "parking":
				query = query.Where("has_parking = ?", true)
			case "jojo", "tank":
				query = query.Where("has_jojo_tank = ?", true)
			case "tiled":
				query = query.Where("is_tiled = ?", true)
			case "kitchen":
				query = query.Where("has_kitchen = ?", true)
			case "laundry":
				query = query.Where("has_laundry = ?", true)
			}
		}
	}

	var houses []models.House
	if err := query.Find(&houses).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"count":   len(houses),
		"houses":  houses,
	})
}

// GetResidentialAreas lists areas closest-to-campus first. The admin's manual
// distance wins over the computed one; areas with neither sort last.
func GetResidentialAreas(ctx iris.Context) {
	if blockUnverifiedStudent(ctx) {
		return
	}

	var areas []models.ResidentialArea
	if err := storage.DB.Find(&areas).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	sort.SliceStable(areas, func(i, j int) bool {
		di := areas[i].EffectiveDistanceKm()
		dj := areas[j].EffectiveDistanceKm()
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return *di < *dj
	})

	data := make([]iris.Map, 0, len(areas))
	for i := range areas {
		var activeHouses int64
		storage.DB.Model(&models.House{}).
			Where("residential_area_id = ? AND is_active = ? AND is_verified = ?", areas[i].ID, true, true).
			Count(&activeHouses)
		data = append(data, iris.Map{
			"area":             &areas[i],
			"activeHouseCount": activeHouses,
		})
	}

	ctx.JSON(iris.Map{
		"success": true,
		"count":   len(data),
		"areas":   data,
	})
}

func GetHouseRooms(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var house models.House
	found := storage.DB.Preload("ResidentialArea").Limit(1).Find(&house, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}

	var rooms []models.Room
	if err := storage.DB.Where("house_id = ?", id).Find(&rooms).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	areaName := ""
	if house.ResidentialArea != nil {
		areaName = house.ResidentialArea.Name
	}

	ctx.JSON(iris.Map{
		"success": true,
		"house": iris.Map{
			"id":      house.ID,
			"address": house.HouseNumber + " " + house.StreetAddress,
			"area":    areaName,
		},
		"totalRooms": len(rooms),
		"rooms":      rooms,
	})
}

// GetHouseOwnerContact exposes the owner's contact and payment channels to
// authenticated users.
func GetHouseOwnerContact(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var house models.House
	found := storage.DB.Preload("Owner").Limit(1).Find(&house, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}

	if house.Owner == nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House has no owner assigned.", ctx)
		return
	}

	var profile models.HouseOwner
	hasProfile := storage.DB.Where("user_id = ?", house.Owner.ID).Limit(1).Find(&profile).RowsAffected > 0

	paymentMethods := iris.Map{"ecocash": nil, "bankAccount": nil, "other": nil}
	if hasProfile {
		paymentMethods = iris.Map{
			"ecocash":     profile.EcocashNumber,
			"bankAccount": profile.BankAccount,
			"other":       profile.OtherPaymentInfo,
		}
	}

	ctx.JSON(iris.Map{
		"success": true,
		"owner": iris.Map{
			"name":           house.Owner.FullName,
			"phone":          house.Owner.PhoneNumber,
			"email":          house.Owner.Email,
			"paymentMethods": paymentMethods,
		},
	})
}

// ClaimHouse flags a seeded house as claimed when the caller's details match
// the admin record. It never assigns ownership; registration does that.
func ClaimHouse(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input ClaimHouseInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
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

	if house.IsClaimed {
		utils.CreateError(iris.StatusBadRequest, "Claim Error", "House has already been claimed.", ctx)
		return
	}

	nameOK := house.OwnerName != "" && normalizeOwnerName(house.OwnerName) == normalizeOwnerName(input.Name)
	emailOK := house.OwnerEmail != "" && strings.EqualFold(strings.TrimSpace(house.OwnerEmail), strings.TrimSpace(input.Email))
	phoneOK := utils.PhoneSuffixMatch(house.OwnerPhone, input.Phone)

	if !(nameOK && emailOK && phoneOK) {
		utils.CreateError(iris.StatusBadRequest, "Claim Error", "Owner details do not match.", ctx)
		return
	}

	if err := storage.DB.Model(&house).Update("is_claimed", true).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "House claimed successfully.",
	})
}

var whitespaceFolder = strings.NewReplacer("\t", " ", "\n", " ")

func normalizeOwnerName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(whitespaceFolder.Replace(s)), " "))
}

// GetUnclaimedHouses lists verified houses with admin-seeded owner details
// still waiting for their owner.
func GetUnclaimedHouses(ctx iris.Context) {
	var houses []models.House
	if err := storage.DB.Preload("Rooms").Preload("ResidentialArea").
		Where("owner_id IS NULL AND is_verified = ?", true).
		Find(&houses).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	candidates := make([]models.House, 0, len(houses))
	for i := range houses {
		h := houses[i]
		if h.OwnerName != "" || h.OwnerEmail != "" || h.OwnerPhone != "" {
			candidates = append(candidates, h)
		}
	}

	ctx.JSON(iris.Map{
		"success": true,
		"count":   len(candidates),
		"houses":  candidates,
	})
}

type ClaimHouseInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

package routes

import (
	"fmt"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/services"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

// CreateResidentialArea registers a new area. When coordinates are given and
// no manual distance is set, the distance to Main campus is computed.
func CreateResidentialArea(ctx iris.Context) {
	var input ResidentialAreaInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	area := models.ResidentialArea{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	}
	if area.Name == "" {
		utils.JSONError(ctx, iris.StatusBadRequest, "Name is required")
		return
	}

	var existing models.ResidentialArea
	dup := storage.DB.Where("LOWER(name) = ?", strings.ToLower(area.Name)).Limit(1).Find(&existing)
	if dup.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if dup.RowsAffected > 0 {
		utils.JSONError(ctx, iris.StatusConflict, "Residential area with this name already exists")
		return
	}

	if !applyAreaCoordinates(&area, input, ctx) {
		return
	}

	if err := storage.DB.Create(&area).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"success": true,
		"message": "Residential area created",
		"area":    &area,
	})
}

// UpdateResidentialArea edits an area. Passing explicit clear flags removes
// coordinates or the manual distance, with re-computation where possible.
func UpdateResidentialArea(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var area models.ResidentialArea
	found := storage.DB.Limit(1).Find(&area, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Residential area not found.", ctx)
		return
	}

	var input ResidentialAreaInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if name := strings.TrimSpace(input.Name); name != "" && !strings.EqualFold(name, area.Name) {
		var existing models.ResidentialArea
		dup := storage.DB.Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), area.ID).
			Limit(1).Find(&existing)
		if dup.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		if dup.RowsAffected > 0 {
			utils.JSONError(ctx, iris.StatusConflict, "Residential area with this name already exists")
			return
		}
		area.Name = name
	}
	if input.Description != "" {
		area.Description = input.Description
	}

	if !applyAreaCoordinates(&area, input, ctx) {
		return
	}

	if err := storage.DB.Save(&area).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Residential area updated",
		"area":    &area,
	})
}

// DeleteResidentialArea removes an area and everything inside it: bookings,
// inquiries, rooms, houses, then the area itself.
func DeleteResidentialArea(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var area models.ResidentialArea
	found := storage.DB.Limit(1).Find(&area, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Residential area not found.", ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		var houseIDs []uint
		if err := tx.Model(&models.House{}).
			Where("residential_area_id = ?", area.ID).Pluck("id", &houseIDs).Error; err != nil {
			return err
		}
		if len(houseIDs) > 0 {
			if err := tx.Where("house_id IN ?", houseIDs).Delete(&models.Booking{}).Error; err != nil {
				return err
			}
			if err := tx.Where("house_id IN ?", houseIDs).Delete(&models.BookingInquiry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("house_id IN ?", houseIDs).Delete(&models.Room{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", houseIDs).Delete(&models.House{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&area).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Residential area and contained houses deleted.",
	})
}

// GetAdminStats returns platform-wide counters for the dashboard.
func GetAdminStats(ctx iris.Context) {
	var (
		totalUsers, totalStudents, totalHouseOwners, totalAdmins int64
		totalHouses, activeHouses, unclaimedHouses               int64
		totalAreas, totalRooms, occupiedRooms, availableRooms    int64
	)

	storage.DB.Model(&models.User{}).Count(&totalUsers)
	storage.DB.Model(&models.User{}).Where("user_type = ?", models.UserTypeStudent).Count(&totalStudents)
	storage.DB.Model(&models.User{}).Where("user_type = ?", models.UserTypeHouseOwner).Count(&totalHouseOwners)
	storage.DB.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&totalAdmins)
	storage.DB.Model(&models.House{}).Count(&totalHouses)
	storage.DB.Model(&models.House{}).Where("is_active = ?", true).Count(&activeHouses)
	storage.DB.Model(&models.House{}).Where("owner_id IS NULL").Count(&unclaimedHouses)
	storage.DB.Model(&models.ResidentialArea{}).Count(&totalAreas)
	storage.DB.Model(&models.Room{}).Count(&totalRooms)
	storage.DB.Model(&models.Room{}).Where("is_occupied = ?", true).Count(&occupiedRooms)
	storage.DB.Model(&models.Room{}).
		Where("is_occupied = ? AND is_available = ?", false, true).Count(&availableRooms)

	ctx.JSON(iris.Map{
		"success": true,
		"stats": iris.Map{
			"totalUsers":            totalUsers,
			"totalStudents":         totalStudents,
			"totalHouseOwners":      totalHouseOwners,
			"totalAdmins":           totalAdmins,
			"totalHouses":           totalHouses,
			"activeHouses":          activeHouses,
			"unclaimedHouses":       unclaimedHouses,
			"totalResidentialAreas": totalAreas,
			"totalRooms":            totalRooms,
			"occupiedRooms":         occupiedRooms,
			"availableRooms":        availableRooms,
		},
	})
}

// GetAuditLog pages through admin actions, newest first.
func GetAuditLog(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := ctx.URLParamIntDefault("perPage", 20)
	if perPage < 1 {
		perPage = 1
	}
	if perPage > 100 {
		perPage = 100
	}

	query := storage.DB.Model(&models.AdminAudit{})
	if actorID := ctx.URLParamIntDefault("actorID", 0); actorID > 0 {
		query = query.Where("actor_id = ?", actorID)
	}
	if targetID := ctx.URLParamIntDefault("targetUserID", 0); targetID > 0 {
		query = query.Where("target_user_id = ?", targetID)
	}
	if action := ctx.URLParam("action"); action != "" {
		query = query.Where("LOWER(action) LIKE ?", "%"+strings.ToLower(action)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var audits []models.AdminAudit
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&audits).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, "audits", audits, page, perPage, total)
}

// GetSubscriptions lists owner subscription records, latest due first.
func GetSubscriptions(ctx iris.Context) {
	query := storage.DB.Preload("HouseOwner").Preload("House")
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var subscriptions []models.SubscriptionPayment
	if err := query.Order("due_date DESC").Find(&subscriptions).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":       true,
		"count":         len(subscriptions),
		"subscriptions": subscriptions,
	})
}

// GetPendingPaymentProofs lists proofs awaiting review with the uploading
// student's verification state.
func GetPendingPaymentProofs(ctx iris.Context) {
	var proofs []models.PaymentProof
	if err := storage.DB.Preload("Student").
		Where("status = ?", models.ProofStatusPending).
		Order("created_at DESC").Find(&proofs).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	items := make([]iris.Map, 0, len(proofs))
	for i := range proofs {
		proof := &proofs[i]
		var student iris.Map
		if proof.Student != nil {
			student = iris.Map{
				"id":            proof.Student.ID,
				"email":         proof.Student.Email,
				"fullName":      proof.Student.FullName,
				"phoneNumber":   proof.Student.PhoneNumber,
				"emailVerified": proof.Student.EmailVerified,
				"adminVerified": proof.Student.AdminVerified,
			}
		}
		items = append(items, iris.Map{
			"proof":   proof,
			"student": student,
			"viewURL": "/static/payment_proofs/" + proof.Filename,
		})
	}

	ctx.JSON(iris.Map{"success": true, "count": len(items), "proofs": items})
}

// ReviewPaymentProof accepts or rejects a proof. Acceptance verifies the
// student for the configured window; rejection emails the reason.
func ReviewPaymentProof(ctx iris.Context) {
	admin := utils.CurrentUser(ctx)
	if admin == nil {
		return
	}

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input ReviewProofInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if input.Action != "accept" && input.Action != "reject" {
		utils.JSONError(ctx, iris.StatusBadRequest, "Action must be accept or reject")
		return
	}

	var proof models.PaymentProof
	found := storage.DB.Preload("Student").Limit(1).Find(&proof, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Payment proof not found.", ctx)
		return
	}

	now := time.Now().UTC()
	proof.AdminID = &admin.ID
	proof.AdminComment = input.Comment
	proof.ReviewedAt = &now

	if input.Action == "accept" {
		proof.Status = models.ProofStatusAccepted
		expires := now.AddDate(0, 0, utils.AdminVerificationDays)
		if err := storage.DB.Model(&models.User{}).
			Where("id = ?", proof.UserID).
			Updates(map[string]interface{}{
				"admin_verified":            true,
				"admin_verified_at":         now,
				"admin_verified_expires_at": expires,
			}).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		if proof.Student != nil {
			services.SendStudentVerifiedEmail(proof.Student.Email, proof.Student.FullName)
		}
	} else {
		proof.Status = models.ProofStatusRejected
		if proof.Student != nil {
			services.SendPaymentProofRejectedEmail(proof.Student.Email, proof.Student.FullName, input.Comment)
		}
	}

	if err := storage.DB.Save(&proof).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "review_payment_proof", &proof.UserID,
		fmt.Sprintf("Proof %d %sed by admin %d", proof.ID, input.Action, admin.ID))

	ctx.JSON(iris.Map{
		"success": true,
		"message": fmt.Sprintf("Proof %sed", input.Action),
		"proof":   &proof,
	})
}

// DeletePaymentProof removes the record and its stored file.
func DeletePaymentProof(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var proof models.PaymentProof
	found := storage.DB.Limit(1).Find(&proof, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Payment proof not found.", ctx)
		return
	}

	storage.RemoveStoredFile(storage.PaymentProofDir, proof.Filename)
	if err := storage.DB.Delete(&proof).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Payment proof deleted successfully"})
}

// ToggleStudentVerification flips a student's admin-verified flag. Turning it
// on starts a fresh verification window.
func ToggleStudentVerification(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var student models.Student
	found := storage.DB.Preload("User").Limit(1).Find(&student, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 || student.User == nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Student not found.", ctx)
		return
	}

	user := student.User
	verified := !user.AdminVerified
	updates := map[string]interface{}{}
	if verified {
		now := time.Now().UTC()
		expires := now.AddDate(0, 0, utils.AdminVerificationDays)
		updates["admin_verified"] = true
		updates["admin_verified_at"] = now
		updates["admin_verified_expires_at"] = expires
	} else {
		updates["admin_verified"] = false
		updates["admin_verified_at"] = nil
		updates["admin_verified_expires_at"] = nil
	}

	if err := storage.DB.Model(user).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	state := "unverified"
	if verified {
		state = "verified"
	}
	utils.Audit(ctx, "toggle_student_verification", &user.ID,
		fmt.Sprintf("Student %d marked as %s", user.ID, state))

	ctx.JSON(iris.Map{
		"success":       true,
		"message":       "Student marked as " + state,
		"adminVerified": verified,
	})
}

// AdminUploadHouseImages stores images for any house, capped per request.
func AdminUploadHouseImages(ctx iris.Context) {
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var house models.House
	found := storage.DB.Limit(1).Find(&house, houseID)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
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
	if len(files) > utils.MaxHouseImages() {
		utils.JSONError(ctx, iris.StatusBadRequest,
			fmt.Sprintf("You may upload a maximum of %d images per house", utils.MaxHouseImages()))
		return
	}

	prefix := fmt.Sprintf("admin_%d_", time.Now().UTC().Unix())
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

	combined := append(house.ImageList(), saved...)
	house.SetImageList(combined)
	if err := storage.DB.Model(&house).Update("image_filenames", house.ImageFilenames).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "filenames": saved})
}

// applyAreaCoordinates validates and applies coordinate and distance fields,
// recomputing the Main-campus distance when no manual one is set. Writes an
// error response and returns false on invalid input.
func applyAreaCoordinates(area *models.ResidentialArea, input ResidentialAreaInput, ctx iris.Context) bool {
	if input.Latitude != nil {
		if *input.Latitude < -90 || *input.Latitude > 90 {
			utils.JSONError(ctx, iris.StatusBadRequest, "Latitude must be between -90 and 90")
			return false
		}
		area.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		if *input.Longitude < -180 || *input.Longitude > 180 {
			utils.JSONError(ctx, iris.StatusBadRequest, "Longitude must be between -180 and 180")
			return false
		}
		area.Longitude = input.Longitude
	}
	if input.ClearCoordinates {
		area.Latitude = nil
		area.Longitude = nil
	}

	if input.ApproximateDistanceKm != nil {
		if *input.ApproximateDistanceKm < 0 {
			utils.JSONError(ctx, iris.StatusBadRequest, "Distance must be non-negative")
			return false
		}
		rounded := float64(int(*input.ApproximateDistanceKm*10+0.5)) / 10
		area.ApproximateDistanceKm = &rounded
	}
	if input.ClearDistance {
		area.ApproximateDistanceKm = nil
	}

	if area.ApproximateDistanceKm == nil && area.Latitude != nil && area.Longitude != nil {
		d := models.HaversineKm(*area.Latitude, *area.Longitude, models.MainCampusLat, models.MainCampusLon)
		if d >= 0 {
			area.ApproximateDistanceKm = &d
		}
	}
	return true
}

type ResidentialAreaInput struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Latitude              *float64 `json:"latitude"`
	Longitude             *float64 `json:"longitude"`
	ApproximateDistanceKm *float64 `json:"approximateDistanceKm"`
	ClearCoordinates      bool     `json:"clearCoordinates"`
	ClearDistance         bool     `json:"clearDistance"`
}

type ReviewProofInput struct {
	Action  string `json:"action" validate:"required"`
	Comment string `json:"comment"`
}

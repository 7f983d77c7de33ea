package routes

import (
	"fmt"
	"os"
	"time"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/services"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

// AdminListUsers lists accounts enriched with the role-specific profile.
func AdminListUsers(ctx iris.Context) {
	query := storage.DB.Model(&models.User{})
	if userType := ctx.URLParam("userType"); userType != "" {
		query = query.Where("user_type = ?", userType)
	}
	switch ctx.URLParam("isActive") {
	case "true":
		query = query.Where("is_active = ?", true)
	case "false":
		query = query.Where("is_active = ?", false)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	entries := make([]iris.Map, 0, len(users))
	for i := range users {
		entries = append(entries, adminUserPayload(&users[i]))
	}

	ctx.JSON(iris.Map{"success": true, "count": len(entries), "users": entries})
}

// AdminGetUser returns one account with its profile.
func AdminGetUser(ctx iris.Context) {
	user := adminLookupUser(ctx)
	if user == nil {
		return
	}
	payload := adminUserPayload(user)
	payload["success"] = true
	ctx.JSON(payload)
}

// AdminUpdateUser edits account fields and the nested role profile.
func AdminUpdateUser(ctx iris.Context) {
	user := adminLookupUser(ctx)
	if user == nil {
		return
	}

	var input AdminUpdateUserInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Email != nil && *input.Email != user.Email {
		var existing models.User
		dup := storage.DB.Where("email = ? AND id <> ?", *input.Email, user.ID).Limit(1).Find(&existing)
		if dup.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		if dup.RowsAffected > 0 {
			utils.JSONError(ctx, iris.StatusConflict, "Email already in use")
			return
		}
		user.Email = *input.Email
	}
	if input.PhoneNumber != nil {
		if !utils.ValidatePhoneNumber(*input.PhoneNumber) {
			utils.JSONError(ctx, iris.StatusBadRequest,
				"Invalid phone number. It must be 10 digits starting with 071, 077, or 078.")
			return
		}
		if *input.PhoneNumber != user.PhoneNumber {
			var existing models.User
			dup := storage.DB.Where("phone_number = ? AND id <> ?", *input.PhoneNumber, user.ID).
				Limit(1).Find(&existing)
			if dup.Error != nil {
				utils.CreateInternalServerError(ctx)
				return
			}
			if dup.RowsAffected > 0 {
				utils.JSONError(ctx, iris.StatusConflict, "Phone number already in use")
				return
			}
			user.PhoneNumber = *input.PhoneNumber
		}
	}

	if err := storage.DB.Save(user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if input.StudentProfile != nil && user.UserType == models.UserTypeStudent {
		var student models.Student
		found := storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&student)
		if found.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		if found.RowsAffected == 0 {
			student = models.Student{UserID: user.ID}
		}
		if input.StudentProfile.StudentID != nil {
			student.StudentID = *input.StudentProfile.StudentID
		}
		if input.StudentProfile.Institution != nil {
			student.Institution = *input.StudentProfile.Institution
		}
		if err := storage.DB.Save(&student).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	if input.OwnerProfile != nil && user.UserType == models.UserTypeHouseOwner {
		var profile models.HouseOwner
		found := storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&profile)
		if found.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		if found.RowsAffected == 0 {
			profile = models.HouseOwner{UserID: user.ID, PaymentStatus: models.OwnerPaymentPending}
		}
		if input.OwnerProfile.EcocashNumber != nil {
			profile.EcocashNumber = *input.OwnerProfile.EcocashNumber
		}
		if input.OwnerProfile.BankAccount != nil {
			profile.BankAccount = *input.OwnerProfile.BankAccount
		}
		if input.OwnerProfile.PaymentStatus != nil {
			profile.PaymentStatus = *input.OwnerProfile.PaymentStatus
		}
		if err := storage.DB.Save(&profile).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	utils.Audit(ctx, "update_user", &user.ID, fmt.Sprintf("User %d updated", user.ID))

	ctx.JSON(iris.Map{"success": true, "message": "User updated", "user": user})
}

// AdminActivateUser re-enables a deactivated account.
func AdminActivateUser(ctx iris.Context) {
	user := adminLookupUser(ctx)
	if user == nil {
		return
	}

	if err := storage.DB.Model(user).Update("is_active", true).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "activate_user", &user.ID, fmt.Sprintf("User %d activated", user.ID))
	ctx.JSON(iris.Map{"success": true, "message": "User activated"})
}

// AdminDeactivateUser disables an account. Owner houses go inactive with
// them. Admin accounts cannot be deactivated here.
func AdminDeactivateUser(ctx iris.Context) {
	user := adminLookupUser(ctx)
	if user == nil {
		return
	}
	if user.UserType == models.UserTypeAdmin {
		utils.JSONError(ctx, iris.StatusBadRequest, "Cannot deactivate admin users")
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("is_active", false).Error; err != nil {
			return err
		}
		if user.UserType == models.UserTypeHouseOwner {
			if err := tx.Model(&models.House{}).
				Where("owner_id = ?", user.ID).Update("is_active", false).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "deactivate_user", &user.ID, fmt.Sprintf("User %d deactivated", user.ID))
	ctx.JSON(iris.Map{"success": true, "message": "User deactivated"})
}

// AdminDeleteUser removes an account and its dependents. Houses owned by a
// deleted owner revert to unclaimed with their seed details cleared.
func AdminDeleteUser(ctx iris.Context) {
	user := adminLookupUser(ctx)
	if user == nil {
		return
	}
	if user.UserType == models.UserTypeAdmin {
		utils.JSONError(ctx, iris.StatusBadRequest, "Cannot delete admin users")
		return
	}

	userID := user.ID
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		switch user.UserType {
		case models.UserTypeHouseOwner:
			if err := tx.Model(&models.House{}).Where("owner_id = ?", userID).
				Updates(map[string]interface{}{
					"owner_id":    nil,
					"is_claimed":  false,
					"owner_name":  "",
					"owner_email": "",
					"owner_phone": "",
				}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", userID).Delete(&models.HouseOwner{}).Error; err != nil {
				return err
			}
		case models.UserTypeStudent:
			if err := tx.Where("student_id = ?", userID).Delete(&models.Booking{}).Error; err != nil {
				return err
			}
			if err := tx.Where("student_id = ?", userID).Delete(&models.BookingInquiry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", userID).Delete(&models.Student{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PaymentProof{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "delete_user", &userID, fmt.Sprintf("User %d deleted", userID))
	ctx.JSON(iris.Map{"success": true, "message": "User deleted"})
}

// AdminSetUserPassword replaces a user's password.
func AdminSetUserPassword(ctx iris.Context) {
	user := adminLookupUser(ctx)
	if user == nil {
		return
	}

	var input AdminSetPasswordInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if len(input.NewPassword) < 8 {
		utils.JSONError(ctx, iris.StatusBadRequest,
			"New password is required and must be at least 8 characters")
		return
	}

	hashed, err := hashAndSaltPassword(input.NewPassword)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if err := storage.DB.Model(user).Update("password", hashed).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "set_user_password", &user.ID, fmt.Sprintf("Password reset for user %d", user.ID))
	ctx.JSON(iris.Map{"success": true, "message": "Password updated"})
}

// AdminGetUserHouses lists houses owned by one user.
func AdminGetUserHouses(ctx iris.Context) {
	user := adminLookupUser(ctx)
	if user == nil {
		return
	}

	var houses []models.House
	if err := storage.DB.Preload("Rooms").Preload("ResidentialArea").
		Where("owner_id = ?", user.ID).Find(&houses).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "count": len(houses), "houses": houses})
}

// RegisterAdmin is the public bootstrap endpoint guarded by a shared secret.
// It stays disabled unless ADMIN_REGISTRATION_SECRET is set.
func RegisterAdmin(ctx iris.Context) {
	var input RegisterAdminInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	serverSecret := os.Getenv("ADMIN_REGISTRATION_SECRET")
	if serverSecret == "" {
		utils.CreateForbidden("Admin self-registration is disabled on this server.", ctx)
		return
	}
	if input.RegistrationSecret != serverSecret {
		utils.CreateForbidden("Invalid registration secret.", ctx)
		return
	}

	phone := utils.NormalizePhoneNumber(input.PhoneNumber)
	if phone == "" {
		utils.JSONError(ctx, iris.StatusBadRequest,
			"Invalid phone number. It must be 10 digits starting with 071, 077, or 078.")
		return
	}

	user, admin := buildAdminUser(input.Email, input.Password, input.FullName, phone, nil, ctx)
	if !admin {
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "message": "Admin account created", "user": user})
}

// CreateAdmin lets an existing admin provision another admin account.
func CreateAdmin(ctx iris.Context) {
	actor := utils.CurrentUser(ctx)
	if actor == nil {
		return
	}

	var input CreateAdminInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	phone := utils.NormalizePhoneNumber(input.PhoneNumber)
	if phone == "" {
		utils.JSONError(ctx, iris.StatusBadRequest,
			"Invalid phone number. It must be 10 digits starting with 071, 077, or 078.")
		return
	}

	user, created := buildAdminUser(input.Email, input.Password, input.FullName, phone, &actor.ID, ctx)
	if !created {
		return
	}

	utils.Audit(ctx, "create_admin", &user.ID,
		fmt.Sprintf("Admin %d created admin %d", actor.ID, user.ID))

	actorName := actor.FullName
	if actorName == "" {
		actorName = "System"
	}
	services.SendAdminCreatedEmail(user.Email, user.FullName, actorName)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "message": "Admin created successfully", "user": user})
}

// GetMyCreatedAdmins lists active admins provisioned by the caller.
func GetMyCreatedAdmins(ctx iris.Context) {
	actor := utils.CurrentUser(ctx)
	if actor == nil {
		return
	}

	var admins []models.User
	if err := storage.DB.
		Where("user_type = ? AND created_by_admin_id = ? AND is_active = ?",
			models.UserTypeAdmin, actor.ID, true).
		Find(&admins).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	entries := make([]iris.Map, 0, len(admins))
	for i := range admins {
		a := &admins[i]
		entries = append(entries, iris.Map{
			"id":            a.ID,
			"email":         a.Email,
			"fullName":      a.FullName,
			"phoneNumber":   a.PhoneNumber,
			"createdAt":     a.CreatedAt,
			"emailVerified": a.EmailVerified,
		})
	}

	ctx.JSON(iris.Map{"success": true, "count": len(entries), "admins": entries})
}

// DeleteAdmin soft-deletes an admin the caller created. Admins with their own
// active created admins must have those removed first.
func DeleteAdmin(ctx iris.Context) {
	actor := utils.CurrentUser(ctx)
	if actor == nil {
		return
	}

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var target models.User
	found := storage.DB.Limit(1).Find(&target, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "User not found.", ctx)
		return
	}
	if target.UserType != models.UserTypeAdmin {
		utils.JSONError(ctx, iris.StatusBadRequest, "User is not an admin")
		return
	}
	if target.CreatedByAdminID == nil || *target.CreatedByAdminID != actor.ID {
		utils.CreateForbidden("You can only delete admins that you created.", ctx)
		return
	}
	if target.ID == actor.ID {
		utils.JSONError(ctx, iris.StatusBadRequest, "You cannot delete yourself")
		return
	}

	var createdCount int64
	storage.DB.Model(&models.User{}).
		Where("user_type = ? AND created_by_admin_id = ? AND is_active = ?",
			models.UserTypeAdmin, target.ID, true).
		Count(&createdCount)
	if createdCount > 0 {
		utils.JSONError(ctx, iris.StatusBadRequest,
			"Cannot delete admin who has created other admins. Please delete their created admins first.")
		return
	}

	if err := storage.DB.Model(&target).Update("is_active", false).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "delete_admin", &target.ID,
		fmt.Sprintf("Admin %d deleted admin %d", actor.ID, target.ID))

	ctx.JSON(iris.Map{"success": true, "message": "Admin deleted"})
}

func adminLookupUser(ctx iris.Context) *models.User {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return nil
	}

	var user models.User
	found := storage.DB.Limit(1).Find(&user, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "User not found.", ctx)
		return nil
	}
	return &user
}

func adminUserPayload(user *models.User) iris.Map {
	payload := iris.Map{"user": user}
	switch user.UserType {
	case models.UserTypeStudent:
		var student models.Student
		if storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&student).RowsAffected > 0 {
			payload["studentInfo"] = &student
		}
		var bookings int64
		storage.DB.Model(&models.Booking{}).Where("student_id = ?", user.ID).Count(&bookings)
		payload["bookingsCount"] = bookings
	case models.UserTypeHouseOwner:
		var profile models.HouseOwner
		if storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&profile).RowsAffected > 0 {
			payload["ownerInfo"] = &profile
		}
		var house models.House
		if storage.DB.Preload("Rooms").Where("owner_id = ?", user.ID).
			Limit(1).Find(&house).RowsAffected > 0 {
			payload["house"] = &house
		}
	}
	return payload
}

// buildAdminUser validates uniqueness, hashes the password and inserts the
// admin row. It writes its own error responses and reports success.
func buildAdminUser(email, password, fullName, phone string, createdBy *uint, ctx iris.Context) (*models.User, bool) {
	var existing models.User
	emailExists, err := getAndHandleUserExists(&existing, email)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return nil, false
	}
	if emailExists {
		utils.CreateEmailAlreadyRegistered(ctx)
		return nil, false
	}
	phoneExists, err := getAndHandleUserExistsByPhone(&existing, phone)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return nil, false
	}
	if phoneExists {
		utils.JSONError(ctx, iris.StatusConflict, "Phone number already in use")
		return nil, false
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return nil, false
	}

	now := time.Now().UTC()
	user := models.User{
		Email:            email,
		Password:         string(hashed),
		FullName:         fullName,
		PhoneNumber:      phone,
		UserType:         models.UserTypeAdmin,
		CreatedByAdminID: createdBy,
		IsActive:         true,
		EmailVerified:    true,
		EmailVerifiedAt:  &now,
	}
	if err := storage.DB.Create(&user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return nil, false
	}
	return &user, true
}

type AdminUpdateUserInput struct {
	FullName       *string                    `json:"fullName"`
	Email          *string                    `json:"email"`
	PhoneNumber    *string                    `json:"phoneNumber"`
	StudentProfile *UpdateStudentProfileInput `json:"studentProfile"`
	OwnerProfile   *AdminOwnerProfileInput    `json:"ownerProfile"`
}

type AdminOwnerProfileInput struct {
	EcocashNumber *string `json:"ecocashNumber"`
	BankAccount   *string `json:"bankAccount"`
	PaymentStatus *string `json:"paymentStatus"`
}

type AdminSetPasswordInput struct {
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type RegisterAdminInput struct {
	Email              string `json:"email" validate:"required,email"`
	Password           string `json:"password" validate:"required,min=8"`
	FullName           string `json:"fullName" validate:"required"`
	PhoneNumber        string `json:"phoneNumber" validate:"required"`
	RegistrationSecret string `json:"registrationSecret" validate:"required"`
}

type CreateAdminInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"fullName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

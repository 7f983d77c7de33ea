package routes

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/services"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

func Register(ctx iris.Context) {
	var input RegisterInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	normalizedPhone := utils.NormalizePhoneNumber(input.PhoneNumber)
	if normalizedPhone == "" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error",
			"Invalid phone number. It must be 10 digits starting with 071, 077, or 078 (accepts +263/263/00263 formats).", ctx)
		return
	}

	var existing models.User
	phoneExists, phoneErr := getAndHandleUserExistsByPhone(&existing, normalizedPhone)
	if phoneErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if phoneExists {
		utils.CreateError(iris.StatusConflict, "Registration Error", "Phone number already registered.", ctx)
		return
	}

	emailExists, emailErr := getAndHandleUserExists(&existing, input.Email)
	if emailErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if emailExists {
		utils.CreateEmailAlreadyRegistered(ctx)
		return
	}

	// House owners register by claiming the house the admin seeded for them.
	var houseToClaim *models.House
	if input.UserType == models.UserTypeHouseOwner {
		house, errStatus, errMsg := resolveHouseForClaim(input)
		if errStatus != 0 {
			utils.CreateError(errStatus, "Registration Error", errMsg, ctx)
			return
		}
		houseToClaim = house
	}

	hashedPassword, hashErr := hashAndSaltPassword(input.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser := models.User{
		Email:       strings.ToLower(input.Email),
		Password:    hashedPassword,
		FullName:    input.FullName,
		PhoneNumber: normalizedPhone,
		UserType:    input.UserType,
	}

	verificationToken := ""
	if input.UserType == models.UserTypeStudent {
		verificationToken = utils.GenerateShortToken(16)
		newUser.EmailVerificationToken = verificationToken
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}

		switch input.UserType {
		case models.UserTypeStudent:
			if input.StudentID != "" {
				var count int64
				tx.Model(&models.Student{}).Where("student_id = ?", input.StudentID).Count(&count)
				if count > 0 {
					return errStudentIDTaken
				}
			}
			student := models.Student{
				UserID:      newUser.ID,
				StudentID:   input.StudentID,
				Institution: input.Institution,
			}
			if err := tx.Create(&student).Error; err != nil {
				return err
			}

		case models.UserTypeHouseOwner:
			houseToClaim.OwnerID = &newUser.ID
			houseToClaim.IsClaimed = true
			if err := tx.Save(houseToClaim).Error; err != nil {
				return err
			}
			nextDue := time.Now().UTC().AddDate(0, 0, 30)
			profile := models.HouseOwner{
				UserID:         newUser.ID,
				PaymentStatus:  models.OwnerPaymentPending,
				NextPaymentDue: &nextDue,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if txErr == errStudentIDTaken {
		utils.CreateError(iris.StatusConflict, "Registration Error", "Student ID already registered.", ctx)
		return
	}
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if verificationToken != "" {
		services.SendEmailVerification(newUser.Email, newUser.FullName, verificationToken)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"success": true,
		"message": "Registration successful! Please check your email for a verification link.",
		"user":    newUser,
	})
}

func Login(ctx iris.Context) {
	var input LoginInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	// The email field also accepts a local phone number.
	identifier := strings.TrimSpace(input.Email)
	var user models.User
	var exists bool
	var lookupErr error
	if phone := utils.NormalizePhoneNumber(identifier); phone != "" {
		exists, lookupErr = getAndHandleUserExistsByPhone(&user, phone)
	} else {
		exists, lookupErr = getAndHandleUserExists(&user, identifier)
	}
	if lookupErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	errorMsg := "Invalid email or password."
	if !exists {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	if !user.IsActive {
		utils.CreateForbidden("Your account has been deactivated. Please contact admin.", ctx)
		return
	}

	if user.UserType == models.UserTypeStudent && !user.EmailVerified {
		utils.CreateForbidden("Please verify your email address before logging in. Check your inbox for the verification link.", ctx)
		return
	}

	// A returning owner without a house may claim an unclaimed one at login.
	if user.UserType == models.UserTypeHouseOwner && input.HouseID != 0 {
		var owned int64
		storage.DB.Model(&models.House{}).Where("owner_id = ?", user.ID).Count(&owned)
		if owned == 0 {
			if status, msg := claimHouseOnLogin(&user, input.HouseID); status != 0 {
				utils.CreateError(status, "Login Error", msg, ctx)
				return
			}
		}
	}

	tokenPair, tokenErr := utils.CreateTokenPair(user.ID)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	payload := loginUserPayload(&user)
	ctx.JSON(iris.Map{
		"success":      true,
		"message":      "Login successful",
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
		"user":         payload,
	})
}

func claimHouseOnLogin(user *models.User, houseID uint) (errStatus int, errMsg string) {
	var house models.House
	if err := storage.DB.First(&house, houseID).Error; err != nil {
		return iris.StatusBadRequest, "House not found or already claimed. Please contact admin."
	}
	if house.OwnerID != nil {
		return iris.StatusBadRequest, "House not found or already claimed. Please contact admin."
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		house.OwnerID = &user.ID
		house.IsClaimed = true
		if err := tx.Save(&house).Error; err != nil {
			return err
		}
		var profile models.HouseOwner
		found := tx.Where("user_id = ?", user.ID).Limit(1).Find(&profile)
		if found.Error != nil {
			return found.Error
		}
		if found.RowsAffected == 0 {
			nextDue := time.Now().UTC().AddDate(0, 0, 30)
			profile = models.HouseOwner{
				UserID:         user.ID,
				PaymentStatus:  models.OwnerPaymentPending,
				NextPaymentDue: &nextDue,
			}
			return tx.Create(&profile).Error
		}
		return nil
	})
	if txErr != nil {
		return iris.StatusInternalServerError, "Failed to claim house."
	}
	return 0, ""
}

func loginUserPayload(user *models.User) iris.Map {
	payload := iris.Map{"user": user}

	switch user.UserType {
	case models.UserTypeStudent:
		var student models.Student
		if storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&student).RowsAffected > 0 {
			payload["studentInfo"] = student
		}
	case models.UserTypeHouseOwner:
		var profile models.HouseOwner
		if storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&profile).RowsAffected > 0 {
			payload["ownerInfo"] = profile
		}
		var houses []models.House
		storage.DB.Preload("Rooms").Preload("ResidentialArea").
			Where("owner_id = ?", user.ID).Find(&houses)
		payload["houses"] = houses
	}
	return payload
}

func Logout(ctx iris.Context) {
	ctx.JSON(iris.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

func VerifyEmail(ctx iris.Context) {
	var input VerifyEmailInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	found := storage.DB.Where("email_verification_token = ?", input.Token).Limit(1).Find(&user)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Invalid or expired token.", ctx)
		return
	}

	now := time.Now().UTC()
	updateErr := storage.DB.Model(&user).Updates(map[string]interface{}{
		"email_verified":           true,
		"email_verified_at":        now,
		"email_verification_token": "",
	}).Error
	if updateErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Email verified successfully",
	})
}

func GetProfile(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	// Lazily drop verification that ran past its 30-day window.
	utils.ExpireStaleVerification(user)

	payload := iris.Map{"user": user}

	switch user.UserType {
	case models.UserTypeStudent:
		var student models.Student
		if storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&student).RowsAffected > 0 {
			payload["studentInfo"] = student
		}
		var bookingsCount int64
		storage.DB.Model(&models.Booking{}).Where("student_id = ?", user.ID).Count(&bookingsCount)
		payload["bookingsCount"] = bookingsCount
	case models.UserTypeHouseOwner:
		var profile models.HouseOwner
		if storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&profile).RowsAffected > 0 {
			payload["ownerInfo"] = profile
		}
		var house models.House
		if storage.DB.Preload("Rooms").Where("owner_id = ?", user.ID).Limit(1).Find(&house).RowsAffected > 0 {
			payload["house"] = house
		}
	}

	payload["success"] = true
	ctx.JSON(payload)
}

func UpdateProfile(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var input UpdateProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.FullName != nil && *input.FullName != "" {
		user.FullName = *input.FullName
	}

	if input.Email != nil && *input.Email != "" {
		email := strings.ToLower(*input.Email)
		var count int64
		storage.DB.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count)
		if count > 0 {
			utils.CreateError(iris.StatusConflict, "Conflict", "Email already in use.", ctx)
			return
		}
		user.Email = email
	}

	if input.PhoneNumber != nil {
		normalized := utils.NormalizePhoneNumber(*input.PhoneNumber)
		if normalized == "" {
			utils.CreateError(iris.StatusBadRequest, "Validation Error",
				"Invalid phone number. It must be 10 digits starting with 071, 077, or 078 (accepts +263/263/00263).", ctx)
			return
		}
		var count int64
		storage.DB.Model(&models.User{}).Where("phone_number = ? AND id <> ?", normalized, user.ID).Count(&count)
		if count > 0 {
			utils.CreateError(iris.StatusConflict, "Conflict", "Phone number already in use.", ctx)
			return
		}
		user.PhoneNumber = normalized
	}

	if err := storage.DB.Save(user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	payload := iris.Map{"success": true, "user": user}

	if user.UserType == models.UserTypeStudent && input.StudentProfile != nil {
		var student models.Student
		found := storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&student)
		if found.RowsAffected == 0 {
			student = models.Student{UserID: user.ID}
		}

		if input.StudentProfile.StudentID != nil && *input.StudentProfile.StudentID != "" {
			var count int64
			storage.DB.Model(&models.Student{}).
				Where("student_id = ? AND user_id <> ?", *input.StudentProfile.StudentID, user.ID).
				Count(&count)
			if count > 0 {
				utils.CreateError(iris.StatusConflict, "Conflict", "Student ID already in use.", ctx)
				return
			}
			student.StudentID = *input.StudentProfile.StudentID
		}
		if input.StudentProfile.Institution != nil {
			student.Institution = *input.StudentProfile.Institution
		}

		if err := storage.DB.Save(&student).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		payload["studentInfo"] = student
	}

	if user.UserType == models.UserTypeHouseOwner && input.OwnerProfile != nil {
		var profile models.HouseOwner
		found := storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&profile)
		if found.RowsAffected == 0 {
			profile = models.HouseOwner{UserID: user.ID, PaymentStatus: models.OwnerPaymentPending}
		}

		if input.OwnerProfile.EcocashNumber != nil {
			profile.EcocashNumber = *input.OwnerProfile.EcocashNumber
		}
		if input.OwnerProfile.BankAccount != nil {
			profile.BankAccount = *input.OwnerProfile.BankAccount
		}
		if input.OwnerProfile.OtherPaymentInfo != nil {
			profile.OtherPaymentInfo = *input.OwnerProfile.OtherPaymentInfo
		}

		if err := storage.DB.Save(&profile).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		payload["ownerInfo"] = profile
	}

	ctx.JSON(payload)
}

func ChangePassword(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var input ChangePasswordInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Current password is incorrect.", ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(input.NewPassword)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.Model(user).Update("password", hashedPassword).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Password changed successfully",
	})
}

// ListStudents returns every student joined with its account fields.
func ListStudents(ctx iris.Context) {
	var students []models.Student
	if err := storage.DB.Preload("User").Find(&students).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	data := make([]iris.Map, 0, len(students))
	for _, s := range students {
		entry := iris.Map{
			"studentRecordID":         s.ID,
			"studentID":               s.StudentID,
			"institution":             s.Institution,
			"consecutiveBookingCount": s.ConsecutiveBookingCount,
		}
		if s.User != nil {
			entry["userID"] = s.User.ID
			entry["fullName"] = s.User.FullName
			entry["email"] = s.User.Email
			entry["phoneNumber"] = s.User.PhoneNumber
			entry["isActive"] = s.User.IsActive
			entry["emailVerified"] = s.User.EmailVerified
			entry["adminVerified"] = s.User.AdminVerified
			entry["createdAt"] = s.User.CreatedAt
		}
		data = append(data, entry)
	}

	ctx.JSON(iris.Map{"success": true, "students": data})
}

// DeleteStudent deactivates by default; ?force=true removes the student, the
// account and every booking record tied to it.
func DeleteStudent(ctx iris.Context) {
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
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Student not found.", ctx)
		return
	}

	if student.User == nil {
		storage.DB.Delete(&student)
		ctx.JSON(iris.Map{"success": true, "message": "Student record deleted."})
		return
	}

	force := ctx.URLParamDefault("force", "false") == "true"
	if !force {
		storage.DB.Model(student.User).Update("is_active", false)
		ctx.JSON(iris.Map{"success": true, "message": "Student account deactivated (soft-delete)."})
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", student.UserID).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", student.UserID).Delete(&models.BookingInquiry{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&student).Error; err != nil {
			return err
		}
		return tx.Delete(student.User).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Student and related records deleted."})
}

// resolveHouseForClaim validates the house details an owner supplies at
// registration against the admin-seeded record.
func resolveHouseForClaim(input RegisterInput) (*models.House, int, string) {
	houseNumber := strings.TrimSpace(input.HouseNumber)
	streetAddress := strings.TrimSpace(input.StreetAddress)
	areaInput := strings.TrimSpace(input.ResidentialArea)

	if houseNumber == "" || streetAddress == "" || areaInput == "" {
		return nil, iris.StatusBadRequest,
			"House owners must provide houseNumber, streetAddress and residentialArea to claim."
	}

	var area models.ResidentialArea
	if areaID, convErr := strconv.ParseUint(areaInput, 10, 32); convErr == nil {
		if err := storage.DB.First(&area, uint(areaID)).Error; err != nil {
			return nil, iris.StatusNotFound, "Residential area not found."
		}
	} else {
		found := storage.DB.Where("lower(name) = lower(?)", areaInput).Limit(1).Find(&area)
		if found.Error != nil || found.RowsAffected == 0 {
			return nil, iris.StatusNotFound, "Residential area not found."
		}
	}

	var house models.House
	found := storage.DB.
		Where("lower(house_number) = lower(?) AND lower(street_address) = lower(?) AND residential_area_id = ?",
			houseNumber, streetAddress, area.ID).
		Limit(1).Find(&house)
	if found.Error != nil {
		return nil, iris.StatusInternalServerError, "Failed to look up house."
	}
	if found.RowsAffected == 0 {
		return nil, iris.StatusNotFound, "No matching house found. Please verify the house details with the admin."
	}

	if house.OwnerID != nil || house.IsClaimed {
		return nil, iris.StatusConflict, "This house has already been claimed by another owner."
	}

	// Admin-seeded contact details are optional, but when present they must
	// match the registering owner.
	if house.OwnerName != "" && !strings.EqualFold(strings.TrimSpace(house.OwnerName), strings.TrimSpace(input.FullName)) {
		return nil, iris.StatusBadRequest, "Owner name does not match admin record for this house."
	}
	if house.OwnerEmail != "" && !strings.EqualFold(strings.TrimSpace(house.OwnerEmail), strings.TrimSpace(input.Email)) {
		return nil, iris.StatusBadRequest, "Owner email does not match admin record for this house."
	}
	if utils.PhoneDigits(house.OwnerPhone) != "" && !utils.PhoneSuffixMatch(house.OwnerPhone, input.PhoneNumber) {
		return nil, iris.StatusBadRequest, "Owner phone does not match admin record for this house."
	}

	return &house, 0, ""
}

var errStudentIDTaken = errors.New("student id already registered")

func getAndHandleUserExists(user *models.User, email string) (exists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(user)
	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}
	return userExistsQuery.RowsAffected > 0, nil
}

func getAndHandleUserExistsByPhone(user *models.User, phoneNumber string) (exists bool, err error) {
	formattedPhone := utils.NormalizePhoneNumber(phoneNumber)
	userExistsQuery := storage.DB.Where("phone_number = ?", formattedPhone).Limit(1).Find(user)
	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}
	return userExistsQuery.RowsAffected > 0, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

type RegisterInput struct {
	Email       string `json:"email" validate:"required,max=256,email"`
	Password    string `json:"password" validate:"required,min=8,max=256"`
	FullName    string `json:"fullName" validate:"required,max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	UserType    string `json:"userType" validate:"required,oneof=student house_owner"`

	// Students
	StudentID   string `json:"studentID"`
	Institution string `json:"institution"`

	// House owners claiming an admin-seeded house
	HouseNumber     string `json:"houseNumber"`
	StreetAddress   string `json:"streetAddress"`
	ResidentialArea string `json:"residentialArea"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	HouseID  uint   `json:"houseID"`
}

type VerifyEmailInput struct {
	Token string `json:"token" validate:"required"`
}

type UpdateProfileInput struct {
	FullName       *string                    `json:"fullName"`
	Email          *string                    `json:"email"`
	PhoneNumber    *string                    `json:"phoneNumber"`
	StudentProfile *UpdateStudentProfileInput `json:"studentProfile"`
	OwnerProfile   *UpdateOwnerProfileInput   `json:"ownerProfile"`
}

type UpdateStudentProfileInput struct {
	StudentID   *string `json:"studentID"`
	Institution *string `json:"institution"`
}

type UpdateOwnerProfileInput struct {
	EcocashNumber    *string `json:"ecocashNumber"`
	BankAccount      *string `json:"bankAccount"`
	OtherPaymentInfo *string `json:"otherPaymentInfo"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=256"`
}

package routes

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/services"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

// ProcessRoomRental records a completed rental payment from a student to a
// house owner. Money moves outside the platform; this is the ledger entry.
func ProcessRoomRental(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}
	if user.UserType != models.UserTypeStudent {
		utils.CreateForbidden("Only students can make room rental payments.", ctx)
		return
	}

	var input RoomRentalInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var house models.House
	houseFound := storage.DB.Limit(1).Find(&house, input.HouseID)
	if houseFound.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if houseFound.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}

	var room models.Room
	roomFound := storage.DB.Limit(1).Find(&room, input.RoomID)
	if roomFound.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if roomFound.RowsAffected == 0 || room.HouseID != house.ID {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found.", ctx)
		return
	}

	if house.OwnerID == nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "House has no owner")
		return
	}

	months := input.Months
	if months <= 0 {
		months = 1
	}

	now := time.Now().UTC()
	periodEnd := now.AddDate(0, 0, 30*months)
	payment := models.Payment{
		PaymentType:          models.PaymentTypeRoomRental,
		PayerID:              user.ID,
		RecipientID:          house.OwnerID,
		Amount:               input.Amount,
		PaymentMethod:        input.PaymentMethod,
		TransactionID:        uuid.New().String(),
		TransactionReference: input.TransactionReference,
		HouseID:              &house.ID,
		RoomID:               &room.ID,
		PaymentDate:          now,
		RentalPeriodStart:    &now,
		RentalPeriodEnd:      &periodEnd,
		Notes:                input.Notes,
	}
	payment.MarkCompleted()

	if err := storage.DB.Create(&payment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if input.BookingID != 0 {
		var booking models.Booking
		bookingFound := storage.DB.
			Where("id = ? AND student_id = ?", input.BookingID, user.ID).
			Limit(1).Find(&booking)
		if bookingFound.Error == nil && bookingFound.RowsAffected > 0 {
			booking.PaymentID = &payment.ID
			booking.IsPaid = true
			booking.BookingType = models.BookingTypeConfirmed
			storage.DB.Save(&booking)
		}
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"success": true,
		"message": "Payment processed successfully",
		"payment": &payment,
	})
}

// ProcessSubscription records an owner's monthly platform fee and updates
// both the subscription ledger and the owner profile.
func ProcessSubscription(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}
	if user.UserType != models.UserTypeHouseOwner {
		utils.CreateForbidden("Only house owners can make subscription payments.", ctx)
		return
	}

	var input SubscriptionPaymentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var house models.House
	houseFound := storage.DB.Where("owner_id = ?", user.ID).Limit(1).Find(&house)
	if houseFound.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if houseFound.RowsAffected == 0 {
		utils.JSONError(ctx, iris.StatusBadRequest, "You must have a house registered to pay subscription")
		return
	}

	now := time.Now().UTC()
	month := input.SubscriptionMonth
	if month == "" {
		month = now.Format("2006-01")
	}

	var admin models.User
	var recipientID *uint
	adminFound := storage.DB.
		Where("user_type = ?", models.UserTypeAdmin).
		Order("id ASC").Limit(1).Find(&admin)
	if adminFound.Error == nil && adminFound.RowsAffected > 0 {
		recipientID = &admin.ID
	}

	payment := models.Payment{
		PaymentType:       models.PaymentTypeSubscription,
		PayerID:           user.ID,
		RecipientID:       recipientID,
		Amount:            input.Amount,
		PaymentMethod:     input.PaymentMethod,
		TransactionID:     uuid.New().String(),
		HouseID:           &house.ID,
		PaymentDate:       now,
		SubscriptionMonth: month,
		Notes:             input.Notes,
	}
	payment.MarkCompleted()

	if err := storage.DB.Create(&payment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var subscription models.SubscriptionPayment
	subFound := storage.DB.
		Where("house_owner_id = ? AND subscription_month = ?", user.ID, month).
		Limit(1).Find(&subscription)
	if subFound.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if subFound.RowsAffected == 0 {
		subscription = models.SubscriptionPayment{
			HouseOwnerID:      user.ID,
			HouseID:           house.ID,
			SubscriptionMonth: month,
			AmountDue:         utils.MonthlySubscriptionFee(),
			DueDate:           now,
		}
	}
	subscription.PaymentID = &payment.ID
	subscription.Status = models.SubscriptionStatusPaid
	subscription.AmountPaid = input.Amount
	subscription.PaidDate = &now

	if err := storage.DB.Save(&subscription).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var profile models.HouseOwner
	profileFound := storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&profile)
	if profileFound.Error == nil {
		if profileFound.RowsAffected == 0 {
			profile = models.HouseOwner{UserID: user.ID}
		}
		nextDue := now.AddDate(0, 0, 30)
		profile.LastPaymentDate = &now
		profile.NextPaymentDue = &nextDue
		profile.PaymentStatus = models.OwnerPaymentPaid
		profile.TotalAmountPaid += input.Amount
		storage.DB.Save(&profile)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"success":      true,
		"message":      "Subscription payment processed successfully",
		"payment":      &payment,
		"subscription": &subscription,
	})
}

// GetMyPayments lists payments relevant to the caller, role dependent.
func GetMyPayments(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	switch user.UserType {
	case models.UserTypeStudent:
		var payments []models.Payment
		if err := storage.DB.Where("payer_id = ?", user.ID).
			Order("payment_date DESC").Find(&payments).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		ctx.JSON(iris.Map{"success": true, "count": len(payments), "payments": payments})

	case models.UserTypeHouseOwner:
		var received []models.Payment
		if err := storage.DB.
			Where("recipient_id = ? AND payment_type = ?", user.ID, models.PaymentTypeRoomRental).
			Find(&received).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		var paid []models.Payment
		if err := storage.DB.
			Where("payer_id = ? AND payment_type = ?", user.ID, models.PaymentTypeSubscription).
			Find(&paid).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		payments := append(received, paid...)
		sortPaymentsByDateDesc(payments)
		ctx.JSON(iris.Map{"success": true, "count": len(payments), "payments": payments})

	case models.UserTypeAdmin:
		var payments []models.Payment
		if err := storage.DB.Where("payment_type = ?", models.PaymentTypeSubscription).
			Order("payment_date DESC").Find(&payments).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		ctx.JSON(iris.Map{"success": true, "count": len(payments), "payments": payments})

	default:
		utils.CreateForbidden("Invalid user type.", ctx)
	}
}

// GetPaymentDetails returns one payment to its payer, recipient, or an admin.
func GetPaymentDetails(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var payment models.Payment
	found := storage.DB.Limit(1).Find(&payment, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Payment not found.", ctx)
		return
	}

	isRecipient := payment.RecipientID != nil && *payment.RecipientID == user.ID
	if payment.PayerID != user.ID && !isRecipient && user.UserType != models.UserTypeAdmin {
		utils.CreateForbidden("Unauthorized to view this payment.", ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "payment": &payment})
}

// VerifyPayment lets an admin or the recipient owner confirm or reject an
// off-platform payment.
func VerifyPayment(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var input VerifyPaymentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var payment models.Payment
	found := storage.DB.Limit(1).Find(&payment, input.PaymentID)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Payment not found.", ctx)
		return
	}

	isRecipient := payment.RecipientID != nil && *payment.RecipientID == user.ID
	if user.UserType != models.UserTypeAdmin && !isRecipient {
		utils.CreateForbidden("Unauthorized to verify this payment.", ctx)
		return
	}

	if input.Verified {
		payment.MarkCompleted()
	} else {
		reason := input.Reason
		if reason == "" {
			reason = "Payment verification failed"
		}
		payment.MarkFailed(reason)
	}

	if err := storage.DB.Save(&payment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Payment verification updated",
		"payment": &payment,
	})
}

// EcoCashInitiate starts an EcoCash verification charge on the student's
// phone. Gateway failures still return 200; the record stays pending so the
// student can retry or an admin can verify manually.
func EcoCashInitiate(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}
	if user.UserType != models.UserTypeStudent {
		utils.CreateForbidden("Only students can pay for verification.", ctx)
		return
	}

	var input EcoCashInitiateInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	msisdn := utils.MSISDNInternational(input.Msisdn)
	if msisdn == "" {
		utils.JSONError(ctx, iris.StatusBadRequest, "A valid EcoCash number is required")
		return
	}

	reference := uuid.New().String()
	amount := utils.EcoCashVerificationAmount()
	payment := models.Payment{
		PaymentType:          models.PaymentTypeStudentVerification,
		PayerID:              user.ID,
		Amount:               amount,
		PaymentMethod:        "ecocash",
		TransactionID:        uuid.New().String(),
		TransactionReference: reference,
		PaymentDate:          time.Now().UTC(),
		Notes:                "EcoCash payment init for Student Verification",
	}
	if err := storage.DB.Create(&payment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	client := services.NewEcoCashClient()
	raw, chargeErr := client.InitiateCharge(services.EcoCashCharge{
		CustomerMsisdn:  msisdn,
		Amount:          amount,
		Reason:          "Student Verification",
		Currency:        "USD",
		SourceReference: reference,
		CallbackURL:     ecocashCallbackURL(ctx),
	})

	gatewayResponse := raw
	if chargeErr != nil {
		gatewayResponse = "ERROR: " + chargeErr.Error()
	}
	if len(gatewayResponse) > 4000 {
		gatewayResponse = gatewayResponse[:4000]
	}
	storage.DB.Model(&payment).Update("gateway_response", gatewayResponse)

	ctx.JSON(iris.Map{
		"success":   true,
		"message":   "EcoCash request sent. Check your phone to approve.",
		"reference": reference,
	})
}

// EcoCashStatus lets the payer poll their verification charge.
func EcoCashStatus(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	reference := ctx.Params().Get("reference")

	var payment models.Payment
	found := storage.DB.
		Where("transaction_reference = ? AND payer_id = ?", reference, user.ID).
		Limit(1).Find(&payment)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Not found.", ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"status":  payment.Status,
		"payment": &payment,
	})
}

func ecocashCallbackURL(ctx iris.Context) string {
	path := utils.EcoCashCallbackPath()
	scheme := "https"
	if ctx.Request().TLS == nil {
		scheme = "http"
	}
	host := ctx.Host()
	if host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}

func sortPaymentsByDateDesc(payments []models.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].PaymentDate.After(payments[j].PaymentDate)
	})
}

type RoomRentalInput struct {
	HouseID              uint    `json:"houseID" validate:"required"`
	RoomID               uint    `json:"roomID" validate:"required"`
	Amount               float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod        string  `json:"paymentMethod" validate:"required"`
	Months               int     `json:"months"`
	BookingID            uint    `json:"bookingID"`
	TransactionReference string  `json:"transactionReference"`
	Notes                string  `json:"notes"`
}

type SubscriptionPaymentInput struct {
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod     string  `json:"paymentMethod" validate:"required"`
	SubscriptionMonth string  `json:"subscriptionMonth"`
	Notes             string  `json:"notes"`
}

type VerifyPaymentInput struct {
	PaymentID uint   `json:"paymentID" validate:"required"`
	Verified  bool   `json:"verified"`
	Reason    string `json:"reason"`
}

type EcoCashInitiateInput struct {
	Msisdn string `json:"msisdn" validate:"required"`
}

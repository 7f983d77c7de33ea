package routes

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

// EcoCashCallback receives asynchronous payment results from the gateway.
// Unauthenticated; only payments we initiated are updated, so an unknown
// reference is a hard 404 and never creates records.
func EcoCashCallback(ctx iris.Context) {
	var payload map[string]interface{}
	if err := ctx.ReadJSON(&payload); err != nil {
		payload = map[string]interface{}{}
	}

	reference := callbackString(payload, "sourceReference", "reference", "source_reference")
	if reference == "" {
		utils.JSONError(ctx, iris.StatusBadRequest, "Missing source reference")
		return
	}

	var payment models.Payment
	found := storage.DB.Where("transaction_reference = ?", reference).Limit(1).Find(&payment)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Payment not found.", ctx)
		return
	}

	raw, _ := json.Marshal(payload)
	entry := fmt.Sprintf("\n\nCALLBACK@%s: %s", time.Now().UTC().Format(time.RFC3339), raw)
	gatewayResponse := payment.GatewayResponse + entry
	if len(gatewayResponse) > 8000 {
		gatewayResponse = gatewayResponse[:8000]
	}
	payment.GatewayResponse = gatewayResponse

	if callbackSucceeded(payload) {
		payment.MarkCompleted()
		if txn := callbackString(payload, "ecocashReference", "transactionId", "transaction_id"); txn != "" {
			payment.TransactionID = txn
		}
		if payment.PaymentType == models.PaymentTypeStudentVerification {
			markStudentVerified(payment.PayerID)
		}
	} else {
		payment.MarkFailed(callbackString(payload, "message", "description", "reason"))
	}

	if err := storage.DB.Save(&payment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

func callbackString(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func callbackSucceeded(payload map[string]interface{}) bool {
	status := strings.ToUpper(callbackString(payload, "transactionStatus", "status", "paymentStatus"))
	switch status {
	case "SUCCESS", "COMPLETED", "OK", "200":
		return true
	}
	switch code := payload["code"].(type) {
	case string:
		return code == "200"
	case float64:
		return code == 200
	}
	return false
}

func markStudentVerified(userID uint) {
	now := time.Now().UTC()
	expires := now.AddDate(0, 0, utils.AdminVerificationDays)
	storage.DB.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"admin_verified":            true,
		"admin_verified_at":         now,
		"admin_verified_expires_at": expires,
	})
}

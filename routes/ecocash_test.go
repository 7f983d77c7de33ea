package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
)

func seedVerificationPayment(t *testing.T, student *models.User, reference string) models.Payment {
	t.Helper()
	payment := models.Payment{
		PaymentType:          models.PaymentTypeStudentVerification,
		Status:               models.PaymentStatusPending,
		Amount:               0.5,
		PaymentMethod:        "ecocash",
		PayerID:              student.ID,
		TransactionReference: reference,
	}
	require.NoError(t, storage.DB.Create(&payment).Error)
	return payment
}

func TestEcoCashCallbackSuccessVerifiesStudent(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	student := createTestStudent(t, "payer@example.com", false)
	seedVerificationPayment(t, student, "ref-success-1")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/ecocash/callback", "", map[string]interface{}{
		"sourceReference":   "ref-success-1",
		"transactionStatus": "SUCCESS",
		"ecocashReference":  "MP123456.789",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var payment models.Payment
	require.NoError(t, storage.DB.Where("transaction_reference = ?", "ref-success-1").First(&payment).Error)
	require.Equal(t, models.PaymentStatusCompleted, payment.Status)
	require.Equal(t, "MP123456.789", payment.TransactionID)
	require.Contains(t, payment.GatewayResponse, "CALLBACK@")

	var user models.User
	require.NoError(t, storage.DB.First(&user, student.ID).Error)
	require.True(t, user.AdminVerified)
	require.NotNil(t, user.AdminVerifiedExpiresAt)
}

func TestEcoCashCallbackFailureMarksFailed(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	student := createTestStudent(t, "payer@example.com", false)
	seedVerificationPayment(t, student, "ref-fail-1")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/ecocash/callback", "", map[string]interface{}{
		"sourceReference":   "ref-fail-1",
		"transactionStatus": "FAILED",
		"message":           "Insufficient funds",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var payment models.Payment
	require.NoError(t, storage.DB.Where("transaction_reference = ?", "ref-fail-1").First(&payment).Error)
	require.Equal(t, models.PaymentStatusFailed, payment.Status)
	require.Contains(t, payment.Notes, "Insufficient funds")

	var user models.User
	require.NoError(t, storage.DB.First(&user, student.ID).Error)
	require.False(t, user.AdminVerified)
}

func TestEcoCashCallbackNumericCode(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	student := createTestStudent(t, "payer@example.com", false)
	seedVerificationPayment(t, student, "ref-code-1")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/ecocash/callback", "", map[string]interface{}{
		"reference": "ref-code-1",
		"code":      200,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var payment models.Payment
	require.NoError(t, storage.DB.Where("transaction_reference = ?", "ref-code-1").First(&payment).Error)
	require.Equal(t, models.PaymentStatusCompleted, payment.Status)
}

func TestEcoCashCallbackUnknownReference(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/ecocash/callback", "", map[string]interface{}{
		"sourceReference":   "no-such-reference",
		"transactionStatus": "SUCCESS",
	})
	require.Equal(t, http.StatusNotFound, resp.Code)

	var count int64
	storage.DB.Model(&models.Payment{}).Count(&count)
	require.Zero(t, count)
}

func TestEcoCashCallbackMissingReference(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/ecocash/callback", "", map[string]interface{}{
		"transactionStatus": "SUCCESS",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "Missing source reference")
}

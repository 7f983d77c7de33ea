package routes

import (
	"fmt"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

// UploadPaymentProof accepts a student's proof-of-payment document for admin
// review. Field name is "proof".
func UploadPaymentProof(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}
	if user.UserType != models.UserTypeStudent {
		utils.CreateForbidden("Student access required.", ctx)
		return
	}

	file, header, err := ctx.FormFile("proof")
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "No file uploaded (field name: proof)")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		utils.JSONError(ctx, iris.StatusBadRequest, "No file selected")
		return
	}

	original := storage.SanitizeFilename(header.Filename)
	if original == "" || !storage.AllowedProofFile(original) {
		utils.JSONError(ctx, iris.StatusBadRequest, "File type not allowed")
		return
	}

	storedName := fmt.Sprintf("proof_u%d_%s_%s",
		user.ID, time.Now().UTC().Format("20060102150405"), original)

	if err := storage.SaveUploadedFile(file, storage.PaymentProofDir, storedName); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	proof := models.PaymentProof{
		UserID:           user.ID,
		Filename:         storedName,
		OriginalFilename: header.Filename,
		Status:           models.ProofStatusPending,
	}
	if err := storage.DB.Create(&proof).Error; err != nil {
		storage.RemoveStoredFile(storage.PaymentProofDir, storedName)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"success": true,
		"message": "Proof uploaded",
		"proof":   &proof,
		"viewURL": "/static/payment_proofs/" + storedName,
	})
}

// GetMyPaymentProofs lists the caller's uploads, newest first.
func GetMyPaymentProofs(ctx iris.Context) {
	user := utils.CurrentUser(ctx)
	if user == nil {
		return
	}

	var proofs []models.PaymentProof
	if err := storage.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").Find(&proofs).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "count": len(proofs), "proofs": proofs})
}

package utils

import (
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
)

// CurrentUser loads the authenticated user for the request, caching it in the
// context values. Returns nil after writing an error response.
func CurrentUser(ctx iris.Context) *models.User {
	if cached := ctx.Values().Get("currentUser"); cached != nil {
		if user, ok := cached.(*models.User); ok {
			return user
		}
	}

	claims := jwt.Get(ctx).(*AccessToken)

	var user models.User
	if err := storage.DB.First(&user, claims.ID).Error; err != nil {
		CreateError(iris.StatusUnauthorized, "Unauthorized", "User not found.", ctx)
		return nil
	}

	ctx.Values().Set("currentUser", &user)
	ctx.Values().Set("userID", user.ID)
	return &user
}

// ExpireStaleVerification lazily clears an expired admin verification. Returns
// the (possibly updated) verified state.
func ExpireStaleVerification(user *models.User) bool {
	if user.UserType == models.UserTypeStudent && user.AdminVerified && user.IsVerificationExpired() {
		user.AdminVerified = false
		user.AdminVerifiedExpiresAt = nil
		storage.DB.Model(user).Updates(map[string]interface{}{
			"admin_verified":            false,
			"admin_verified_expires_at": nil,
		})
	}
	return user.AdminVerified
}

func UserIDFromTokenMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// AuthenticatedMiddleware ensures the account behind the token still exists
// and is active.
func AuthenticatedMiddleware(ctx iris.Context) {
	user := CurrentUser(ctx)
	if user == nil {
		return
	}
	if !user.IsActive {
		CreateForbidden("Your account has been deactivated. Please contact admin.", ctx)
		return
	}
	ctx.Next()
}

func AdminOnlyMiddleware(ctx iris.Context) {
	user := CurrentUser(ctx)
	if user == nil {
		return
	}
	if user.UserType != models.UserTypeAdmin || !user.IsActive {
		CreateForbidden("Admin access required.", ctx)
		return
	}
	ctx.Next()
}

func OwnerOnlyMiddleware(ctx iris.Context) {
	user := CurrentUser(ctx)
	if user == nil {
		return
	}
	if user.UserType != models.UserTypeHouseOwner || !user.IsActive {
		CreateForbidden("House owner access required.", ctx)
		return
	}
	ctx.Next()
}

func StudentOnlyMiddleware(ctx iris.Context) {
	user := CurrentUser(ctx)
	if user == nil {
		return
	}
	if user.UserType != models.UserTypeStudent || !user.IsActive {
		CreateForbidden("Student access required.", ctx)
		return
	}
	ctx.Next()
}

// VerifiedStudentMiddleware gates booking features: the student must have a
// verified email and an unexpired admin verification.
func VerifiedStudentMiddleware(ctx iris.Context) {
	user := CurrentUser(ctx)
	if user == nil {
		return
	}
	if user.UserType != models.UserTypeStudent || !user.IsActive {
		CreateForbidden("Student access required.", ctx)
		return
	}
	if !user.EmailVerified {
		CreateForbidden("Please verify your email before accessing booking features.", ctx)
		return
	}
	if !ExpireStaleVerification(user) {
		CreateForbidden("Account pending admin verification. Upload proof of payment and wait for admin approval.", ctx)
		return
	}
	ctx.Next()
}

package main

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/peaceghost-hub/EasyAccomodation/routes"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()
	storage.InitializeFileStorage()

	app := iris.New()
	app.Validator = validator.New()

	// CORS for the web dashboard
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})
	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		if err := ctx.ReadJSON(&tokenInput); err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	staticRoot := os.Getenv("STATIC_ROOT")
	if staticRoot == "" {
		staticRoot = "static"
	}
	app.HandleDir("/static", iris.Dir(staticRoot))

	auth := app.Party("/api/auth")
	{
		auth.Post("/register", routes.Register)
		auth.Post("/login", routes.Login)
		auth.Post("/logout", routes.Logout)
		auth.Post("/verify-email", routes.VerifyEmail)
		auth.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

		me := auth.Party("/me", accessTokenVerifierMiddleware, utils.AuthenticatedMiddleware)
		me.Get("/", routes.GetProfile)
		me.Put("/", routes.UpdateProfile)
		me.Put("/password", routes.ChangePassword)
	}

	houses := app.Party("/api/houses")
	{
		houses.Get("/", routes.GetHouses)
		houses.Get("/search", routes.SearchHouses)
		houses.Get("/areas", routes.GetResidentialAreas)
		houses.Get("/unclaimed", routes.GetUnclaimedHouses)
		houses.Get("/area/{id:uint}", routes.GetHousesByArea)
		houses.Get("/{id:uint}", routes.GetHouseDetails)
		houses.Get("/{id:uint}/rooms", routes.GetHouseRooms)
		houses.Get("/{id:uint}/owner-contact", routes.GetHouseOwnerContact)
		houses.Get("/{id:uint}/nearby", routes.GetHouseNearby)
		houses.Post("/{id:uint}/claim",
			accessTokenVerifierMiddleware, utils.OwnerOnlyMiddleware, routes.ClaimHouse)
	}

	bookings := app.Party("/api/bookings", accessTokenVerifierMiddleware)
	{
		bookings.Post("/inquiry", utils.VerifiedStudentMiddleware, routes.SendInquiry)
		bookings.Post("/reserve", utils.VerifiedStudentMiddleware, routes.ReserveRoom)
		bookings.Post("/confirm", utils.VerifiedStudentMiddleware, routes.ConfirmBooking)
		bookings.Get("/my", utils.VerifiedStudentMiddleware, routes.GetMyBookings)
		bookings.Put("/{id:uint}/cancel", utils.VerifiedStudentMiddleware, routes.CancelBooking)
		bookings.Get("/inquiries", utils.AuthenticatedMiddleware, routes.GetMyInquiries)
		bookings.Put("/inquiries/{id:uint}/cancel", utils.StudentOnlyMiddleware, routes.CancelMyInquiry)
	}

	owner := app.Party("/api/owner", accessTokenVerifierMiddleware, utils.OwnerOnlyMiddleware)
	{
		owner.Get("/house", routes.GetMyHouses)
		owner.Put("/house", routes.UpdateMyHouse)
		owner.Put("/payment-methods", routes.UpdatePaymentMethods)
		owner.Post("/upload-house-images", routes.UploadHouseImages)
		owner.Delete("/house-image/{filename}", routes.DeleteHouseImage)
		owner.Get("/house/bookings", routes.GetOwnerBookings)
		owner.Put("/bookings/{id:uint}/accept", routes.AcceptBooking)
		owner.Put("/bookings/{id:uint}/cancel", routes.OwnerCancelBooking)
		owner.Delete("/bookings/{id:uint}", routes.DeleteBooking)
		owner.Put("/rooms/{id:uint}/occupancy", routes.SetRoomOccupancy)
		owner.Put("/inquiries/{id:uint}/verify", routes.VerifyInquiry)
		owner.Put("/inquiries/{id:uint}/cancel", routes.OwnerCancelInquiry)
		owner.Delete("/inquiries/{id:uint}", routes.OwnerDeleteInquiry)
	}

	payments := app.Party("/api/payments", accessTokenVerifierMiddleware, utils.AuthenticatedMiddleware)
	{
		payments.Post("/room-rental", routes.ProcessRoomRental)
		payments.Post("/subscription", routes.ProcessSubscription)
		payments.Get("/my", routes.GetMyPayments)
		payments.Post("/verify", routes.VerifyPayment)
		payments.Post("/ecocash/initiate", routes.EcoCashInitiate)
		payments.Get("/ecocash/status/{reference}", routes.EcoCashStatus)
		payments.Get("/{id:uint}", routes.GetPaymentDetails)
	}

	// Gateway callback is unauthenticated by nature.
	app.Post("/api/v1/ecocash/callback", routes.EcoCashCallback)

	proofs := app.Party("/api/payment-proofs", accessTokenVerifierMiddleware, utils.AuthenticatedMiddleware)
	{
		proofs.Post("/upload", routes.UploadPaymentProof)
		proofs.Get("/my", routes.GetMyPaymentProofs)
	}

	admin := app.Party("/api/admin")
	{
		admin.Post("/register", routes.RegisterAdmin)

		restricted := admin.Party("/", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
		restricted.Post("/residential-areas", routes.CreateResidentialArea)
		restricted.Get("/residential-areas", routes.GetResidentialAreas)
		restricted.Put("/residential-areas/{id:uint}", routes.UpdateResidentialArea)
		restricted.Delete("/residential-areas/{id:uint}", routes.DeleteResidentialArea)

		restricted.Post("/houses", routes.AdminCreateHouse)
		restricted.Get("/houses", routes.AdminListHouses)
		restricted.Put("/houses/{id:uint}", routes.AdminUpdateHouse)
		restricted.Delete("/houses/{id:uint}", routes.AdminDeleteHouse)
		restricted.Put("/houses/{id:uint}/unassign-owner", routes.UnassignHouseOwner)
		restricted.Get("/houses/{id:uint}/bookings", routes.GetHouseBookings)
		restricted.Post("/houses/{id:uint}/upload-images", routes.AdminUploadHouseImages)

		restricted.Get("/users", routes.AdminListUsers)
		restricted.Get("/users/{id:uint}", routes.AdminGetUser)
		restricted.Put("/users/{id:uint}", routes.AdminUpdateUser)
		restricted.Put("/users/{id:uint}/activate", routes.AdminActivateUser)
		restricted.Put("/users/{id:uint}/deactivate", routes.AdminDeactivateUser)
		restricted.Delete("/users/{id:uint}", routes.AdminDeleteUser)
		restricted.Put("/users/{id:uint}/password", routes.AdminSetUserPassword)
		restricted.Get("/users/{id:uint}/houses", routes.AdminGetUserHouses)

		restricted.Post("/create-admin", routes.CreateAdmin)
		restricted.Get("/my-created-admins", routes.GetMyCreatedAdmins)
		restricted.Delete("/delete-admin/{id:uint}", routes.DeleteAdmin)

		restricted.Get("/audits", routes.GetAuditLog)
		restricted.Get("/subscriptions", routes.GetSubscriptions)
		restricted.Get("/stats", routes.GetAdminStats)

		restricted.Get("/payment-proofs/pending", routes.GetPendingPaymentProofs)
		restricted.Put("/payment-proofs/{id:uint}/review", routes.ReviewPaymentProof)
		restricted.Delete("/payment-proofs/{id:uint}", routes.DeletePaymentProof)

		restricted.Get("/students", routes.ListStudents)
		restricted.Put("/students/{id:uint}/toggle-verification", routes.ToggleStudentVerification)
		restricted.Delete("/students/{id:uint}", routes.DeleteStudent)
	}

	app.Listen(":4000")
}

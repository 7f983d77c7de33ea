package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

var testDBSeq int64

// setupTestDB points storage.DB at a fresh in-memory database.
func setupTestDB(t *testing.T) {
	t.Helper()
	os.Setenv("ACCESS_TOKEN_SECRET", "testaccesssecret")
	os.Setenv("REFRESH_TOKEN_SECRET", "testrefreshsecret")

	dsn := fmt.Sprintf("file:routes_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.HouseOwner{},
		&models.ResidentialArea{},
		&models.House{},
		&models.Room{},
		&models.Booking{},
		&models.BookingInquiry{},
		&models.Payment{},
		&models.SubscriptionPayment{},
		&models.PaymentProof{},
		&models.AdminAudit{},
	))
	storage.DB = db

	// Token issuance writes the refresh token to redis best-effort; an
	// unreachable client is fine for tests.
	if storage.Redis == nil {
		storage.Redis = redis.NewClient(&redis.Options{Addr: "localhost:1"})
	}
}

// buildTestApp wires the API the same way main does.
func buildTestApp(t *testing.T) *iris.Application {
	t.Helper()
	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	verify := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	auth := app.Party("/api/auth")
	{
		auth.Post("/register", Register)
		auth.Post("/login", Login)
		auth.Post("/verify-email", VerifyEmail)
		me := auth.Party("/me", verify, utils.AuthenticatedMiddleware)
		me.Get("/", GetProfile)
		me.Put("/", UpdateProfile)
		me.Put("/password", ChangePassword)
	}

	houses := app.Party("/api/houses")
	{
		houses.Get("/", GetHouses)
		houses.Get("/areas", GetResidentialAreas)
		houses.Get("/search", SearchHouses)
		houses.Get("/unclaimed", GetUnclaimedHouses)
		houses.Get("/area/{id:uint}", GetHousesByArea)
		houses.Get("/{id:uint}", GetHouseDetails)
		houses.Get("/{id:uint}/rooms", GetHouseRooms)
		houses.Post("/{id:uint}/claim", verify, utils.OwnerOnlyMiddleware, ClaimHouse)
	}

	bookings := app.Party("/api/bookings", verify)
	{
		bookings.Post("/inquiry", utils.VerifiedStudentMiddleware, SendInquiry)
		bookings.Post("/reserve", utils.VerifiedStudentMiddleware, ReserveRoom)
		bookings.Post("/confirm", utils.VerifiedStudentMiddleware, ConfirmBooking)
		bookings.Get("/my", utils.VerifiedStudentMiddleware, GetMyBookings)
		bookings.Put("/{id:uint}/cancel", utils.VerifiedStudentMiddleware, CancelBooking)
	}

	owner := app.Party("/api/owner", verify, utils.OwnerOnlyMiddleware)
	{
		owner.Get("/house", GetMyHouses)
		owner.Put("/bookings/{id:uint}/accept", AcceptBooking)
		owner.Put("/bookings/{id:uint}/cancel", OwnerCancelBooking)
		owner.Put("/rooms/{id:uint}/occupancy", SetRoomOccupancy)
	}

	payments := app.Party("/api/payments", verify, utils.AuthenticatedMiddleware)
	{
		payments.Post("/room-rental", ProcessRoomRental)
		payments.Post("/subscription", ProcessSubscription)
		payments.Get("/my", GetMyPayments)
	}

	app.Post("/api/v1/ecocash/callback", EcoCashCallback)

	admin := app.Party("/api/admin")
	{
		admin.Post("/register", RegisterAdmin)
		restricted := admin.Party("/", verify, utils.AdminOnlyMiddleware)
		restricted.Get("/users", AdminListUsers)
		restricted.Post("/residential-areas", CreateResidentialArea)
		restricted.Get("/stats", GetAdminStats)
		restricted.Put("/payment-proofs/{id:uint}/review", ReviewPaymentProof)
		restricted.Put("/students/{id:uint}/toggle-verification", ToggleStudentVerification)
		restricted.Post("/create-admin", CreateAdmin)
		restricted.Delete("/delete-admin/{id:uint}", DeleteAdmin)
	}

	require.NoError(t, app.Build())
	return app
}

func signTestToken(t *testing.T, user *models.User) string {
	t.Helper()
	signer := jwt.NewSigner(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")), 0)
	token, err := signer.Sign(utils.AccessToken{ID: user.ID, UserType: user.UserType})
	require.NoError(t, err)
	return string(token)
}

func doJSON(t *testing.T, app *iris.Application, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	return payload
}

func createTestStudent(t *testing.T, email string, verified bool) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		Email:         email,
		Password:      string(hashed),
		FullName:      "Test Student",
		PhoneNumber:   fmt.Sprintf("0771%06d", atomic.AddInt64(&testDBSeq, 1)%1000000),
		UserType:      models.UserTypeStudent,
		IsActive:      true,
		EmailVerified: true,
	}
	if verified {
		now := nowUTC()
		expires := now.AddDate(0, 0, utils.AdminVerificationDays)
		user.AdminVerified = true
		user.AdminVerifiedAt = &now
		user.AdminVerifiedExpiresAt = &expires
	}
	require.NoError(t, storage.DB.Create(&user).Error)
	require.NoError(t, storage.DB.Create(&models.Student{UserID: user.ID}).Error)
	return &user
}

func createTestOwner(t *testing.T, email string) *models.User {
	t.Helper()
	user := models.User{
		Email:         email,
		Password:      "x",
		FullName:      "Test Owner",
		PhoneNumber:   fmt.Sprintf("0781%06d", atomic.AddInt64(&testDBSeq, 1)%1000000),
		UserType:      models.UserTypeHouseOwner,
		IsActive:      true,
		EmailVerified: true,
	}
	require.NoError(t, storage.DB.Create(&user).Error)
	require.NoError(t, storage.DB.Create(&models.HouseOwner{
		UserID:        user.ID,
		PaymentStatus: models.OwnerPaymentPending,
	}).Error)
	return &user
}

func createTestAdmin(t *testing.T, email string) *models.User {
	t.Helper()
	user := models.User{
		Email:         email,
		Password:      "x",
		FullName:      "Test Admin",
		PhoneNumber:   fmt.Sprintf("0711%06d", atomic.AddInt64(&testDBSeq, 1)%1000000),
		UserType:      models.UserTypeAdmin,
		IsActive:      true,
		EmailVerified: true,
	}
	require.NoError(t, storage.DB.Create(&user).Error)
	return &user
}

// createTestHouse builds a verified, active house with the given number of
// free rooms, owned by owner when non-nil.
func createTestHouse(t *testing.T, owner *models.User, roomCount int) *models.House {
	t.Helper()
	area := models.ResidentialArea{Name: fmt.Sprintf("Area %d", atomic.AddInt64(&testDBSeq, 1))}
	require.NoError(t, storage.DB.Create(&area).Error)

	house := models.House{
		HouseNumber:       "12A",
		StreetAddress:     "Test Street",
		Latitude:          -19.49,
		Longitude:         29.83,
		ResidentialAreaID: area.ID,
		IsVerified:        true,
		IsActive:          true,
		IsClaimed:         owner != nil,
	}
	if owner != nil {
		house.OwnerID = &owner.ID
	}
	require.NoError(t, storage.DB.Create(&house).Error)

	for i := 0; i < roomCount; i++ {
		room := models.Room{
			HouseID:       house.ID,
			RoomNumber:    fmt.Sprintf("R%d", i+1),
			Capacity:      2,
			PricePerMonth: 80,
			IsAvailable:   true,
		}
		require.NoError(t, storage.DB.Create(&room).Error)
	}
	require.NoError(t, storage.DB.Preload("Rooms").First(&house, house.ID).Error)
	return &house
}

func nowUTC() time.Time { return time.Now().UTC() }

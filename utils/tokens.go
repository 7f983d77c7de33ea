package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	gojwt "github.com/kataras/jwt"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
)

var bgContext = context.Background()

const refreshTokenTTL = 30 * 24 * time.Hour

func CreateTokenPair(id uint) (*jwt.TokenPair, error) {
	accessTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 24*time.Hour)
	refreshTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("REFRESH_TOKEN_SECRET"), refreshTokenTTL)

	userID := strconv.FormatUint(uint64(id), 10)

	refreshClaims := jwt.Claims{Subject: userID}

	// Embed the user type so role middleware avoids a DB round trip
	var u models.User
	userType := models.UserTypeStudent
	if err := storage.DB.Select("id, user_type").First(&u, id).Error; err == nil && u.UserType != "" {
		userType = u.UserType
	}

	accessTokenClaims := AccessToken{
		ID:       id,
		UserType: userType,
	}

	accessToken, err := accessTokenSigner.Sign(accessTokenClaims)
	if err != nil {
		return nil, err
	}

	refreshToken, err := refreshTokenSigner.Sign(refreshClaims)
	if err != nil {
		return nil, err
	}

	var tokenPair jwt.TokenPair
	tokenPair.AccessToken = accessToken
	tokenPair.RefreshToken = refreshToken

	storage.Redis.Set(bgContext, string(refreshToken), "true", refreshTokenTTL+5*time.Minute)

	return &tokenPair, nil
}

func RefreshToken(ctx iris.Context) {
	token := jwt.GetVerifiedToken(ctx)
	tokenStr := string(token.Token)
	validToken, tokenErr := storage.Redis.Get(bgContext, tokenStr).Result()

	if tokenErr != nil {
		CreateNotFound(ctx)
		return
	}

	if validToken != "true" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	storage.Redis.Del(bgContext, tokenStr)
	userID, parseErr := strconv.ParseUint(token.StandardClaims.Subject, 10, 32)
	if parseErr != nil {
		CreateInternalServerError(ctx)
		return
	}

	tokenPair, tokenPairErr := CreateTokenPair(uint(userID))
	if tokenPairErr != nil {
		CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":      true,
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

// ParseAccessToken verifies a bearer token outside the middleware chain, for
// endpoints that are public but behave differently for logged-in users.
func ParseAccessToken(raw string) (*AccessToken, error) {
	verified, err := gojwt.Verify(gojwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")), []byte(raw))
	if err != nil {
		return nil, err
	}

	claims := AccessToken{}
	if err := verified.Claims(&claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// GenerateShortToken returns a URL-safe random hex string of n bytes (2n chars).
// Used for email verification tokens.
func GenerateShortToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}

type AccessToken struct {
	ID       uint   `json:"ID"`
	UserType string `json:"userType"`
}

type RefreshTokenInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

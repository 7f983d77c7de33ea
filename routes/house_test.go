package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
)

func TestListHousesFilters(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 2)

	// Hidden houses never appear in the public catalog.
	hidden := models.House{
		HouseNumber:       "99X",
		StreetAddress:     "Hidden Road",
		Latitude:          -19.5,
		Longitude:         29.83,
		ResidentialAreaID: house.ResidentialAreaID,
		IsVerified:        false,
		IsActive:          true,
	}
	require.NoError(t, storage.DB.Create(&hidden).Error)

	resp := doJSON(t, app, http.MethodGet, "/api/houses", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	require.EqualValues(t, 1, body["count"])

	// Price filter against the free rooms (test rooms are $80/month).
	resp = doJSON(t, app, http.MethodGet, "/api/houses?minPrice=100", "", nil)
	require.EqualValues(t, 0, decodeBody(t, resp)["count"])

	resp = doJSON(t, app, http.MethodGet, "/api/houses?minPrice=50&maxPrice=100", "", nil)
	require.EqualValues(t, 1, decodeBody(t, resp)["count"])

	// Full houses drop out of hasAccommodation=true.
	require.NoError(t, storage.DB.Model(&models.Room{}).
		Where("house_id = ?", house.ID).Update("is_occupied", true).Error)
	resp = doJSON(t, app, http.MethodGet, "/api/houses?hasAccommodation=true", "", nil)
	require.EqualValues(t, 0, decodeBody(t, resp)["count"])
}

func TestCatalogGateForUnverifiedStudents(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	createTestHouse(t, owner, 1)

	// Anonymous traffic is public.
	resp := doJSON(t, app, http.MethodGet, "/api/houses", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	// A logged-in unverified student is told to upload proof.
	unverified := createTestStudent(t, "unverified@example.com", false)
	resp = doJSON(t, app, http.MethodGet, "/api/houses", signTestToken(t, unverified), nil)
	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Contains(t, resp.Body.String(), "pending admin verification")

	// A verified student browses normally.
	verified := createTestStudent(t, "verified@example.com", true)
	resp = doJSON(t, app, http.MethodGet, "/api/houses", signTestToken(t, verified), nil)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestSearchHouses(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	house := createTestHouse(t, owner, 1)
	require.NoError(t, storage.DB.Model(&models.House{}).Where("id = ?", house.ID).
		Updates(map[string]interface{}{"street_address": "Lobengula Avenue", "has_wifi": true}).Error)

	resp := doJSON(t, app, http.MethodGet, "/api/houses/search?q=lobengula", "", nil)
	require.EqualValues(t, 1, decodeBody(t, resp)["count"])

	resp = doJSON(t, app, http.MethodGet, "/api/houses/search?q=nomatch", "", nil)
	require.EqualValues(t, 0, decodeBody(t, resp)["count"])

	resp = doJSON(t, app, http.MethodGet, "/api/houses/search?amenities=wifi", "", nil)
	require.EqualValues(t, 1, decodeBody(t, resp)["count"])

	resp = doJSON(t, app, http.MethodGet, "/api/houses/search?amenities=solar", "", nil)
	require.EqualValues(t, 0, decodeBody(t, resp)["count"])
}

func TestAreasSortByEffectiveDistance(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	farLat, farLon := -19.3, 29.7
	near := 1.5
	areas := []models.ResidentialArea{
		{Name: "Far Computed", Latitude: &farLat, Longitude: &farLon},
		{Name: "Near Manual", ApproximateDistanceKm: &near},
		{Name: "No Distance"},
	}
	for i := range areas {
		require.NoError(t, storage.DB.Create(&areas[i]).Error)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/houses/areas", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	body := decodeBody(t, resp)
	list, ok := body["areas"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 3)

	names := make([]string, 0, 3)
	for _, entry := range list {
		area := entry.(map[string]interface{})["area"].(map[string]interface{})
		names = append(names, area["name"].(string))
	}
	require.Equal(t, []string{"Near Manual", "Far Computed", "No Distance"}, names)
}

func TestGetHousesByAreaSplitsFullness(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	owner := createTestOwner(t, "owner@example.com")
	open := createTestHouse(t, owner, 2)

	full := models.House{
		HouseNumber:       "7F",
		StreetAddress:     "Full Street",
		Latitude:          -19.5,
		Longitude:         29.83,
		ResidentialAreaID: open.ResidentialAreaID,
		IsVerified:        true,
		IsActive:          true,
		IsFull:            true,
	}
	require.NoError(t, storage.DB.Create(&full).Error)
	require.NoError(t, storage.DB.Create(&models.Room{
		HouseID: full.ID, RoomNumber: "R1", Capacity: 1, PricePerMonth: 60,
		IsAvailable: true, IsOccupied: true,
	}).Error)

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/houses/area/%d", open.ResidentialAreaID), "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	body := decodeBody(t, resp)
	require.Len(t, body["housesWithAccommodation"], 1)
	require.Len(t, body["housesFull"], 1)
}

func TestClaimHouseMatchesAdminRecord(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	area := models.ResidentialArea{Name: "Mkoba"}
	require.NoError(t, storage.DB.Create(&area).Error)
	house := models.House{
		HouseNumber:       "12",
		StreetAddress:     "Fifth Street",
		Latitude:          -19.5,
		Longitude:         29.83,
		ResidentialAreaID: area.ID,
		IsVerified:        true,
		IsActive:          true,
		OwnerName:         "Tapiwa  Ncube",
		OwnerEmail:        "tapiwa@example.com",
		OwnerPhone:        "0781111111",
	}
	require.NoError(t, storage.DB.Create(&house).Error)

	owner := createTestOwner(t, "other@example.com")
	token := signTestToken(t, owner)
	path := fmt.Sprintf("/api/houses/%d/claim", house.ID)

	resp := doJSON(t, app, http.MethodPost, path, token, map[string]interface{}{
		"name":  "Wrong Person",
		"email": "tapiwa@example.com",
		"phone": "0781111111",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "do not match")

	// Name matching folds case and whitespace; phone matches across formats.
	resp = doJSON(t, app, http.MethodPost, path, token, map[string]interface{}{
		"name":  "tapiwa ncube",
		"email": "Tapiwa@Example.com",
		"phone": "+263781111111",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var claimed models.House
	require.NoError(t, storage.DB.First(&claimed, house.ID).Error)
	require.True(t, claimed.IsClaimed)

	resp = doJSON(t, app, http.MethodPost, path, token, map[string]interface{}{
		"name":  "Tapiwa Ncube",
		"email": "tapiwa@example.com",
		"phone": "0781111111",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "already been claimed")
}

func TestGetUnclaimedHouses(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp(t)

	area := models.ResidentialArea{Name: "Ascot"}
	require.NoError(t, storage.DB.Create(&area).Error)

	seeded := models.House{
		HouseNumber: "1", StreetAddress: "A Street", Latitude: -19.5, Longitude: 29.83,
		ResidentialAreaID: area.ID, IsVerified: true, IsActive: true,
		OwnerName: "Seeded Owner", OwnerEmail: "seeded@example.com", OwnerPhone: "0782000000",
	}
	bare := models.House{
		HouseNumber: "2", StreetAddress: "B Street", Latitude: -19.5, Longitude: 29.83,
		ResidentialAreaID: area.ID, IsVerified: true, IsActive: true,
	}
	require.NoError(t, storage.DB.Create(&seeded).Error)
	require.NoError(t, storage.DB.Create(&bare).Error)

	resp := doJSON(t, app, http.MethodGet, "/api/houses/unclaimed", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.EqualValues(t, 1, decodeBody(t, resp)["count"])
}

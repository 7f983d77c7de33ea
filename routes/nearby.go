package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

type nearbyPlace struct {
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	DistanceM int     `json:"distanceM"`
}

var overpassClient = &http.Client{Timeout: 20 * time.Second}

// GetHouseNearby returns amenities around a house from OpenStreetMap data,
// grouped by category. Overpass failures degrade to empty lists.
func GetHouseNearby(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var house models.House
	found := storage.DB.Limit(1).Find(&house, id)
	if found.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if found.RowsAffected == 0 || !house.IsActive || !house.IsVerified {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found.", ctx)
		return
	}

	radius := ctx.URLParamIntDefault("radius", 3000)
	if radius < 100 || radius > 10000 {
		radius = 3000
	}

	supermarkets, _ := fetchOverpass("supermarket", house.Latitude, house.Longitude, radius)
	clinics, _ := fetchOverpass("clinic", house.Latitude, house.Longitude, radius)
	restaurants, _ := fetchOverpass("restaurant", house.Latitude, house.Longitude, radius)

	ctx.JSON(iris.Map{
		"success":      true,
		"supermarkets": supermarkets,
		"clinics":      clinics,
		"restaurants":  restaurants,
	})
}

func fetchOverpass(amenity string, lat, lng float64, radius int) ([]nearbyPlace, error) {
	ql := fmt.Sprintf(`[out:json][timeout:15];(node["amenity"=%q](around:%d,%f,%f););out body;`,
		amenity, radius, lat, lng)
	resp, err := overpassClient.Post("https://overpass-api.de/api/interpreter",
		"application/x-www-form-urlencoded", strings.NewReader("data="+ql))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("overpass status %d", resp.StatusCode)
	}

	var parsed struct {
		Elements []struct {
			Lat  float64 `json:"lat"`
			Lon  float64 `json:"lon"`
			Tags struct {
				Name string `json:"name"`
			} `json:"tags"`
		} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	places := make([]nearbyPlace, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		name := el.Tags.Name
		if name == "" {
			name = amenity
		}
		places = append(places, nearbyPlace{
			Name:      name,
			Lat:       el.Lat,
			Lng:       el.Lon,
			DistanceM: int(models.HaversineKm(lat, lng, el.Lat, el.Lon) * 1000),
		})
	}

	sort.Slice(places, func(i, j int) bool { return places[i].DistanceM < places[j].DistanceM })
	if len(places) > 10 {
		places = places[:10]
	}
	return places, nil
}

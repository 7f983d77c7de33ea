package models

import (
	"encoding/json"
	"math"

	"gorm.io/gorm"
)

// Campus reference points used for computed distances.
const (
	MainCampusLat    = -19.516
	MainCampusLon    = 29.833
	TelOneCampusLat  = -19.484133
	TelOneCampusLon  = 29.833482
	BatanaiCampusLat = -19.498133
	BatanaiCampusLon = 29.840290
)

type ResidentialArea struct {
	gorm.Model
	Name                  string   `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description           string   `json:"description" gorm:"type:text"`
	Latitude              *float64 `json:"latitude"`
	Longitude             *float64 `json:"longitude"`
	ApproximateDistanceKm *float64 `json:"approximateDistanceKm"`
	Houses                []House  `json:"houses,omitempty" gorm:"foreignKey:ResidentialAreaID;constraint:OnDelete:CASCADE"`
}

// HaversineKm returns the great-circle distance between two coordinates,
// rounded to one decimal. Returns -1 for out-of-range inputs.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 < -90 || lat1 > 90 || lon1 < -180 || lon1 > 180 {
		return -1
	}
	const earthRadiusKm = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusKm*c*10) / 10
}

func (a *ResidentialArea) distanceTo(lat, lon float64) *float64 {
	if a.Latitude == nil || a.Longitude == nil {
		return nil
	}
	d := HaversineKm(*a.Latitude, *a.Longitude, lat, lon)
	if d < 0 {
		return nil
	}
	return &d
}

func (a *ResidentialArea) DistanceToMainCampus() *float64 {
	return a.distanceTo(MainCampusLat, MainCampusLon)
}

func (a *ResidentialArea) DistanceToTelOneCampus() *float64 {
	return a.distanceTo(TelOneCampusLat, TelOneCampusLon)
}

func (a *ResidentialArea) DistanceToBatanaiCampus() *float64 {
	return a.distanceTo(BatanaiCampusLat, BatanaiCampusLon)
}

// EffectiveDistanceKm prefers the admin-entered distance over the computed one.
func (a *ResidentialArea) EffectiveDistanceKm() *float64 {
	if a.ApproximateDistanceKm != nil {
		return a.ApproximateDistanceKm
	}
	return a.DistanceToMainCampus()
}

func (a *ResidentialArea) MarshalJSON() ([]byte, error) {
	type Alias ResidentialArea
	return json.Marshal(&struct {
		*Alias
		ComputedDistanceKm        *float64 `json:"computedDistanceKm"`
		ComputedDistanceTelOneKm  *float64 `json:"computedDistanceTelOneKm"`
		ComputedDistanceBatanaiKm *float64 `json:"computedDistanceBatanaiKm"`
		HouseCount                int      `json:"houseCount"`
	}{
		Alias:                     (*Alias)(a),
		ComputedDistanceKm:        a.DistanceToMainCampus(),
		ComputedDistanceTelOneKm:  a.DistanceToTelOneCampus(),
		ComputedDistanceBatanaiKm: a.DistanceToBatanaiCampus(),
		HouseCount:                len(a.Houses),
	})
}

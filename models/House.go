package models

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"
)

type House struct {
	gorm.Model
	HouseNumber       string           `json:"houseNumber" gorm:"size:50;not null"`
	StreetAddress     string           `json:"streetAddress" gorm:"size:200;not null"`
	Latitude          float64          `json:"latitude" gorm:"not null"`
	Longitude         float64          `json:"longitude" gorm:"not null"`
	ResidentialAreaID uint             `json:"residentialAreaID" gorm:"index;not null"`
	OwnerID           *uint            `json:"ownerID" gorm:"index"` // nil until claimed
	OwnerName         string           `json:"ownerName" gorm:"size:100"`
	OwnerEmail        string           `json:"ownerEmail" gorm:"size:120"`
	OwnerPhone        string           `json:"ownerPhone" gorm:"size:20"`
	IsClaimed         bool             `json:"isClaimed" gorm:"default:false"`
	IsVerified        bool             `json:"isVerified" gorm:"default:false"`
	IsActive          bool             `json:"isActive" gorm:"default:true"`
	IsFull            bool             `json:"isFull" gorm:"default:false"`
	IsTiled           bool             `json:"isTiled" gorm:"default:false"`
	HasSolar          bool             `json:"hasSolar" gorm:"default:false"`
	HasJojoTank       bool             `json:"hasJojoTank" gorm:"default:false"`
	HasWifi           bool             `json:"hasWifi" gorm:"default:false"`
	HasParking        bool             `json:"hasParking" gorm:"default:false"`
	HasKitchen        bool             `json:"hasKitchen" gorm:"default:false"`
	HasLaundry        bool             `json:"hasLaundry" gorm:"default:false"`
	Description       string           `json:"description" gorm:"type:text"`
	Rules             string           `json:"rules" gorm:"type:text"`
	ImageFilenames    string           `json:"-" gorm:"type:text"` // comma-joined filenames
	ResidentialArea   *ResidentialArea `json:"residentialArea,omitempty" gorm:"foreignKey:ResidentialAreaID"`
	Owner             *User            `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Rooms             []Room           `json:"rooms" gorm:"foreignKey:HouseID;constraint:OnDelete:CASCADE"`
	Bookings          []Booking        `json:"-" gorm:"foreignKey:HouseID;constraint:OnDelete:CASCADE"`
}

func (h *House) TotalRooms() int { return len(h.Rooms) }

func (h *House) OccupiedRooms() int {
	n := 0
	for _, room := range h.Rooms {
		if room.IsOccupied {
			n++
		}
	}
	return n
}

func (h *House) AvailableRooms() int { return h.TotalRooms() - h.OccupiedRooms() }

func (h *House) HasAccommodation() bool { return h.AvailableRooms() > 0 }

// Images expands the comma-joined filename column into static URLs.
func (h *House) Images() []string {
	urls := []string{}
	if h.ImageFilenames == "" {
		return urls
	}
	for _, name := range strings.Split(h.ImageFilenames, ",") {
		if name != "" {
			urls = append(urls, "/static/house_images/"+name)
		}
	}
	return urls
}

// ImageList returns the raw stored filenames.
func (h *House) ImageList() []string {
	names := []string{}
	if h.ImageFilenames == "" {
		return names
	}
	for _, name := range strings.Split(h.ImageFilenames, ",") {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// SetImageList replaces the stored filename column.
func (h *House) SetImageList(names []string) {
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if name != "" {
			kept = append(kept, name)
		}
	}
	h.ImageFilenames = strings.Join(kept, ",")
}

type HouseAmenities struct {
	IsTiled     bool `json:"isTiled"`
	HasSolar    bool `json:"hasSolar"`
	HasJojoTank bool `json:"hasJojoTank"`
	HasWifi     bool `json:"hasWifi"`
	HasParking  bool `json:"hasParking"`
	HasKitchen  bool `json:"hasKitchen"`
	HasLaundry  bool `json:"hasLaundry"`
}

func (h *House) Amenities() HouseAmenities {
	return HouseAmenities{
		IsTiled:     h.IsTiled,
		HasSolar:    h.HasSolar,
		HasJojoTank: h.HasJojoTank,
		HasWifi:     h.HasWifi,
		HasParking:  h.HasParking,
		HasKitchen:  h.HasKitchen,
		HasLaundry:  h.HasLaundry,
	}
}

// Custom JSON marshaling to expose derived room counts, image URLs and the
// grouped amenities object alongside the raw columns.
func (h *House) MarshalJSON() ([]byte, error) {
	type Alias House
	return json.Marshal(&struct {
		*Alias
		Images           []string       `json:"images"`
		Amenities        HouseAmenities `json:"amenities"`
		TotalRooms       int            `json:"totalRooms"`
		OccupiedRooms    int            `json:"occupiedRooms"`
		AvailableRooms   int            `json:"availableRooms"`
		HasAccommodation bool           `json:"hasAccommodation"`
	}{
		Alias:            (*Alias)(h),
		Images:           h.Images(),
		Amenities:        h.Amenities(),
		TotalRooms:       h.TotalRooms(),
		OccupiedRooms:    h.OccupiedRooms(),
		AvailableRooms:   h.AvailableRooms(),
		HasAccommodation: h.HasAccommodation(),
	})
}

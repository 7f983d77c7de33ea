package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHaversineKm(t *testing.T) {
	// Senga to MSU main campus, roughly 5.3 km.
	d := HaversineKm(-19.47, 29.82, MainCampusLat, MainCampusLon)
	require.InDelta(t, 5.3, d, 1.0)

	// Same point is zero.
	require.Zero(t, HaversineKm(MainCampusLat, MainCampusLon, MainCampusLat, MainCampusLon))

	// Out-of-range coordinates.
	require.Equal(t, -1.0, HaversineKm(91, 0, 0, 0))
	require.Equal(t, -1.0, HaversineKm(0, 181, 0, 0))
}

func TestBookingExpiry(t *testing.T) {
	b := Booking{BookingType: BookingTypeReserved}
	b.SetExpiryDate(7)
	require.False(t, b.IsExpired())
	require.Equal(t, 6, b.DaysUntilExpiry())

	past := time.Now().UTC().Add(-time.Hour)
	b.ExpiryDate = &past
	require.True(t, b.IsExpired())
	require.Zero(t, b.DaysUntilExpiry())

	// Only reserved bookings expire.
	b.BookingType = BookingTypeConfirmed
	require.False(t, b.IsExpired())

	none := Booking{BookingType: BookingTypeReserved}
	require.False(t, none.IsExpired())
}

func TestSubscriptionOverdue(t *testing.T) {
	s := SubscriptionPayment{
		Status:          SubscriptionStatusPending,
		DueDate:         time.Now().UTC().Add(-10 * 24 * time.Hour),
		GracePeriodDays: 7,
	}
	require.True(t, s.IsOverdue())
	require.Equal(t, 3, s.DaysOverdue())

	// Inside the grace period.
	s.DueDate = time.Now().UTC().Add(-5 * 24 * time.Hour)
	require.False(t, s.IsOverdue())
	require.Zero(t, s.DaysOverdue())

	// Paid subscriptions are never overdue.
	s.Status = SubscriptionStatusPaid
	s.DueDate = time.Now().UTC().Add(-30 * 24 * time.Hour)
	require.False(t, s.IsOverdue())
}

func TestEffectiveDistancePrefersManual(t *testing.T) {
	lat, lon := -19.47, 29.82
	manual := 4.0
	area := ResidentialArea{Latitude: &lat, Longitude: &lon, ApproximateDistanceKm: &manual}
	require.Equal(t, &manual, area.EffectiveDistanceKm())

	area.ApproximateDistanceKm = nil
	computed := area.EffectiveDistanceKm()
	require.NotNil(t, computed)
	require.InDelta(t, 5.3, *computed, 1.0)

	bare := ResidentialArea{}
	require.Nil(t, bare.EffectiveDistanceKm())
}

func TestHouseOccupancyAggregates(t *testing.T) {
	h := House{Rooms: []Room{
		{IsAvailable: true, IsOccupied: true},
		{IsAvailable: true, IsOccupied: false},
		{IsAvailable: true, IsOccupied: true},
	}}
	require.Equal(t, 3, h.TotalRooms())
	require.Equal(t, 2, h.OccupiedRooms())
	require.Equal(t, 1, h.AvailableRooms())
	require.True(t, h.HasAccommodation())

	h.Rooms[1].IsOccupied = true
	require.False(t, h.HasAccommodation())
}

func TestHouseImageList(t *testing.T) {
	h := House{}
	require.Empty(t, h.ImageList())
	require.Empty(t, h.Images())

	h.SetImageList([]string{"a.jpg", "", "b.png"})
	require.Equal(t, []string{"a.jpg", "b.png"}, h.ImageList())
	require.Equal(t, []string{"/static/house_images/a.jpg", "/static/house_images/b.png"}, h.Images())
}

func TestUserVerificationWindow(t *testing.T) {
	u := User{}
	require.False(t, u.IsVerificationExpired())

	future := time.Now().UTC().Add(24 * time.Hour)
	u.AdminVerified = true
	u.AdminVerifiedExpiresAt = &future
	require.False(t, u.IsVerificationExpired())

	past := time.Now().UTC().Add(-24 * time.Hour)
	u.AdminVerifiedExpiresAt = &past
	require.True(t, u.IsVerificationExpired())
}

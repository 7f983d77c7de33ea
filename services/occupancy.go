package services

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peaceghost-hub/EasyAccomodation/models"
)

// All room-state mutations go through this service so house fullness is
// recomputed at every mutation site and never drifts from room state.

// LockRoom fetches a room with a row lock inside tx so the availability check
// and the occupancy write cannot interleave with a concurrent request.
func LockRoom(tx *gorm.DB, roomID uint) (*models.Room, error) {
	var room models.Room
	q := tx
	// sqlite has no row locks; its writes are serialized anyway
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&room, roomID).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// RefreshHouseFullness recomputes is_full = (available_rooms == 0) from the
// current room rows and persists it.
func RefreshHouseFullness(tx *gorm.DB, houseID uint) error {
	var total, occupied int64
	if err := tx.Model(&models.Room{}).Where("house_id = ?", houseID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Room{}).Where("house_id = ? AND is_occupied = ?", houseID, true).Count(&occupied).Error; err != nil {
		return err
	}
	isFull := total-occupied == 0
	return tx.Model(&models.House{}).Where("id = ?", houseID).Update("is_full", isFull).Error
}

// OccupyRoom marks the room taken by tenantID from start and refreshes the
// house fullness flag.
func OccupyRoom(tx *gorm.DB, room *models.Room, tenantID uint, start time.Time) error {
	room.IsOccupied = true
	room.CurrentTenantID = &tenantID
	room.OccupancyStartDate = &start
	room.OccupancyEndDate = nil
	if err := tx.Save(room).Error; err != nil {
		return err
	}
	return RefreshHouseFullness(tx, room.HouseID)
}

// ReleaseRoom returns the room to the available pool and refreshes the house
// fullness flag.
func ReleaseRoom(tx *gorm.DB, room *models.Room) error {
	room.IsOccupied = false
	room.IsAvailable = true
	room.CurrentTenantID = nil
	room.OccupancyStartDate = nil
	room.OccupancyEndDate = nil
	if err := tx.Save(room).Error; err != nil {
		return err
	}
	return RefreshHouseFullness(tx, room.HouseID)
}

// SetRoomOccupancy is the owner's manual toggle.
func SetRoomOccupancy(tx *gorm.DB, room *models.Room, occupied bool) error {
	if occupied {
		now := time.Now().UTC()
		room.IsOccupied = true
		if room.OccupancyStartDate == nil {
			room.OccupancyStartDate = &now
		}
	} else {
		room.IsOccupied = false
		room.CurrentTenantID = nil
		room.OccupancyStartDate = nil
		room.OccupancyEndDate = nil
	}
	if err := tx.Save(room).Error; err != nil {
		return err
	}
	return RefreshHouseFullness(tx, room.HouseID)
}

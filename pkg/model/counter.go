package model

import "time"

type FacilityDay struct {
	FacilityID string `json:"facility_id" bson:"facility_id"`
	Date       string `json:"date" bson:"date"`
}

// FacilityCounter tallies admissions for one facility on one day. Capacity
// values are the snapshot written by the last accepted increment.
type FacilityCounter struct {
	Key             FacilityDay `json:"key" bson:"_id"`
	BookedCount     int         `json:"booked_count" bson:"booked_count"`
	AmenityCount    int         `json:"amenity_count" bson:"amenity_count"`
	Capacity        int         `json:"capacity" bson:"capacity"`
	AmenityCapacity int         `json:"amenity_capacity" bson:"amenity_capacity"`
	ExpiresAt       time.Time   `json:"-" bson:"expires_at"`
}

type UserWeek struct {
	OwnerEmail string `json:"owner_email" bson:"owner_email"`
	WeekStart  string `json:"week_start" bson:"week_start"`
}

type UserWeekCounter struct {
	Key         UserWeek  `json:"key" bson:"_id"`
	BookedCount int       `json:"booked_count" bson:"booked_count"`
	Quota       int       `json:"quota" bson:"quota"`
	ExpiresAt   time.Time `json:"-" bson:"expires_at"`
}

type Availability struct {
	Facility         FacilityRef `json:"facility"`
	Date             string      `json:"date"`
	Capacity         int         `json:"capacity"`
	Booked           int         `json:"booked"`
	Available        int         `json:"available"`
	AmenityCapacity  int         `json:"amenity_capacity"`
	AmenityBooked    int         `json:"amenity_booked"`
	AmenityAvailable int         `json:"amenity_available"`
}

type WeeklyUsage struct {
	OwnerEmail string `json:"owner_email"`
	WeekStart  string `json:"week_start"`
	Booked     int    `json:"booked"`
	Quota      int    `json:"quota"`
	Remaining  int    `json:"remaining"`
}

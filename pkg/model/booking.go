package model

import (
	"strings"
	"time"
)

// BookingKey is the ledger's composite primary key. ID alone is shared by
// every owner holding the same facility/day, so both parts are required.
type BookingKey struct {
	OwnerEmail string `json:"owner_email" bson:"owner_email"`
	ID         string `json:"id" bson:"id"`
}

type BookingRecord struct {
	Key              BookingKey `json:"key" bson:"_id"`
	Date             string     `json:"date" bson:"date"`
	FacilityID       string     `json:"facility_id" bson:"facility_id"`
	AmenityRequested bool       `json:"amenity_requested" bson:"amenity_requested"`
	Justification    string     `json:"justification,omitempty" bson:"justification,omitempty"`
	CreatedBy        string     `json:"created_by" bson:"created_by"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	ExpiresAt        time.Time  `json:"-" bson:"expires_at"`
}

// BookingID derives the per-owner reservation id: facility + "_" + YYYYMMDD.
func BookingID(facilityID, date string) string {
	return facilityID + "_" + strings.ReplaceAll(date, "-", "")
}

type CreateReservationRequest struct {
	OwnerEmail       string `json:"owner_email" validate:"required,email,max=254"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	FacilityID       string `json:"facility_id" validate:"required,facility_id"`
	AmenityRequested bool   `json:"amenity_requested"`
	Justification    string `json:"justification,omitempty" validate:"max=500"`
}

type CancelReservationRequest struct {
	ID         string `json:"id" validate:"required,booking_id"`
	OwnerEmail string `json:"owner_email,omitempty" validate:"omitempty,email,max=254"`
}

type ReservationQuery struct {
	OwnerEmail string `json:"owner_email,omitempty" validate:"omitempty,email,max=254"`
	FacilityID string `json:"facility_id,omitempty" validate:"omitempty,facility_id"`
	Date       string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type FacilityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ReservationView struct {
	ID                   string      `json:"id"`
	OwnerEmail           string      `json:"owner_email"`
	Date                 string      `json:"date"`
	Facility             FacilityRef `json:"facility"`
	AmenityRequested     bool        `json:"amenity_requested"`
	Justification        string      `json:"justification,omitempty"`
	CreatedBy            string      `json:"created_by"`
	CreatedAt            time.Time   `json:"created_at"`
	CancellationDeadline time.Time   `json:"cancellation_deadline"`
}

// JustificationNotice is handed to the notification collaborator when a
// reservation was created with a justification.
type JustificationNotice struct {
	BookingID     string    `json:"booking_id"`
	OwnerEmail    string    `json:"owner_email"`
	RequestedBy   string    `json:"requested_by"`
	FacilityID    string    `json:"facility_id"`
	FacilityName  string    `json:"facility_name"`
	Date          string    `json:"date"`
	Justification string    `json:"justification"`
	CreatedAt     time.Time `json:"created_at"`
}

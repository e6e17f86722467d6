package model

import "slices"

// Principal is the pre-authenticated caller handed over by the identity
// collaborator. It is trusted as-is.
type Principal struct {
	Email             string   `json:"email"`
	WeeklyQuota       int      `json:"weekly_quota"`
	ManageAll         bool     `json:"manage_all"`
	ManagedFacilities []string `json:"managed_facilities,omitempty"`
}

func (p *Principal) Manages(facilityID string) bool {
	return p.ManageAll || slices.Contains(p.ManagedFacilities, facilityID)
}

func (p *Principal) Is(email string) bool {
	return email != "" && p.Email == email
}

package service

import (
	"context"

	"dayslot/pkg/calendar"
	"dayslot/pkg/config"
	"dayslot/pkg/model"
	"dayslot/pkg/sanitizer"
)

// Notifier receives fire-and-forget notices about reservations created with a
// justification.
type Notifier interface {
	JustificationSubmitted(ctx context.Context, notice *model.JustificationNotice) error
}

// QuotaResolver returns the weekly quota currently in force for owner.
type QuotaResolver interface {
	Resolve(principal *model.Principal, ownerEmail string) int
}

type catalogueQuotaResolver struct {
	cfg *config.Config
}

// NewQuotaResolver resolves the requester's own quota from the principal and
// anyone else's from the catalogue overrides, falling back to the default.
func NewQuotaResolver(cfg *config.Config) QuotaResolver {
	return &catalogueQuotaResolver{cfg: cfg}
}

func (r *catalogueQuotaResolver) Resolve(principal *model.Principal, ownerEmail string) int {
	if principal.Is(ownerEmail) {
		if principal.WeeklyQuota > 0 {
			return principal.WeeklyQuota
		}
		return r.cfg.DefaultWeeklyQuota
	}
	if r.cfg.Catalogue != nil {
		if quota, ok := r.cfg.Catalogue.QuotaOverride(ownerEmail); ok {
			return quota
		}
	}
	return r.cfg.DefaultWeeklyQuota
}

func facilityRef(cfg *config.Config, facilityID string) model.FacilityRef {
	if cfg.Catalogue != nil {
		if f, ok := cfg.Catalogue.Facility(facilityID); ok {
			return f.Ref()
		}
	}
	// Facility was removed from the catalogue after the reservation was made.
	return model.FacilityRef{ID: facilityID, Name: facilityID}
}

func toView(cfg *config.Config, cal *calendar.Calendar, record *model.BookingRecord) *model.ReservationView {
	view := &model.ReservationView{
		ID:               record.Key.ID,
		OwnerEmail:       record.Key.OwnerEmail,
		Date:             record.Date,
		Facility:         facilityRef(cfg, record.FacilityID),
		AmenityRequested: record.AmenityRequested,
		Justification:    record.Justification,
		CreatedBy:        record.CreatedBy,
		CreatedAt:        record.CreatedAt,
	}
	if deadline, err := cal.DayStart(record.Date); err == nil {
		view.CancellationDeadline = deadline
	}
	return view
}

func toViews(cfg *config.Config, cal *calendar.Calendar, records []*model.BookingRecord) []*model.ReservationView {
	views := make([]*model.ReservationView, 0, len(records))
	for _, record := range records {
		views = append(views, toView(cfg, cal, record))
	}
	return views
}

func sanitizePrincipal(principal *model.Principal) *model.Principal {
	p := *principal
	p.Email = sanitizer.SanitizeEmail(p.Email)
	p.ManagedFacilities = sanitizer.SanitizeSlice(p.ManagedFacilities, sanitizer.SanitizeFacilityID)
	return &p
}

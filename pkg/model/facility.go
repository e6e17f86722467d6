package model

type Facility struct {
	ID              string `json:"id" yaml:"id" validate:"required,facility_id"`
	Name            string `json:"name" yaml:"name" validate:"required,max=100"`
	Capacity        int    `json:"capacity" yaml:"capacity" validate:"min=0"`
	AmenityCapacity int    `json:"amenity_capacity" yaml:"amenity_capacity" validate:"min=0"`
}

func (f *Facility) OffersAmenity() bool {
	return f.AmenityCapacity > 0
}

func (f *Facility) Ref() FacilityRef {
	return FacilityRef{ID: f.ID, Name: f.Name}
}

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"dayslot/pkg/model"

	"gopkg.in/yaml.v2"
)

// Catalogue is the facility configuration consumed by the booking core:
// which facilities exist, their daily capacities, and per-user weekly quota
// overrides.
type Catalogue struct {
	facilities []model.Facility
	byID       map[string]*model.Facility
	quotas     map[string]int
}

type catalogueFile struct {
	Facilities []model.Facility `yaml:"facilities"`
	Quotas     map[string]int   `yaml:"quotas"`
}

func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

func ParseCatalogue(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}
	return NewCatalogue(file.Facilities, file.Quotas)
}

func NewCatalogue(facilities []model.Facility, quotas map[string]int) (*Catalogue, error) {
	c := &Catalogue{
		facilities: make([]model.Facility, 0, len(facilities)),
		byID:       make(map[string]*model.Facility, len(facilities)),
		quotas:     make(map[string]int, len(quotas)),
	}

	for _, f := range facilities {
		if f.ID == "" {
			return nil, fmt.Errorf("facility id cannot be empty (name: %q)", f.Name)
		}
		if strings.Contains(f.ID, "_") {
			return nil, fmt.Errorf("facility id %q cannot contain '_'", f.ID)
		}
		if _, exists := c.byID[f.ID]; exists {
			return nil, fmt.Errorf("duplicate facility id %q", f.ID)
		}
		if f.Capacity < 0 || f.AmenityCapacity < 0 {
			return nil, fmt.Errorf("facility %q: capacities cannot be negative", f.ID)
		}
		if f.AmenityCapacity > f.Capacity {
			return nil, fmt.Errorf("facility %q: amenity capacity %d exceeds capacity %d", f.ID, f.AmenityCapacity, f.Capacity)
		}
		if f.Name == "" {
			f.Name = f.ID
		}
		c.facilities = append(c.facilities, f)
	}
	sort.Slice(c.facilities, func(i, j int) bool { return c.facilities[i].ID < c.facilities[j].ID })
	for i := range c.facilities {
		c.byID[c.facilities[i].ID] = &c.facilities[i]
	}

	for email, quota := range quotas {
		if quota < 0 {
			return nil, fmt.Errorf("quota for %q cannot be negative", email)
		}
		c.quotas[strings.ToLower(strings.TrimSpace(email))] = quota
	}

	return c, nil
}

func (c *Catalogue) Facility(id string) (*model.Facility, bool) {
	f, ok := c.byID[id]
	return f, ok
}

// All returns the facilities ordered by id.
func (c *Catalogue) All() []model.Facility {
	return c.facilities
}

func (c *Catalogue) QuotaOverride(email string) (int, bool) {
	q, ok := c.quotas[email]
	return q, ok
}

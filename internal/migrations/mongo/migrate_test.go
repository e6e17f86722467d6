package mongo

import (
	"testing"

	"dayslot/internal/bookings/repository"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_AllHaveTTLIndex(t *testing.T) {
	for name, def := range Collections() {
		found := false
		for _, idx := range def.Indexes {
			keys, ok := idx.Keys.(bson.D)
			if !ok || len(keys) != 1 || keys[0].Key != "expires_at" {
				continue
			}
			if idx.Options == nil || idx.Options.ExpireAfterSeconds == nil || *idx.Options.ExpireAfterSeconds != 0 {
				t.Errorf("%s: expires_at index must expire at the stored instant", name)
			}
			found = true
		}
		if !found {
			t.Errorf("%s: missing TTL index on expires_at", name)
		}
		if def.Validator == nil {
			t.Errorf("%s: missing schema validator", name)
		}
	}
}

func TestCollections_Names(t *testing.T) {
	defs := Collections()
	for _, name := range []string{
		repository.FacilityCountersCollection,
		repository.UserWeekCountersCollection,
		repository.BookingsCollection,
	} {
		if _, ok := defs[name]; !ok {
			t.Errorf("collection %s is not migrated", name)
		}
	}
	if len(defs) != 3 {
		t.Errorf("expected 3 collections, got %d", len(defs))
	}
}

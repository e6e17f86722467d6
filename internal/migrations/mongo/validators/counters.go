package validators

import "go.mongodb.org/mongo-driver/bson"

// Counts carry no minimum: a decrement on a drifted row must still apply so
// the drift is visible and logged.

var FacilityCounterValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "booked_count", "amenity_count", "expires_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "object",
				"required": []string{"facility_id", "date"},
				"properties": bson.M{
					"facility_id": bson.M{"bsonType": "string"},
					"date": bson.M{
						"bsonType": "string",
						"pattern":  `^\d{4}-\d{2}-\d{2}$`,
					},
				},
			},
			"booked_count":     bson.M{"bsonType": []string{"int", "long"}},
			"amenity_count":    bson.M{"bsonType": []string{"int", "long"}},
			"capacity":         bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"amenity_capacity": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"expires_at":       bson.M{"bsonType": "date"},
		},
	},
}

var UserWeekCounterValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "booked_count", "expires_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "object",
				"required": []string{"owner_email", "week_start"},
				"properties": bson.M{
					"owner_email": bson.M{"bsonType": "string"},
					"week_start": bson.M{
						"bsonType": "string",
						"pattern":  `^\d{4}-\d{2}-\d{2}$`,
					},
				},
			},
			"booked_count": bson.M{"bsonType": []string{"int", "long"}},
			"quota":        bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"expires_at":   bson.M{"bsonType": "date"},
		},
	},
}

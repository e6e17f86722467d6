package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"date",
			"facility_id",
			"amenity_requested",
			"created_by",
			"created_at",
			"expires_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "object",
				"required": []string{"owner_email", "id"},
				"properties": bson.M{
					"owner_email": bson.M{
						"bsonType":  "string",
						"maxLength": 254,
					},
					"id": bson.M{
						"bsonType": "string",
						"pattern":  `^[A-Za-z0-9-]+_\d{8}$`,
					},
				},
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"facility_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"amenity_requested": bson.M{
				"bsonType": "bool",
			},

			"justification": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"created_by": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"priest_id",
			"customer_id",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"priest_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"completed",
					"cancelled",
				},
			},

			"journey_started": bson.M{
				"bsonType": "bool",
			},

			"estimated_arrival": bson.M{
				"bsonType": "date",
			},

			"current_location": bson.M{
				"bsonType": "object",
				"required": []string{"latitude", "longitude"},
				"properties": bson.M{
					"latitude": bson.M{
						"bsonType": "double",
						"minimum":  -90,
						"maximum":  90,
					},
					"longitude": bson.M{
						"bsonType": "double",
						"minimum":  -180,
						"maximum":  180,
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

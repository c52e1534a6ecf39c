package validators

import "go.mongodb.org/mongo-driver/bson"

// LocationSampleValidator admits both the full sample document and the
// reduced fallback shape; only the shared fields are required.
var LocationSampleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"priest_id",
			"booking_id",
			"latitude",
			"longitude",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"priest_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

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

			"heading": bson.M{
				"bsonType": "double",
				"minimum":  0,
				"maximum":  360,
			},

			"speed": bson.M{
				"bsonType": "double",
				"minimum":  0,
			},

			"accuracy": bson.M{
				"bsonType": "double",
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

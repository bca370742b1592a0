package validators

import "go.mongodb.org/mongo-driver/bson"

var SeatInventoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"journey_id",
			"segment_id",
			"segment_number",
			"carriage_id",
			"total_seats",
			"occupancy",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"journey_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"segment_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"segment_number": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"carriage_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},

			"total_seats": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  200,
			},

			"occupancy": bson.M{
				"bsonType": "binData",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

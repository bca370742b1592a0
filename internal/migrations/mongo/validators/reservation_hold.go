package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationHoldValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"status",
			"seats",
			"expires_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"processing",
					"committed",
					"cancelled",
					"expired",
				},
			},

			"seats": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{
						"journey_id",
						"start_segment",
						"end_segment",
						"carriage_id",
						"seat_index",
					},
					"properties": bson.M{
						"journey_id": bson.M{
							"bsonType":  "string",
							"minLength": 24,
							"maxLength": 24,
						},
						"start_segment": bson.M{
							"bsonType": "int",
							"minimum":  1,
						},
						"end_segment": bson.M{
							"bsonType": "int",
							"minimum":  1,
						},
						"carriage_id": bson.M{
							"bsonType":  "string",
							"minLength": 1,
							"maxLength": 20,
						},
						"seat_index": bson.M{
							"bsonType": "int",
							"minimum":  0,
							"maximum":  199,
						},
						"passenger_name": bson.M{
							"bsonType":  "string",
							"minLength": 2,
							"maxLength": 100,
						},
						"price": bson.M{
							"bsonType": "long",
							"minimum":  0,
						},
					},
				},
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

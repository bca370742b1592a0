package validators

import "go.mongodb.org/mongo-driver/bson"

var TicketValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"hold_id",
			"customer_id",
			"journey_id",
			"start_segment",
			"end_segment",
			"carriage_id",
			"seat_index",
			"price",
			"departure_time",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"hold_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

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
				"bsonType": "string",
			},

			"price": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"departure_time": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"payed",
					"cancelled",
					"expired",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

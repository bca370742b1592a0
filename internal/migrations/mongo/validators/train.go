package validators

import "go.mongodb.org/mongo-driver/bson"

var TrainValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"type",
			"carriages",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"type": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"carriages": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"maxItems": 30,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"carriage_id", "total_seats", "price_multiplier"},
					"properties": bson.M{
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
						"price_multiplier": bson.M{
							"bsonType": []string{"double", "int"},
							"minimum":  0,
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

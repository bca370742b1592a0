package validators

import "go.mongodb.org/mongo-driver/bson"

var ConcreteJourneyValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"template_id",
			"train_id",
			"departure_date",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"template_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"train_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"departure_date": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var ConcreteSegmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"journey_id",
			"segment_number",
			"from_stop",
			"to_stop",
			"departure_time",
			"arrival_time",
			"segment_cost",
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

			"segment_number": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"from_stop": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"to_stop": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"departure_time": bson.M{
				"bsonType": "date",
			},

			"arrival_time": bson.M{
				"bsonType": "date",
			},

			"segment_cost": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},
		},
	},
}

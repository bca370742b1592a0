package validators

import "go.mongodb.org/mongo-driver/bson"

var ScheduleTemplateValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"train_id",
			"segments",
			"active_days",
			"is_active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"train_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"segments": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{
						"segment_number",
						"from_stop",
						"to_stop",
						"departure_offset_min",
						"arrival_offset_min",
						"segment_cost",
					},
					"properties": bson.M{
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
						"departure_offset_min": bson.M{
							"bsonType": "int",
							"minimum":  0,
							"maximum":  2880,
						},
						"arrival_offset_min": bson.M{
							"bsonType": "int",
							"minimum":  1,
							"maximum":  2880,
						},
						"segment_cost": bson.M{
							"bsonType": "long",
							"minimum":  1,
						},
					},
				},
			},

			"active_days": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"maxItems": 7,
				"items": bson.M{
					"bsonType": "string",
					"enum": []string{
						"Sunday",
						"Monday",
						"Tuesday",
						"Wednesday",
						"Thursday",
						"Friday",
						"Saturday",
					},
				},
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

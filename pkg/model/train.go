package model

import "time"

// Carriage describes one car of a train type: how many seats it carries and
// the price multiplier applied to fares for seats in it.
type Carriage struct {
	ID              string  `json:"id" bson:"carriage_id" validate:"required,min=1,max=20"`
	TotalSeats      int     `json:"total_seats" bson:"total_seats" validate:"required,min=1,max=200"`
	PriceMultiplier float64 `json:"price_multiplier" bson:"price_multiplier" validate:"required,gt=0"`
}

type Train struct {
	ID        string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string     `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Type      string     `json:"type" bson:"type" validate:"required,min=2,max=50"`
	Carriages []Carriage `json:"carriages" bson:"carriages" validate:"required,min=1,max=30,dive"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (t *Train) Carriage(carriageID string) *Carriage {
	for i := range t.Carriages {
		if t.Carriages[i].ID == carriageID {
			return &t.Carriages[i]
		}
	}
	return nil
}

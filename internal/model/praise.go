package model

import "time"

// Praise is an immutable commendation from one user to another.
type Praise struct {
	ID            int64     `json:"id"`
	Giver         User      `json:"giver"`
	Receiver      User      `json:"receiver"`
	CoreValue     CoreValue `json:"core_value"`
	Message       string    `json:"message"`
	PointsAwarded int       `json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}

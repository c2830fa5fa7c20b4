// Package model defines the data structures shared by the backend and the
// web client. The JSON tags are the wire format of the REST API.
package model

import "time"

// User is a registered employee.
//
// PointsBalance is owned by the backend: it only changes when praise is
// given or a reward is redeemed, never by a client computing a new value.
type User struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	PointsBalance int       `json:"points_balance"`
	IsAdmin       bool      `json:"is_admin"`
	SlackID       string    `json:"slack_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	// PasswordHash never leaves the backend.
	PasswordHash string `json:"-"`
}

// FullName joins first and last name the way every page displays it.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

package model

import "time"

// Reward is something users can spend points on.
type Reward struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost"`
	IsActive    bool   `json:"is_active"`
}

// RedemptionStatus is the fulfillment state of a Redemption.
// The only transition is pending → fulfilled.
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionFulfilled RedemptionStatus = "fulfilled"
)

// Redemption records a user spending points on a Reward.
type Redemption struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id"`
	Reward      Reward           `json:"reward"`
	PointsSpent int              `json:"points_spent"`
	Status      RedemptionStatus `json:"status"`
	RedeemedAt  time.Time        `json:"redeemed_at"`
}

// Pending reports whether the redemption still awaits fulfillment.
func (r Redemption) Pending() bool {
	return r.Status == RedemptionPending
}

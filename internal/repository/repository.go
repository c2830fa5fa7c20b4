// Package repository declares the persistence interfaces the services depend
// on. internal/repository/sqlite provides the only production implementation;
// service tests use in-memory fakes.
package repository

import (
	"context"

	"github.com/apexkudos/kudos/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// PraiseFilter narrows ListPraise. A zero ReceiverID lists everyone's praise.
type PraiseFilter struct {
	ReceiverID int64
	ListOptions
}

// RedemptionFilter narrows ListRedemptions. A zero UserID lists all users.
type RedemptionFilter struct {
	UserID int64
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserBySlackID(ctx context.Context, slackID string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// SetAdmin reports whether a user with that email exists.
	SetAdmin(ctx context.Context, email string, admin bool) (bool, error)
}

type CoreValueRepository interface {
	CreateCoreValue(ctx context.Context, cv *model.CoreValue) error
	GetCoreValue(ctx context.Context, id int64) (*model.CoreValue, error)
	FindCoreValueByName(ctx context.Context, fragment string) (*model.CoreValue, error)
	ListCoreValues(ctx context.Context) ([]model.CoreValue, error)
	ArchiveCoreValue(ctx context.Context, id int64) error
}

// NewPraise is the input of PraiseRepository.CreatePraise.
type NewPraise struct {
	GiverID       int64
	ReceiverID    int64
	CoreValueID   int64
	Message       string
	PointsAwarded int
	GiverBonus    int
}

type PraiseRepository interface {
	// CreatePraise stores the praise and credits both balances atomically.
	CreatePraise(ctx context.Context, p NewPraise) (*model.Praise, error)
	ListPraise(ctx context.Context, filter PraiseFilter) ([]model.Praise, error)
}

type RewardRepository interface {
	CreateReward(ctx context.Context, reward *model.Reward) error
	GetReward(ctx context.Context, id int64) (*model.Reward, error)
	ListActiveRewards(ctx context.Context) ([]model.Reward, error)
	ArchiveReward(ctx context.Context, id int64) error
}

type RedemptionRepository interface {
	// Redeem checks the balance, debits it, and inserts a pending
	// redemption in one transaction.
	Redeem(ctx context.Context, userID, rewardID int64) (*model.Redemption, error)
	GetRedemption(ctx context.Context, id int64) (*model.Redemption, error)
	ListRedemptions(ctx context.Context, filter RedemptionFilter) ([]model.Redemption, error)
	// FulfillRedemption moves a pending redemption to fulfilled.
	FulfillRedemption(ctx context.Context, id int64) error
}

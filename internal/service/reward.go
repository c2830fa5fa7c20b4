package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/model"
	"github.com/apexkudos/kudos/internal/repository"
)

// RewardInput is the payload of POST /admin/rewards.
type RewardInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost"`
}

// RewardService manages the reward catalog and the redemption lifecycle.
//
// REDEMPTION LIFECYCLE:
//
//	Redeem  → pending   (balance debited in the same transaction)
//	Fulfill → fulfilled (admin only, terminal)
//
// A fulfilled redemption never goes back to pending; a second Fulfill is a
// conflict.
type RewardService struct {
	rewards     repository.RewardRepository
	redemptions repository.RedemptionRepository
	logger      *slog.Logger
}

func NewRewardService(
	rewards repository.RewardRepository,
	redemptions repository.RedemptionRepository,
	logger *slog.Logger,
) *RewardService {
	return &RewardService{
		rewards:     rewards,
		redemptions: redemptions,
		logger:      logger,
	}
}

// Create validates and stores a new reward.
func (s *RewardService) Create(ctx context.Context, in RewardInput) (*model.Reward, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Reward name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("Reward name must be %d characters or less", MaxNameLength))
	}
	if in.PointCost <= 0 {
		return nil, apperror.ValidationFailed("point_cost", "Point cost must be a positive number")
	}

	reward := &model.Reward{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		PointCost:   in.PointCost,
	}
	if err := s.rewards.CreateReward(ctx, reward); err != nil {
		return nil, fmt.Errorf("service/reward: creating %q: %w", name, err)
	}

	s.logger.Info("reward created",
		slog.Int64("id", reward.ID),
		slog.String("name", reward.Name),
		slog.Int("pointCost", reward.PointCost),
	)
	return reward, nil
}

// List returns the active rewards.
func (s *RewardService) List(ctx context.Context) ([]model.Reward, error) {
	list, err := s.rewards.ListActiveRewards(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/reward: listing: %w", err)
	}
	return list, nil
}

// Delete archives a reward; existing redemptions of it are untouched.
func (s *RewardService) Delete(ctx context.Context, id int64) error {
	if err := s.rewards.ArchiveReward(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Wrap(apperror.ErrNotFound, "Reward not found")
		}
		return fmt.Errorf("service/reward: deleting %d: %w", id, err)
	}
	s.logger.Info("reward deleted", slog.Int64("id", id))
	return nil
}

// Redeem spends userID's points on an active reward. The balance check and
// the debit happen atomically in the repository.
func (s *RewardService) Redeem(ctx context.Context, userID, rewardID int64) (*model.Redemption, error) {
	r, err := s.redemptions.Redeem(ctx, userID, rewardID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "Reward not found")
		}
		return nil, fmt.Errorf("service/reward: redeeming %d for user %d: %w", rewardID, userID, err)
	}

	s.logger.Info("reward redeemed",
		slog.Int64("redemptionID", r.ID),
		slog.Int64("userID", userID),
		slog.Int64("rewardID", rewardID),
		slog.Int("pointsSpent", r.PointsSpent),
	)
	return r, nil
}

// MyRedemptions returns userID's redemptions, newest first.
func (s *RewardService) MyRedemptions(ctx context.Context, userID int64) ([]model.Redemption, error) {
	list, err := s.redemptions.ListRedemptions(ctx, repository.RedemptionFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("service/reward: listing redemptions for user %d: %w", userID, err)
	}
	return list, nil
}

// AllRedemptions returns every redemption, newest first.
func (s *RewardService) AllRedemptions(ctx context.Context) ([]model.Redemption, error) {
	list, err := s.redemptions.ListRedemptions(ctx, repository.RedemptionFilter{})
	if err != nil {
		return nil, fmt.Errorf("service/reward: listing redemptions: %w", err)
	}
	return list, nil
}

// Fulfill marks a pending redemption fulfilled.
func (s *RewardService) Fulfill(ctx context.Context, id int64) error {
	err := s.redemptions.FulfillRedemption(ctx, id)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return apperror.Wrap(apperror.ErrNotFound, "Redemption not found")
	case errors.Is(err, apperror.ErrConflict):
		return apperror.Wrap(apperror.ErrConflict, "Redemption already fulfilled")
	case err != nil:
		return fmt.Errorf("service/reward: fulfilling %d: %w", id, err)
	}

	s.logger.Info("redemption fulfilled", slog.Int64("redemptionID", id))
	return nil
}

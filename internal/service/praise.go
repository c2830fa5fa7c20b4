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

// Point rules for praise.
const (
	PointsPerPraise   = 10 // credited to the receiver
	GiverBonusPoints  = 5  // credited to the giver
	MaxMessageLength  = 1000
	MaxListLimit      = 500
	SlackRecentPraise = 5
)

// GivePraiseInput is the payload of POST /praise.
type GivePraiseInput struct {
	ReceiverID  int64  `json:"receiver_id"`
	CoreValueID int64  `json:"core_value_id"`
	Message     string `json:"message"`
}

// PraiseNotifier hears about praise after it is committed. It cannot fail
// the praise; delivery errors are its own to log.
type PraiseNotifier interface {
	PraiseGiven(ctx context.Context, p *model.Praise)
}

// PraiseService enforces the praise rules: no self-praise, receiver and core
// value must exist, fixed point awards.
type PraiseService struct {
	users      repository.UserRepository
	coreValues repository.CoreValueRepository
	praise     repository.PraiseRepository
	notifier   PraiseNotifier
	logger     *slog.Logger
}

func NewPraiseService(
	users repository.UserRepository,
	coreValues repository.CoreValueRepository,
	praise repository.PraiseRepository,
	logger *slog.Logger,
) *PraiseService {
	return &PraiseService{
		users:      users,
		coreValues: coreValues,
		praise:     praise,
		logger:     logger,
	}
}

// SetNotifier tells n about every praise whose receiver has a linked Slack
// account. Call it before serving requests.
func (s *PraiseService) SetNotifier(n PraiseNotifier) {
	s.notifier = n
}

// Give records praise from giverID and credits both balances.
func (s *PraiseService) Give(ctx context.Context, giverID int64, in GivePraiseInput) (*model.Praise, error) {
	message := strings.TrimSpace(in.Message)

	if in.ReceiverID == giverID {
		return nil, apperror.ValidationFailed("receiver_id", "You cannot praise yourself")
	}
	if message == "" {
		return nil, apperror.ValidationFailed("message", "Message is required")
	}
	if len(message) > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("Message must be %d characters or less", MaxMessageLength))
	}

	if _, err := s.users.GetUserByID(ctx, in.ReceiverID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "Receiver not found")
		}
		return nil, fmt.Errorf("service/praise: looking up receiver: %w", err)
	}
	if _, err := s.coreValues.GetCoreValue(ctx, in.CoreValueID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "Core value not found")
		}
		return nil, fmt.Errorf("service/praise: looking up core value: %w", err)
	}

	p, err := s.praise.CreatePraise(ctx, repository.NewPraise{
		GiverID:       giverID,
		ReceiverID:    in.ReceiverID,
		CoreValueID:   in.CoreValueID,
		Message:       message,
		PointsAwarded: PointsPerPraise,
		GiverBonus:    GiverBonusPoints,
	})
	if err != nil {
		s.logger.Error("failed to create praise",
			slog.Int64("giverID", giverID),
			slog.Int64("receiverID", in.ReceiverID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/praise: creating praise: %w", err)
	}

	s.logger.Info("praise given",
		slog.Int64("praiseID", p.ID),
		slog.Int64("giverID", giverID),
		slog.Int64("receiverID", in.ReceiverID),
		slog.String("coreValue", p.CoreValue.Name),
	)

	if s.notifier != nil && p.Receiver.SlackID != "" {
		s.notifier.PraiseGiven(ctx, p)
	}
	return p, nil
}

// List returns everyone's praise, newest first. limit <= 0 returns all of it.
func (s *PraiseService) List(ctx context.Context, limit int) ([]model.Praise, error) {
	list, err := s.praise.ListPraise(ctx, repository.PraiseFilter{
		ListOptions: repository.ListOptions{Limit: clampLimit(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("service/praise: listing praise: %w", err)
	}
	return list, nil
}

// Received returns the praise userID has received, newest first. limit <= 0
// returns all of it.
func (s *PraiseService) Received(ctx context.Context, userID int64, limit int) ([]model.Praise, error) {
	list, err := s.praise.ListPraise(ctx, repository.PraiseFilter{
		ReceiverID:  userID,
		ListOptions: repository.ListOptions{Limit: clampLimit(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("service/praise: listing praise for user %d: %w", userID, err)
	}
	return list, nil
}

// clampLimit caps an explicit limit. Zero or negative means no limit.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 0
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

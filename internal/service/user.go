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

// UserService serves the user directory and Slack identity lookups.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// List returns every user ordered by ID.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing: %w", err)
	}
	return users, nil
}

// BySlackID resolves a Slack member ID to a registered user.
func (s *UserService) BySlackID(ctx context.Context, slackID string) (*model.User, error) {
	slackID = strings.TrimSpace(slackID)
	if slackID == "" {
		return nil, apperror.ValidationFailed("slack_id", "Slack user is required")
	}

	u, err := s.repo.GetUserBySlackID(ctx, slackID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "No Apex Kudos account is linked to this Slack user")
		}
		return nil, fmt.Errorf("service/user: looking up slack id %s: %w", slackID, err)
	}
	return u, nil
}

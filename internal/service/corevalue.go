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

// CoreValueService manages the core values praise is tagged with.
type CoreValueService struct {
	repo   repository.CoreValueRepository
	logger *slog.Logger
}

func NewCoreValueService(repo repository.CoreValueRepository, logger *slog.Logger) *CoreValueService {
	return &CoreValueService{repo: repo, logger: logger}
}

// Create validates and stores a new core value.
func (s *CoreValueService) Create(ctx context.Context, name, description string) (*model.CoreValue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Core value name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("Core value name must be %d characters or less", MaxNameLength))
	}

	cv := &model.CoreValue{Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.CreateCoreValue(ctx, cv); err != nil {
		return nil, fmt.Errorf("service/corevalue: creating %q: %w", name, err)
	}

	s.logger.Info("core value created", slog.Int64("id", cv.ID), slog.String("name", cv.Name))
	return cv, nil
}

// List returns the active core values in creation order.
func (s *CoreValueService) List(ctx context.Context) ([]model.CoreValue, error) {
	list, err := s.repo.ListCoreValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/corevalue: listing: %w", err)
	}
	return list, nil
}

// Delete archives a core value. Praise already tagged with it keeps rendering.
func (s *CoreValueService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.ArchiveCoreValue(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Wrap(apperror.ErrNotFound, "Core value not found")
		}
		return fmt.Errorf("service/corevalue: deleting %d: %w", id, err)
	}
	s.logger.Info("core value deleted", slog.Int64("id", id))
	return nil
}

// FindByName resolves a hashtag like "#AboveAndBeyond" to a core value.
func (s *CoreValueService) FindByName(ctx context.Context, tag string) (*model.CoreValue, error) {
	tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if tag == "" {
		return nil, apperror.ValidationFailed("core_value", "Core value is required")
	}
	cv, err := s.repo.FindCoreValueByName(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("service/corevalue: finding %q: %w", tag, err)
	}
	return cv, nil
}

package service

import (
	"context"
	"strings"

	"resbook/internal/database"
	"resbook/internal/domain"
	"resbook/internal/models"

	"github.com/rs/zerolog"
)

type ResourceService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewResourceService(repo domain.Repository, logger *zerolog.Logger) *ResourceService {
	return &ResourceService{repo: repo, logger: logger}
}

func validateResource(resource *models.Resource) error {
	resource.Name = strings.TrimSpace(resource.Name)
	if resource.Name == "" {
		return database.NewValidationError("resource name is required")
	}
	if !models.ValidResourceType(resource.Type) {
		return database.NewValidationError("unknown resource type %q", resource.Type)
	}
	if resource.Capacity < 0 {
		return database.NewValidationError("capacity cannot be negative")
	}
	return nil
}

// ListActive returns bookable resources of the given type in catalog
// order.
func (s *ResourceService) ListActive(ctx context.Context, resourceType string) ([]models.Resource, error) {
	if !models.ValidResourceType(resourceType) {
		return nil, database.NewValidationError("unknown resource type %q", resourceType)
	}
	return s.repo.GetActiveResources(ctx, resourceType)
}

func (s *ResourceService) Get(ctx context.Context, id int64) (*models.Resource, error) {
	return s.repo.GetResource(ctx, id)
}

func (s *ResourceService) Create(ctx context.Context, resource *models.Resource) error {
	if err := validateResource(resource); err != nil {
		return err
	}
	resource.IsActive = true
	if err := s.repo.CreateResource(ctx, resource); err != nil {
		return err
	}
	s.logger.Info().Int64("resource_id", resource.ID).Str("type", resource.Type).Msg("resource created")
	return nil
}

func (s *ResourceService) Update(ctx context.Context, resource *models.Resource) error {
	if err := validateResource(resource); err != nil {
		return err
	}
	return s.repo.UpdateResource(ctx, resource)
}

// Deactivate retires a resource from the catalog. Resources with
// active bookings cannot be retired until those are resolved.
func (s *ResourceService) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateResource(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("resource_id", id).Msg("resource deactivated")
	return nil
}

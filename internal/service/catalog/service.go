package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/repository"
	apperrors "github.com/physiotrack/clinic-api/pkg/errors"
)

const (
	activeServicesKey = "services:active"
	cacheTTL          = 5 * time.Minute
)

var ErrNotFound = apperrors.NotFound("service", nil)

// Service manages the treatment catalog. The public listing is cached since
// it backs every visit to the booking page; any mutation invalidates it.
type Service struct {
	repo   repository.ServiceRepository
	cache  *cache.Cache
	logger *zerolog.Logger
}

func NewService(repo repository.ServiceRepository, logger *zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache.New(cacheTTL, 10*time.Minute),
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	svc := &model.Service{
		Title:       req.Title,
		Description: req.Description,
		Benefits:    req.Benefits,
		Duration:    req.Duration,
		Price:       req.Price,
		Category:    req.Category,
		Active:      true,
		ShowPrice:   true,
	}
	if req.ShowPrice != nil {
		svc.ShowPrice = *req.ShowPrice
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.cache.Delete(activeServicesKey)
	return svc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	if req.Title != nil {
		svc.Title = *req.Title
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Benefits != nil {
		svc.Benefits = req.Benefits
	}
	if req.Duration != nil {
		svc.Duration = *req.Duration
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.Category != nil {
		svc.Category = *req.Category
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if req.ShowPrice != nil {
		svc.ShowPrice = *req.ShowPrice
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	s.cache.Delete(activeServicesKey)
	return svc, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete service: %w", err)
	}
	s.cache.Delete(activeServicesKey)
	return nil
}

// List returns every service including inactive ones, for the admin panel.
func (s *Service) List(ctx context.Context) ([]*model.Service, error) {
	services, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

// ListActive returns the bookable services, served from cache when warm.
func (s *Service) ListActive(ctx context.Context) ([]*model.Service, error) {
	if cached, found := s.cache.Get(activeServicesKey); found {
		return cached.([]*model.Service), nil
	}

	services, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active services: %w", err)
	}

	s.cache.Set(activeServicesKey, services, cache.DefaultExpiration)
	return services, nil
}

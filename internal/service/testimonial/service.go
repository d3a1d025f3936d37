package testimonial

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/repository"
	apperrors "github.com/physiotrack/clinic-api/pkg/errors"
)

var ErrNotFound = apperrors.NotFound("testimonial", nil)

// Service handles patient testimonials. Submissions start unapproved and only
// show publicly after moderation.
type Service struct {
	repo repository.TestimonialRepository
}

func NewService(repo repository.TestimonialRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Submit(ctx context.Context, req *model.CreateTestimonialRequest) (*model.Testimonial, error) {
	testimonial := &model.Testimonial{
		AuthorName: req.AuthorName,
		Content:    req.Content,
		Rating:     req.Rating,
	}
	if err := s.repo.Create(ctx, testimonial); err != nil {
		return nil, fmt.Errorf("failed to create testimonial: %w", err)
	}
	return testimonial, nil
}

func (s *Service) Moderate(ctx context.Context, id uuid.UUID, req *model.ModerateTestimonialRequest) (*model.Testimonial, error) {
	testimonial, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get testimonial: %w", err)
	}

	if req.Approved != nil {
		testimonial.Approved = *req.Approved
	}
	if req.Featured != nil {
		testimonial.Featured = *req.Featured
	}

	if err := s.repo.Update(ctx, testimonial); err != nil {
		return nil, fmt.Errorf("failed to update testimonial: %w", err)
	}
	return testimonial, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Testimonial, error) {
	testimonials, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return testimonials, nil
}

func (s *Service) ListApproved(ctx context.Context) ([]*model.Testimonial, error) {
	testimonials, err := s.repo.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved testimonials: %w", err)
	}
	return testimonials, nil
}

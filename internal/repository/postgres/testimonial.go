package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/repository"
)

const testimonialColumns = `
	id, author_name, content, rating, approved, featured, created_at, updated_at
`

func (r *testimonialRepository) Create(ctx context.Context, testimonial *model.Testimonial) error {
	query := `
		INSERT INTO testimonials (
			id, author_name, content, rating, approved, featured, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	testimonial.ID = uuid.New()
	testimonial.CreatedAt = time.Now()
	testimonial.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		testimonial.ID,
		testimonial.AuthorName,
		testimonial.Content,
		testimonial.Rating,
		testimonial.Approved,
		testimonial.Featured,
		testimonial.CreatedAt,
		testimonial.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create testimonial: %w", err)
	}
	return nil
}

func (r *testimonialRepository) Get(ctx context.Context, id uuid.UUID) (*model.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials WHERE id = $1`

	var testimonial model.Testimonial
	if err := r.db.GetContext(ctx, &testimonial, query, id); err != nil {
		if mapped := mapErr(err); mapped == repository.ErrNotFound {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to get testimonial: %w", err)
	}
	return &testimonial, nil
}

func (r *testimonialRepository) Update(ctx context.Context, testimonial *model.Testimonial) error {
	query := `
		UPDATE testimonials
		SET author_name = $1, content = $2, rating = $3,
		    approved = $4, featured = $5, updated_at = $6
		WHERE id = $7
	`
	testimonial.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		testimonial.AuthorName,
		testimonial.Content,
		testimonial.Rating,
		testimonial.Approved,
		testimonial.Featured,
		testimonial.UpdatedAt,
		testimonial.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update testimonial: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *testimonialRepository) List(ctx context.Context) ([]*model.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials ORDER BY created_at DESC`

	var testimonials []*model.Testimonial
	if err := r.db.SelectContext(ctx, &testimonials, query); err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return testimonials, nil
}

func (r *testimonialRepository) ListApproved(ctx context.Context) ([]*model.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + `
		FROM testimonials
		WHERE approved = true
		ORDER BY featured DESC, created_at DESC
	`
	var testimonials []*model.Testimonial
	if err := r.db.SelectContext(ctx, &testimonials, query); err != nil {
		return nil, fmt.Errorf("failed to list approved testimonials: %w", err)
	}
	return testimonials, nil
}

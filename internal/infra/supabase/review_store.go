package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boddenberg/streampool-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ReviewStore implementation — reviews table via PostgREST
// ============================================================

func (c *Client) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateReview")
	defer span.End()
	span.SetAttributes(attribute.String("group.id", review.GroupID))

	row := map[string]any{
		"id":       uuid.New().String(),
		"group_id": review.GroupID,
		"rater_id": review.RaterID,
		"rating":   review.Rating,
		"comment":  review.Comment,
	}

	body, err := c.doPost(ctx, "reviews", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/reviews", Err: err}
	}

	var results []domain.Review
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode review: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from reviews insert")
	}
	return &results[0], nil
}

func (c *Client) ListGroupReviews(ctx context.Context, groupID string) ([]domain.Review, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListGroupReviews")
	defer span.End()

	path := fmt.Sprintf("reviews?group_id=eq.%s&order=created_at.desc", groupID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/reviews", Err: err}
	}
	if body == nil {
		return []domain.Review{}, nil
	}

	var rows []domain.Review
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return rows, nil
}

// GetReview fetches the single review a rater left on a group, used for
// the one-review-per-member check.
func (c *Client) GetReview(ctx context.Context, groupID, raterID string) (*domain.Review, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetReview")
	defer span.End()

	path := fmt.Sprintf("reviews?group_id=eq.%s&rater_id=eq.%s&limit=1", groupID, raterID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/reviews", Err: err}
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "review", ID: groupID}
	}

	var rows []domain.Review
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode review: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "review", ID: groupID}
	}
	return &rows[0], nil
}

package service

import (
	"context"
	"errors"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var reviewTracer = otel.Tracer("service/review")

// ReviewService handles host reviews. A review is only accepted from
// someone who paid for the group and is not its host, once per group.
type ReviewService struct {
	reviews port.ReviewStore
	groups  port.GroupStore
	ledger  port.LedgerStore
	logger  *zap.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reviews port.ReviewStore, groups port.GroupStore, ledger port.LedgerStore, logger *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, groups: groups, ledger: ledger, logger: logger}
}

func (s *ReviewService) CreateReview(ctx context.Context, raterID, groupID string, req *domain.CreateReviewRequest) (*domain.Review, error) {
	ctx, span := reviewTracer.Start(ctx, "ReviewService.CreateReview")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", raterID),
		attribute.String("group.id", groupID),
	)

	if req.Rating < 1 || req.Rating > 5 {
		return nil, &domain.ErrValidation{Field: "rating", Message: "A nota deve ser entre 1 e 5"}
	}

	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.HostID == raterID {
		return nil, &domain.ErrForbidden{Action: "avaliar o próprio grupo"}
	}

	// Eligibility: at least one payment entry tied to this group.
	entries, err := s.ledger.ListGroupEntries(ctx, raterID, groupID)
	if err != nil {
		return nil, err
	}
	paid := false
	for _, e := range entries {
		if e.Category == domain.CategoryPayment {
			paid = true
			break
		}
	}
	if !paid {
		return nil, &domain.ErrForbidden{Action: "avaliar um grupo sem ter pago por ele"}
	}

	// One review per (rater, group).
	existing, err := s.reviews.GetReview(ctx, groupID, raterID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	if existing != nil {
		return nil, &domain.ErrDuplicate{Key: "review"}
	}

	review, err := s.reviews.CreateReview(ctx, &domain.Review{
		GroupID: groupID,
		RaterID: raterID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review created",
		zap.String("group_id", groupID),
		zap.String("rater_id", raterID),
		zap.Int("rating", req.Rating),
	)
	return review, nil
}

func (s *ReviewService) ListGroupReviews(ctx context.Context, groupID string) ([]domain.Review, error) {
	ctx, span := reviewTracer.Start(ctx, "ReviewService.ListGroupReviews")
	defer span.End()

	return s.reviews.ListGroupReviews(ctx, groupID)
}

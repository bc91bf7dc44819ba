package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockReviewStore struct {
	existing *domain.Review
	created  *domain.Review
	reviews  []domain.Review
}

func (m *mockReviewStore) CreateReview(_ context.Context, r *domain.Review) (*domain.Review, error) {
	saved := *r
	saved.ID = "rev-1"
	m.created = &saved
	return &saved, nil
}

func (m *mockReviewStore) ListGroupReviews(_ context.Context, _ string) ([]domain.Review, error) {
	return m.reviews, nil
}

func (m *mockReviewStore) GetReview(_ context.Context, groupID, raterID string) (*domain.Review, error) {
	if m.existing == nil {
		return nil, &domain.ErrNotFound{Resource: "review", ID: groupID + "/" + raterID}
	}
	return m.existing, nil
}

func newReviewService(reviews *mockReviewStore, groups *mockGroupStore, ledger *mockLedgerStore) *service.ReviewService {
	return service.NewReviewService(reviews, groups, ledger, zap.NewNop())
}

func paidEntries() []domain.Transaction {
	return []domain.Transaction{
		{ID: "tx-1", Category: domain.CategoryPayment, Amount: -15.90},
	}
}

// --- Tests ---

func TestCreateReview_Success(t *testing.T) {
	reviews := &mockReviewStore{}
	groups := &mockGroupStore{group: testGroup()}
	ledger := &mockLedgerStore{entries: paidEntries()}

	svc := newReviewService(reviews, groups, ledger)

	review, err := svc.CreateReview(context.Background(), "user-2", "grp-1", &domain.CreateReviewRequest{
		Rating:  5,
		Comment: "Anfitrião sempre paga em dia",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if review.Rating != 5 {
		t.Errorf("expected rating 5, got %d", review.Rating)
	}
	if reviews.created == nil || reviews.created.RaterID != "user-2" {
		t.Error("expected review persisted with rater id")
	}
}

func TestCreateReview_InvalidRating(t *testing.T) {
	svc := newReviewService(&mockReviewStore{}, &mockGroupStore{group: testGroup()}, &mockLedgerStore{})

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(context.Background(), "user-2", "grp-1", &domain.CreateReviewRequest{Rating: rating})

		var validationErr *domain.ErrValidation
		if !errors.As(err, &validationErr) {
			t.Errorf("rating %d: expected ErrValidation, got %v", rating, err)
		}
	}
}

func TestCreateReview_HostCannotReviewOwnGroup(t *testing.T) {
	svc := newReviewService(&mockReviewStore{}, &mockGroupStore{group: testGroup()}, &mockLedgerStore{entries: paidEntries()})

	_, err := svc.CreateReview(context.Background(), "host-1", "grp-1", &domain.CreateReviewRequest{Rating: 5})

	var forbiddenErr *domain.ErrForbidden
	if !errors.As(err, &forbiddenErr) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateReview_RequiresPayment(t *testing.T) {
	// Only a cashback entry: a compensated join does not qualify.
	ledger := &mockLedgerStore{entries: []domain.Transaction{
		{ID: "tx-1", Category: domain.CategoryCashback, Amount: 15.90},
	}}
	svc := newReviewService(&mockReviewStore{}, &mockGroupStore{group: testGroup()}, ledger)

	_, err := svc.CreateReview(context.Background(), "user-2", "grp-1", &domain.CreateReviewRequest{Rating: 4})

	var forbiddenErr *domain.ErrForbidden
	if !errors.As(err, &forbiddenErr) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateReview_Duplicate(t *testing.T) {
	reviews := &mockReviewStore{existing: &domain.Review{ID: "rev-0", GroupID: "grp-1", RaterID: "user-2"}}
	svc := newReviewService(reviews, &mockGroupStore{group: testGroup()}, &mockLedgerStore{entries: paidEntries()})

	_, err := svc.CreateReview(context.Background(), "user-2", "grp-1", &domain.CreateReviewRequest{Rating: 3})

	var duplicateErr *domain.ErrDuplicate
	if !errors.As(err, &duplicateErr) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/observability"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockGroupStore struct {
	group        *domain.Group
	getErr       error
	appendErr    error
	appendCalls  int
	removedUsers []string
}

func (m *mockGroupStore) GetGroup(_ context.Context, _ string) (*domain.Group, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	copy := *m.group
	return &copy, nil
}

func (m *mockGroupStore) ListGroups(_ context.Context, _ string, _, _ int) ([]domain.Group, error) {
	return []domain.Group{*m.group}, nil
}

func (m *mockGroupStore) CreateGroup(_ context.Context, g *domain.Group) (*domain.Group, error) {
	return g, nil
}

func (m *mockGroupStore) AppendMember(_ context.Context, _ string, _ int, member domain.GroupMember) error {
	m.appendCalls++
	if m.appendErr != nil {
		return m.appendErr
	}
	m.group.Roster = append(m.group.Roster, member)
	m.group.Members++
	return nil
}

func (m *mockGroupStore) RemoveMember(_ context.Context, _, userID string) error {
	m.removedUsers = append(m.removedUsers, userID)
	return nil
}

func (m *mockGroupStore) ListMessages(_ context.Context, _ string, _, _ int) ([]domain.ChatMessage, error) {
	return nil, nil
}

type mockProfileStore struct {
	profile      *domain.Profile
	balanceErr   error
	balanceDelta float64
	balanceCalls int
}

func (m *mockProfileStore) GetProfile(_ context.Context, _ string) (*domain.Profile, error) {
	copy := *m.profile
	return &copy, nil
}

func (m *mockProfileStore) CreateProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	return p, nil
}

func (m *mockProfileStore) UpdateProfile(_ context.Context, _ string, _ map[string]any) (*domain.Profile, error) {
	return m.profile, nil
}

func (m *mockProfileStore) UpdateBalance(_ context.Context, _ string, delta float64) (*domain.Profile, error) {
	m.balanceCalls++
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	m.balanceDelta += delta
	updated := *m.profile
	updated.Balance += m.balanceDelta
	return &updated, nil
}

type mockLedgerStore struct {
	entries   []domain.Transaction
	insertErr error
}

func (m *mockLedgerStore) InsertEntry(_ context.Context, e *domain.Transaction) (*domain.Transaction, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	saved := *e
	if saved.ID == "" {
		saved.ID = "tx-" + time.Now().Format("150405.000000")
	}
	m.entries = append(m.entries, saved)
	return &saved, nil
}

func (m *mockLedgerStore) ListEntries(_ context.Context, _ string, _, _ int) ([]domain.Transaction, error) {
	return m.entries, nil
}

func (m *mockLedgerStore) ListGroupEntries(_ context.Context, _, _ string) ([]domain.Transaction, error) {
	return m.entries, nil
}

type mockNotifier struct {
	notified chan string
}

func (m *mockNotifier) Notify(_ context.Context, userID, _, _ string) error {
	if m.notified != nil {
		select {
		case m.notified <- userID:
		default:
		}
	}
	return nil
}

// --- Helpers ---

func testGroup() *domain.Group {
	return &domain.Group{
		ID:          "grp-1",
		HostID:      "host-1",
		ServiceName: "StreamFlix",
		Name:        "Família StreamFlix",
		Price:       15.90,
		MaxMembers:  4,
		Members:     3,
		Roster: []domain.GroupMember{
			{UserID: "host-1", Role: domain.RoleHost},
			{UserID: "user-2", Role: domain.RoleMember},
			{UserID: "user-3", Role: domain.RoleMember},
		},
		Status: domain.GroupStatusActive,
	}
}

func newMembershipService(groups *mockGroupStore, profiles *mockProfileStore, ledger *mockLedgerStore, notifier *mockNotifier) *service.MembershipService {
	return service.NewMembershipService(groups, profiles, ledger, notifier, observability.NewMetrics(), zap.NewNop())
}

// --- Tests ---

func TestJoinGroup_Success(t *testing.T) {
	groups := &mockGroupStore{group: testGroup()}
	profiles := &mockProfileStore{profile: &domain.Profile{UserID: "user-9", Name: "Ana", Balance: 100}}
	ledger := &mockLedgerStore{}
	notifier := &mockNotifier{notified: make(chan string, 1)}

	svc := newMembershipService(groups, profiles, ledger, notifier)

	resp, err := svc.JoinGroup(context.Background(), "user-9", "grp-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.Group.Members != 4 {
		t.Errorf("expected 4 members after join, got %d", resp.Group.Members)
	}
	if !resp.Group.HasMember("user-9") {
		t.Error("expected user-9 in roster after join")
	}
	if resp.Balance != 100-15.90 {
		t.Errorf("expected balance %.2f, got %.2f", 100-15.90, resp.Balance)
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(ledger.entries))
	}
	if ledger.entries[0].Amount != -15.90 {
		t.Errorf("expected debit of -15.90, got %.2f", ledger.entries[0].Amount)
	}
	if ledger.entries[0].Category != domain.CategoryPayment {
		t.Errorf("expected payment category, got %s", ledger.entries[0].Category)
	}
	if resp.TransactionID == "" {
		t.Error("expected transaction id in response")
	}

	select {
	case hostID := <-notifier.notified:
		if hostID != "host-1" {
			t.Errorf("expected host-1 notified, got %s", hostID)
		}
	case <-time.After(time.Second):
		t.Error("expected host notification")
	}
}

func TestJoinGroup_InsufficientBalance(t *testing.T) {
	groups := &mockGroupStore{group: testGroup()}
	profiles := &mockProfileStore{profile: &domain.Profile{UserID: "user-9", Balance: 5}}
	ledger := &mockLedgerStore{}

	svc := newMembershipService(groups, profiles, ledger, &mockNotifier{})

	_, err := svc.JoinGroup(context.Background(), "user-9", "grp-1")

	var insufficientErr *domain.ErrInsufficientBalance
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if len(ledger.entries) != 0 {
		t.Errorf("rejected join must not write to the ledger, got %d entries", len(ledger.entries))
	}
	if groups.appendCalls != 0 {
		t.Errorf("rejected join must not touch the roster, got %d appends", groups.appendCalls)
	}
	if profiles.balanceCalls != 0 {
		t.Errorf("rejected join must not touch the balance, got %d updates", profiles.balanceCalls)
	}
}

func TestJoinGroup_AlreadyMember(t *testing.T) {
	groups := &mockGroupStore{group: testGroup()}
	profiles := &mockProfileStore{profile: &domain.Profile{UserID: "user-2", Balance: 100}}

	svc := newMembershipService(groups, profiles, &mockLedgerStore{}, &mockNotifier{})

	_, err := svc.JoinGroup(context.Background(), "user-2", "grp-1")

	var alreadyErr *domain.ErrAlreadyMember
	if !errors.As(err, &alreadyErr) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestJoinGroup_GroupFull(t *testing.T) {
	full := testGroup()
	full.Members = 4
	full.MaxMembers = 4
	full.Roster = append(full.Roster, domain.GroupMember{UserID: "user-4", Role: domain.RoleMember})

	groups := &mockGroupStore{group: full}
	profiles := &mockProfileStore{profile: &domain.Profile{UserID: "user-9", Balance: 100}}

	svc := newMembershipService(groups, profiles, &mockLedgerStore{}, &mockNotifier{})

	_, err := svc.JoinGroup(context.Background(), "user-9", "grp-1")

	var fullErr *domain.ErrGroupFull
	if !errors.As(err, &fullErr) {
		t.Fatalf("expected ErrGroupFull, got %v", err)
	}
}

func TestJoinGroup_RosterFailureCompensatesLedger(t *testing.T) {
	groups := &mockGroupStore{group: testGroup(), appendErr: &domain.ErrConflict{Message: "updated concurrently"}}
	profiles := &mockProfileStore{profile: &domain.Profile{UserID: "user-9", Balance: 100}}
	ledger := &mockLedgerStore{}

	svc := newMembershipService(groups, profiles, ledger, &mockNotifier{})

	_, err := svc.JoinGroup(context.Background(), "user-9", "grp-1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// Append-only ledger: the debit stays and an offsetting cashback follows.
	if len(ledger.entries) != 2 {
		t.Fatalf("expected debit + compensation entries, got %d", len(ledger.entries))
	}
	if ledger.entries[1].Category != domain.CategoryCashback {
		t.Errorf("expected cashback compensation, got %s", ledger.entries[1].Category)
	}
	if ledger.entries[1].Amount != 15.90 {
		t.Errorf("expected compensation of 15.90, got %.2f", ledger.entries[1].Amount)
	}
	if ledger.entries[1].Metadata["compensates"] != ledger.entries[0].ID {
		t.Error("compensation entry must reference the original debit")
	}
	if profiles.balanceCalls != 0 {
		t.Errorf("balance must stay untouched when the roster write fails, got %d updates", profiles.balanceCalls)
	}
}

func TestJoinGroup_BalanceFailureCompensatesRosterAndLedger(t *testing.T) {
	groups := &mockGroupStore{group: testGroup()}
	profiles := &mockProfileStore{
		profile:    &domain.Profile{UserID: "user-9", Balance: 100},
		balanceErr: errors.New("supabase unavailable"),
	}
	ledger := &mockLedgerStore{}

	svc := newMembershipService(groups, profiles, ledger, &mockNotifier{})

	_, err := svc.JoinGroup(context.Background(), "user-9", "grp-1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if len(groups.removedUsers) != 1 || groups.removedUsers[0] != "user-9" {
		t.Errorf("expected roster compensation for user-9, got %v", groups.removedUsers)
	}
	if len(ledger.entries) != 2 {
		t.Fatalf("expected debit + compensation entries, got %d", len(ledger.entries))
	}
	if ledger.entries[1].Category != domain.CategoryCashback {
		t.Errorf("expected cashback compensation, got %s", ledger.entries[1].Category)
	}
}

func TestLeaveGroup_HostCannotLeave(t *testing.T) {
	groups := &mockGroupStore{group: testGroup()}
	svc := newMembershipService(groups, &mockProfileStore{profile: &domain.Profile{}}, &mockLedgerStore{}, &mockNotifier{})

	err := svc.LeaveGroup(context.Background(), "host-1", "grp-1")

	var validationErr *domain.ErrValidation
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(groups.removedUsers) != 0 {
		t.Error("host must not be removed from the roster")
	}
}

func TestLeaveGroup_NonMember(t *testing.T) {
	groups := &mockGroupStore{group: testGroup()}
	svc := newMembershipService(groups, &mockProfileStore{profile: &domain.Profile{}}, &mockLedgerStore{}, &mockNotifier{})

	err := svc.LeaveGroup(context.Background(), "stranger", "grp-1")

	var notFoundErr *domain.ErrNotFound
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLeaveGroup_Success(t *testing.T) {
	groups := &mockGroupStore{group: testGroup()}
	ledger := &mockLedgerStore{}
	svc := newMembershipService(groups, &mockProfileStore{profile: &domain.Profile{}}, ledger, &mockNotifier{})

	if err := svc.LeaveGroup(context.Background(), "user-2", "grp-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(groups.removedUsers) != 1 || groups.removedUsers[0] != "user-2" {
		t.Errorf("expected user-2 removed, got %v", groups.removedUsers)
	}
	// No refund on leave.
	if len(ledger.entries) != 0 {
		t.Errorf("leave must not write ledger entries, got %d", len(ledger.entries))
	}
}

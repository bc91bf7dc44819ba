// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
)

// ProfileStore persists user profiles and wallet balances.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	CreateProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, updates map[string]any) (*domain.Profile, error)
	// UpdateBalance applies a signed delta to the wallet and returns the
	// updated profile.
	UpdateBalance(ctx context.Context, userID string, delta float64) (*domain.Profile, error)
}

// GroupStore persists shared-subscription groups and their chat history.
type GroupStore interface {
	GetGroup(ctx context.Context, groupID string) (*domain.Group, error)
	ListGroups(ctx context.Context, serviceName string, page, pageSize int) ([]domain.Group, error)
	CreateGroup(ctx context.Context, group *domain.Group) (*domain.Group, error)
	// AppendMember adds a roster entry and increments the member count,
	// conditional on the count still being expectedMembers. A lost race
	// surfaces as ErrConflict.
	AppendMember(ctx context.Context, groupID string, expectedMembers int, member domain.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMessages(ctx context.Context, groupID string, page, pageSize int) ([]domain.ChatMessage, error)
}

// LedgerStore persists the transaction ledger. Append-only on purpose:
// there is no update or delete.
type LedgerStore interface {
	InsertEntry(ctx context.Context, entry *domain.Transaction) (*domain.Transaction, error)
	ListEntries(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, error)
	ListGroupEntries(ctx context.Context, userID, groupID string) ([]domain.Transaction, error)
}

// TicketStore persists support tickets.
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket *domain.SupportTicket) (*domain.SupportTicket, error)
	GetTicket(ctx context.Context, userID, ticketID string) (*domain.SupportTicket, error)
	ListTickets(ctx context.Context, userID string) ([]domain.SupportTicket, error)
	AppendTicketMessage(ctx context.Context, ticketID string, msg domain.TicketMessage) error
	UpdateTicketStatus(ctx context.Context, ticketID, status string) error
}

// ReviewStore persists host reviews.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error)
	ListGroupReviews(ctx context.Context, groupID string) ([]domain.Review, error)
	GetReview(ctx context.Context, groupID, raterID string) (*domain.Review, error)
}

// WalletRPC exposes the backend's remote procedures: the atomic
// balance move, the append-only chat write and the public handle lookup.
type WalletRPC interface {
	LookupByWalletHandle(ctx context.Context, handle string) (*domain.PublicProfile, error)
	HandleTransfer(ctx context.Context, senderID, recipientID string, amount float64, description string) error
	SendGroupMessage(ctx context.Context, groupID, senderID, text string) (*domain.ChatMessage, error)
}

// AuthStore defines all data operations for the authentication system.
type AuthStore interface {
	GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetProfileByID(ctx context.Context, userID string) (*domain.Profile, error)
	CreateUserWithProfile(ctx context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.RegisterResponse, error)

	GetCredentials(ctx context.Context, userID string) (*domain.AuthCredential, error)
	UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error

	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// MetadataClient reads the movie/TV catalog (TMDB-style API).
type MetadataClient interface {
	SearchTitles(ctx context.Context, query string) ([]domain.MediaItem, error)
	FindPerson(ctx context.Context, name string) (int, error)
	PersonCredits(ctx context.Context, personID int) ([]domain.MediaItem, error)
	ListGenres(ctx context.Context) ([]domain.Genre, error)
	DiscoverByGenre(ctx context.Context, genreID int) ([]domain.MediaItem, error)
}

// AssistantCaller invokes the generative-AI proxy.
type AssistantCaller interface {
	Complete(ctx context.Context, req *domain.AIRequest) (*domain.AIResponse, error)
}

// Notifier delivers best-effort push notifications. Failures are logged,
// never propagated into core flows.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

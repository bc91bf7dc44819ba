// Package domain holds the core data model for the subscription-pooling
// backend: profiles with wallet balances, shared groups, the append-only
// transaction ledger, support tickets and host reviews.
package domain

import "time"

// ============================================================
// Profile — registered user with a wallet
// ============================================================

// Profile is a registered user. Created lazily on the first
// authenticated fetch if absent; never hard-deleted in-app.
type Profile struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	WalletHandle     string    `json:"wallet_handle"`
	Name             string    `json:"name"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	Document         string    `json:"document,omitempty"`
	Balance          float64   `json:"balance"`
	IdentityVerified bool      `json:"identity_verified"`
	PhoneVerified    bool      `json:"phone_verified"`
	PrivateProfile   bool      `json:"private_profile"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PublicProfile is the subset of a profile visible to other users,
// returned by the wallet-handle lookup used in transfers.
type PublicProfile struct {
	UserID       string `json:"user_id"`
	WalletHandle string `json:"wallet_handle"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Document     string `json:"document,omitempty"`
}

// ============================================================
// Group — shared-subscription pool
// ============================================================

// Member roles inside a group roster.
const (
	RoleHost   = "host"
	RoleMember = "member"
)

// Group statuses, set externally based on upstream subscription health.
const (
	GroupStatusActive  = "active"
	GroupStatusPending = "pending"
)

// GroupMember is one roster entry.
type GroupMember struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// GroupCredential is the shared service login. Only revealed to members.
type GroupCredential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Group is a shared-subscription pool.
// Invariants after every roster mutation:
//
//	Members == len(Roster)
//	Members <= MaxMembers
//	the host is always present in Roster with role "host"
type Group struct {
	ID          string           `json:"id"`
	HostID      string           `json:"host_id"`
	ServiceName string           `json:"service_name"`
	Name        string           `json:"name"`
	Price       float64          `json:"price"`
	MaxMembers  int              `json:"max_members"`
	Members     int              `json:"members"`
	Roster      []GroupMember    `json:"members_list"`
	Rules       []string         `json:"rules,omitempty"`
	Credential  *GroupCredential `json:"credential,omitempty"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// HasMember reports whether userID occupies a seat in the roster.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Roster {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// ChatMessage is one entry in a group's chat history.
type ChatMessage struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ============================================================
// Transaction — append-only ledger entry
// ============================================================

// Ledger entry categories.
const (
	CategoryPayment     = "payment"
	CategoryDeposit     = "deposit"
	CategoryWithdrawal  = "withdrawal"
	CategoryCashback    = "cashback"
	CategoryTransferIn  = "transfer_in"
	CategoryTransferOut = "transfer_out"
)

// Transaction is one balance-affecting event. The ledger is append-only:
// entries are never mutated after creation; corrections are modeled as
// new offsetting entries.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Amount      float64           `json:"amount"` // negative = debit
	Category    string            `json:"category"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"` // e.g. group_id, recipient_id
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ============================================================
// SupportTicket — help-desk conversation
// ============================================================

// Ticket statuses. Closed is terminal: appends are rejected.
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusClosed     = "closed"
)

// TicketMessage is one message in a ticket conversation.
type TicketMessage struct {
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SupportTicket is a help-desk conversation, created directly by a user
// or escalated from an AI support chat.
type SupportTicket struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Subject   string          `json:"subject"`
	Status    string          `json:"status"`
	Messages  []TicketMessage `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ============================================================
// Review — post-membership rating of a host
// ============================================================

// Review rates a group's host. One per (rater, group); only offerable
// for groups the rater paid for and does not host.
type Review struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	RaterID   string    `json:"rater_id"`
	Rating    int       `json:"rating"` // 1-5
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ============================================================
// API request/response types
// ============================================================

// CreateGroupRequest is the payload of the group-creation wizard.
type CreateGroupRequest struct {
	ServiceName string          `json:"service_name"`
	Name        string          `json:"name"`
	Price       float64         `json:"price"`
	MaxMembers  int             `json:"max_members"`
	Rules       []string        `json:"rules,omitempty"`
	Credential  GroupCredential `json:"credential"`
}

// JoinGroupResponse is returned after a successful join.
type JoinGroupResponse struct {
	Group         *Group  `json:"group"`
	Balance       float64 `json:"balance"`
	TransactionID string  `json:"transaction_id"`
}

// GroupDetail is the group page payload: the group plus its reviews.
type GroupDetail struct {
	Group   *Group   `json:"group"`
	Reviews []Review `json:"reviews"`
}

// TransferRequest asks to move balance to another profile by handle.
type TransferRequest struct {
	RecipientHandle string  `json:"recipient_handle"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description,omitempty"`
}

// TransferPreview is the confirmation step shown before executing a
// transfer. Document is already masked.
type TransferPreview struct {
	RecipientID     string  `json:"recipient_id"`
	RecipientName   string  `json:"recipient_name"`
	RecipientHandle string  `json:"recipient_handle"`
	MaskedDocument  string  `json:"masked_document"`
	Amount          float64 `json:"amount"`
}

// TransferReceipt is the locally reconstructed receipt after the remote
// transfer procedure succeeds.
type TransferReceipt struct {
	ID            string    `json:"id"`
	EndToEndID    string    `json:"end_to_end_id"`
	SenderID      string    `json:"sender_id"`
	RecipientID   string    `json:"recipient_id"`
	RecipientName string    `json:"recipient_name"`
	Amount        float64   `json:"amount"`
	Description   string    `json:"description,omitempty"`
	ExecutedAt    time.Time `json:"executed_at"`
}

// DepositRequest credits the caller's wallet.
type DepositRequest struct {
	Amount float64 `json:"amount"`
}

// WithdrawRequest debits the caller's wallet.
type WithdrawRequest struct {
	Amount float64 `json:"amount"`
}

// SendMessageRequest appends one message to a group chat.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// CreateTicketRequest opens a support ticket, optionally prefilled from
// an escalated AI chat.
type CreateTicketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TicketReplyRequest appends one message to an open ticket.
type TicketReplyRequest struct {
	Text string `json:"text"`
}

// CreateReviewRequest rates a group's host.
type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// UpdateProfileRequest edits mutable profile fields.
type UpdateProfileRequest struct {
	Name           string `json:"name,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	PrivateProfile *bool  `json:"private_profile,omitempty"`
}

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

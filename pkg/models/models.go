package models

import "encoding/json"

// Domain models matching the database schema in db/migrations/0001_init.sql

type User struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name" validate:"required"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	PasswordHash string `json:"password_hash,omitempty" db:"password_hash"`
	Created      int64  `json:"created" db:"created"`
	Updated      int64  `json:"updated" db:"updated"`
}

// Profile tracks the per-user pineapple balance. The balance must never go
// negative; redemptions are rejected rather than allowed to overdraw.
type Profile struct {
	ID               int64 `json:"id" db:"id"`
	UserID           int64 `json:"user_id" db:"user_id"`
	PineappleBalance int64 `json:"pineapple_balance" db:"pineapple_balance"`
	IsAdmin          bool  `json:"is_admin" db:"is_admin"`
	Updated          int64 `json:"updated" db:"updated"`
}

// Project progress is clamped to [0,100]. Valuation bounds only ever move up
// under automatic updates; manual edits outside this service are unconstrained.
type Project struct {
	ID            int64  `json:"id" db:"id"`
	UserID        int64  `json:"user_id" db:"user_id"`
	Name          string `json:"name" db:"name"`
	Description   string `json:"description,omitempty" db:"description"`
	URL           string `json:"url,omitempty" db:"url"`
	ProgressScore int64  `json:"progress_score" db:"progress_score"`
	ValuationLow  int64  `json:"valuation_low" db:"valuation_low"`
	ValuationHigh int64  `json:"valuation_high" db:"valuation_high"`
	Created       int64  `json:"created" db:"created"`
	Updated       int64  `json:"updated" db:"updated"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Intent labels produced by the classifier.
const (
	IntentFeature  = "feature"
	IntentCustomer = "customer"
	IntentRevenue  = "revenue"
	IntentAsk      = "ask"
	IntentGeneral  = "general"
)

// Message is one side of a turn. A user message and the assistant message that
// answers it are linked only through the rollback descriptor on the turn's
// activity event, or by temporal adjacency when that is missing.
type Message struct {
	ID               int64  `json:"id" db:"id"`
	ProjectID        int64  `json:"project_id" db:"project_id"`
	Role             string `json:"role" db:"role"`
	Content          string `json:"content" db:"content"`
	Tag              string `json:"tag,omitempty" db:"tag"`
	ExtractedIntent  string `json:"extracted_intent,omitempty" db:"extracted_intent"`
	PineapplesEarned int64  `json:"pineapples_earned" db:"pineapples_earned"`
	Created          int64  `json:"created" db:"created"`
}

// Activity event types.
const (
	EventPrompt         = "prompt"
	EventFeatureShipped = "feature_shipped"
	EventCustomerAdded  = "customer_added"
	EventRevenueLogged  = "revenue_logged"
	EventUpdate         = "update"
	EventRewardEarned   = "reward_earned"
	EventRedemption     = "redemption"
	EventOfferGenerated = "offer_generated"
	EventLinkLinkedIn   = "link_linkedin"
	EventLinkGitHub     = "link_github"
	EventLinkWebsite    = "link_website"
)

// RollbackDescriptor records exactly what a turn changed so it can be
// reversed later. It is embedded in the activity event metadata and is the
// only durable link between a user message and its assistant reply.
type RollbackDescriptor struct {
	UserMessageID      int64 `json:"user_message_id"`
	AssistantMessageID int64 `json:"assistant_message_id,omitempty"`
	ProgressDelta      int64 `json:"progress_delta"`
	ValuationLowDelta  int64 `json:"valuation_low_delta"`
	ValuationHighDelta int64 `json:"valuation_high_delta"`
}

type ActivityEvent struct {
	ID          int64           `json:"id" db:"id"`
	UserID      int64           `json:"user_id" db:"user_id"`
	ProjectID   *int64          `json:"project_id,omitempty" db:"project_id"`
	EventType   string          `json:"event_type" db:"event_type"`
	Description string          `json:"description,omitempty" db:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	Created     int64           `json:"created" db:"created"`
}

// Rollback unmarshals the rollback descriptor embedded in the event metadata.
// Returns nil when the event carries none.
func (e *ActivityEvent) Rollback() *RollbackDescriptor {
	if len(e.Metadata) == 0 {
		return nil
	}
	var wrapper struct {
		Rollback *RollbackDescriptor `json:"rollback"`
	}
	if err := json.Unmarshal(e.Metadata, &wrapper); err != nil {
		return nil
	}
	return wrapper.Rollback
}

// RewardLedgerEntry rows are append-only and immutable once inserted. The
// idempotency key carries a store-level uniqueness constraint: a duplicate
// insert is a success signal, not an error.
type RewardLedgerEntry struct {
	ID             int64  `json:"id" db:"id"`
	UserID         int64  `json:"user_id" db:"user_id"`
	ProjectID      *int64 `json:"project_id,omitempty" db:"project_id"`
	EventType      string `json:"event_type" db:"event_type"`
	RewardAmount   int64  `json:"reward_amount" db:"reward_amount"`
	BalanceAfter   int64  `json:"balance_after" db:"balance_after"`
	IdempotencyKey string `json:"idempotency_key" db:"idempotency_key"`
	Created        int64  `json:"created" db:"created"`
}

// Redemption statuses. A redemption is terminal once it leaves pending.
const (
	RedemptionPending   = "pending"
	RedemptionFulfilled = "fulfilled"
	RedemptionFailed    = "failed"
)

type Redemption struct {
	ID         int64  `json:"id" db:"id"`
	UserID     int64  `json:"user_id" db:"user_id"`
	Amount     int64  `json:"amount" db:"amount"`
	Status     string `json:"status" db:"status"`
	RewardType string `json:"reward_type" db:"reward_type"`
	Created    int64  `json:"created" db:"created"`
}

// Offer statuses.
const (
	OfferActive   = "active"
	OfferExpired  = "expired"
	OfferAccepted = "accepted"
)

type Offer struct {
	ID        int64  `json:"id" db:"id"`
	ProjectID int64  `json:"project_id" db:"project_id"`
	UserID    int64  `json:"user_id" db:"user_id"`
	OfferLow  int64  `json:"offer_low" db:"offer_low"`
	OfferHigh int64  `json:"offer_high" db:"offer_high"`
	Reasoning string `json:"reasoning,omitempty" db:"reasoning"`
	Signals   string `json:"signals,omitempty" db:"signals"`
	Status    string `json:"status" db:"status"`
	ExpiresAt int64  `json:"expires_at" db:"expires_at"`
	Created   int64  `json:"created" db:"created"`
}

// Link kinds accepted on a project; each maps to a reward schedule entry.
const (
	LinkLinkedIn = "linkedin"
	LinkGitHub   = "github"
	LinkWebsite  = "website"
)

type ProjectLink struct {
	ID        int64  `json:"id" db:"id"`
	ProjectID int64  `json:"project_id" db:"project_id"`
	Kind      string `json:"kind" db:"kind"`
	URL       string `json:"url" db:"url"`
	Created   int64  `json:"created" db:"created"`
}

// Valuation adjustments the classifier may request. Only "up" has any effect;
// valuation never decreases automatically.
const (
	ValuationUp   = "up"
	ValuationDown = "down"
	ValuationNone = "none"
)

// BusinessUpdate is the bounded delta extracted from a user message.
type BusinessUpdate struct {
	ProgressDelta       int64   `json:"progress_delta"`
	TractionSignal      *string `json:"traction_signal"`
	ValuationAdjustment string  `json:"valuation_adjustment"`
}

// TurnAnalysis is the structured result of classifying one user message.
type TurnAnalysis struct {
	Reply          string         `json:"reply"`
	Intent         string         `json:"intent"`
	BusinessUpdate BusinessUpdate `json:"business_update"`

	// Raw captures the original model output for auditing/logging.
	Raw string `json:"-"`
}

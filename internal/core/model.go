package core

import (
	"encoding/json"
	"time"
)

// Provider identifies a linked mail provider
type Provider string

const (
	ProviderGmail   Provider = "gmail"
	ProviderOutlook Provider = "outlook"
)

// Urgency is the summarized urgency level of an email
type Urgency string

const (
	UrgencyLow  Urgency = "low"
	UrgencyMed  Urgency = "med"
	UrgencyHigh Urgency = "high"
)

// Tier selects the quality/cost level of the summarization model
type Tier string

const (
	// TierMini is the fast, cheap model tried first
	TierMini Tier = "mini"
	// TierMid is the slower, more capable model used for complex content
	TierMid Tier = "mid"
)

// EscalationReason records why a summarization was escalated to the mid tier.
// The empty value means no escalation happened.
type EscalationReason string

const (
	EscalationRulesBased     EscalationReason = "rules_based"
	EscalationModelRequested EscalationReason = "model_requested"
)

// Email is a provider-normalized unread message
type Email struct {
	Provider     Provider
	MessageID    string
	From         string
	Subject      string
	Date         time.Time
	Body         string
	AccountEmail string
}

// Account is a linked mailbox owned by a user. Credentials are opaque to the
// core; the provider adapters know how to interpret them.
type Account struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Provider    Provider        `json:"provider"`
	Credentials json.RawMessage `json:"credentials"`
}

// User owns a set of linked accounts
type User struct {
	ID         string    `json:"id"`
	Accounts   []Account `json:"accounts"`
	LastOpenAt time.Time `json:"last_open_at"`
}

// RawModelResult is the structured object the model is contracted to return
type RawModelResult struct {
	SummaryBullets []string `json:"summary_bullets"`
	ActionItems    []string `json:"action_items"`
	Urgency        Urgency  `json:"urgency"`
	NeedsMidTier   bool     `json:"needs_mid_tier"`
	Why            string   `json:"why"`
}

// RoutingResult is the summarization router's output for one email
type RoutingResult struct {
	SummaryBullets   []string
	ActionItems      []string
	Urgency          Urgency
	UsedMidTier      bool
	EscalationReason EscalationReason
	ModelReason      string
}

// CacheEntry is a persisted summarization result, keyed by CacheKey
type CacheEntry struct {
	SummaryBullets   []string
	ActionItems      []string
	Urgency          Urgency
	UsedMidTier      bool
	EscalationReason EscalationReason
	CachedAt         time.Time
}

// AggregatedEmail is one entry in the digest returned to the caller
type AggregatedEmail struct {
	Provider         Provider         `json:"provider"`
	MessageID        string           `json:"message_id"`
	From             string           `json:"from"`
	Subject          string           `json:"subject"`
	Date             time.Time        `json:"date"`
	Account          string           `json:"account"`
	SummaryBullets   []string         `json:"summary_bullets"`
	ActionItems      []string         `json:"action_items"`
	Urgency          Urgency          `json:"urgency"`
	UsedMidTier      bool             `json:"used_mid_tier"`
	EscalationReason EscalationReason `json:"escalation_reason,omitempty"`
}

// FallbackModelResult is the fixed result returned when a model call fails.
// The router treats it as a genuine low-urgency, non-escalating result.
func FallbackModelResult() *RawModelResult {
	return &RawModelResult{
		SummaryBullets: []string{"Unable to summarize - API error"},
		ActionItems:    []string{},
		Urgency:        UrgencyLow,
	}
}

// SanitizeModelResult bounds an untrusted model response to the prompt
// contract: 1-2 summary bullets, at most 3 action items, a known urgency
// value, and a why only when escalation is requested.
func SanitizeModelResult(res *RawModelResult) *RawModelResult {
	if res == nil {
		return FallbackModelResult()
	}

	if len(res.SummaryBullets) == 0 {
		res.SummaryBullets = []string{"(no summary returned)"}
	} else if len(res.SummaryBullets) > 2 {
		res.SummaryBullets = res.SummaryBullets[:2]
	}

	if res.ActionItems == nil {
		res.ActionItems = []string{}
	} else if len(res.ActionItems) > 3 {
		res.ActionItems = res.ActionItems[:3]
	}

	switch res.Urgency {
	case UrgencyLow, UrgencyMed, UrgencyHigh:
	default:
		res.Urgency = UrgencyLow
	}

	if !res.NeedsMidTier {
		res.Why = ""
	}

	return res
}

// ToCacheEntry converts a routing result into its persisted form
func (r *RoutingResult) ToCacheEntry(now time.Time) *CacheEntry {
	return &CacheEntry{
		SummaryBullets:   r.SummaryBullets,
		ActionItems:      r.ActionItems,
		Urgency:          r.Urgency,
		UsedMidTier:      r.UsedMidTier,
		EscalationReason: r.EscalationReason,
		CachedAt:         now,
	}
}

// ToRoutingResult converts a cached entry back into a routing result
func (e *CacheEntry) ToRoutingResult() *RoutingResult {
	return &RoutingResult{
		SummaryBullets:   e.SummaryBullets,
		ActionItems:      e.ActionItems,
		Urgency:          e.Urgency,
		UsedMidTier:      e.UsedMidTier,
		EscalationReason: e.EscalationReason,
	}
}

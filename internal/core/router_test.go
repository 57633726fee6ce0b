package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeModelClient records every call and replies per tier
type fakeModelClient struct {
	calls   []Tier
	results map[Tier]*RawModelResult
}

func (f *fakeModelClient) Complete(_ context.Context, tier Tier, _, _ string) *RawModelResult {
	f.calls = append(f.calls, tier)
	if res, ok := f.results[tier]; ok {
		return res
	}
	return FallbackModelResult()
}

func miniResult() *RawModelResult {
	return &RawModelResult{
		SummaryBullets: []string{"Quick status update"},
		ActionItems:    []string{},
		Urgency:        UrgencyLow,
	}
}

func midResult() *RawModelResult {
	return &RawModelResult{
		SummaryBullets: []string{"Contract renewal terms changed", "Response needed by Friday"},
		ActionItems:    []string{"Review clause 4", "Reply to legal"},
		Urgency:        UrgencyHigh,
	}
}

func TestRouterMiniSufficient(t *testing.T) {
	model := &fakeModelClient{results: map[Tier]*RawModelResult{TierMini: miniResult()}}
	router := NewSummarizationRouter(model, zap.NewNop())

	result := router.Summarize(context.Background(), &Email{
		MessageID: "m1",
		Subject:   "Standup notes",
		Body:      "All on track.",
	})

	assert.Equal(t, []Tier{TierMini}, model.calls)
	assert.False(t, result.UsedMidTier)
	assert.Equal(t, EscalationReason(""), result.EscalationReason)
	assert.Equal(t, []string{"Quick status update"}, result.SummaryBullets)
}

func TestRouterRulesEscalationSkipsMini(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
	}{
		{
			name:    "long body",
			subject: "Weekly report",
			body:    strings.Repeat("a", 1501),
		},
		{
			name:    "question density across subject and body",
			subject: "Can we ship this week?",
			body:    "Is the release branch cut? Did QA sign off?",
		},
		{
			name:    "complex domain keyword",
			subject: "Updated agreement",
			body:    "Please review the attached contract before Thursday.",
		},
		{
			name:    "bullet list structure",
			subject: "Action plan",
			body:    "- one\n- two\n- three\n- four\n- five",
		},
		{
			name:    "numbered list structure",
			subject: "Steps",
			body:    "1. first\n2. second\n3. third\n4. fourth\n5) fifth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModelClient{results: map[Tier]*RawModelResult{TierMid: midResult()}}
			router := NewSummarizationRouter(model, zap.NewNop())

			result := router.Summarize(context.Background(), &Email{
				MessageID: "m2",
				Subject:   tt.subject,
				Body:      tt.body,
			})

			// Rules escalation must never pay for a mini call
			assert.Equal(t, []Tier{TierMid}, model.calls)
			assert.True(t, result.UsedMidTier)
			assert.Equal(t, EscalationRulesBased, result.EscalationReason)
			assert.Empty(t, result.ModelReason)
		})
	}
}

func TestRouterModelRequestedEscalation(t *testing.T) {
	mini := miniResult()
	mini.NeedsMidTier = true
	mini.Why = "multiple interleaved requests"

	model := &fakeModelClient{results: map[Tier]*RawModelResult{
		TierMini: mini,
		TierMid:  midResult(),
	}}
	router := NewSummarizationRouter(model, zap.NewNop())

	result := router.Summarize(context.Background(), &Email{
		MessageID: "m3",
		Subject:   "A few things",
		Body:      "Short but dense.",
	})

	require.Equal(t, []Tier{TierMini, TierMid}, model.calls)
	assert.True(t, result.UsedMidTier)
	assert.Equal(t, EscalationModelRequested, result.EscalationReason)
	assert.Equal(t, "multiple interleaved requests", result.ModelReason)
	// The mid tier result replaces the mini one entirely
	assert.Equal(t, midResult().SummaryBullets, result.SummaryBullets)
	assert.Equal(t, UrgencyHigh, result.Urgency)
}

func TestRouterFallbackDoesNotEscalate(t *testing.T) {
	// A failed mini call yields the fallback, which never requests the mid tier
	model := &fakeModelClient{results: map[Tier]*RawModelResult{}}
	router := NewSummarizationRouter(model, zap.NewNop())

	result := router.Summarize(context.Background(), &Email{
		MessageID: "m4",
		Subject:   "Hello",
		Body:      "Just checking in.",
	})

	assert.Equal(t, []Tier{TierMini}, model.calls)
	assert.False(t, result.UsedMidTier)
	assert.Equal(t, []string{"Unable to summarize - API error"}, result.SummaryBullets)
	assert.Equal(t, UrgencyLow, result.Urgency)
}

func TestRulesEscalation(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		trigger string
	}{
		{"plain short email", "Hi", "See you at 3pm.", ""},
		{"body exactly at threshold", "Hi", strings.Repeat("a", 1500), ""},
		{"body one over threshold", "Hi", strings.Repeat("a", 1501), "long_body"},
		{"two questions is under threshold", "One?", "Two?", ""},
		{"three questions", "One?", "Two? Three?", "question_density"},
		{"keyword is case-insensitive", "STACK TRACE attached", "see below", "complex_domain"},
		{"four bullets is under threshold", "", "- a\n- b\n- c\n- d", ""},
		{"five bullets", "", "- a\n- b\n- c\n- d\n- e", "list_structure"},
		{"mixed bullet markers count together", "", "* a\n- b\n• c\n- d\n* e", "list_structure"},
		{"numbered lines need digit then dot or paren", "", "1x one\n2x two\n3x three\n4x four\n5x five", ""},
		{"long body wins over later triggers", "contract", strings.Repeat("b", 2000), "long_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.trigger, rulesEscalation(tt.subject, tt.body))
		})
	}
}

func TestSanitizeModelResult(t *testing.T) {
	tests := []struct {
		name     string
		input    *RawModelResult
		expected *RawModelResult
	}{
		{
			name:     "nil becomes fallback",
			input:    nil,
			expected: FallbackModelResult(),
		},
		{
			name:  "empty bullets get a placeholder",
			input: &RawModelResult{Urgency: UrgencyMed},
			expected: &RawModelResult{
				SummaryBullets: []string{"(no summary returned)"},
				ActionItems:    []string{},
				Urgency:        UrgencyMed,
			},
		},
		{
			name: "excess bullets and items are truncated",
			input: &RawModelResult{
				SummaryBullets: []string{"a", "b", "c"},
				ActionItems:    []string{"1", "2", "3", "4"},
				Urgency:        UrgencyHigh,
			},
			expected: &RawModelResult{
				SummaryBullets: []string{"a", "b"},
				ActionItems:    []string{"1", "2", "3"},
				Urgency:        UrgencyHigh,
			},
		},
		{
			name: "unknown urgency coerced to low",
			input: &RawModelResult{
				SummaryBullets: []string{"a"},
				ActionItems:    []string{},
				Urgency:        Urgency("critical"),
			},
			expected: &RawModelResult{
				SummaryBullets: []string{"a"},
				ActionItems:    []string{},
				Urgency:        UrgencyLow,
			},
		},
		{
			name: "why cleared when escalation not requested",
			input: &RawModelResult{
				SummaryBullets: []string{"a"},
				ActionItems:    []string{},
				Urgency:        UrgencyLow,
				Why:            "stray reason",
			},
			expected: &RawModelResult{
				SummaryBullets: []string{"a"},
				ActionItems:    []string{},
				Urgency:        UrgencyLow,
			},
		},
		{
			name: "why kept when escalation requested",
			input: &RawModelResult{
				SummaryBullets: []string{"a"},
				ActionItems:    []string{},
				Urgency:        UrgencyLow,
				NeedsMidTier:   true,
				Why:            "needs deeper read",
			},
			expected: &RawModelResult{
				SummaryBullets: []string{"a"},
				ActionItems:    []string{},
				Urgency:        UrgencyLow,
				NeedsMidTier:   true,
				Why:            "needs deeper read",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeModelResult(tt.input))
		})
	}
}

package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/inbox-digest/internal/core"
)

func TestParseModelResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected *core.RawModelResult
		wantErr  bool
	}{
		{
			name: "clean JSON",
			response: `{"summary_bullets":["Budget approved for Q3"],"action_items":["Send revised forecast"],
				"urgency":"med","needs_mid_tier":false,"why":""}`,
			expected: &core.RawModelResult{
				SummaryBullets: []string{"Budget approved for Q3"},
				ActionItems:    []string{"Send revised forecast"},
				Urgency:        core.UrgencyMed,
			},
		},
		{
			name:     "JSON wrapped in prose",
			response: "Here is the summary:\n```json\n{\"summary_bullets\":[\"Server migration on Friday\"],\"action_items\":[],\"urgency\":\"high\",\"needs_mid_tier\":false,\"why\":\"\"}\n```\nLet me know if you need anything else.",
			expected: &core.RawModelResult{
				SummaryBullets: []string{"Server migration on Friday"},
				ActionItems:    []string{},
				Urgency:        core.UrgencyHigh,
			},
		},
		{
			name: "escalation request preserved",
			response: `{"summary_bullets":["Dense legal amendments"],"action_items":[],"urgency":"med",
				"needs_mid_tier":true,"why":"contract language requires careful reading"}`,
			expected: &core.RawModelResult{
				SummaryBullets: []string{"Dense legal amendments"},
				ActionItems:    []string{},
				Urgency:        core.UrgencyMed,
				NeedsMidTier:   true,
				Why:            "contract language requires careful reading",
			},
		},
		{
			name:     "no JSON at all",
			response: "I cannot summarize this email.",
			wantErr:  true,
		},
		{
			name:     "malformed JSON",
			response: `{"summary_bullets":["unterminated`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseModelResponse(tt.response)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestModelFor(t *testing.T) {
	c := &OpenAIClient{miniModel: "gpt-4o-mini", midModel: "gpt-4o"}
	assert.Equal(t, "gpt-4o-mini", c.modelFor(core.TierMini))
	assert.Equal(t, "gpt-4o", c.modelFor(core.TierMid))
}

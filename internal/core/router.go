package core

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const (
	// longBodyThreshold is the body length above which the mini tier is skipped
	longBodyThreshold = 1500
	// questionThreshold is the question-mark count that signals a dense ask
	questionThreshold = 3
	// listLineThreshold is the bullet/numbered line count that signals structure
	listLineThreshold = 5
)

// complexKeywords are cheap local signals that the content needs the mid tier
var complexKeywords = []string{
	"contract",
	"legal",
	"agreement",
	"terms and conditions",
	"technical issue",
	"bug report",
	"error log",
	"stack trace",
	"financial statement",
	"invoice",
	"payment terms",
	"multi-step",
	"detailed instructions",
	"comprehensive",
}

// SummarizationRouter decides per email whether the mini tier suffices or
// the mid tier is needed, and records why.
type SummarizationRouter struct {
	model  ModelClient
	logger *zap.Logger
}

// NewSummarizationRouter creates a new summarization router
func NewSummarizationRouter(model ModelClient, logger *zap.Logger) *SummarizationRouter {
	return &SummarizationRouter{
		model:  model,
		logger: logger,
	}
}

// Summarize routes one email through the two-tier escalation policy.
// Precedence, first match wins: rules-based escalation straight to the mid
// tier; a mini attempt escalated when the model flags itself insufficient;
// otherwise the mini result stands. Rules run first so that obviously
// complex content never pays for a mini call.
func (r *SummarizationRouter) Summarize(ctx context.Context, email *Email) *RoutingResult {
	if trigger := rulesEscalation(email.Subject, email.Body); trigger != "" {
		r.logger.Debug("Rules-based escalation to mid tier",
			zap.String("message_id", email.MessageID),
			zap.String("trigger", trigger))

		res := r.model.Complete(ctx, TierMid, email.Subject, email.Body)
		return &RoutingResult{
			SummaryBullets:   res.SummaryBullets,
			ActionItems:      res.ActionItems,
			Urgency:          res.Urgency,
			UsedMidTier:      true,
			EscalationReason: EscalationRulesBased,
		}
	}

	mini := r.model.Complete(ctx, TierMini, email.Subject, email.Body)
	if mini.NeedsMidTier {
		r.logger.Debug("Model-requested escalation to mid tier",
			zap.String("message_id", email.MessageID),
			zap.String("model_reason", mini.Why))

		mid := r.model.Complete(ctx, TierMid, email.Subject, email.Body)
		return &RoutingResult{
			SummaryBullets:   mid.SummaryBullets,
			ActionItems:      mid.ActionItems,
			Urgency:          mid.Urgency,
			UsedMidTier:      true,
			EscalationReason: EscalationModelRequested,
			ModelReason:      mini.Why,
		}
	}

	return &RoutingResult{
		SummaryBullets: mini.SummaryBullets,
		ActionItems:    mini.ActionItems,
		Urgency:        mini.Urgency,
	}
}

// rulesEscalation checks the cheap local complexity signals and returns the
// name of the first trigger that fires, or "" when none do.
func rulesEscalation(subject, body string) string {
	if len(body) > longBodyThreshold {
		return "long_body"
	}

	if strings.Count(subject, "?")+strings.Count(body, "?") >= questionThreshold {
		return "question_density"
	}

	haystack := strings.ToLower(subject + " " + body)
	for _, kw := range complexKeywords {
		if strings.Contains(haystack, kw) {
			return "complex_domain"
		}
	}

	bullets, numbered := 0, 0
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "• ") {
			bullets++
		} else if isNumberedLine(trimmed) {
			numbered++
		}
	}
	if bullets >= listLineThreshold || numbered >= listLineThreshold {
		return "list_structure"
	}

	return ""
}

// isNumberedLine reports lines of the form "1. text" or "12) text"
func isNumberedLine(line string) bool {
	i := 0
	for i < len(line) && unicode.IsDigit(rune(line[i])) {
		i++
	}
	if i == 0 || i >= len(line) {
		return false
	}
	return line[i] == '.' || line[i] == ')'
}

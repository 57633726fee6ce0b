package marketing

import (
	"strings"
)

// Signals are the pre-extracted fields the filter decides on. Provider
// adapters populate them; the filter itself does no parsing and no I/O.
type Signals struct {
	FromAddress        string
	Subject            string
	Body               string
	HasListUnsubscribe bool
}

// keywords matched case-insensitively against from+subject+body
var keywords = []string{
	"unsubscribe",
	"noreply",
	"no-reply",
	"newsletter",
	"promotional",
	"marketing",
	"offer",
	"sale",
	"discount",
	"bulk mail",
	"mailing list",
	"click here",
	"limited time",
}

// localPartMarkers flag automated senders by their address local part
var localPartMarkers = []string{"noreply", "no-reply", "donotreply"}

// IsMarketing classifies a message as bulk/promotional mail. This is a
// best-effort heuristic: a legitimate email mentioning "sale" or "offer"
// will be misclassified, which is an accepted tradeoff. There is no
// allow-list or correction mechanism.
func IsMarketing(sig Signals) bool {
	if sig.HasListUnsubscribe {
		return true
	}

	haystack := strings.ToLower(sig.FromAddress + " " + sig.Subject + " " + sig.Body)
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}

	localPart := strings.ToLower(sig.FromAddress)
	if at := strings.Index(localPart, "@"); at >= 0 {
		localPart = localPart[:at]
	}
	for _, marker := range localPartMarkers {
		if strings.Contains(localPart, marker) {
			return true
		}
	}

	return false
}

package call

import "strings"

// Qualification signal keys. Later writes overwrite the same key, so
// re-extraction from repeated utterances stays idempotent.
const (
	SignalIndustryMentioned = "industry_mentioned"
	SignalDemoIntent        = "demo_intent"
)

// ExtractSignals scans one utterance for lightweight qualification signals.
// It is a keyword heuristic kept deliberately in step with the resolver's
// vocabulary: mentions of a company or industry flag industry_mentioned, and
// demo interest flags demo_intent.
func ExtractSignals(utterance string) map[string]any {
	lower := strings.ToLower(utterance)
	signals := map[string]any{}

	if strings.Contains(lower, "company") || strings.Contains(lower, "industry") {
		signals[SignalIndustryMentioned] = true
	}
	if strings.Contains(lower, "demo") || strings.Contains(lower, "yes") {
		signals[SignalDemoIntent] = true
	}
	return signals
}

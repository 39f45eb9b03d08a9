package llm

import "strings"

// RouteReason explains why a backend was chosen.
type RouteReason string

const (
	ReasonExplicitMode         RouteReason = "explicit_mode"
	ReasonKeywordMatchCloud    RouteReason = "keyword_match_cloud"
	ReasonKeywordMatchLocal    RouteReason = "keyword_match_local"
	ReasonDefaultPrivacy       RouteReason = "default_privacy"
	ReasonFallbackAvailability RouteReason = "fallback_availability"
)

// RoutingDecision is computed fresh for every query.
type RoutingDecision struct {
	UseCloud bool
	Reason   RouteReason
	// Keyword is the matched keyword for keyword-based decisions.
	Keyword string
}

// Backend returns the name of the backend the decision targets.
func (d RoutingDecision) Backend() string {
	if d.UseCloud {
		return BackendCloud
	}
	return BackendLocal
}

type keywordRule struct {
	useCloud bool
	reason   RouteReason
	keywords []string
}

// Rules are evaluated in order and the first match wins, so privacy terms
// beat cloud terms when a query contains both.
var routingRules = []keywordRule{
	{
		useCloud: false,
		reason:   ReasonKeywordMatchLocal,
		keywords: []string{
			"private", "confidential", "secret", "personal", "between us",
			"unrestricted", "uncensored", "no filter", "hypothetically",
			"fiction", "creative writing", "roleplay", "scenario",
			"imagine", "fantasy",
		},
	},
	{
		useCloud: true,
		reason:   ReasonKeywordMatchCloud,
		keywords: []string{
			"analyze", "analysis", "complex", "detailed", "research",
			"compare", "comprehensive", "financial", "investment", "stock",
			"market", "code review", "debug", "optimize", "architecture",
			"design", "strategy", "plan", "business", "professional",
			"technical", "legal", "medical", "scientific",
			"summarize this document", "explain in detail",
			"write a report", "create a presentation",
		},
	},
}

// Route decides which backend should serve query under mode.
func Route(query string, mode Mode) RoutingDecision {
	switch mode {
	case ModeLocal:
		return RoutingDecision{UseCloud: false, Reason: ReasonExplicitMode}
	case ModeCloud:
		return RoutingDecision{UseCloud: true, Reason: ReasonExplicitMode}
	}

	lower := strings.ToLower(query)
	for _, rule := range routingRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return RoutingDecision{UseCloud: rule.useCloud, Reason: rule.reason, Keyword: kw}
			}
		}
	}
	return RoutingDecision{UseCloud: false, Reason: ReasonDefaultPrivacy}
}

// Decide reports whether query should go to the cloud backend.
func Decide(query string, mode Mode) bool {
	return Route(query, mode).UseCloud
}

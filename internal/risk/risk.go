package risk

import (
	"strings"

	"TokenWatch/internal/domain/models"
)

// minTrustScore is the floor below which a trust score flags the token.
const minTrustScore = 40

// Provider names recorded as issues when a verdict flags.
const (
	IssueRugcheck = "rugcheck"
	IssueSniffer  = "sniffer"
)

var flaggedLabels = map[string]bool{
	"high":     true,
	"critical": true,
	"red":      true,
	"severe":   true,
}

// Summarize folds provider verdicts into one gate decision. Issues name
// the providers that flagged. Unknown or missing verdicts never flag on
// their own.
func Summarize(rug models.RugVerdict, trust models.TrustVerdict) models.RiskSummary {
	var issues []string

	if label := strings.ToLower(strings.TrimSpace(rug.Risk)); flaggedLabels[label] {
		issues = append(issues, IssueRugcheck)
	}
	if trust.Score != nil && *trust.Score < minTrustScore {
		issues = append(issues, IssueSniffer)
	}

	severity := models.SeverityInfo
	switch {
	case len(issues) >= 2:
		severity = models.SeverityCritical
	case len(issues) == 1:
		severity = models.SeverityWarn
	}
	return models.RiskSummary{Severity: severity, Issues: issues}
}

// Flagged reports whether the summary should block downstream trading.
func Flagged(s models.RiskSummary) bool {
	return len(s.Issues) > 0
}

package models

// Severity levels for risk summaries and alerts.
const (
	SeverityInfo     = "info"
	SeverityWarn     = "warn"
	SeverityCritical = "critical"
)

// RugVerdict is a token-safety label from a rug-risk provider. Risk is
// "unknown" when the provider call failed.
type RugVerdict struct {
	Risk  string   `json:"risk"`
	Score *float64 `json:"score,omitempty"`
	Flags []string `json:"flags,omitempty"`
}

// TrustVerdict is a trust score from a contract-sniffer provider. Score is
// nil when the provider call failed or the token is unknown.
type TrustVerdict struct {
	Status string   `json:"status"`
	Score  *float64 `json:"score,omitempty"`
}

// RiskSummary is the aggregate gate verdict over all providers.
type RiskSummary struct {
	Severity string   `json:"severity"`
	Issues   []string `json:"issues"`
}

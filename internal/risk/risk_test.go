package risk

import (
	"testing"

	"TokenWatch/internal/domain/models"
)

func score(v float64) *float64 { return &v }

func TestSummarizeClean(t *testing.T) {
	s := Summarize(
		models.RugVerdict{Risk: "low"},
		models.TrustVerdict{Status: "ok", Score: score(90)},
	)
	if s.Severity != models.SeverityInfo {
		t.Fatalf("severity = %q, want info", s.Severity)
	}
	if len(s.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", s.Issues)
	}
	if Flagged(s) {
		t.Fatal("clean summary must not be flagged")
	}
}

func TestSummarizeRugLabelOnly(t *testing.T) {
	s := Summarize(
		models.RugVerdict{Risk: "Critical"},
		models.TrustVerdict{Status: "ok", Score: score(90)},
	)
	if s.Severity != models.SeverityWarn {
		t.Fatalf("severity = %q, want warn", s.Severity)
	}
	if len(s.Issues) != 1 || s.Issues[0] != IssueRugcheck {
		t.Fatalf("issues = %v, want [%s]", s.Issues, IssueRugcheck)
	}
	if !Flagged(s) {
		t.Fatal("rug label must flag")
	}
}

func TestSummarizeBothProvidersBad(t *testing.T) {
	s := Summarize(
		models.RugVerdict{Risk: "red"},
		models.TrustVerdict{Status: "ok", Score: score(20)},
	)
	if s.Severity != models.SeverityCritical {
		t.Fatalf("severity = %q, want critical", s.Severity)
	}
	if len(s.Issues) != 2 || s.Issues[0] != IssueRugcheck || s.Issues[1] != IssueSniffer {
		t.Fatalf("issues = %v, want [%s %s]", s.Issues, IssueRugcheck, IssueSniffer)
	}
}

func TestSummarizeLowScoreOnly(t *testing.T) {
	s := Summarize(
		models.RugVerdict{Risk: "unknown"},
		models.TrustVerdict{Status: "ok", Score: score(39)},
	)
	if s.Severity != models.SeverityWarn {
		t.Fatalf("severity = %q, want warn", s.Severity)
	}
	if len(s.Issues) != 1 || s.Issues[0] != IssueSniffer {
		t.Fatalf("issues = %v, want [%s]", s.Issues, IssueSniffer)
	}
}

func TestSummarizeUnknownVerdicts(t *testing.T) {
	s := Summarize(models.RugVerdict{Risk: "unknown"}, models.TrustVerdict{Status: "unknown"})
	if s.Severity != models.SeverityInfo || Flagged(s) {
		t.Fatalf("unknown verdicts must not flag: %+v", s)
	}
}

func TestSummarizeBoundaryScore(t *testing.T) {
	s := Summarize(models.RugVerdict{Risk: "low"}, models.TrustVerdict{Score: score(40)})
	if Flagged(s) {
		t.Fatalf("score 40 is not below the floor: %+v", s)
	}
}

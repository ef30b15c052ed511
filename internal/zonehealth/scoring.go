// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package zonehealth

// Fixed scoring policy: penalties sum first (the raw total may go negative),
// bonuses are added, and only the final value is clamped into [0,100].
const (
	baseScore       = 100
	penaltyCritical = 20
	penaltyWarning  = 10
	penaltyInfo     = 2

	bonusRedundantNS = 5
	bonusSPF         = 5
	bonusDMARC       = 5
	bonusRedundantMX = 3
)

func Score(issues []Issue, summary Summary) (score int, grade string) {
	score = baseScore
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			score -= penaltyCritical
		case SeverityWarning:
			score -= penaltyWarning
		case SeverityInfo:
			score -= penaltyInfo
		}
	}

	if summary.NSCount >= 2 {
		score += bonusRedundantNS
	}
	if summary.HasSPF {
		score += bonusSPF
	}
	if summary.HasDMARC {
		score += bonusDMARC
	}
	if summary.MXCount >= 2 {
		score += bonusRedundantMX
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score, gradeFor(score)
}

func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

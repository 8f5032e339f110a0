// Package compliance holds the derivations the tracker applies to records:
// risk scoring, deadline urgency and coverage figures.
package compliance

import (
	"fmt"

	"zzpri-tracker/internal/models"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

const (
	MinRating = 1
	MaxRating = 5
)

// RiskScore multiplies likelihood by impact on the 5x5 matrix.
func RiskScore(likelihood, impact int) (int, error) {
	if likelihood < MinRating || likelihood > MaxRating {
		return 0, fmt.Errorf("likelihood %d out of range %d..%d", likelihood, MinRating, MaxRating)
	}
	if impact < MinRating || impact > MaxRating {
		return 0, fmt.Errorf("impact %d out of range %d..%d", impact, MinRating, MaxRating)
	}
	return likelihood * impact, nil
}

func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= 15:
		return RiskCritical
	case score >= 10:
		return RiskHigh
	case score >= 5:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ApplyRisk recomputes Score and Level of a register row.
func ApplyRisk(r *models.RiskEntry) error {
	score, err := RiskScore(r.Likelihood, r.Impact)
	if err != nil {
		return err
	}
	r.Score = score
	r.Level = string(RiskLevelFor(score))
	return nil
}

// ControlCoverage is the share of applicable NIS2 controls that are implemented, in percent.
func ControlCoverage(counts map[models.ControlStatus]int64) float64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	applicable := total - counts[models.ControlNotApplicable]
	if applicable <= 0 {
		return 0
	}
	pct := float64(counts[models.ControlImplemented]) * 100 / float64(applicable)
	// one decimal
	return float64(int64(pct*10+0.5)) / 10
}

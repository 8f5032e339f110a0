package compliance

import (
	"testing"

	"zzpri-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskScore(t *testing.T) {
	score, err := RiskScore(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 12, score)

	_, err = RiskScore(0, 3)
	assert.Error(t, err)
	_, err = RiskScore(3, 6)
	assert.Error(t, err)
}

func TestRiskLevelFor(t *testing.T) {
	cases := map[int]RiskLevel{
		1:  RiskLow,
		4:  RiskLow,
		5:  RiskMedium,
		9:  RiskMedium,
		10: RiskHigh,
		14: RiskHigh,
		15: RiskCritical,
		25: RiskCritical,
	}
	for score, want := range cases {
		assert.Equal(t, want, RiskLevelFor(score), "score %d", score)
	}
}

func TestApplyRisk(t *testing.T) {
	r := models.RiskEntry{Likelihood: 5, Impact: 3, Score: 1, Level: "low"}
	require.NoError(t, ApplyRisk(&r))
	assert.Equal(t, 15, r.Score)
	assert.Equal(t, "critical", r.Level)

	bad := models.RiskEntry{Likelihood: 9, Impact: 1}
	assert.Error(t, ApplyRisk(&bad))
}

func TestControlCoverage(t *testing.T) {
	assert.Equal(t, 0.0, ControlCoverage(nil))

	counts := map[models.ControlStatus]int64{
		models.ControlImplemented:   2,
		models.ControlInProgress:    1,
		models.ControlNotApplicable: 4,
	}
	assert.Equal(t, 66.7, ControlCoverage(counts))

	onlyNA := map[models.ControlStatus]int64{models.ControlNotApplicable: 3}
	assert.Equal(t, 0.0, ControlCoverage(onlyNA))
}

package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testThresholds = Thresholds{100000, 300000, 500000, 1000000}

func TestCompute(t *testing.T) {
	tests := []struct {
		total float64
		want  Tier
	}{
		{0, TierBasic},
		{99999, TierBasic},
		{100000, TierBronze},
		{299999, TierBronze},
		{300000, TierSilver},
		{500000, TierGold},
		{999999, TierGold},
		{1000000, TierVIP},
		{5000000, TierVIP},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compute(tt.total, testThresholds), "total=%v", tt.total)
	}
}

func TestComputeDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, TierSilver, Compute(450000, testThresholds))
	}
}

func TestIsUpgrade(t *testing.T) {
	assert.True(t, IsUpgrade(TierBasic, TierBronze))
	assert.True(t, IsUpgrade(TierGold, TierVIP))
	assert.False(t, IsUpgrade(TierSilver, TierSilver), "lateral move is not an upgrade")
	assert.False(t, IsUpgrade(TierVIP, TierBasic), "downgrade is not an upgrade")
	assert.False(t, IsUpgrade("", TierBasic), "a never-computed grade ranks as basic")
	assert.True(t, IsUpgrade("", TierBronze), "a fresh customer reaching bronze is a real upgrade")
	assert.True(t, IsUpgrade("platinum", TierBasic), "garbage old tier ranks below basic")
}

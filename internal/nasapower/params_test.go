package nasapower

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameterSets(t *testing.T) {
	assert.True(t, ParameterSetEssential.Valid())
	assert.True(t, ParameterSetAll.Valid())
	assert.False(t, ParameterSet("bogus").Valid())

	essential := Parameters(ParameterSetEssential)
	assert.Len(t, essential, 8)
	assert.Equal(t, "ALLSKY_SFC_SW_DWN", essential[0])

	// Unknown sets fall back to essential.
	assert.Equal(t, essential, Parameters(ParameterSet("bogus")))
}

func TestAllParametersDeduplicates(t *testing.T) {
	all := AllParameters()

	seen := make(map[string]int)
	for _, p := range all {
		seen[p]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "parameter %s appears %d times", p, n)
	}

	// Union preserves first-seen order: essential's head stays first.
	assert.Equal(t, "ALLSKY_SFC_SW_DWN", all[0])

	// T2M_MAX is in both essential and important; the union must still
	// contain every distinct identifier once.
	assert.Contains(t, all, "T2M_MAX")
	assert.Contains(t, all, "SZA")
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvestRecord_Rollups(t *testing.T) {
	tests := []struct {
		name     string
		rec      HarvestRecord
		province bool
		regency  bool
	}{
		{"province rollup", HarvestRecord{Province: "Jawa Timur", Regency: "-", District: "-"}, true, false},
		{"regency rollup", HarvestRecord{Province: "Jawa Timur", Regency: "Sidoarjo", District: "-"}, false, true},
		{"district row", HarvestRecord{Province: "Jawa Timur", Regency: "Sidoarjo", District: "Waru"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.province, tt.rec.IsProvinceRollup())
			assert.Equal(t, tt.regency, tt.rec.IsRegencyRollup())
		})
	}
}

func TestHarvestRecord_Add(t *testing.T) {
	var total HarvestRecord
	total.Add(HarvestRecord{Harvested: Int(10), MachinerySep: Int(2)})
	total.Add(HarvestRecord{Harvested: Int(5), BaselineArea: Int(7)})

	assert.Equal(t, int64(15), Value(total.Harvested))
	assert.Equal(t, int64(2), Value(total.MachinerySep))
	assert.Equal(t, int64(7), Value(total.BaselineArea))

	// Every measure is present after a sum, even ones never set.
	for i, m := range total.Measures() {
		require.NotNil(t, *m, "measure %s", HarvestMeasureColumns[i])
	}
}

func TestHarvestRecord_TotalMachinery(t *testing.T) {
	assert.Equal(t, int64(0), HarvestRecord{}.TotalMachinery())
	assert.Equal(t, int64(9), HarvestRecord{MachinerySep: Int(4), MachineryOct: Int(5)}.TotalMachinery())
	assert.Equal(t, int64(4), HarvestRecord{MachinerySep: Int(4)}.TotalMachinery())
}

func TestHarvestMeasureColumns_MatchMeasures(t *testing.T) {
	var r HarvestRecord
	assert.Len(t, r.Measures(), len(HarvestMeasureColumns))
}

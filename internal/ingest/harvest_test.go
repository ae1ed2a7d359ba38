package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tani-io/tani/internal/model"
)

func harvestCSV(rows ...string) string {
	header := append([]string{ColProvince, ColRegency, ColDistrict}, HarvestMeasureHeaders...)
	return strings.Join(append([]string{strings.Join(header, ",")}, rows...), "\n") + "\n"
}

// harvestLine builds a row with panen set and every other measure at 1.
func harvestLine(prov, reg, dist, panen string) string {
	vals := make([]string, len(HarvestMeasureHeaders))
	for i := range vals {
		vals[i] = "1"
	}
	vals[12] = panen
	return strings.Join(append([]string{prov, reg, dist}, vals...), ",")
}

func parseHarvestCSV(t *testing.T, in string) []model.HarvestRecord {
	t.Helper()
	tbl, err := ReadCSV(context.Background(), "panen.csv", strings.NewReader(in))
	require.NoError(t, err)
	recs, err := ParseHarvest(tbl)
	require.NoError(t, err)
	return recs
}

func TestParseHarvest(t *testing.T) {
	recs := parseHarvestCSV(t, harvestCSV(
		harvestLine("Jawa Barat", "", "", "1000"),
		harvestLine("Jawa Barat", "Bogor", "", "400"),
		harvestLine("Jawa Barat", "Bogor", "Ciawi", "abc"),
		harvestLine("Jawa Barat", "Bogor", "Cibinong", "12.7"),
	))
	require.Len(t, recs, 4)

	assert.True(t, recs[0].IsProvinceRollup())
	assert.Equal(t, int64(1000), model.Value(recs[0].Harvested))
	assert.Equal(t, model.Sentinel, recs[1].District)
	assert.Equal(t, int64(0), model.Value(recs[2].Harvested))
	assert.Equal(t, int64(12), model.Value(recs[3].Harvested))
	assert.Equal(t, int64(2), recs[3].TotalMachinery())
}

func TestParseHarvest_DuplicateKeyKeepsLast(t *testing.T) {
	recs := parseHarvestCSV(t, harvestCSV(
		harvestLine("Jawa Barat", "Bogor", "", "400"),
		harvestLine("Jawa Barat", "Bogor", "", "450"),
	))
	require.Len(t, recs, 1)
	assert.Equal(t, int64(450), model.Value(recs[0].Harvested))
}

func TestParseHarvest_MissingColumn(t *testing.T) {
	tbl := newTable("panen.csv", []string{ColProvince, ColRegency, ColDistrict, "Panen"}, nil)
	_, err := ParseHarvest(tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Perkiraan Panen Bulan September")
}

func TestMergeHarvest(t *testing.T) {
	a := parseHarvestCSV(t, harvestCSV(
		harvestLine("Jawa Barat", "", "", "1000"),
		harvestLine("Jawa Barat", "Bogor", "", "400"),
	))
	b := parseHarvestCSV(t, harvestCSV(
		harvestLine("Jawa Barat", "Bogor", "", "100"),
		harvestLine("Jawa Timur", "", "", "2000"),
	))

	merged := MergeHarvest(a, b)
	require.Len(t, merged, 3)
	assert.Equal(t, "Jawa Barat", merged[0].Province)
	assert.Equal(t, int64(1000), model.Value(merged[0].Harvested))
	assert.Equal(t, "Bogor", merged[1].Regency)
	assert.Equal(t, int64(500), model.Value(merged[1].Harvested))
	assert.Equal(t, int64(2), model.Value(merged[1].Fallow))
	assert.Equal(t, "Jawa Timur", merged[2].Province)

	assert.Equal(t, int64(400), model.Value(a[1].Harvested), "inputs are not mutated")
}

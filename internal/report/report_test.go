package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tani-io/tani/internal/aggregate"
	"github.com/tani-io/tani/internal/model"
	"github.com/tani-io/tani/internal/store/storetest"
)

const jawaBaratNarrative = `**Analisis Data Panen Wilayah: PROVINSI JAWA BARAT**

**1. Total Data Panen**
- Panen September: 500 ha
- Panen Oktober: 250 ha
- Luas Baku Sawah: 5,000 ha
- Alsintan: 20 unit
- Total Panen: 1,000 ha

**2. Wilayah Panen Tertinggi**
   1. Garut: 500 ha
   2. Bogor: 400 ha
   3. Kota Bandung: 100 ha

**3. Efektivitas Alsintan**
   1. Garut: Panen 500, Alsintan 10, Efektivitas 50.00
   2. Bogor: Panen 400, Alsintan 10, Efektivitas 40.00`

func TestNarrative_Province(t *testing.T) {
	b := NewBuilder(aggregate.NewEngine(storetest.Seeded(t)), "en")

	got, err := b.Narrative(context.Background(), model.Province("Jawa Barat"), "provinsi jawa barat")
	require.NoError(t, err)
	assert.Equal(t, jawaBaratNarrative, got)
}

func TestNarrative_IndonesianSeparators(t *testing.T) {
	b := NewBuilder(aggregate.NewEngine(storetest.Seeded(t)), "id")

	got, err := b.Narrative(context.Background(), model.Nation(), "")
	require.NoError(t, err)
	assert.Contains(t, got, "Wilayah: INDONESIA")
	assert.Contains(t, got, "- Total Panen: 3.700 ha")
	assert.Contains(t, got, "- Luas Baku Sawah: 16.500 ha")
}

func TestNarrative_NoData(t *testing.T) {
	b := NewBuilder(aggregate.NewEngine(storetest.Seeded(t)), "en")

	got, err := b.Narrative(context.Background(), model.NotFound(), "atlantis")
	require.NoError(t, err)
	assert.Equal(t, NoData, got)
}

type stubAggregator struct {
	total   *model.HarvestRecord
	harvest []aggregate.RegionHarvest
	err     error
}

func (s stubAggregator) ComputeTotal(context.Context, model.Region) (*model.HarvestRecord, error) {
	return s.total, s.err
}

func (s stubAggregator) RankByHarvest(context.Context, model.Region, int) ([]aggregate.RegionHarvest, error) {
	return s.harvest, nil
}

func (s stubAggregator) RankByMachineryEffectiveness(context.Context, model.Region, int) ([]aggregate.Effectiveness, error) {
	return nil, nil
}

func TestNarrative_EmptySections(t *testing.T) {
	b := NewBuilder(stubAggregator{total: &model.HarvestRecord{Province: "Bali"}}, "en")

	got, err := b.Narrative(context.Background(), model.Province("Bali"), "bali")
	require.NoError(t, err)
	assert.Contains(t, got, "- Total Panen: 0 ha")
	assert.Contains(t, got, "**2. Wilayah Panen Tertinggi**\n\n**3. Efektivitas Alsintan**")
	assert.True(t, len(got) > 0 && got[len(got)-1] == '*')
}

func TestNarrative_StoreError(t *testing.T) {
	b := NewBuilder(stubAggregator{err: errors.New("connection refused")}, "en")

	_, err := b.Narrative(context.Background(), model.Nation(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report: total")
}

func TestNewBuilder_BadLocale(t *testing.T) {
	b := NewBuilder(stubAggregator{}, "not a locale!")
	assert.Equal(t, "en", b.lang.String())
}

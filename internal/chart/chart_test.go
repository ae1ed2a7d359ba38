package chart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tani-io/tani/internal/aggregate"
	"github.com/tani-io/tani/internal/join"
	"github.com/tani-io/tani/internal/model"
	"github.com/tani-io/tani/internal/store/storetest"
)

func newSeededService(t *testing.T) *Service {
	t.Helper()
	st := storetest.Seeded(t)
	return New(aggregate.NewEngine(st), join.New(st), nil)
}

func TestClimate_Stations(t *testing.T) {
	s := newSeededService(t)

	got, err := s.Climate(context.Background(), model.Province("Jawa Barat"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Stasiun Bandung", got[0].Place)
	assert.Zero(t, got[0].Sunshine)
	assert.Equal(t, ClimatePoint{Place: "Stasiun Bogor", Rainfall: 200.5, Temperature: 26, Humidity: 80, Sunshine: 5.5}, got[1])
}

func TestClimate_NationByIsland(t *testing.T) {
	s := newSeededService(t)

	got, err := s.Climate(context.Background(), model.Nation())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jawa", got[0].Place)
	assert.InDelta(t, 450.5, got[0].Rainfall, 1e-9)
	assert.InDelta(t, 77.0, got[0].Temperature, 1e-9)
}

func TestClimate_UnmappedProvinceDropped(t *testing.T) {
	islands, err := LoadIslands([]byte("Jawa:\n  - Jawa Barat\n"))
	require.NoError(t, err)
	st := storetest.Seeded(t)
	s := New(aggregate.NewEngine(st), join.New(st), islands)

	got, err := s.Climate(context.Background(), model.Nation())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 350.5, got[0].Rainfall, 1e-9)
}

func TestHarvestRegions(t *testing.T) {
	s := newSeededService(t)

	got, err := s.HarvestRegions(context.Background(), model.Province("Jawa Barat"))
	require.NoError(t, err)
	assert.Equal(t, []HarvestPoint{
		{Region: "Garut", Harvested: 500},
		{Region: "Bogor", Harvested: 400},
		{Region: "Kota Bandung", Harvested: 100},
	}, got)
}

func TestHarvestVsSurvey(t *testing.T) {
	s := newSeededService(t)

	got, err := s.HarvestVsSurvey(context.Background(), model.Province("Jawa Barat"))
	require.NoError(t, err)
	require.Len(t, got.Harvest, 3)
	require.Len(t, got.Survey, 3)
	assert.Equal(t, "Garut", got.Survey[0].Regency)
	assert.Equal(t, "Kota Bandung", got.Survey[2].Regency)
}

func TestHarvestVsSurvey_NotFoundIsEmpty(t *testing.T) {
	s := newSeededService(t)

	got, err := s.HarvestVsSurvey(context.Background(), model.NotFound())
	require.NoError(t, err)
	assert.Empty(t, got.Harvest)
	assert.NotNil(t, got.Survey)
	assert.Empty(t, got.Survey)
}

type failingJoiner struct{}

func (failingJoiner) Climate(context.Context, model.Region, string) ([]model.ClimateRecord, error) {
	return nil, errors.New("timeout")
}

func (failingJoiner) TopSurveyByRice(context.Context, model.Region, int) ([]model.SurveyRecord, error) {
	return nil, errors.New("timeout")
}

func TestHarvestVsSurvey_Error(t *testing.T) {
	st := storetest.Seeded(t)
	s := New(aggregate.NewEngine(st), failingJoiner{}, nil)

	_, err := s.HarvestVsSurvey(context.Background(), model.Nation())
	require.Error(t, err)
	_, err = s.Climate(context.Background(), model.Nation())
	require.Error(t, err)
}

func TestMachineryEffectiveness(t *testing.T) {
	s := newSeededService(t)

	got, err := s.MachineryEffectiveness(context.Background(), model.Province("Jawa Barat"))
	require.NoError(t, err)
	assert.Equal(t, []EffectivenessPoint{
		{Region: "Garut", YieldEfficiency: 50},
		{Region: "Bogor", YieldEfficiency: 40},
	}, got)
}

func TestGeneralData(t *testing.T) {
	s := newSeededService(t)

	got, err := s.GeneralData(context.Background(), model.Regency("Bogor", "Jawa Barat"))
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.GeneralData(context.Background(), model.NotFound())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDefaultIslands(t *testing.T) {
	m := DefaultIslands()

	island, ok := m.Island("jawa timur")
	require.True(t, ok)
	assert.Equal(t, "Jawa", island)

	island, ok = m.Island("NTB")
	require.True(t, ok)
	assert.Equal(t, "Bali & Nusa Tenggara", island)

	_, ok = m.Island("Atlantis")
	assert.False(t, ok)
}

// Package chart shapes aggregation and join results into chart series.
package chart

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/tani-io/tani/internal/aggregate"
	"github.com/tani-io/tani/internal/model"
)

// TopN is the number of entries shown in ranking charts.
const TopN = 10

// Aggregator is the part of the aggregation engine charts read.
type Aggregator interface {
	FetchRecords(ctx context.Context, reg model.Region) ([]model.HarvestRecord, error)
	RankByHarvest(ctx context.Context, reg model.Region, topN int) ([]aggregate.RegionHarvest, error)
	RankByMachineryEffectiveness(ctx context.Context, reg model.Region, topN int) ([]aggregate.Effectiveness, error)
}

// Joiner is the part of the join service charts read.
type Joiner interface {
	Climate(ctx context.Context, reg model.Region, month string) ([]model.ClimateRecord, error)
	TopSurveyByRice(ctx context.Context, reg model.Region, n int) ([]model.SurveyRecord, error)
}

// ClimatePoint is one bar group of the climate chart.
type ClimatePoint struct {
	Place       string  `json:"tempat"`
	Rainfall    float64 `json:"curah_hujan"`
	Temperature float64 `json:"suhu"`
	Humidity    float64 `json:"kelembaban"`
	Sunshine    float64 `json:"lama_penyinaran"`
}

// HarvestPoint is one bar of a harvest ranking chart.
type HarvestPoint struct {
	Region    string `json:"wilayah"`
	Harvested int64  `json:"panen"`
}

// HarvestVsSurvey pairs the harvest ranking with the survey rows it is
// compared against.
type HarvestVsSurvey struct {
	Harvest []HarvestPoint       `json:"panen"`
	Survey  []model.SurveyRecord `json:"ksa"`
}

// EffectivenessPoint is one bar of the machinery-effectiveness chart.
type EffectivenessPoint struct {
	Region          string  `json:"wilayah"`
	YieldEfficiency float64 `json:"efektivitas_hasil"`
}

// Service builds chart series.
type Service struct {
	agg     Aggregator
	join    Joiner
	islands IslandMap
}

// New creates a Service. A nil islands map uses DefaultIslands.
func New(agg Aggregator, join Joiner, islands IslandMap) *Service {
	if islands == nil {
		islands = DefaultIslands()
	}
	return &Service{agg: agg, join: join, islands: islands}
}

// Climate returns September climate readings per station for a region, or
// per island group for the nation. Provinces outside the island mapping
// are left out of the national view.
func (s *Service) Climate(ctx context.Context, reg model.Region) ([]ClimatePoint, error) {
	rows, err := s.join.Climate(ctx, reg, "")
	if err != nil {
		return nil, err
	}
	if reg.Level != model.LevelNation {
		out := make([]ClimatePoint, 0, len(rows))
		for _, r := range rows {
			out = append(out, climatePoint(r.Station, r))
		}
		return out, nil
	}

	byIsland := make(map[string]*ClimatePoint)
	for _, r := range rows {
		island, ok := s.islands.Island(r.Province)
		if !ok {
			continue
		}
		p, ok := byIsland[island]
		if !ok {
			p = &ClimatePoint{Place: island}
			byIsland[island] = p
		}
		p.Rainfall += model.FloatValue(r.Rainfall)
		p.Temperature += model.FloatValue(r.Temperature)
		p.Humidity += model.FloatValue(r.Humidity)
		p.Sunshine += model.FloatValue(r.Sunshine)
	}
	out := make([]ClimatePoint, 0, len(byIsland))
	for _, p := range byIsland {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b ClimatePoint) int { return cmp.Compare(a.Place, b.Place) })
	return out, nil
}

func climatePoint(place string, r model.ClimateRecord) ClimatePoint {
	return ClimatePoint{
		Place:       place,
		Rainfall:    model.FloatValue(r.Rainfall),
		Temperature: model.FloatValue(r.Temperature),
		Humidity:    model.FloatValue(r.Humidity),
		Sunshine:    model.FloatValue(r.Sunshine),
	}
}

// HarvestRegions returns the top harvest ranking of a region.
func (s *Service) HarvestRegions(ctx context.Context, reg model.Region) ([]HarvestPoint, error) {
	ranked, err := s.agg.RankByHarvest(ctx, reg, TopN)
	if err != nil {
		return nil, err
	}
	return harvestPoints(ranked), nil
}

func harvestPoints(ranked []aggregate.RegionHarvest) []HarvestPoint {
	out := make([]HarvestPoint, len(ranked))
	for i, r := range ranked {
		out[i] = HarvestPoint{Region: r.Name, Harvested: r.Harvested}
	}
	return out
}

// HarvestVsSurvey fetches the harvest ranking and the top survey rows by
// rice production concurrently.
func (s *Service) HarvestVsSurvey(ctx context.Context, reg model.Region) (*HarvestVsSurvey, error) {
	var (
		ranked []aggregate.RegionHarvest
		survey []model.SurveyRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ranked, err = s.agg.RankByHarvest(gctx, reg, TopN)
		return err
	})
	g.Go(func() error {
		var err error
		survey, err = s.join.TopSurveyByRice(gctx, reg, TopN)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if survey == nil {
		survey = []model.SurveyRecord{}
	}
	return &HarvestVsSurvey{Harvest: harvestPoints(ranked), Survey: survey}, nil
}

// MachineryEffectiveness returns the yield-per-machine ranking of a region.
func (s *Service) MachineryEffectiveness(ctx context.Context, reg model.Region) ([]EffectivenessPoint, error) {
	ranked, err := s.agg.RankByMachineryEffectiveness(ctx, reg, TopN)
	if err != nil {
		return nil, err
	}
	out := make([]EffectivenessPoint, len(ranked))
	for i, r := range ranked {
		out[i] = EffectivenessPoint{Region: r.Name, YieldEfficiency: r.YieldEfficiency}
	}
	return out, nil
}

// GeneralData returns the raw harvest rows of a region.
func (s *Service) GeneralData(ctx context.Context, reg model.Region) ([]model.HarvestRecord, error) {
	rows, err := s.agg.FetchRecords(ctx, reg)
	if rows == nil && err == nil {
		rows = []model.HarvestRecord{}
	}
	return rows, err
}

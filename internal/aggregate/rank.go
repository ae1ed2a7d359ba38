package aggregate

import (
	"cmp"
	"context"
	"slices"

	"github.com/tani-io/tani/internal/model"
)

// RegionHarvest is one entry of a harvest ranking.
type RegionHarvest struct {
	Level     model.Level `json:"tingkat"`
	Name      string      `json:"wilayah"`
	Harvested int64       `json:"panen"`
}

// Effectiveness is one entry of a machinery-effectiveness ranking.
type Effectiveness struct {
	Province        string      `json:"provinsi"`
	Regency         string      `json:"kabupaten"`
	District        string      `json:"kecamatan"`
	Level           model.Level `json:"tingkat"`
	Name            string      `json:"wilayah"`
	Harvested       int64       `json:"panen"`
	BaselineArea    int64       `json:"luas_baku_sawah"`
	TotalMachinery  int64       `json:"total_alsintan"`
	AreaEfficiency  float64     `json:"efektivitas_luas"`
	YieldEfficiency float64     `json:"efektivitas_hasil"`
}

// RankByHarvest ranks the sub-regions of reg by harvested area, largest
// first, at the finest grain present below the region's rollup. Fewer than
// two fetched rows yield an empty ranking.
func (e *Engine) RankByHarvest(ctx context.Context, reg model.Region, topN int) ([]RegionHarvest, error) {
	rows, err := e.FetchRecords(ctx, reg)
	if err != nil || len(rows) < 2 {
		return nil, err
	}
	rows = withoutRollup(reg, rows)

	level, ok := finestLevel(rows)
	if !ok {
		return nil, nil
	}
	out := make([]RegionHarvest, 0, len(rows))
	for _, r := range rows {
		name := nameAt(r, level)
		if name == model.Sentinel || name == "" {
			continue
		}
		out = append(out, RegionHarvest{Level: level, Name: name, Harvested: model.Value(r.Harvested)})
	}
	slices.SortStableFunc(out, func(a, b RegionHarvest) int {
		if c := cmp.Compare(b.Harvested, a.Harvested); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return truncate(out, topN), nil
}

// RankByMachineryEffectiveness ranks rows by harvested area per machinery
// unit over September and October. Rows without machinery are skipped. The
// region's own rollup row is excluded for provinces, cities and regencies.
func (e *Engine) RankByMachineryEffectiveness(ctx context.Context, reg model.Region, topN int) ([]Effectiveness, error) {
	rows, err := e.FetchRecords(ctx, reg)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	switch reg.Level {
	case model.LevelProvince, model.LevelCity, model.LevelRegency:
		if len(rows) > 1 {
			rows = withoutRollup(reg, rows)
		}
	}

	out := make([]Effectiveness, 0, len(rows))
	for _, r := range rows {
		total := r.TotalMachinery()
		if total <= 0 {
			continue
		}
		level := rowLevel(r)
		eff := Effectiveness{
			Province:       r.Province,
			Regency:        r.Regency,
			District:       r.District,
			Level:          level,
			Name:           nameAt(r, level),
			Harvested:      model.Value(r.Harvested),
			BaselineArea:   model.Value(r.BaselineArea),
			TotalMachinery: total,
		}
		eff.AreaEfficiency = float64(eff.BaselineArea) / float64(total)
		eff.YieldEfficiency = float64(eff.Harvested) / float64(total)
		out = append(out, eff)
	}
	slices.SortStableFunc(out, func(a, b Effectiveness) int {
		return cmp.Compare(b.YieldEfficiency, a.YieldEfficiency)
	})
	return truncate(out, topN), nil
}

// finestLevel picks district, then regency, then province: the first grain
// at which some row carries a real name.
func finestLevel(rows []model.HarvestRecord) (model.Level, bool) {
	has := func(f func(model.HarvestRecord) string) bool {
		for _, r := range rows {
			if v := f(r); v != model.Sentinel && v != "" {
				return true
			}
		}
		return false
	}
	switch {
	case has(func(r model.HarvestRecord) string { return r.District }):
		return model.LevelDistrict, true
	case has(func(r model.HarvestRecord) string { return r.Regency }):
		return model.LevelRegency, true
	case has(func(r model.HarvestRecord) string { return r.Province }):
		return model.LevelProvince, true
	}
	return model.LevelNotFound, false
}

// rowLevel is the finest grain a single row names.
func rowLevel(r model.HarvestRecord) model.Level {
	switch {
	case r.District != model.Sentinel && r.District != "":
		return model.LevelDistrict
	case r.Regency != model.Sentinel && r.Regency != "":
		return model.LevelRegency
	}
	return model.LevelProvince
}

func nameAt(r model.HarvestRecord, level model.Level) string {
	switch level {
	case model.LevelDistrict:
		return r.District
	case model.LevelRegency:
		return r.Regency
	}
	return r.Province
}

func truncate[T any](s []T, n int) []T {
	if n <= 0 {
		n = DefaultTopN
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Package aggregate derives totals and rankings from harvest rows at the
// granularity a region resolved to.
package aggregate

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tani-io/tani/internal/model"
	"github.com/tani-io/tani/internal/store"
)

// DefaultTopN is the ranking length used when callers pass n <= 0.
const DefaultTopN = 10

// Engine runs aggregation queries against a store. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	store store.Reader
	log   *zap.Logger
}

// NewEngine creates an Engine reading from st.
func NewEngine(st store.Reader) *Engine {
	return &Engine{
		store: st,
		log:   zap.L().With(zap.String("component", "aggregate")),
	}
}

// FetchRecords returns the harvest rows covering a region: the province
// rollups for Nation, the province rollup and its regency rollups for a
// Province, the regency rollup and its districts for a City or Regency, and
// the matching district rows for a District. NotFound yields no rows.
func (e *Engine) FetchRecords(ctx context.Context, reg model.Region) ([]model.HarvestRecord, error) {
	var where []store.Cond
	switch reg.Level {
	case model.LevelNation:
		where = []store.Cond{
			store.Is(store.ColRegency, model.Sentinel),
			store.Is(store.ColDistrict, model.Sentinel),
		}
	case model.LevelProvince:
		where = []store.Cond{
			store.Is(store.ColProvince, reg.Name),
			store.Is(store.ColDistrict, model.Sentinel),
		}
	case model.LevelCity, model.LevelRegency:
		where = []store.Cond{store.Is(store.ColRegency, reg.Name)}
	case model.LevelDistrict:
		where = []store.Cond{store.Is(store.ColDistrict, reg.Name)}
	default:
		return nil, nil
	}

	rows, err := e.store.Harvest(ctx, store.HarvestQuery{Where: where})
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: fetch %s %q", reg.Level, reg.Name)
	}
	e.log.Debug("fetched records",
		zap.Stringer("level", reg.Level),
		zap.String("name", reg.Name),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// ComputeTotal returns one record summarising the region. For Nation every
// province rollup is summed; otherwise the rollup row of the region's grain
// is returned, or the first row when none is present. Nil means no data.
func (e *Engine) ComputeTotal(ctx context.Context, reg model.Region) (*model.HarvestRecord, error) {
	rows, err := e.FetchRecords(ctx, reg)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	if reg.Level == model.LevelNation {
		return sumNation(rows), nil
	}
	i := rollupIndex(reg, rows)
	if i < 0 {
		i = 0
	}
	total := rows[i]
	return &total, nil
}

func sumNation(rows []model.HarvestRecord) *model.HarvestRecord {
	total := &model.HarvestRecord{
		Province: model.NationName,
		Regency:  model.Sentinel,
		District: model.Sentinel,
	}
	for _, r := range rows {
		total.Add(r)
	}
	return total
}

// rollupIndex locates the row that aggregates the region itself, or -1.
func rollupIndex(reg model.Region, rows []model.HarvestRecord) int {
	for i, r := range rows {
		switch reg.Level {
		case model.LevelProvince:
			if r.IsProvinceRollup() {
				return i
			}
		case model.LevelCity, model.LevelRegency:
			if r.IsRegencyRollup() {
				return i
			}
		}
	}
	return -1
}

// withoutRollup drops the region's own rollup row. When no rollup row is
// recognisable the first row is dropped, so the result is always one
// shorter than the input.
func withoutRollup(reg model.Region, rows []model.HarvestRecord) []model.HarvestRecord {
	if len(rows) == 0 {
		return nil
	}
	i := rollupIndex(reg, rows)
	if i < 0 {
		i = 0
	}
	out := make([]model.HarvestRecord, 0, len(rows)-1)
	out = append(out, rows[:i]...)
	return append(out, rows[i+1:]...)
}

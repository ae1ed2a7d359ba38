// Package store persists harvest, climate, and survey tables and answers the
// filter, sort, and group-sum queries the region and aggregation layers need.
package store

import (
	"context"

	"github.com/tani-io/tani/internal/model"
)

// Table names a persisted table.
type Table string

const (
	TableHarvest Table = "data_panen"
	TableClimate Table = "data_iklim"
	TableSurvey  Table = "data_ksa"
)

// Tables lists every table the store owns.
var Tables = []Table{TableHarvest, TableClimate, TableSurvey}

// Reader is the read side used at query time.
type Reader interface {
	// Harvest returns matching harvest rows, rollup rows first, then ordered
	// by province, regency, district.
	Harvest(ctx context.Context, q HarvestQuery) ([]model.HarvestRecord, error)

	// Climate returns station rows ordered by province then station.
	Climate(ctx context.Context, q ClimateQuery) ([]model.ClimateRecord, error)

	// ClimateByProvince sums the four readings of matching rows per province.
	// Station and month are dropped from the result.
	ClimateByProvince(ctx context.Context, q ClimateQuery) ([]model.ClimateRecord, error)

	// Survey returns matching survey rows in q.Order.
	Survey(ctx context.Context, q SurveyQuery) ([]model.SurveyRecord, error)
}

// Writer is the bulk-load side used by ingest. Each upsert runs in one
// transaction.
type Writer interface {
	UpsertHarvest(ctx context.Context, recs []model.HarvestRecord, opts ...WriteOption) (int64, error)
	UpsertClimate(ctx context.Context, recs []model.ClimateRecord, opts ...WriteOption) (int64, error)
	UpsertSurvey(ctx context.Context, recs []model.SurveyRecord, opts ...WriteOption) (int64, error)
	Truncate(ctx context.Context, tables ...Table) error
}

// WriteOption tunes a single upsert.
type WriteOption func(*writeOptions)

type writeOptions struct {
	replace bool
}

// Replacing empties the table inside the upsert's transaction, so a write
// that fails leaves the previous rows in place.
func Replacing() WriteOption {
	return func(o *writeOptions) { o.replace = true }
}

func newWriteOptions(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store is the full persistence interface.
type Store interface {
	Reader
	Writer

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

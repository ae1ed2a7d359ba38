// Package storetest provides a seeded SQLite store for tests of the packages
// that sit on top of the store.
package storetest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tani-io/tani/internal/model"
	"github.com/tani-io/tani/internal/store"
)

// New opens an empty, migrated SQLite store under t.TempDir.
func New(t *testing.T) *store.SQLiteStore {
	t.Helper()
	return Open(t, filepath.Join(t.TempDir(), "tani.db"))
}

// Open opens and migrates a SQLite store at path, closed on cleanup.
func Open(t *testing.T, path string) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// Seeded opens a store loaded with Harvest, Climate and Survey.
func Seeded(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st := New(t)
	Seed(t, st)
	return st
}

// Seed loads Harvest, Climate and Survey into st.
func Seed(t *testing.T, st store.Writer) {
	t.Helper()
	ctx := context.Background()
	_, err := st.UpsertHarvest(ctx, Harvest())
	require.NoError(t, err)
	_, err = st.UpsertClimate(ctx, Climate())
	require.NoError(t, err)
	_, err = st.UpsertSurvey(ctx, Survey())
	require.NoError(t, err)
}

// SeededHomonyms opens a store loaded with Homonyms.
func SeededHomonyms(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st := New(t)
	_, err := st.UpsertHarvest(context.Background(), Homonyms())
	require.NoError(t, err)
	return st
}

// RejectInserts makes every later insert into table at path fail, so tests
// can break a write half way through its transaction.
func RejectInserts(t *testing.T, path string, table store.Table) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	_, err = db.Exec(fmt.Sprintf(
		"CREATE TRIGGER reject_%[1]s BEFORE INSERT ON %[1]s BEGIN SELECT RAISE(ABORT, 'insert rejected'); END", table))
	require.NoError(t, err)
}

func harvest(prov, reg, dist string, panen, alsSep, alsOct, baku int64) model.HarvestRecord {
	return model.HarvestRecord{
		Province:           prov,
		Regency:            reg,
		District:           dist,
		HarvestEstimateSep: model.Int(panen / 2),
		HarvestEstimateOct: model.Int(panen / 4),
		MachinerySep:       model.Int(alsSep),
		MachineryOct:       model.Int(alsOct),
		Fallow:             model.Int(1),
		Flooding:           model.Int(2),
		Planting:           model.Int(3),
		Vegetative1:        model.Int(4),
		Vegetative2:        model.Int(5),
		MaxVegetative:      model.Int(6),
		Generative1:        model.Int(7),
		Generative2:        model.Int(8),
		Harvested:          model.Int(panen),
		StandingCrop:       model.Int(9),
		BaselineArea:       model.Int(baku),
	}
}

// Harvest is the seeded harvest table.
//
//	Jawa Barat (rollup)       panen 1000
//	  Bogor                   panen  400
//	    Cibinong              panen  150
//	    Ciawi                 panen  250
//	  Garut                   panen  500
//	  Kota Bandung            panen  100, no machinery
//	Jawa Timur (rollup)       panen 2000
//	  Malang                  panen 2000
//	Sulawesi Selatan (rollup) panen  700, machinery absent
func Harvest() []model.HarvestRecord {
	sulsel := harvest("Sulawesi Selatan", model.Sentinel, model.Sentinel, 700, 0, 0, 3500)
	sulsel.MachinerySep = nil
	sulsel.MachineryOct = nil
	return []model.HarvestRecord{
		harvest("Jawa Barat", model.Sentinel, model.Sentinel, 1000, 10, 10, 5000),
		harvest("Jawa Barat", "Bogor", model.Sentinel, 400, 4, 6, 2000),
		harvest("Jawa Barat", "Bogor", "Cibinong", 150, 1, 1, 600),
		harvest("Jawa Barat", "Bogor", "Ciawi", 250, 2, 3, 1400),
		harvest("Jawa Barat", "Garut", model.Sentinel, 500, 5, 5, 2700),
		harvest("Jawa Barat", "Kota Bandung", model.Sentinel, 100, 0, 0, 300),
		harvest("Jawa Timur", model.Sentinel, model.Sentinel, 2000, 20, 20, 8000),
		harvest("Jawa Timur", "Malang", model.Sentinel, 2000, 20, 20, 8000),
		sulsel,
	}
}

// Homonyms is a harvest table where names collide across levels and one
// name is contained in another.
//
//	Jawa Barat  Bandung / Ciawigebang  panen   80
//	Jawa Barat  Bogor / Ciawi          panen  250
//	Jawa Tengah (rollup)               panen 1000
//	  Kota Magelang                    panen  100
//	  Magelang                         panen  900
//	Jawa Timur  Sidoarjo               panen  300
//	  Waru                             panen  300
func Homonyms() []model.HarvestRecord {
	return []model.HarvestRecord{
		harvest("Jawa Barat", "Bandung", "Ciawigebang", 80, 1, 1, 200),
		harvest("Jawa Barat", "Bogor", "Ciawi", 250, 2, 3, 1400),
		harvest("Jawa Tengah", model.Sentinel, model.Sentinel, 1000, 10, 10, 4000),
		harvest("Jawa Tengah", "Kota Magelang", model.Sentinel, 100, 1, 1, 300),
		harvest("Jawa Tengah", "Magelang", model.Sentinel, 900, 9, 9, 3700),
		harvest("Jawa Timur", "Sidoarjo", model.Sentinel, 300, 3, 3, 1200),
		harvest("Jawa Timur", "Sidoarjo", "Waru", 300, 3, 3, 1200),
	}
}

// Climate is the seeded climate table. Stasiun Bandung has no sunshine reading.
func Climate() []model.ClimateRecord {
	f := model.Float
	return []model.ClimateRecord{
		{Station: "Stasiun Bogor", Province: "Jawa Barat", Month: "September",
			Rainfall: f(200.5), Temperature: f(26), Humidity: f(80), Sunshine: f(5.5)},
		{Station: "Stasiun Bandung", Province: "Jawa Barat", Month: "September",
			Rainfall: f(150), Temperature: f(24), Humidity: f(75)},
		{Station: "Stasiun Bogor", Province: "Jawa Barat", Month: "Oktober",
			Rainfall: f(300), Temperature: f(25.5), Humidity: f(85), Sunshine: f(4)},
		{Station: "Stasiun Malang", Province: "Jawa Timur", Month: "September",
			Rainfall: f(100), Temperature: f(27), Humidity: f(70), Sunshine: f(7)},
	}
}

// Survey is the seeded area-sampling survey table.
func Survey() []model.SurveyRecord {
	i := model.Int
	return []model.SurveyRecord{
		{Province: "Jawa Barat", Regency: "Bogor", Month: "September", Year: 2025,
			HarvestedArea: i(900), RiceProduction: i(5000), MilledRiceProduction: i(3000)},
		{Province: "Jawa Barat", Regency: "Bogor", Month: "September", Year: 2024,
			HarvestedArea: i(800), RiceProduction: i(4000), MilledRiceProduction: i(2500)},
		{Province: "Jawa Barat", Regency: "Kota Bandung", Month: "September", Year: 2025,
			HarvestedArea: i(50), RiceProduction: i(250), MilledRiceProduction: i(150)},
		{Province: "Jawa Barat", Regency: "Garut", Month: "September", Year: 2025,
			HarvestedArea: i(1200), RiceProduction: i(7000), MilledRiceProduction: i(4200)},
		{Province: "Jawa Barat", Regency: "Garut", Month: "Oktober", Year: 2025,
			HarvestedArea: i(1000), RiceProduction: i(6000), MilledRiceProduction: i(3600)},
		{Province: "Jawa Timur", Regency: "Malang", Month: "September", Year: 2025,
			HarvestedArea: i(1500), RiceProduction: i(9000), MilledRiceProduction: i(5400)},
	}
}

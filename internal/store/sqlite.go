package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tani-io/tani/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA case_sensitive_like=OFF",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS data_panen (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
	provinsi                  TEXT NOT NULL,
	kabupaten                 TEXT NOT NULL DEFAULT '-',
	kecamatan                 TEXT NOT NULL DEFAULT '-',
	perkiraan_panen_september INTEGER,
	perkiraan_panen_oktober   INTEGER,
	alsintan_september        INTEGER,
	alsintan_oktober          INTEGER,
	bera                      INTEGER,
	penggenangan              INTEGER,
	tanam                     INTEGER,
	vegetatif_1               INTEGER,
	vegetatif_2               INTEGER,
	max_vegetatif             INTEGER,
	generatif_1               INTEGER,
	generatif_2               INTEGER,
	panen                     INTEGER,
	standing_crop             INTEGER,
	luas_baku_sawah           INTEGER,
	UNIQUE (provinsi, kabupaten, kecamatan)
);

CREATE TABLE IF NOT EXISTS data_iklim (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	stasiun         TEXT NOT NULL,
	provinsi        TEXT NOT NULL,
	bulan           TEXT NOT NULL,
	curah_hujan     REAL,
	suhu            REAL,
	kelembaban      REAL,
	lama_penyinaran REAL,
	UNIQUE (stasiun, bulan)
);

CREATE TABLE IF NOT EXISTS data_ksa (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	provinsi       TEXT NOT NULL,
	kabupaten      TEXT NOT NULL,
	bulan          TEXT NOT NULL,
	tahun          INTEGER NOT NULL,
	luas_panen     INTEGER,
	produksi_padi  INTEGER,
	produksi_beras INTEGER,
	UNIQUE (provinsi, kabupaten, bulan, tahun)
);

CREATE INDEX IF NOT EXISTS idx_data_panen_kabupaten ON data_panen(kabupaten);
CREATE INDEX IF NOT EXISTS idx_data_panen_kecamatan ON data_panen(kecamatan);
CREATE INDEX IF NOT EXISTS idx_data_iklim_provinsi ON data_iklim(provinsi, bulan);
CREATE INDEX IF NOT EXISTS idx_data_ksa_kabupaten ON data_ksa(kabupaten);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Harvest(ctx context.Context, q HarvestQuery) ([]model.HarvestRecord, error) {
	query, args := buildHarvestSQL(question, q)
	return sqliteQueryAll(ctx, s.db, query, args, scanHarvest, "sqlite: harvest")
}

func (s *SQLiteStore) Climate(ctx context.Context, q ClimateQuery) ([]model.ClimateRecord, error) {
	query, args := buildClimateSQL(question, q)
	return sqliteQueryAll(ctx, s.db, query, args, scanClimate, "sqlite: climate")
}

func (s *SQLiteStore) ClimateByProvince(ctx context.Context, q ClimateQuery) ([]model.ClimateRecord, error) {
	query, args := buildClimateByProvinceSQL(question, q)
	return sqliteQueryAll(ctx, s.db, query, args, scanClimateSum, "sqlite: climate by province")
}

func (s *SQLiteStore) Survey(ctx context.Context, q SurveyQuery) ([]model.SurveyRecord, error) {
	query, args := buildSurveySQL(question, q)
	return sqliteQueryAll(ctx, s.db, query, args, scanSurvey, "sqlite: survey")
}

func sqliteQueryAll[T any](ctx context.Context, db *sql.DB, query string, args []any, scan func(scanner) (T, error), op string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, op)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: scan", op)
		}
		out = append(out, v)
	}
	return out, eris.Wrapf(rows.Err(), "%s: rows", op)
}

func (s *SQLiteStore) UpsertHarvest(ctx context.Context, recs []model.HarvestRecord, opts ...WriteOption) (int64, error) {
	return s.upsert(ctx, TableHarvest, harvestInsertColumns, harvestConflictKeys, harvestRows(recs), newWriteOptions(opts))
}

func (s *SQLiteStore) UpsertClimate(ctx context.Context, recs []model.ClimateRecord, opts ...WriteOption) (int64, error) {
	return s.upsert(ctx, TableClimate, climateInsertColumns, climateConflictKeys, climateRows(recs), newWriteOptions(opts))
}

func (s *SQLiteStore) UpsertSurvey(ctx context.Context, recs []model.SurveyRecord, opts ...WriteOption) (int64, error) {
	return s.upsert(ctx, TableSurvey, surveyInsertColumns, surveyConflictKeys, surveyRows(recs), newWriteOptions(opts))
}

// upsert inserts rows inside one transaction with a prepared
// INSERT ... ON CONFLICT DO UPDATE statement. With replace the table is
// emptied first in the same transaction.
func (s *SQLiteStore) upsert(ctx context.Context, table Table, cols, keys []string, rows [][]any, o writeOptions) (int64, error) {
	if len(rows) == 0 && !o.replace {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert %s: begin", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if o.replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+string(table)); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert %s: clear", table)
		}
	}

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertSQL(table, cols, keys))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert %s: prepare", table)
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, row := range rows {
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert %s", table)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert %s: commit", table)
	}
	return n, nil
}

func sqliteUpsertSQL(table Table, cols, keys []string) string {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	var sets []string
	for _, c := range cols {
		if !isKey[c] {
			sets = append(sets, c+" = excluded."+c)
		}
	}
	ph := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return "INSERT INTO " + string(table) + " (" + strings.Join(cols, ", ") + ") VALUES (" + ph +
		") ON CONFLICT (" + strings.Join(keys, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

// Truncate empties the given tables, or every table when none are given.
func (s *SQLiteStore) Truncate(ctx context.Context, tables ...Table) error {
	if len(tables) == 0 {
		tables = Tables
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+string(t)); err != nil {
			return eris.Wrapf(err, "sqlite: truncate %s", t)
		}
	}
	return nil
}

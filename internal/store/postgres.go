package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tani-io/tani/internal/db"
	"github.com/tani-io/tani/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS data_panen (
	id                        SERIAL PRIMARY KEY,
	provinsi                  TEXT NOT NULL,
	kabupaten                 TEXT NOT NULL DEFAULT '-',
	kecamatan                 TEXT NOT NULL DEFAULT '-',
	perkiraan_panen_september BIGINT,
	perkiraan_panen_oktober   BIGINT,
	alsintan_september        BIGINT,
	alsintan_oktober          BIGINT,
	bera                      BIGINT,
	penggenangan              BIGINT,
	tanam                     BIGINT,
	vegetatif_1               BIGINT,
	vegetatif_2               BIGINT,
	max_vegetatif             BIGINT,
	generatif_1               BIGINT,
	generatif_2               BIGINT,
	panen                     BIGINT,
	standing_crop             BIGINT,
	luas_baku_sawah           BIGINT,
	UNIQUE (provinsi, kabupaten, kecamatan)
);

CREATE TABLE IF NOT EXISTS data_iklim (
	id              SERIAL PRIMARY KEY,
	stasiun         TEXT NOT NULL,
	provinsi        TEXT NOT NULL,
	bulan           TEXT NOT NULL,
	curah_hujan     DOUBLE PRECISION,
	suhu            DOUBLE PRECISION,
	kelembaban      DOUBLE PRECISION,
	lama_penyinaran DOUBLE PRECISION,
	UNIQUE (stasiun, bulan)
);

CREATE TABLE IF NOT EXISTS data_ksa (
	id             SERIAL PRIMARY KEY,
	provinsi       TEXT NOT NULL,
	kabupaten      TEXT NOT NULL,
	bulan          TEXT NOT NULL,
	tahun          INTEGER NOT NULL,
	luas_panen     BIGINT,
	produksi_padi  BIGINT,
	produksi_beras BIGINT,
	UNIQUE (provinsi, kabupaten, bulan, tahun)
);

CREATE INDEX IF NOT EXISTS idx_data_panen_provinsi ON data_panen (LOWER(provinsi));
CREATE INDEX IF NOT EXISTS idx_data_panen_kabupaten ON data_panen (LOWER(kabupaten));
CREATE INDEX IF NOT EXISTS idx_data_panen_kecamatan ON data_panen (LOWER(kecamatan));
CREATE INDEX IF NOT EXISTS idx_data_iklim_provinsi_bulan ON data_iklim (LOWER(provinsi), bulan);
CREATE INDEX IF NOT EXISTS idx_data_ksa_kabupaten ON data_ksa (LOWER(kabupaten));
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Harvest(ctx context.Context, q HarvestQuery) ([]model.HarvestRecord, error) {
	sql, args := buildHarvestSQL(dollar, q)
	return queryAll(ctx, s.pool, sql, args, scanHarvest, "postgres: harvest")
}

func (s *PostgresStore) Climate(ctx context.Context, q ClimateQuery) ([]model.ClimateRecord, error) {
	sql, args := buildClimateSQL(dollar, q)
	return queryAll(ctx, s.pool, sql, args, scanClimate, "postgres: climate")
}

func (s *PostgresStore) ClimateByProvince(ctx context.Context, q ClimateQuery) ([]model.ClimateRecord, error) {
	sql, args := buildClimateByProvinceSQL(dollar, q)
	return queryAll(ctx, s.pool, sql, args, scanClimateSum, "postgres: climate by province")
}

func (s *PostgresStore) Survey(ctx context.Context, q SurveyQuery) ([]model.SurveyRecord, error) {
	sql, args := buildSurveySQL(dollar, q)
	return queryAll(ctx, s.pool, sql, args, scanSurvey, "postgres: survey")
}

func queryAll[T any](ctx context.Context, pool db.Pool, sql string, args []any, scan func(scanner) (T, error), op string) ([]T, error) {
	rows, err := pool.Query(ctx, sql, args...)
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

func (s *PostgresStore) UpsertHarvest(ctx context.Context, recs []model.HarvestRecord, opts ...WriteOption) (int64, error) {
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        string(TableHarvest),
		Columns:      harvestInsertColumns,
		ConflictKeys: harvestConflictKeys,
		Replace:      newWriteOptions(opts).replace,
	}, harvestRows(recs))
	return n, eris.Wrap(err, "postgres: upsert harvest")
}

func (s *PostgresStore) UpsertClimate(ctx context.Context, recs []model.ClimateRecord, opts ...WriteOption) (int64, error) {
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        string(TableClimate),
		Columns:      climateInsertColumns,
		ConflictKeys: climateConflictKeys,
		Replace:      newWriteOptions(opts).replace,
	}, climateRows(recs))
	return n, eris.Wrap(err, "postgres: upsert climate")
}

func (s *PostgresStore) UpsertSurvey(ctx context.Context, recs []model.SurveyRecord, opts ...WriteOption) (int64, error) {
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        string(TableSurvey),
		Columns:      surveyInsertColumns,
		ConflictKeys: surveyConflictKeys,
		Replace:      newWriteOptions(opts).replace,
	}, surveyRows(recs))
	return n, eris.Wrap(err, "postgres: upsert survey")
}

// Truncate empties the given tables, or every table when none are given.
func (s *PostgresStore) Truncate(ctx context.Context, tables ...Table) error {
	if len(tables) == 0 {
		tables = Tables
	}
	ids := make([]string, len(tables))
	for i, t := range tables {
		ids[i] = pgx.Identifier{string(t)}.Sanitize()
	}
	_, err := s.pool.Exec(ctx, "TRUNCATE "+strings.Join(ids, ", ")+" RESTART IDENTITY")
	return eris.Wrap(err, "postgres: truncate")
}

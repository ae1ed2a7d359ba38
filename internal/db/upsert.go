package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a bulk upsert into one table.
type UpsertConfig struct {
	Table        string   // target table, e.g. "data_panen"
	Columns      []string // columns carried by each row
	ConflictKeys []string // columns of the unique constraint
	UpdateCols   []string // nil = every non-key column
	Replace      bool     // delete every existing row first, in the same tx
}

// BulkUpsert loads rows through a temp table and merges them with
// INSERT ... ON CONFLICT DO UPDATE, all inside one transaction. With
// cfg.Replace the table is emptied in that transaction first, so readers
// never see it empty and a failed load keeps the old rows.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 && !cfg.Replace {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, eris.New("db: upsert: no conflict keys specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if cfg.Replace {
		if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{cfg.Table}.Sanitize()); err != nil {
			return 0, eris.Wrapf(err, "db: upsert: clear %s", cfg.Table)
		}
	}

	var n int64
	if len(rows) > 0 {
		tmp := "_tmp_upsert_" + cfg.Table
		if _, err := tx.Exec(ctx, createTempSQL(tmp, cfg.Table)); err != nil {
			return 0, eris.Wrapf(err, "db: upsert: create temp table for %s", cfg.Table)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{tmp}, cfg.Columns, pgx.CopyFromRows(rows)); err != nil {
			return 0, eris.Wrapf(err, "db: upsert: copy into temp table for %s", cfg.Table)
		}

		tag, err := tx.Exec(ctx, upsertSQL(tmp, cfg))
		if err != nil {
			return 0, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
		}
		n = tag.RowsAffected()
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return n, nil
}

func createTempSQL(tmp, table string) string {
	return fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{tmp}.Sanitize(), pgx.Identifier{table}.Sanitize())
}

func upsertSQL(tmp string, cfg UpsertConfig) string {
	update := cfg.UpdateCols
	if update == nil {
		keys := make(map[string]bool, len(cfg.ConflictKeys))
		for _, k := range cfg.ConflictKeys {
			keys[k] = true
		}
		for _, c := range cfg.Columns {
			if !keys[c] {
				update = append(update, c)
			}
		}
	}

	cols := quoteAndJoin(cfg.Columns)
	action := "DO NOTHING"
	if len(update) > 0 {
		sets := make([]string, len(update))
		for i, c := range update {
			id := pgx.Identifier{c}.Sanitize()
			sets[i] = id + " = EXCLUDED." + id
		}
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		pgx.Identifier{cfg.Table}.Sanitize(), cols, cols,
		pgx.Identifier{tmp}.Sanitize(), quoteAndJoin(cfg.ConflictKeys), action)
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

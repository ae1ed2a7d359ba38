package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tani-io/tani/internal/model"
	"github.com/tani-io/tani/internal/resilience"
	"github.com/tani-io/tani/internal/store"
)

// DefaultParallelism bounds how many files are parsed at once.
const DefaultParallelism = 4

// Sources names the files to load per table. Empty lists leave that table
// untouched.
type Sources struct {
	Harvest []string
	Climate []string
	Survey  []string
}

// Empty reports whether no file is named.
func (s Sources) Empty() bool {
	return len(s.Harvest) == 0 && len(s.Climate) == 0 && len(s.Survey) == 0
}

// Result counts the rows written per table.
type Result struct {
	Harvest int64 `json:"harvest"`
	Climate int64 `json:"climate"`
	Survey  int64 `json:"survey"`
}

// Loader parses source files and upserts them through a store.Writer.
type Loader struct {
	store       store.Writer
	retry       resilience.RetryConfig
	parallelism int
	replace     bool
	log         *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithRetry sets the retry policy for store writes.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(l *Loader) { l.retry = cfg }
}

// WithParallelism sets how many files are parsed concurrently.
func WithParallelism(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.parallelism = n
		}
	}
}

// WithReplace empties each loaded table in the same transaction that writes
// it. Tables are replaced one at a time; a failed table keeps its old rows.
func WithReplace(replace bool) Option {
	return func(l *Loader) { l.replace = replace }
}

// NewLoader creates a Loader writing to w.
func NewLoader(w store.Writer, opts ...Option) *Loader {
	l := &Loader{
		store:       w,
		retry:       resilience.DefaultRetryConfig(),
		parallelism: DefaultParallelism,
		log:         zap.L().With(zap.String("component", "ingest")),
	}
	for _, o := range opts {
		o(l)
	}
	if l.retry.OnRetry == nil {
		l.retry.OnRetry = resilience.RetryLogger("ingest.upsert")
	}
	return l
}

type parsed struct {
	harvest [][]model.HarvestRecord
	climate [][]model.ClimateRecord
	survey  [][]model.SurveyRecord
}

// Load parses every source concurrently, then writes each table. Nothing is
// written if any file fails to parse.
func (l *Loader) Load(ctx context.Context, src Sources) (Result, error) {
	var res Result
	if src.Empty() {
		return res, eris.New("ingest: no source files")
	}
	start := time.Now()

	p, err := l.parse(ctx, src)
	if err != nil {
		return res, err
	}

	var opts []store.WriteOption
	if l.replace {
		opts = append(opts, store.Replacing())
	}

	if len(src.Harvest) > 0 {
		recs := MergeHarvest(p.harvest...)
		if res.Harvest, err = l.write(ctx, store.TableHarvest, func(ctx context.Context) (int64, error) {
			return l.store.UpsertHarvest(ctx, recs, opts...)
		}); err != nil {
			return res, err
		}
	}
	if len(src.Climate) > 0 {
		recs := concat(p.climate)
		if res.Climate, err = l.write(ctx, store.TableClimate, func(ctx context.Context) (int64, error) {
			return l.store.UpsertClimate(ctx, recs, opts...)
		}); err != nil {
			return res, err
		}
	}
	if len(src.Survey) > 0 {
		recs := concat(p.survey)
		if res.Survey, err = l.write(ctx, store.TableSurvey, func(ctx context.Context) (int64, error) {
			return l.store.UpsertSurvey(ctx, recs, opts...)
		}); err != nil {
			return res, err
		}
	}

	l.log.Info("ingest complete",
		zap.Int64("harvest", res.Harvest),
		zap.Int64("climate", res.Climate),
		zap.Int64("survey", res.Survey),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (l *Loader) parse(ctx context.Context, src Sources) (*parsed, error) {
	p := &parsed{
		harvest: make([][]model.HarvestRecord, len(src.Harvest)),
		climate: make([][]model.ClimateRecord, len(src.Climate)),
		survey:  make([][]model.SurveyRecord, len(src.Survey)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)

	for i, path := range src.Harvest {
		g.Go(func() error {
			recs, err := parseFile(gctx, path, ParseHarvest)
			p.harvest[i] = recs
			return err
		})
	}
	for i, path := range src.Climate {
		g.Go(func() error {
			recs, err := parseFile(gctx, path, ParseClimate)
			p.climate[i] = recs
			return err
		})
	}
	for i, path := range src.Survey {
		g.Go(func() error {
			recs, err := parseFile(gctx, path, ParseSurvey)
			p.survey[i] = recs
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseFile[T any](ctx context.Context, path string, parse func(*Table) ([]T, error)) ([]T, error) {
	t, err := ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	recs, err := parse(t)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("ingest: parsed file",
		zap.String("path", path),
		zap.Int("rows", len(t.Rows)),
		zap.Int("records", len(recs)),
	)
	return recs, nil
}

func (l *Loader) write(ctx context.Context, table store.Table, fn func(context.Context) (int64, error)) (int64, error) {
	n, err := resilience.DoVal(ctx, l.retry, fn)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: write %s", table)
	}
	l.log.Info("table loaded", zap.String("table", string(table)), zap.Int64("rows", n))
	return n, nil
}

func concat[T any](sets [][]T) []T {
	var out []T
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

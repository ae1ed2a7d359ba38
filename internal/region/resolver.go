// Package region resolves free-text region references to a level of the
// Indonesian administrative hierarchy.
package region

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tani-io/tani/internal/model"
	"github.com/tani-io/tani/internal/store"
)

// Observer is notified of every resolution outcome.
type Observer interface {
	ObserveResolve(level model.Level)
}

// Resolver maps region text onto the stored hierarchy. It is safe for
// concurrent use.
type Resolver struct {
	store    store.Reader
	match    store.Match
	observer Observer
	log      *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMatch sets the name matching strategy. The default is substring.
func WithMatch(m store.Match) Option {
	return func(r *Resolver) { r.match = m }
}

// WithObserver registers an outcome observer.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// NewResolver creates a Resolver reading from st.
func NewResolver(st store.Reader, opts ...Option) *Resolver {
	r := &Resolver{
		store: st,
		match: store.MatchSubstring,
		log:   zap.L().With(zap.String("component", "region")),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Match returns the configured matching strategy.
func (r *Resolver) Match() store.Match { return r.match }

// Resolve classifies text and fills in parent names from the store.
// An unresolvable reference yields model.NotFound with a nil error; the
// error is non-nil only when the store fails.
func (r *Resolver) Resolve(ctx context.Context, text string) (model.Region, error) {
	reg, err := r.resolve(ctx, text)
	if err != nil {
		return model.NotFound(), err
	}
	if r.observer != nil {
		r.observer.ObserveResolve(reg.Level)
	}
	r.log.Debug("resolved region",
		zap.String("input", text),
		zap.Stringer("level", reg.Level),
		zap.String("name", reg.Name),
	)
	return reg, nil
}

func (r *Resolver) resolve(ctx context.Context, text string) (model.Region, error) {
	norm := normalize(text)
	if norm == "" {
		return model.NotFound(), nil
	}

	level, name := classify(norm)
	switch level {
	case model.LevelNation:
		return model.Nation(), nil
	case model.LevelProvince:
		return r.province(ctx, name, true)
	case model.LevelCity:
		return r.city(ctx, name, true)
	case model.LevelRegency:
		return r.regency(ctx, name, true)
	case model.LevelDistrict:
		return r.district(ctx, name, true)
	}
	if name == "" {
		return model.NotFound(), nil
	}

	// No keyword: try each level against the store in precedence order.
	for _, try := range []func(context.Context, string, bool) (model.Region, error){
		r.province, r.city, r.regency, r.district,
	} {
		reg, err := try(ctx, name, false)
		if err != nil || reg.Found() {
			return reg, err
		}
	}
	return model.NotFound(), nil
}

// Each lookup below returns the level built from the first matching row.
// With keep set, a miss still yields the level with a title-cased name and
// empty parents; otherwise a miss yields NotFound.

func (r *Resolver) province(ctx context.Context, name string, keep bool) (model.Region, error) {
	row, err := r.first(ctx, store.ColProvince, name)
	switch {
	case err != nil:
		return model.Region{}, err
	case row != nil:
		return model.Province(row.Province), nil
	case keep:
		return model.Province(titleCase(name)), nil
	}
	return model.NotFound(), nil
}

func (r *Resolver) city(ctx context.Context, name string, keep bool) (model.Region, error) {
	full := "kota " + name
	row, err := r.first(ctx, store.ColRegency, full)
	switch {
	case err != nil:
		return model.Region{}, err
	case row != nil:
		return model.City(row.Regency, row.Province), nil
	case keep:
		return model.City(titleCase(full), ""), nil
	}
	return model.NotFound(), nil
}

// notCity keeps "Kota X" rows out of regency lookups for "X".
var notCity = store.NotLike(store.ColRegency, "kota ", store.MatchPrefix)

func (r *Resolver) regency(ctx context.Context, name string, keep bool) (model.Region, error) {
	row, err := r.first(ctx, store.ColRegency, name, notCity)
	switch {
	case err != nil:
		return model.Region{}, err
	case row != nil:
		return model.Regency(row.Regency, row.Province), nil
	case keep:
		return model.Regency(titleCase(name), ""), nil
	}
	return model.NotFound(), nil
}

func (r *Resolver) district(ctx context.Context, name string, keep bool) (model.Region, error) {
	row, err := r.first(ctx, store.ColDistrict, name)
	switch {
	case err != nil:
		return model.Region{}, err
	case row != nil:
		return model.District(row.District, row.Regency, row.Province), nil
	case keep:
		return model.District(titleCase(name), "", ""), nil
	}
	return model.NotFound(), nil
}

// first returns the first row whose column equals name, ignoring case, and
// only then the first row the configured strategy matches. An exact name
// always beats a longer name that merely contains it.
func (r *Resolver) first(ctx context.Context, col store.Column, name string, extra ...store.Cond) (*model.HarvestRecord, error) {
	conds := []store.Cond{store.Is(col, name)}
	if r.match != store.MatchExact {
		conds = append(conds, store.Like(col, name, r.match))
	}
	for _, c := range conds {
		rows, err := r.store.Harvest(ctx, store.HarvestQuery{
			Where: append([]store.Cond{c}, extra...),
			Limit: 1,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "region: lookup %s %q", col, name)
		}
		if len(rows) > 0 {
			return &rows[0], nil
		}
	}
	return nil, nil
}

// titleCase renders an unmatched name the way stored names are written.
// A Caser is stateful, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Indonesian).String(s)
}

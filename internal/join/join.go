// Package join reads the climate and area-sampling survey tables for a
// resolved region.
package join

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tani-io/tani/internal/model"
	"github.com/tani-io/tani/internal/store"
)

// DefaultClimateMonth is the month used when a climate request names none.
const DefaultClimateMonth = "September"

// Service joins climate and survey rows onto regions.
type Service struct {
	store store.Reader
	match store.Match
	log   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMatch sets how region names are compared with the climate and survey
// tables. The default is substring.
func WithMatch(m store.Match) Option {
	return func(s *Service) { s.match = m }
}

// New creates a Service reading from st.
func New(st store.Reader, opts ...Option) *Service {
	s := &Service{
		store: st,
		match: store.MatchSubstring,
		log:   zap.L().With(zap.String("component", "join")),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Climate returns the climate readings for reg in month. Below the national
// level the station rows of the region's province are returned. For Nation
// the readings of every station are summed per province. An empty month
// means DefaultClimateMonth.
func (s *Service) Climate(ctx context.Context, reg model.Region, month string) ([]model.ClimateRecord, error) {
	if month == "" {
		month = DefaultClimateMonth
	}
	month, err := model.ParseMonth(month)
	if err != nil {
		return nil, err
	}

	q := store.ClimateQuery{Months: []string{month}}
	switch reg.Level {
	case model.LevelNation:
		rows, err := s.store.ClimateByProvince(ctx, q)
		return rows, eris.Wrap(err, "join: climate by province")
	case model.LevelNotFound:
		return nil, nil
	}

	prov := reg.ProvinceName()
	if prov == "" {
		return nil, nil
	}
	q.Where = []store.Cond{store.Like(store.ColProvince, prov, s.match)}
	rows, err := s.store.Climate(ctx, q)
	if err != nil {
		return nil, eris.Wrapf(err, "join: climate for %q", prov)
	}
	s.log.Debug("climate rows", zap.String("province", prov), zap.String("month", month), zap.Int("rows", len(rows)))
	return rows, nil
}

// Survey returns September survey rows for reg, excluding 2024. The filter
// is the region's regency when it has one, else its province; Nation reads
// every row.
func (s *Service) Survey(ctx context.Context, reg model.Region) ([]model.SurveyRecord, error) {
	return s.survey(ctx, reg, store.SurveyOrderKey, 0)
}

// TopSurveyByRice is Survey ordered by rice production, largest first,
// truncated to n rows.
func (s *Service) TopSurveyByRice(ctx context.Context, reg model.Region, n int) ([]model.SurveyRecord, error) {
	return s.survey(ctx, reg, store.SurveyOrderRiceDesc, n)
}

func (s *Service) survey(ctx context.Context, reg model.Region, order store.SurveyOrder, limit int) ([]model.SurveyRecord, error) {
	where, ok := s.surveyFilter(reg)
	if !ok {
		return nil, nil
	}
	rows, err := s.store.Survey(ctx, store.SurveyQuery{
		Where:        where,
		Months:       []string{model.SurveyMonth},
		ExcludeYears: []int{model.ExcludedSurveyYear},
		Order:        order,
		Limit:        limit,
	})
	return rows, eris.Wrap(err, "join: survey")
}

func (s *Service) surveyFilter(reg model.Region) ([]store.Cond, bool) {
	if reg.Level == model.LevelNation {
		return nil, true
	}
	if !reg.Found() {
		return nil, false
	}
	if name := reg.RegencyName(); name != "" {
		return []store.Cond{store.Like(store.ColRegency, name, s.match)}, true
	}
	if prov := reg.ProvinceName(); prov != "" {
		return []store.Cond{store.Like(store.ColProvince, prov, s.match)}, true
	}
	return nil, false
}

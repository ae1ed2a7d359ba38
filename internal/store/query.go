package store

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tani-io/tani/internal/model"
)

// Match is the strategy used to compare a region name against a column.
// Comparison is always case-insensitive.
type Match int

const (
	MatchExact Match = iota
	MatchPrefix
	MatchSubstring
)

func (m Match) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchSubstring:
		return "substring"
	}
	return "unknown"
}

// ParseMatch parses a configured strategy name.
func ParseMatch(s string) (Match, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return MatchExact, nil
	case "prefix":
		return MatchPrefix, nil
	case "substring", "contains", "":
		return MatchSubstring, nil
	}
	return 0, eris.Errorf("store: unknown match strategy %q", s)
}

// Column is a hierarchy column usable in a filter.
type Column string

const (
	ColProvince Column = "provinsi"
	ColRegency  Column = "kabupaten"
	ColDistrict Column = "kecamatan"
)

// Cond filters a hierarchy column. Negate inverts the comparison.
type Cond struct {
	Column Column
	Value  string
	Match  Match
	Negate bool
}

// Is matches a column case-insensitively against the whole value.
func Is(col Column, value string) Cond {
	return Cond{Column: col, Value: value, Match: MatchExact}
}

// Like matches a column with the given strategy.
func Like(col Column, value string, m Match) Cond {
	return Cond{Column: col, Value: value, Match: m}
}

// NotLike excludes rows whose column matches the value.
func NotLike(col Column, value string, m Match) Cond {
	return Cond{Column: col, Value: value, Match: m, Negate: true}
}

// HarvestQuery selects harvest rows. Limit <= 0 means no limit.
type HarvestQuery struct {
	Where []Cond
	Limit int
}

// ClimateQuery selects climate rows; Months is an in-list, empty = all.
type ClimateQuery struct {
	Where  []Cond
	Months []string
}

// SurveyOrder is the sort applied to survey rows.
type SurveyOrder int

const (
	// SurveyOrderKey sorts by province, regency, year, month.
	SurveyOrderKey SurveyOrder = iota
	// SurveyOrderRiceDesc sorts by rice production, largest first.
	SurveyOrderRiceDesc
)

// SurveyQuery selects survey rows.
type SurveyQuery struct {
	Where        []Cond
	Months       []string
	ExcludeYears []int
	Order        SurveyOrder
	Limit        int
}

const harvestKeyColumns = "provinsi, kabupaten, kecamatan"

// harvestOrder puts province rollups first, then regency rollups, then
// district rows, each block ordered by its full key.
const harvestOrder = `ORDER BY CASE WHEN kabupaten = '-' THEN 0 ELSE 1 END,
	CASE WHEN kecamatan = '-' THEN 0 ELSE 1 END,
	provinsi, kabupaten, kecamatan`

const climateColumns = "stasiun, provinsi, bulan, curah_hujan, suhu, kelembaban, lama_penyinaran"

const surveyColumns = "provinsi, kabupaten, bulan, tahun, luas_panen, produksi_padi, produksi_beras"

// placeholder renders the n-th (1-based) bind parameter for a dialect.
type placeholder func(n int) string

func dollar(n int) string { return "$" + strconv.Itoa(n) }

func question(int) string { return "?" }

// builder accumulates WHERE clauses and their bind arguments.
type builder struct {
	ph      placeholder
	clauses []string
	args    []any
}

func newBuilder(ph placeholder) *builder {
	return &builder{ph: ph}
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.ph(len(b.args))
}

func (b *builder) cond(c Cond) {
	col := "LOWER(" + string(c.Column) + ")"
	var clause string
	switch c.Match {
	case MatchPrefix:
		clause = col + " LIKE LOWER(" + b.bind(escapeLike(c.Value)+"%") + `) ESCAPE '\'`
	case MatchSubstring:
		clause = col + " LIKE LOWER(" + b.bind("%"+escapeLike(c.Value)+"%") + `) ESCAPE '\'`
	default:
		clause = col + " = LOWER(" + b.bind(c.Value) + ")"
	}
	if c.Negate {
		clause = "NOT (" + clause + ")"
	}
	b.clauses = append(b.clauses, clause)
}

func (b *builder) conds(cs []Cond) {
	for _, c := range cs {
		b.cond(c)
	}
}

func (b *builder) in(col string, vals []string) {
	if len(vals) == 0 {
		return
	}
	ph := make([]string, len(vals))
	for i, v := range vals {
		ph[i] = b.bind(v)
	}
	b.clauses = append(b.clauses, col+" IN ("+strings.Join(ph, ", ")+")")
}

func (b *builder) notIn(col string, vals []int) {
	if len(vals) == 0 {
		return
	}
	ph := make([]string, len(vals))
	for i, v := range vals {
		ph[i] = b.bind(v)
	}
	b.clauses = append(b.clauses, col+" NOT IN ("+strings.Join(ph, ", ")+")")
}

func (b *builder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func (b *builder) limit(n int) string {
	if n <= 0 {
		return ""
	}
	return " LIMIT " + b.bind(n)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func harvestColumns() string {
	return harvestKeyColumns + ", " + strings.Join(model.HarvestMeasureColumns, ", ")
}

func buildHarvestSQL(ph placeholder, q HarvestQuery) (string, []any) {
	b := newBuilder(ph)
	b.conds(q.Where)
	sql := "SELECT " + harvestColumns() + " FROM " + string(TableHarvest) + b.where() + " " + harvestOrder
	sql += b.limit(q.Limit)
	return sql, b.args
}

func buildClimateSQL(ph placeholder, q ClimateQuery) (string, []any) {
	b := newBuilder(ph)
	b.conds(q.Where)
	b.in("bulan", q.Months)
	return "SELECT " + climateColumns + " FROM " + string(TableClimate) + b.where() +
		" ORDER BY provinsi, stasiun, bulan", b.args
}

func buildClimateByProvinceSQL(ph placeholder, q ClimateQuery) (string, []any) {
	b := newBuilder(ph)
	b.conds(q.Where)
	b.in("bulan", q.Months)
	return `SELECT provinsi,
		SUM(COALESCE(curah_hujan, 0)), SUM(COALESCE(suhu, 0)),
		SUM(COALESCE(kelembaban, 0)), SUM(COALESCE(lama_penyinaran, 0))
		FROM ` + string(TableClimate) + b.where() + " GROUP BY provinsi ORDER BY provinsi", b.args
}

func buildSurveySQL(ph placeholder, q SurveyQuery) (string, []any) {
	b := newBuilder(ph)
	b.conds(q.Where)
	b.in("bulan", q.Months)
	b.notIn("tahun", q.ExcludeYears)
	order := " ORDER BY provinsi, kabupaten, tahun, bulan"
	if q.Order == SurveyOrderRiceDesc {
		order = " ORDER BY COALESCE(produksi_padi, 0) DESC, provinsi, kabupaten, tahun, bulan"
	}
	sql := "SELECT " + surveyColumns + " FROM " + string(TableSurvey) + b.where() + order
	sql += b.limit(q.Limit)
	return sql, b.args
}

package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tani-io/tani/internal/model"
)

// Survey source headers.
const (
	ColSurveyProvince = "Nama Provinsi"
	ColSurveyRegency  = "Nama Kabupaten"
)

// Survey parameters as they prefix the wide value columns.
const (
	SurveyHarvestedArea        = "Luas Panen"
	SurveyRiceProduction       = "Produksi Padi"
	SurveyMilledRiceProduction = "Produksi Beras"
)

var (
	surveyColumn  = regexp.MustCompile(`^(Luas Panen|Produksi Padi|Produksi Beras)_([A-Za-z]+)-(\d+)$`)
	regencyPrefix = regexp.MustCompile(`^.* - `)
)

type surveyPeriod struct {
	month string
	year  int
}

// ParseSurvey melts the wide KSA table into one record per regency, month
// and year. Values use dots as thousands separators. The excluded survey year
// is dropped at load.
func ParseSurvey(t *Table) ([]model.SurveyRecord, error) {
	ids, err := t.Require(ColSurveyProvince, ColSurveyRegency)
	if err != nil {
		return nil, err
	}

	type valueCol struct {
		idx    int
		param  string
		period surveyPeriod
	}
	var cols []valueCol
	var periods []surveyPeriod
	seen := make(map[surveyPeriod]bool)
	for i, h := range t.Header {
		m := surveyColumn.FindStringSubmatch(strings.TrimSpace(h))
		if m == nil {
			continue
		}
		month, err := model.ParseMonth(m[2])
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: %s: column %q", t.Name, h)
		}
		p := surveyPeriod{month: month, year: expandYear(m[3])}
		if p.year == model.ExcludedSurveyYear {
			continue
		}
		cols = append(cols, valueCol{idx: i, param: m[1], period: p})
		if !seen[p] {
			seen[p] = true
			periods = append(periods, p)
		}
	}

	title := cases.Title(language.Indonesian)
	var recs []model.SurveyRecord
	for n, row := range t.Rows {
		prov := title.String(strings.ToLower(Cell(row, ids[0])))
		reg := regencyPrefix.ReplaceAllString(Cell(row, ids[1]), "")
		if prov == "" || reg == "" {
			continue
		}

		byPeriod := make(map[surveyPeriod]*model.SurveyRecord, len(periods))
		for _, c := range cols {
			v, err := parseDotted(Cell(row, c.idx))
			if err != nil {
				return nil, eris.Wrapf(err, "ingest: %s: row %d column %q", t.Name, n+2, t.Header[c.idx])
			}
			rec, ok := byPeriod[c.period]
			if !ok {
				rec = &model.SurveyRecord{Province: prov, Regency: reg, Month: c.period.month, Year: c.period.year}
				byPeriod[c.period] = rec
			}
			switch c.param {
			case SurveyHarvestedArea:
				rec.HarvestedArea = v
			case SurveyRiceProduction:
				rec.RiceProduction = v
			case SurveyMilledRiceProduction:
				rec.MilledRiceProduction = v
			}
		}
		for _, p := range periods {
			if rec, ok := byPeriod[p]; ok {
				recs = append(recs, *rec)
			}
		}
	}
	return recs, nil
}

// expandYear turns a two-digit year into 20YY.
func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) <= 2 {
		y += 2000
	}
	return y
}

// parseDotted reads an integer written with dot thousands separators.
// Empty cells are absent.
func parseDotted(s string) (*int64, error) {
	s = strings.ReplaceAll(s, ".", "")
	if s == "" || s == "-" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, eris.Errorf("ingest: not an integer: %q", s)
	}
	return &n, nil
}

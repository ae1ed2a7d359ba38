package store

import (
	"strconv"

	"github.com/tani-io/tani/internal/model"
)

// scanner is satisfied by pgx.Rows, pgx.Row, *sql.Rows and *sql.Row.
type scanner interface {
	Scan(dest ...any) error
}

func scanHarvest(s scanner) (model.HarvestRecord, error) {
	var r model.HarvestRecord
	dest := []any{&r.Province, &r.Regency, &r.District}
	for _, m := range r.Measures() {
		dest = append(dest, m)
	}
	err := s.Scan(dest...)
	return r, err
}

func scanClimate(s scanner) (model.ClimateRecord, error) {
	var r model.ClimateRecord
	err := s.Scan(&r.Station, &r.Province, &r.Month,
		&r.Rainfall, &r.Temperature, &r.Humidity, &r.Sunshine)
	return r, err
}

func scanClimateSum(s scanner) (model.ClimateRecord, error) {
	var (
		r                   model.ClimateRecord
		rain, temp, hum, sh float64
	)
	if err := s.Scan(&r.Province, &rain, &temp, &hum, &sh); err != nil {
		return r, err
	}
	r.Rainfall = model.Float(rain)
	r.Temperature = model.Float(temp)
	r.Humidity = model.Float(hum)
	r.Sunshine = model.Float(sh)
	return r, nil
}

func scanSurvey(s scanner) (model.SurveyRecord, error) {
	var r model.SurveyRecord
	err := s.Scan(&r.Province, &r.Regency, &r.Month, &r.Year,
		&r.HarvestedArea, &r.RiceProduction, &r.MilledRiceProduction)
	return r, err
}

// Column lists and conflict keys used by both backends when loading.
var (
	harvestInsertColumns = append([]string{"provinsi", "kabupaten", "kecamatan"}, model.HarvestMeasureColumns...)
	harvestConflictKeys  = []string{"provinsi", "kabupaten", "kecamatan"}

	climateInsertColumns = []string{"stasiun", "provinsi", "bulan", "curah_hujan", "suhu", "kelembaban", "lama_penyinaran"}
	climateConflictKeys  = []string{"stasiun", "bulan"}

	surveyInsertColumns = []string{"provinsi", "kabupaten", "bulan", "tahun", "luas_panen", "produksi_padi", "produksi_beras"}
	surveyConflictKeys  = []string{"provinsi", "kabupaten", "bulan", "tahun"}
)

// The encoders below drop earlier duplicates of a conflict key so a single
// batch never touches the same row twice. The last occurrence wins.

func harvestRows(recs []model.HarvestRecord) [][]any {
	return dedupe(len(recs), func(i int) (string, []any) {
		r := recs[i]
		row := []any{r.Province, r.Regency, r.District}
		for _, m := range r.Measures() {
			row = append(row, *m)
		}
		return r.Province + "\x00" + r.Regency + "\x00" + r.District, row
	})
}

func climateRows(recs []model.ClimateRecord) [][]any {
	return dedupe(len(recs), func(i int) (string, []any) {
		r := recs[i]
		return r.Station + "\x00" + r.Month, []any{
			r.Station, r.Province, r.Month,
			r.Rainfall, r.Temperature, r.Humidity, r.Sunshine,
		}
	})
}

func surveyRows(recs []model.SurveyRecord) [][]any {
	return dedupe(len(recs), func(i int) (string, []any) {
		r := recs[i]
		key := r.Province + "\x00" + r.Regency + "\x00" + r.Month + "\x00" + strconv.Itoa(r.Year)
		return key, []any{
			r.Province, r.Regency, r.Month, r.Year,
			r.HarvestedArea, r.RiceProduction, r.MilledRiceProduction,
		}
	})
}

func dedupe(n int, row func(i int) (string, []any)) [][]any {
	out := make([][]any, 0, n)
	pos := make(map[string]int, n)
	for i := range n {
		key, r := row(i)
		if j, ok := pos[key]; ok {
			out[j] = r
			continue
		}
		pos[key] = len(out)
		out = append(out, r)
	}
	return out
}

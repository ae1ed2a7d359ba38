package ingest

import (
	"math"
	"strconv"

	"github.com/tani-io/tani/internal/model"
)

// Climate source headers. Readings are wide: one "<parameter> - <month>"
// column per parameter and month.
const (
	ColStation         = "Stasiun Meteorologi/Klimatologi/Geofisika"
	ClimateRainfall    = "Curah Hujan"
	ClimateTemperature = "Suhu"
	ClimateHumidity    = "Kelembaban"
	ClimateSunshine    = "Lama Penyinaran"
)

var climateParams = []string{ClimateRainfall, ClimateTemperature, ClimateHumidity, ClimateSunshine}

// ParseClimate melts the wide climate table into one record per station and
// month. Months with no column for any parameter are skipped; empty or
// unparseable readings are stored as absent.
func ParseClimate(t *Table) ([]model.ClimateRecord, error) {
	ids, err := t.Require(ColStation, ColProvince)
	if err != nil {
		return nil, err
	}

	type monthCols struct {
		month string
		cols  [4]int
	}
	var months []monthCols
	for _, m := range model.Months {
		mc := monthCols{month: m}
		present := false
		for i, p := range climateParams {
			j, ok := t.Index(p + " - " + m)
			if !ok {
				j = -1
			} else {
				present = true
			}
			mc.cols[i] = j
		}
		if present {
			months = append(months, mc)
		}
	}

	recs := make([]model.ClimateRecord, 0, len(t.Rows)*len(months))
	for _, row := range t.Rows {
		station, prov := Cell(row, ids[0]), Cell(row, ids[1])
		if station == "" {
			continue
		}
		for _, mc := range months {
			recs = append(recs, model.ClimateRecord{
				Station:     station,
				Province:    prov,
				Month:       mc.month,
				Rainfall:    parseReading(Cell(row, mc.cols[0])),
				Temperature: parseReading(Cell(row, mc.cols[1])),
				Humidity:    parseReading(Cell(row, mc.cols[2])),
				Sunshine:    parseReading(Cell(row, mc.cols[3])),
			})
		}
	}
	return recs, nil
}

func parseReading(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

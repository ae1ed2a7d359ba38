package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/tani-io/tani/internal/model"
)

// Harvest source headers.
const (
	ColProvince = "Provinsi"
	ColRegency  = "Kabupaten"
	ColDistrict = "Kecamatan"
)

// HarvestMeasureHeaders lists the harvest measure headers in the order of
// model.HarvestRecord.Measures.
var HarvestMeasureHeaders = []string{
	"Perkiraan Panen Bulan September",
	"Perkiraan Panen Bulan Oktober",
	"Alsintan September",
	"Alsintan Oktober",
	"Bera",
	"Penggenangan",
	"Tanam (1-15 Hst)",
	"Vegetatif 1 (16-30 Hst)",
	"Vegetatif 2 (31-40 Hst)",
	"Max Vegetatif (41-54 Hst)",
	"Generatif 1 (55-71 Hst)",
	"Generatif 2 (72-110 Hst)",
	"Panen",
	"Standing Crop",
	"Luas Baku Sawah (Ha)",
}

// ParseHarvest converts a harvest table into records. Blank regency or
// district cells become the rollup sentinel and unparseable measures read as
// zero. Repeated keys within one file collapse, later rows winning.
func ParseHarvest(t *Table) ([]model.HarvestRecord, error) {
	keys, err := t.Require(ColProvince, ColRegency, ColDistrict)
	if err != nil {
		return nil, err
	}
	measures, err := t.Require(HarvestMeasureHeaders...)
	if err != nil {
		return nil, err
	}

	recs := make([]model.HarvestRecord, 0, len(t.Rows))
	pos := make(map[string]int, len(t.Rows))
	for _, row := range t.Rows {
		rec := model.HarvestRecord{
			Province: Cell(row, keys[0]),
			Regency:  orSentinel(Cell(row, keys[1])),
			District: orSentinel(Cell(row, keys[2])),
		}
		if rec.Province == "" {
			continue
		}
		for i, m := range rec.Measures() {
			*m = model.Int(coerceInt(Cell(row, measures[i])))
		}

		k := harvestKey(rec)
		if i, ok := pos[k]; ok {
			recs[i] = rec
			continue
		}
		pos[k] = len(recs)
		recs = append(recs, rec)
	}
	return recs, nil
}

// MergeHarvest sums record sets per (province, regency, district). Keys keep
// the order they are first seen in.
func MergeHarvest(sets ...[]model.HarvestRecord) []model.HarvestRecord {
	var out []model.HarvestRecord
	pos := make(map[string]int)
	for _, set := range sets {
		for _, rec := range set {
			k := harvestKey(rec)
			if i, ok := pos[k]; ok {
				out[i].Add(rec)
				continue
			}
			pos[k] = len(out)
			merged := model.HarvestRecord{Province: rec.Province, Regency: rec.Regency, District: rec.District}
			merged.Add(rec)
			out = append(out, merged)
		}
	}
	return out
}

func harvestKey(r model.HarvestRecord) string {
	return r.Province + "\x00" + r.Regency + "\x00" + r.District
}

func orSentinel(s string) string {
	if s == "" || strings.EqualFold(s, "nan") {
		return model.Sentinel
	}
	return s
}

// coerceInt parses a numeric cell, truncating fractions. Anything else is 0.
func coerceInt(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return int64(f)
}

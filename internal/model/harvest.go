// Package model defines the records served by the statistics service and the
// resolved-region variant that every query is keyed by.
package model

// Sentinel marks a hierarchy column that does not apply to a rollup row.
// It only appears at the storage boundary; callers work with Region.
const Sentinel = "-"

// HarvestRecord is one row of the harvest table. A province rollup row has
// Regency and District set to Sentinel; a regency rollup row has District set
// to Sentinel. Measures are nullable and read as zero when absent.
type HarvestRecord struct {
	Province string `json:"provinsi"`
	Regency  string `json:"kabupaten"`
	District string `json:"kecamatan"`

	HarvestEstimateSep *int64 `json:"perkiraan_panen_september"`
	HarvestEstimateOct *int64 `json:"perkiraan_panen_oktober"`
	MachinerySep       *int64 `json:"alsintan_september"`
	MachineryOct       *int64 `json:"alsintan_oktober"`
	Fallow             *int64 `json:"bera"`
	Flooding           *int64 `json:"penggenangan"`
	Planting           *int64 `json:"tanam"`
	Vegetative1        *int64 `json:"vegetatif_1"`
	Vegetative2        *int64 `json:"vegetatif_2"`
	MaxVegetative      *int64 `json:"max_vegetatif"`
	Generative1        *int64 `json:"generatif_1"`
	Generative2        *int64 `json:"generatif_2"`
	Harvested          *int64 `json:"panen"`
	StandingCrop       *int64 `json:"standing_crop"`
	BaselineArea       *int64 `json:"luas_baku_sawah"`
}

// Measures returns pointers to every measure field in storage column order.
// Callers use it to sum, scan, or copy measures without listing fields by hand.
func (r *HarvestRecord) Measures() []**int64 {
	return []**int64{
		&r.HarvestEstimateSep,
		&r.HarvestEstimateOct,
		&r.MachinerySep,
		&r.MachineryOct,
		&r.Fallow,
		&r.Flooding,
		&r.Planting,
		&r.Vegetative1,
		&r.Vegetative2,
		&r.MaxVegetative,
		&r.Generative1,
		&r.Generative2,
		&r.Harvested,
		&r.StandingCrop,
		&r.BaselineArea,
	}
}

// HarvestMeasureColumns lists the measure columns of the harvest table in the
// same order as HarvestRecord.Measures.
var HarvestMeasureColumns = []string{
	"perkiraan_panen_september",
	"perkiraan_panen_oktober",
	"alsintan_september",
	"alsintan_oktober",
	"bera",
	"penggenangan",
	"tanam",
	"vegetatif_1",
	"vegetatif_2",
	"max_vegetatif",
	"generatif_1",
	"generatif_2",
	"panen",
	"standing_crop",
	"luas_baku_sawah",
}

// IsProvinceRollup reports whether the row aggregates a whole province.
func (r HarvestRecord) IsProvinceRollup() bool {
	return r.Regency == Sentinel && r.District == Sentinel
}

// IsRegencyRollup reports whether the row aggregates a whole regency or city.
func (r HarvestRecord) IsRegencyRollup() bool {
	return r.Regency != Sentinel && r.District == Sentinel
}

// TotalMachinery is the September plus October machinery count.
func (r HarvestRecord) TotalMachinery() int64 {
	return Value(r.MachinerySep) + Value(r.MachineryOct)
}

// Add sums every measure of o into r. Absent values count as zero and the
// result is always present.
func (r *HarvestRecord) Add(o HarvestRecord) {
	dst := r.Measures()
	src := o.Measures()
	for i := range dst {
		sum := Value(*dst[i]) + Value(*src[i])
		*dst[i] = &sum
	}
}

// Value dereferences a nullable measure, treating nil as zero.
func Value(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }

package model

// ClimateRecord is one station's monthly climate reading. Province-level
// aggregates leave Station and Month empty.
type ClimateRecord struct {
	Station     string   `json:"stasiun,omitempty"`
	Province    string   `json:"provinsi"`
	Month       string   `json:"bulan,omitempty"`
	Rainfall    *float64 `json:"curah_hujan"`
	Temperature *float64 `json:"suhu"`
	Humidity    *float64 `json:"kelembaban"`
	Sunshine    *float64 `json:"lama_penyinaran"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// FloatValue dereferences a nullable reading, treating nil as zero.
func FloatValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

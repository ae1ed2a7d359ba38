package model

// ExcludedSurveyYear is withheld from every survey query for data quality.
const ExcludedSurveyYear = 2024

// SurveyMonth is the only month the survey cross-check reads.
const SurveyMonth = "September"

// SurveyRecord is one regency's monthly KSA (area sampling frame) figure,
// used to cross-validate harvest estimates.
type SurveyRecord struct {
	Province             string `json:"provinsi"`
	Regency              string `json:"kabupaten"`
	Month                string `json:"bulan"`
	Year                 int    `json:"tahun"`
	HarvestedArea        *int64 `json:"luas_panen"`
	RiceProduction       *int64 `json:"produksi_padi"`
	MilledRiceProduction *int64 `json:"produksi_beras"`
}

package model

import "encoding/json"

// Level is the administrative granularity a region resolved to.
type Level int

const (
	LevelNotFound Level = iota
	LevelNation
	LevelProvince
	LevelCity
	LevelRegency
	LevelDistrict
)

var levelNames = map[Level]string{
	LevelNotFound: "not_found",
	LevelNation:   "nasional",
	LevelProvince: "provinsi",
	LevelCity:     "kota",
	LevelRegency:  "kabupaten",
	LevelDistrict: "kecamatan",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "unknown"
}

// MarshalText renders the level by its Indonesian name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// NationName is the display name of the national scope.
const NationName = "Indonesia"

// Region is a resolved region reference. Only the fields relevant to Level
// are set: Name for every level but Nation and NotFound, Province for City,
// Regency and District, and Regency for District.
type Region struct {
	Level    Level
	Name     string
	Province string
	Regency  string
}

// Nation returns the national scope.
func Nation() Region { return Region{Level: LevelNation, Name: NationName} }

// Province returns a province region.
func Province(name string) Region { return Region{Level: LevelProvince, Name: name} }

// City returns a city (kota) region within a province.
func City(name, province string) Region {
	return Region{Level: LevelCity, Name: name, Province: province}
}

// Regency returns a regency (kabupaten) region within a province.
func Regency(name, province string) Region {
	return Region{Level: LevelRegency, Name: name, Province: province}
}

// District returns a district (kecamatan) region within a regency.
func District(name, regency, province string) Region {
	return Region{Level: LevelDistrict, Name: name, Regency: regency, Province: province}
}

// NotFound is the result of a reference that matched nothing.
func NotFound() Region { return Region{Level: LevelNotFound} }

// Found reports whether the region resolved to any level.
func (r Region) Found() bool { return r.Level != LevelNotFound }

// ProvinceName returns the province the region belongs to, or the region's
// own name when it is a province. Empty for Nation and NotFound.
func (r Region) ProvinceName() string {
	if r.Level == LevelProvince {
		return r.Name
	}
	return r.Province
}

// RegencyName returns the regency or city the region belongs to, or the
// region's own name when it is one. Empty for coarser levels.
func (r Region) RegencyName() string {
	switch r.Level {
	case LevelCity, LevelRegency:
		return r.Name
	case LevelDistrict:
		return r.Regency
	}
	return ""
}

// MarshalJSON keys each name by its level, matching the parent-data shape
// clients already consume: {"kabupaten": "Sidoarjo", "provinsi": "Jawa Timur"}.
func (r Region) MarshalJSON() ([]byte, error) {
	out := map[string]string{"level": r.Level.String()}
	switch r.Level {
	case LevelNation:
		out["nasional"] = r.Name
	case LevelProvince:
		out["provinsi"] = r.Name
		out["parent"] = "nasional"
	case LevelCity:
		out["kota"] = r.Name
		out["provinsi"] = r.Province
	case LevelRegency:
		out["kabupaten"] = r.Name
		out["provinsi"] = r.Province
	case LevelDistrict:
		out["kecamatan"] = r.Name
		out["kabupaten"] = r.Regency
		out["provinsi"] = r.Province
	}
	return json.Marshal(out)
}

package chart

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed islands.yaml
var islandsYAML []byte

// IslandMap maps a lowercased province name to its island group.
type IslandMap map[string]string

// LoadIslands parses an island → provinces YAML document.
func LoadIslands(data []byte) (IslandMap, error) {
	var groups map[string][]string
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, eris.Wrap(err, "chart: parse islands")
	}
	m := make(IslandMap)
	for island, provinces := range groups {
		for _, p := range provinces {
			m[strings.ToLower(p)] = island
		}
	}
	return m, nil
}

// DefaultIslands returns the embedded mapping.
func DefaultIslands() IslandMap {
	m, err := LoadIslands(islandsYAML)
	if err != nil {
		panic(err)
	}
	return m
}

// Island returns the island group of a province.
func (m IslandMap) Island(province string) (string, bool) {
	island, ok := m[strings.ToLower(strings.TrimSpace(province))]
	return island, ok
}

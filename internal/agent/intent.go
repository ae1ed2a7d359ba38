// Package agent answers free-text questions about harvest data by classifying
// the request and routing it to a data summary, a chart explanation or a
// plain answer.
package agent

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Need is the route a message is classified into.
type Need string

const (
	NeedAnalyzeHarvest Need = "analyze_data_panen"
	NeedAnalyzeChart   Need = "analyze_chart"
	NeedNormal         Need = "normal_mode"
)

// Valid reports whether n is a known route.
func (n Need) Valid() bool {
	switch n {
	case NeedAnalyzeHarvest, NeedAnalyzeChart, NeedNormal:
		return true
	}
	return false
}

// Chart numbers as the dashboard shows them.
const (
	ChartClimate = iota + 1
	ChartHarvestRegions
	ChartHarvestVsSurvey
	ChartMachineryEffectiveness
	ChartGeneralData
)

// ChartNumber accepts a JSON number, a digit string or null.
type ChartNumber int

func (c *ChartNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*c = 0
		return nil
	}
	*c = ChartNumber(n)
	return nil
}

// Intent is what the classifier extracted from a message.
type Intent struct {
	Needs       Need        `json:"needs"`
	Locations   []string    `json:"location"`
	Dates       []string    `json:"date"`
	Chart       ChartNumber `json:"chart"`
	Information string      `json:"information"`
}

// Location returns the first named location, or "" when none was given.
func (i Intent) Location() string {
	for _, l := range i.Locations {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

// normalize maps unknown routes to normal mode and drops chart numbers
// outside the dashboard range.
func (i Intent) normalize() Intent {
	if !i.Needs.Valid() {
		i.Needs = NeedNormal
	}
	if i.Chart < ChartClimate || i.Chart > ChartGeneralData {
		i.Chart = 0
	}
	return i
}

// ParseIntent decodes an intent from model output that may wrap the JSON in
// prose or code fences.
func ParseIntent(text string) (Intent, error) {
	var in Intent
	if err := json.Unmarshal([]byte(cleanJSON(text)), &in); err != nil {
		return Intent{}, eris.Wrap(err, "agent: parse intent json")
	}
	return in.normalize(), nil
}

// cleanJSON extracts a JSON object from text that may contain markdown code
// fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

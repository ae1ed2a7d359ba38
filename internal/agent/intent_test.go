package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Intent
	}{
		{
			name: "plain",
			in:   `{"needs":"analyze_data_panen","location":["Jawa Barat"],"date":null,"chart":null,"information":"ringkasan panen"}`,
			want: Intent{Needs: NeedAnalyzeHarvest, Locations: []string{"Jawa Barat"}, Information: "ringkasan panen"},
		},
		{
			name: "fenced with string chart",
			in:   "```json\n{\"needs\":\"analyze_chart\",\"location\":null,\"chart\":\"3\",\"information\":\"x\"}\n```",
			want: Intent{Needs: NeedAnalyzeChart, Chart: ChartHarvestVsSurvey, Information: "x"},
		},
		{
			name: "prose around json",
			in:   `Berikut intent: {"needs":"normal_mode","information":"salam"} semoga membantu`,
			want: Intent{Needs: NeedNormal, Information: "salam"},
		},
		{
			name: "unknown need and chart out of range",
			in:   `{"needs":"dance","chart":9}`,
			want: Intent{Needs: NeedNormal},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIntent_Invalid(t *testing.T) {
	_, err := ParseIntent("tidak ada json di sini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent: parse intent json")
}

func TestIntent_Location(t *testing.T) {
	assert.Equal(t, "Bogor", Intent{Locations: []string{" ", "Bogor"}}.Location())
	assert.Equal(t, "", Intent{}.Location())
}

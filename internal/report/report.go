// Package report renders the Indonesian harvest summary narrative.
package report

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tani-io/tani/internal/aggregate"
	"github.com/tani-io/tani/internal/model"
)

// NoData is the narrative returned when a region has no harvest rows.
const NoData = "Data tidak ditemukan untuk wilayah tersebut."

// SectionSize is how many entries each ranking section lists.
const SectionSize = 5

// Aggregator is the subset of the aggregation engine the report reads.
type Aggregator interface {
	ComputeTotal(ctx context.Context, reg model.Region) (*model.HarvestRecord, error)
	RankByHarvest(ctx context.Context, reg model.Region, topN int) ([]aggregate.RegionHarvest, error)
	RankByMachineryEffectiveness(ctx context.Context, reg model.Region, topN int) ([]aggregate.Effectiveness, error)
}

// Summary holds the figures a narrative is rendered from.
type Summary struct {
	Region     model.Region              `json:"region"`
	Total      *model.HarvestRecord      `json:"total"`
	TopHarvest []aggregate.RegionHarvest `json:"wilayah_panen_tertinggi"`
	TopEffect  []aggregate.Effectiveness `json:"efektivitas_alsintan"`
}

// Builder gathers summaries and renders them.
type Builder struct {
	agg  Aggregator
	lang language.Tag
}

// NewBuilder creates a Builder. locale selects the thousands separator
// ("en" renders 1,234 and "id" renders 1.234); unknown tags fall back to en.
func NewBuilder(agg Aggregator, locale string) *Builder {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Builder{agg: agg, lang: tag}
}

// Summarize collects the total and both top-five rankings for reg. A nil
// Total means the region has no data.
func (b *Builder) Summarize(ctx context.Context, reg model.Region) (*Summary, error) {
	s := &Summary{Region: reg}
	var err error
	if s.Total, err = b.agg.ComputeTotal(ctx, reg); err != nil {
		return nil, eris.Wrap(err, "report: total")
	}
	if s.Total == nil {
		return s, nil
	}
	if s.TopHarvest, err = b.agg.RankByHarvest(ctx, reg, SectionSize); err != nil {
		return nil, eris.Wrap(err, "report: harvest ranking")
	}
	if s.TopEffect, err = b.agg.RankByMachineryEffectiveness(ctx, reg, SectionSize); err != nil {
		return nil, eris.Wrap(err, "report: machinery ranking")
	}
	return s, nil
}

// Narrative summarises reg and renders it under the heading label, which is
// normally the text the caller asked about.
func (b *Builder) Narrative(ctx context.Context, reg model.Region, label string) (string, error) {
	s, err := b.Summarize(ctx, reg)
	if err != nil {
		return "", err
	}
	return b.Render(s, label), nil
}

// Render formats a summary with the fixed template.
func (b *Builder) Render(s *Summary, label string) string {
	if s == nil || s.Total == nil {
		return NoData
	}
	if label == "" {
		label = s.Region.Name
	}
	p := message.NewPrinter(b.lang)
	t := s.Total

	var sb strings.Builder
	p.Fprintf(&sb, "**Analisis Data Panen Wilayah: %s**\n\n", strings.ToUpper(label))
	sb.WriteString("**1. Total Data Panen**\n")
	p.Fprintf(&sb, "- Panen September: %d ha\n", model.Value(t.HarvestEstimateSep))
	p.Fprintf(&sb, "- Panen Oktober: %d ha\n", model.Value(t.HarvestEstimateOct))
	p.Fprintf(&sb, "- Luas Baku Sawah: %d ha\n", model.Value(t.BaselineArea))
	p.Fprintf(&sb, "- Alsintan: %d unit\n", t.TotalMachinery())
	p.Fprintf(&sb, "- Total Panen: %d ha\n", model.Value(t.Harvested))

	sb.WriteString("\n**2. Wilayah Panen Tertinggi**\n")
	for i, r := range s.TopHarvest {
		p.Fprintf(&sb, "   %d. %s: %d ha\n", i+1, r.Name, r.Harvested)
	}

	sb.WriteString("\n**3. Efektivitas Alsintan**\n")
	for i, r := range s.TopEffect {
		p.Fprintf(&sb, "   %d. %s: Panen %d, Alsintan %d, Efektivitas %.2f\n",
			i+1, r.Name, r.Harvested, r.TotalMachinery, r.YieldEfficiency)
	}
	return strings.TrimSpace(sb.String())
}

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tani-io/tani/internal/aggregate"
	"github.com/tani-io/tani/internal/chart"
	"github.com/tani-io/tani/internal/join"
	"github.com/tani-io/tani/internal/region"
	"github.com/tani-io/tani/internal/report"
	"github.com/tani-io/tani/internal/store/storetest"
)

type fixedIntent struct {
	intent Intent
	err    error
}

func (f fixedIntent) ClassifyIntent(context.Context, string) (Intent, error) {
	return f.intent, f.err
}

// recorder is a Summarizer that echoes a fixed answer and keeps its input.
type recorder struct {
	answer string
	inputs []string
}

func (r *recorder) Summarize(_ context.Context, text string) (string, error) {
	r.inputs = append(r.inputs, text)
	return r.answer, nil
}

type needsCounter map[string]int

func (n needsCounter) ObserveChat(needs string) { n[needs]++ }

type chatFixture struct {
	summary, chart, normal *recorder
	writers                Writers
	data                   Data
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	st := storetest.Seeded(t)
	engine := aggregate.NewEngine(st)
	joiner := join.New(st)

	f := &chatFixture{
		summary: &recorder{answer: "ringkasan"},
		chart:   &recorder{answer: "penjelasan chart"},
		normal:  &recorder{answer: "jawaban"},
	}
	f.writers = Writers{Summary: f.summary, Chart: f.chart, Normal: f.normal}
	f.data = Data{
		Resolver: region.NewResolver(st),
		Reporter: report.NewBuilder(engine, "id"),
		Joiner:   joiner,
		Charts:   chart.New(engine, joiner, nil),
	}
	return f
}

func (f *chatFixture) chat(intent Intent, opts ...ChatOption) *Chat {
	return NewChat(fixedIntent{intent: intent}, f.writers, f.data, opts...)
}

func TestChat_EmptyMessage(t *testing.T) {
	f := newChatFixture(t)
	reply, err := f.chat(Intent{Needs: NeedNormal}).Respond(context.Background(), Request{Message: "   "})
	require.NoError(t, err)
	assert.Equal(t, EmptyMessageReply, reply.Answer)
	_, err = uuid.Parse(reply.ConversationID)
	assert.NoError(t, err)
	assert.Empty(t, f.normal.inputs)
}

func TestChat_AnalyzeHarvest(t *testing.T) {
	f := newChatFixture(t)
	counts := needsCounter{}
	c := f.chat(Intent{Needs: NeedAnalyzeHarvest, Locations: []string{"Jawa Barat"}, Information: "minta ringkasan"}, WithObserver(counts))

	reply, err := c.Respond(context.Background(), Request{Message: "analisis data panen jawa barat", ConversationID: "conv-1"})
	require.NoError(t, err)
	assert.Equal(t, "ringkasan", reply.Answer)
	assert.Equal(t, "conv-1", reply.ConversationID)
	assert.Equal(t, NeedAnalyzeHarvest, reply.Needs)
	assert.Equal(t, "Jawa Barat", reply.Location)
	assert.Equal(t, 1, counts[string(NeedAnalyzeHarvest)])

	require.Len(t, f.summary.inputs, 1)
	prompt := f.summary.inputs[0]
	assert.Contains(t, prompt, "minta ringkasan")
	assert.Contains(t, prompt, "Analisis Data Panen Wilayah: JAWA BARAT")
	assert.Contains(t, prompt, "Garut")
	assert.Contains(t, prompt, "Stasiun Bandung")
	assert.NotContains(t, prompt, "Stasiun Malang")
}

func TestChat_AnalyzeHarvestDefaultsToNation(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.chat(Intent{Needs: NeedAnalyzeHarvest}).Respond(context.Background(), Request{Message: "ringkas data panen"})
	require.NoError(t, err)
	require.Len(t, f.summary.inputs, 1)
	assert.Contains(t, f.summary.inputs[0], "Analisis Data Panen Wilayah: INDONESIA")
}

func TestChat_AnalyzeChart(t *testing.T) {
	f := newChatFixture(t)
	c := f.chat(Intent{Needs: NeedAnalyzeChart, Locations: []string{"Jawa Timur"}, Chart: ChartHarvestRegions})

	reply, err := c.Respond(context.Background(), Request{Message: "jelaskan chart 2"})
	require.NoError(t, err)
	assert.Equal(t, "penjelasan chart", reply.Answer)
	require.Len(t, f.chart.inputs, 1)
	assert.Contains(t, f.chart.inputs[0], "Data untuk chart 2")
	assert.Contains(t, f.chart.inputs[0], "Malang")
}

func TestChat_AnalyzeChartUnknownNumber(t *testing.T) {
	f := newChatFixture(t)
	reply, err := f.chat(Intent{Needs: NeedAnalyzeChart}).Respond(context.Background(), Request{Message: "jelaskan chart"})
	require.NoError(t, err)
	assert.Equal(t, "Data untuk chart yang diminta tidak ditemukan.", reply.Answer)
	assert.Empty(t, f.chart.inputs)
}

func TestChat_NormalMode(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.chat(Intent{Needs: NeedNormal}).Respond(context.Background(), Request{Message: "halo"})
	require.NoError(t, err)
	_, err = f.chat(Intent{Needs: NeedNormal, Locations: []string{"Malang"}}).Respond(context.Background(), Request{Message: "bagaimana panen di Malang?"})
	require.NoError(t, err)

	require.Len(t, f.normal.inputs, 2)
	assert.Equal(t, "halo", f.normal.inputs[0])
	assert.Contains(t, f.normal.inputs[1], "Konteks data:")
	assert.Contains(t, f.normal.inputs[1], "Malang")
}

func TestChat_ClassifierError(t *testing.T) {
	f := newChatFixture(t)
	c := NewChat(fixedIntent{err: errors.New("upstream connection refused")}, f.writers, f.data)

	reply, err := c.Respond(context.Background(), Request{Message: "halo"})
	require.Error(t, err)
	assert.Equal(t, ConnectionReply, reply.Answer)
}

func TestErrorReply(t *testing.T) {
	assert.Equal(t, BusyReply, ErrorReply(context.DeadlineExceeded))
	assert.Equal(t, BusyReply, ErrorReply(errors.New("request timeout")))
	assert.Equal(t, FailureReply, ErrorReply(errors.New("bad input")))
	assert.Equal(t, "", ErrorReply(nil))
}

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"

	"github.com/tani-io/tani/pkg/anthropic"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

const intentPrompt = `Anda mengurai pesan pengguna menjadi intent untuk diteruskan ke agen yang tepat.
Balas HANYA dengan satu objek JSON:
{"needs": "...", "location": [...] | null, "date": [...] | null, "chart": 1-5 | null, "information": "..."}

needs:
- "analyze_data_panen" jika pengguna secara spesifik meminta penjelasan **Data Panen**
- "analyze_chart" jika pengguna secara spesifik meminta penjelasan **Chart**
- "normal_mode" untuk pertanyaan singkat tentang panen atau chart, atau sekadar mencoba
location: daerah yang disebut pengguna.
date: waktu yang disebut pengguna; jika tahun tidak disebut gunakan tahun sekarang.
chart: nomor chart (1 iklim, 2 wilayah panen tertinggi, 3 panen vs KSA, 4 efektivitas alsintan, 5 tabel data panen).
information: penjelasan singkat tentang kebutuhan pengguna.`

const summaryPrompt = `Simpulkan informasi yang didapatkan menjadi kesimpulan komprehensif, mudah dimengerti, dan singkat.
Jika ada hubungan antara data, jelaskan hubungannya terutama kaitan dengan hasil padi dan iklim.
Buat dalam format Markdown yang terstruktur dan mudah dibaca, maksimal 300 kata.`

const chartPrompt = `Baca data yang digunakan untuk menampilkan chart spesifik.
Analisis data chart tersebut dan jelaskan apa yang digambarkan chart secara komprehensif, mudah dimengerti, dan singkat.
Buat dalam format Markdown yang terstruktur dan mudah dibaca, maksimal 300 kata.`

const normalPrompt = `Anda adalah asisten AI yang membantu analisis data pertanian dan iklim di Indonesia:
data iklim (curah hujan, suhu, kelembaban), data panen padi (wilayah terbaik, total panen),
data KSA dan efektivitas alsintan, serta chart dan visualisasinya.
Jika konteks data disertakan, gunakan untuk menjawab. Buat jawaban dalam format Markdown yang mudah dibaca.`

// Anthropic classifies and writes with Claude models.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	clock     clockwork.Clock
}

// AnthropicOption configures Anthropic.
type AnthropicOption func(*Anthropic)

// WithModel overrides DefaultModel.
func WithModel(model string) AnthropicOption {
	return func(a *Anthropic) {
		if model != "" {
			a.model = model
		}
	}
}

// WithMaxTokens caps the summary and chart replies. Normal-mode replies get
// half of it.
func WithMaxTokens(n int64) AnthropicOption {
	return func(a *Anthropic) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithClock sets the clock the intent prompt takes today's date from.
func WithClock(c clockwork.Clock) AnthropicOption {
	return func(a *Anthropic) { a.clock = c }
}

// NewAnthropic creates an Anthropic-backed classifier and writer set.
func NewAnthropic(client anthropic.Client, opts ...AnthropicOption) *Anthropic {
	a := &Anthropic{client: client, model: DefaultModel, maxTokens: 1000, clock: clockwork.NewRealClock()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// ClassifyIntent implements IntentClassifier.
func (a *Anthropic) ClassifyIntent(ctx context.Context, text string) (Intent, error) {
	system := intentPrompt + fmt.Sprintf("\nTanggal hari ini: %s.", a.clock.Now().Format("2006-01-02"))
	out, err := a.complete(ctx, "intent", system, text, 0.05, 300)
	if err != nil {
		return Intent{}, err
	}
	return ParseIntent(out)
}

// Writers returns the summary, chart and normal-mode writers.
func (a *Anthropic) Writers() Writers {
	return Writers{
		Summary: &promptWriter{a: a, phase: "summary", system: summaryPrompt, temperature: 1, maxTokens: a.maxTokens},
		Chart:   &promptWriter{a: a, phase: "chart", system: chartPrompt, temperature: 1, maxTokens: a.maxTokens},
		Normal:  &promptWriter{a: a, phase: "normal", system: normalPrompt, temperature: 1, maxTokens: a.maxTokens / 2},
	}
}

func (a *Anthropic) complete(ctx context.Context, phase, system, text string, temperature float64, maxTokens int64) (string, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(system),
		Messages:    []anthropic.Message{{Role: "user", Content: text}},
		Temperature: &temperature,
	})
	if err != nil {
		return "", eris.Wrapf(err, "agent: %s", phase)
	}
	resp.Usage.LogCost(a.model, phase)

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", eris.Errorf("agent: %s: empty response", phase)
	}
	return out, nil
}

// promptWriter is a Summarizer with a fixed system prompt.
type promptWriter struct {
	a           *Anthropic
	phase       string
	system      string
	temperature float64
	maxTokens   int64
}

func (w *promptWriter) Summarize(ctx context.Context, text string) (string, error) {
	return w.a.complete(ctx, w.phase, w.system, text, w.temperature, w.maxTokens)
}

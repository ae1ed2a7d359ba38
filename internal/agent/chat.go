package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tani-io/tani/internal/chart"
	"github.com/tani-io/tani/internal/model"
)

// Replies used without calling a model.
const (
	EmptyMessageReply = "Silakan berikan pertanyaan yang ingin Anda tanyakan."
	NoResponseReply   = "Maaf, tidak ada respons yang dihasilkan."
	BusyReply         = "Maaf, sistem sedang sibuk. Silakan coba lagi dalam beberapa saat."
	ConnectionReply   = "Maaf, terjadi masalah koneksi. Pastikan layanan API sedang berjalan."
	FailureReply      = "Maaf, terjadi kesalahan saat memproses pertanyaan Anda."
)

// DefaultLocation is analysed when a message names no place.
const DefaultLocation = "indonesia"

// IntentClassifier turns a message into an Intent.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string) (Intent, error)
}

// Summarizer turns gathered text into a reply.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Writers are the Summarizers used per route.
type Writers struct {
	Summary Summarizer
	Chart   Summarizer
	Normal  Summarizer
}

// Resolver maps free text to a region.
type Resolver interface {
	Resolve(ctx context.Context, text string) (model.Region, error)
}

// Reporter renders the harvest narrative for a region.
type Reporter interface {
	Narrative(ctx context.Context, reg model.Region, label string) (string, error)
}

// Joiner reads climate and survey rows for a region.
type Joiner interface {
	Climate(ctx context.Context, reg model.Region, month string) ([]model.ClimateRecord, error)
	Survey(ctx context.Context, reg model.Region) ([]model.SurveyRecord, error)
}

// Charts builds the dashboard chart series.
type Charts interface {
	Climate(ctx context.Context, reg model.Region) ([]chart.ClimatePoint, error)
	HarvestRegions(ctx context.Context, reg model.Region) ([]chart.HarvestPoint, error)
	HarvestVsSurvey(ctx context.Context, reg model.Region) (*chart.HarvestVsSurvey, error)
	MachineryEffectiveness(ctx context.Context, reg model.Region) ([]chart.EffectivenessPoint, error)
	GeneralData(ctx context.Context, reg model.Region) ([]model.HarvestRecord, error)
}

// Data groups the services the agent reads from.
type Data struct {
	Resolver Resolver
	Reporter Reporter
	Joiner   Joiner
	Charts   Charts
}

// Observer is notified of each routed message.
type Observer interface {
	ObserveChat(needs string)
}

// Request is one chat message.
type Request struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Reply is the answer to a Request.
type Reply struct {
	ConversationID string `json:"conversation_id"`
	Needs          Need   `json:"needs,omitempty"`
	Location       string `json:"location,omitempty"`
	Answer         string `json:"response"`
}

// Chat routes messages by intent.
type Chat struct {
	intents  IntentClassifier
	writers  Writers
	data     Data
	observer Observer
	log      *zap.Logger
}

// ChatOption configures a Chat.
type ChatOption func(*Chat)

// WithObserver reports each routed message to o.
func WithObserver(o Observer) ChatOption {
	return func(c *Chat) { c.observer = o }
}

// NewChat creates a Chat.
func NewChat(intents IntentClassifier, writers Writers, data Data, opts ...ChatOption) *Chat {
	c := &Chat{
		intents: intents,
		writers: writers,
		data:    data,
		log:     zap.L().With(zap.String("component", "agent")),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Respond classifies req and answers it. Errors come back with a reply whose
// Answer is safe to show the user.
func (c *Chat) Respond(ctx context.Context, req Request) (*Reply, error) {
	reply := &Reply{ConversationID: req.ConversationID}
	if reply.ConversationID == "" {
		reply.ConversationID = uuid.NewString()
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		reply.Answer = EmptyMessageReply
		return reply, nil
	}

	intent, err := c.intents.ClassifyIntent(ctx, msg)
	if err != nil {
		reply.Answer = ErrorReply(err)
		return reply, eris.Wrap(err, "agent: classify")
	}
	reply.Needs = intent.Needs
	reply.Location = intent.Location()
	if c.observer != nil {
		c.observer.ObserveChat(string(intent.Needs))
	}

	log := c.log.With(
		zap.String("conversation_id", reply.ConversationID),
		zap.String("needs", string(intent.Needs)),
		zap.String("location", reply.Location),
	)
	log.Info("chat routed", zap.Int("chart", int(intent.Chart)))

	var answer string
	switch intent.Needs {
	case NeedAnalyzeHarvest:
		answer, err = c.analyzeHarvest(ctx, intent)
	case NeedAnalyzeChart:
		answer, err = c.analyzeChart(ctx, intent)
	default:
		answer, err = c.normal(ctx, msg, intent)
	}
	if err != nil {
		log.Warn("chat failed", zap.Error(err))
		reply.Answer = ErrorReply(err)
		return reply, err
	}
	if strings.TrimSpace(answer) == "" {
		answer = NoResponseReply
	}
	reply.Answer = answer
	return reply, nil
}

func (c *Chat) resolve(ctx context.Context, intent Intent) (model.Region, string, error) {
	label := intent.Location()
	if label == "" {
		label = DefaultLocation
	}
	reg, err := c.data.Resolver.Resolve(ctx, label)
	if err != nil {
		return reg, label, eris.Wrapf(err, "agent: resolve %q", label)
	}
	return reg, label, nil
}

// analyzeHarvest gathers the narrative, climate and survey figures for the
// first location and summarises them.
func (c *Chat) analyzeHarvest(ctx context.Context, intent Intent) (string, error) {
	reg, label, err := c.resolve(ctx, intent)
	if err != nil {
		return "", err
	}

	var (
		narrative string
		climate   []model.ClimateRecord
		survey    []model.SurveyRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		narrative, err = c.data.Reporter.Narrative(gctx, reg, label)
		return err
	})
	g.Go(func() error {
		var err error
		climate, err = c.data.Joiner.Climate(gctx, reg, "")
		return err
	})
	g.Go(func() error {
		var err error
		survey, err = c.data.Joiner.Survey(gctx, reg)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", eris.Wrap(err, "agent: gather harvest data")
	}

	var b strings.Builder
	if intent.Information != "" {
		b.WriteString(intent.Information + "\n\n")
	}
	b.WriteString("Data panen ini dari SIMOTANDI, diambil dari proses citra satelit.\n")
	b.WriteString(narrative + "\n\n")
	b.WriteString("KSA (Kerangka Sampling Area) adalah data Badan Pusat Statistik (BPS) sebagai pembanding data panen SIMOTANDI.\n")
	fmt.Fprintf(&b, "Data KSA: %s\n\n", compactJSON(survey))
	b.WriteString("Data iklim digunakan untuk melihat kemungkinan penyebab perubahan hasil panen padi.\n")
	fmt.Fprintf(&b, "Data Iklim: %s\n", compactJSON(climate))

	return c.writers.Summary.Summarize(ctx, b.String())
}

// analyzeChart explains one dashboard chart. An unknown chart number is
// answered without a model call.
func (c *Chat) analyzeChart(ctx context.Context, intent Intent) (string, error) {
	if intent.Chart == 0 {
		return "Data untuk chart yang diminta tidak ditemukan.", nil
	}
	reg, _, err := c.resolve(ctx, intent)
	if err != nil {
		return "", err
	}
	data, err := c.chartData(ctx, int(intent.Chart), reg)
	if err != nil {
		return "", eris.Wrapf(err, "agent: chart %d", intent.Chart)
	}

	prompt := fmt.Sprintf("%s\nJelaskan data yang digunakan pada chart berikut.\nData untuk chart %d: %s",
		intent.Information, intent.Chart, data)
	return c.writers.Chart.Summarize(ctx, prompt)
}

func (c *Chat) chartData(ctx context.Context, n int, reg model.Region) (string, error) {
	var (
		desc string
		data any
		err  error
	)
	switch n {
	case ChartClimate:
		desc = "Chart radar tentang cuaca pada tiap daerah"
		data, err = c.data.Charts.Climate(ctx, reg)
	case ChartHarvestRegions:
		desc = "Chart batang tentang 10 wilayah panen terbaik"
		data, err = c.data.Charts.HarvestRegions(ctx, reg)
	case ChartHarvestVsSurvey:
		desc = "Chart garis perbandingan data panen SIMOTANDI dan KSA"
		data, err = c.data.Charts.HarvestVsSurvey(ctx, reg)
	case ChartMachineryEffectiveness:
		desc = "Chart pie tentang wilayah dengan efektivitas alsintan terbaik"
		data, err = c.data.Charts.MachineryEffectiveness(ctx, reg)
	case ChartGeneralData:
		desc = "Data panen dalam tabel"
		data, err = c.data.Charts.GeneralData(ctx, reg)
	}
	if err != nil {
		return "", err
	}
	return desc + " " + compactJSON(data), nil
}

// normal answers directly, adding the narrative of a named location as
// context when there is one.
func (c *Chat) normal(ctx context.Context, msg string, intent Intent) (string, error) {
	prompt := msg
	if intent.Location() != "" {
		reg, label, err := c.resolve(ctx, intent)
		if err != nil {
			return "", err
		}
		if reg.Found() {
			narrative, err := c.data.Reporter.Narrative(ctx, reg, label)
			if err != nil {
				return "", eris.Wrap(err, "agent: context narrative")
			}
			prompt = fmt.Sprintf("%s\n\nKonteks data:\n%s", msg, narrative)
		}
	}
	return c.writers.Normal.Summarize(ctx, prompt)
}

// ErrorReply maps a failure to a message fit for the user.
func ErrorReply(err error) string {
	if err == nil {
		return ""
	}
	if eris.Is(err, context.DeadlineExceeded) {
		return BusyReply
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return BusyReply
	case strings.Contains(msg, "connection"):
		return ConnectionReply
	}
	return FailureReply
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

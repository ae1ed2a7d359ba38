package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tani-io/tani/internal/agent"
	"github.com/tani-io/tani/internal/aggregate"
	"github.com/tani-io/tani/internal/api"
	"github.com/tani-io/tani/internal/cache"
	"github.com/tani-io/tani/internal/chart"
	"github.com/tani-io/tani/internal/join"
	"github.com/tani-io/tani/internal/metrics"
	"github.com/tani-io/tani/internal/region"
	"github.com/tani-io/tani/internal/report"
	"github.com/tani-io/tani/internal/store"
	"github.com/tani-io/tani/pkg/anthropic"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		st, err := openStore(ctx, "serve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		srv, err := buildServer(st, metrics.New(), nil)
		if err != nil {
			return err
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// buildServer wires the query services over st. A nil client is replaced by
// an Anthropic SDK client when a key is configured; without one the chat
// route is not mounted.
func buildServer(st store.Store, m *metrics.Metrics, client anthropic.Client) (*api.Server, error) {
	match, err := store.ParseMatch(cfg.Region.Match)
	if err != nil {
		return nil, err
	}

	resolver := region.NewResolver(st, region.WithMatch(match), region.WithObserver(m))
	engine := aggregate.NewEngine(st)
	reporter := report.NewBuilder(engine, cfg.Report.Locale)
	joiner := join.New(st, join.WithMatch(match))
	charts := chart.New(engine, joiner, nil)

	deps := api.Deps{
		Store:    st,
		Resolver: resolver,
		Engine:   engine,
		Reporter: reporter,
		Joiner:   joiner,
		Charts:   charts,
		Metrics:  m,
	}
	if cfg.Cache.MaxEntries > 0 {
		deps.Cache = cache.New(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSecs)*time.Second, cache.WithObserver(m))
	}

	if client == nil && cfg.Anthropic.Key != "" {
		var opts []option.RequestOption
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		client = anthropic.NewClient(cfg.Anthropic.Key, opts...)
	}
	if client != nil {
		llm := agent.NewAnthropic(client,
			agent.WithModel(cfg.Anthropic.Model),
			agent.WithMaxTokens(cfg.Anthropic.MaxTokens),
		)
		deps.Chat = agent.NewChat(llm, llm.Writers(), agent.Data{
			Resolver: resolver,
			Reporter: reporter,
			Joiner:   joiner,
			Charts:   charts,
		}, agent.WithObserver(m))
	} else {
		zap.L().Info("chat disabled: no anthropic key configured")
	}

	return api.New(deps, api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
		ChatRate:       rate.Limit(cfg.Chat.RatePerSec),
		ChatBurst:      cfg.Chat.Burst,
	}), nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

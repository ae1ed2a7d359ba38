// Package api serves harvest, climate, survey and chart data over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tani-io/tani/internal/agent"
	"github.com/tani-io/tani/internal/aggregate"
	"github.com/tani-io/tani/internal/cache"
	"github.com/tani-io/tani/internal/metrics"
	"github.com/tani-io/tani/internal/model"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Resolver maps free text to a region.
type Resolver interface {
	Resolve(ctx context.Context, text string) (model.Region, error)
}

// Aggregator reads and ranks harvest rows.
type Aggregator interface {
	FetchRecords(ctx context.Context, reg model.Region) ([]model.HarvestRecord, error)
	ComputeTotal(ctx context.Context, reg model.Region) (*model.HarvestRecord, error)
	RankByHarvest(ctx context.Context, reg model.Region, topN int) ([]aggregate.RegionHarvest, error)
	RankByMachineryEffectiveness(ctx context.Context, reg model.Region, topN int) ([]aggregate.Effectiveness, error)
}

// Chatter answers chat messages.
type Chatter interface {
	Respond(ctx context.Context, req agent.Request) (*agent.Reply, error)
}

// Deps are the services the handlers call. Chat, Cache and Metrics are
// optional.
type Deps struct {
	Store    Pinger
	Resolver Resolver
	Engine   Aggregator
	Reporter agent.Reporter
	Joiner   agent.Joiner
	Charts   agent.Charts
	Chat     Chatter
	Cache    *cache.ResultCache
	Metrics  *metrics.Metrics
}

// Options tune the HTTP surface.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	ChatRate       rate.Limit
	ChatBurst      int
}

// Server is the HTTP API.
type Server struct {
	deps       Deps
	opts       Options
	router     chi.Router
	chatLimit  *rate.Limiter
	httpServer *http.Server
	log        *zap.Logger
}

// New builds the router.
func New(deps Deps, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.ChatRate <= 0 {
		opts.ChatRate = rate.Limit(1)
	}
	if opts.ChatBurst <= 0 {
		opts.ChatBurst = 5
	}

	s := &Server{
		deps:      deps,
		opts:      opts,
		chatLimit: rate.NewLimiter(opts.ChatRate, opts.ChatBurst),
		log:       zap.L().With(zap.String("component", "api")),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.log))
	r.Use(middleware.Recoverer)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))

		r.Get("/api/endpoints", s.handleEndpoints)
		r.Get("/api/cache/stats", s.handleCacheStats)
		for _, rt := range s.dataRoutes() {
			h := s.regionHandler(rt)
			r.Get(rt.path, h)
			if !rt.getOnly {
				r.Post(rt.path, h)
			}
		}
		if s.deps.Chat != nil {
			r.Post("/api/chat", s.handleChat)
		}
	})
	return r
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on addr. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.log.Info("http server starting", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

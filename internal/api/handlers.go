package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tani-io/tani/internal/agent"
	"github.com/tani-io/tani/internal/aggregate"
	"github.com/tani-io/tani/internal/cache"
	"github.com/tani-io/tani/internal/model"
)

// DefaultRegion is used when a request names no region.
const DefaultRegion = "indonesia"

const maxBodyBytes = 1 << 16

// Envelope wraps every data response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// regionInput is the POST body of the data routes.
type regionInput struct {
	Region *string `json:"region"`
	Month  *string `json:"month"`
}

type query struct {
	region string
	month  string
}

type dataRoute struct {
	path        string
	description string
	getOnly     bool
	withMonth   bool
	message     string
	load        func(ctx context.Context, s *Server, reg model.Region, q query) (any, error)
}

func (s *Server) dataRoutes() []dataRoute {
	return []dataRoute{
		{
			path:        "/api/data/nasional",
			description: "Provincial harvest rollups for the whole nation",
			getOnly:     true,
			message:     "National agricultural data retrieved successfully",
			load: func(ctx context.Context, s *Server, _ model.Region, _ query) (any, error) {
				return s.deps.Engine.FetchRecords(ctx, model.Nation())
			},
		},
		{
			path:        "/api/data/parent",
			description: "Resolved administrative level and parents of a region",
			message:     "Parent data for %s retrieved successfully",
			load: func(_ context.Context, _ *Server, reg model.Region, _ query) (any, error) {
				return reg, nil
			},
		},
		{
			path:        "/api/data/panen",
			description: "Harvest rows of a region",
			message:     "Agricultural data for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				return s.deps.Engine.FetchRecords(ctx, reg)
			},
		},
		{
			path:        "/api/data/total-panen",
			description: "Summed harvest measures of a region",
			message:     "Total harvest data for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				total, err := s.deps.Engine.ComputeTotal(ctx, reg)
				if err != nil || total == nil {
					return []model.HarvestRecord{}, err
				}
				return []model.HarvestRecord{*total}, nil
			},
		},
		{
			path:        "/api/data/wilayah-panen-tertinggi",
			description: "Sub-regions ranked by harvested area",
			message:     "Top harvest regions for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				return s.deps.Engine.RankByHarvest(ctx, reg, aggregate.DefaultTopN)
			},
		},
		{
			path:        "/api/data/efektifitas-alsintan",
			description: "Sub-regions ranked by harvest per machine",
			message:     "Machinery effectiveness for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				return s.deps.Engine.RankByMachineryEffectiveness(ctx, reg, aggregate.DefaultTopN)
			},
		},
		{
			path:        "/api/data/ringkasan",
			description: "Harvest summary narrative of a region",
			message:     "Summary for %s generated successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, q query) (any, error) {
				text, err := s.deps.Reporter.Narrative(ctx, reg, q.region)
				if err != nil {
					return nil, err
				}
				return map[string]string{"summary": text}, nil
			},
		},
		{
			path:        "/api/data/iklim",
			description: "Climate readings of a region for a month (default September)",
			withMonth:   true,
			message:     "Climate data for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, q query) (any, error) {
				return s.deps.Joiner.Climate(ctx, reg, q.month)
			},
		},
		{
			path:        "/api/data/ksa",
			description: "September area-sampling survey rows of a region",
			message:     "KSA data for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				return s.deps.Joiner.Survey(ctx, reg)
			},
		},
		{
			path:        "/api/charts/climate",
			description: "Climate chart series",
			message:     "Climate chart data for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				return s.deps.Charts.Climate(ctx, reg)
			},
		},
		{
			path:        "/api/charts/harvest-regions",
			description: "Harvest ranking chart series",
			message:     "Harvest regions chart data for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				return s.deps.Charts.HarvestRegions(ctx, reg)
			},
		},
		{
			path:        "/api/charts/harvest-vs-ksa",
			description: "Harvest ranking against survey rice production",
			message:     "Harvest vs KSA chart data for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				hv, err := s.deps.Charts.HarvestVsSurvey(ctx, reg)
				if err != nil {
					return nil, err
				}
				return map[string]any{"harvest_data": hv.Harvest, "ksa_data": hv.Survey}, nil
			},
		},
		{
			path:        "/api/charts/machinery-effectiveness",
			description: "Machinery effectiveness chart series",
			message:     "Machinery effectiveness chart data for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				return s.deps.Charts.MachineryEffectiveness(ctx, reg)
			},
		},
		{
			path:        "/api/charts/general-data",
			description: "Raw harvest rows chart series",
			message:     "General chart data for %s retrieved successfully",
			load: func(ctx context.Context, s *Server, reg model.Region, _ query) (any, error) {
				return s.deps.Charts.GeneralData(ctx, reg)
			},
		},
	}
}

// regionHandler parses the region, resolves it and serves rt's result,
// through the result cache when one is configured.
func (s *Server) regionHandler(rt dataRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := readQuery(r, rt.withMonth)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Envelope{Message: err.Error()})
			return
		}
		if rt.withMonth && q.month != "" {
			month, err := model.ParseMonth(q.month)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, Envelope{Message: fmt.Sprintf("unknown month %q", q.month)})
				return
			}
			q.month = month
		}

		// A cached load is shared by every request for the same key and
		// outlives the request that started it, so it carries its own deadline.
		load := func(ctx context.Context) ([]byte, error) {
			ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
			defer cancel()
			reg, err := s.deps.Resolver.Resolve(ctx, q.region)
			if err != nil {
				return nil, err
			}
			data, err := rt.load(ctx, s, reg, q)
			if err != nil {
				return nil, err
			}
			return json.Marshal(emptyIfNil(data))
		}

		var body []byte
		if s.deps.Cache != nil {
			body, err = s.deps.Cache.GetOrLoadContext(r.Context(), cache.Key(rt.path, q.region, q.month), load)
		} else {
			body, err = load(r.Context())
		}
		if err != nil {
			s.fail(w, r, rt.path, err)
			return
		}

		msg := rt.message
		if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, q.region)
		}
		writeJSON(w, http.StatusOK, Envelope{Success: true, Data: json.RawMessage(body), Message: msg})
	}
}

// readQuery reads region and month from the query string on GET and from
// the JSON body on POST. A missing region means DefaultRegion; a present but
// blank one is rejected.
func readQuery(r *http.Request, withMonth bool) (query, error) {
	q := query{region: DefaultRegion}
	if r.Method == http.MethodGet {
		vals := r.URL.Query()
		if vals.Has("region") {
			q.region = strings.TrimSpace(vals.Get("region"))
			if q.region == "" {
				return q, errors.New("region must not be empty")
			}
		}
		if withMonth {
			q.month = strings.TrimSpace(vals.Get("month"))
		}
		return q, nil
	}

	var in regionInput
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return q, errors.New("invalid JSON body")
	}
	if in.Region != nil {
		q.region = strings.TrimSpace(*in.Region)
		if q.region == "" {
			return q, errors.New("region must not be empty")
		}
	}
	if withMonth && in.Month != nil {
		q.month = strings.TrimSpace(*in.Month)
	}
	return q, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, route string, err error) {
	s.log.Error("request failed",
		zap.String("route", route),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	status := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, Envelope{Message: "Internal server error", Detail: err.Error()})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      "Tani Agricultural Data API",
		"version":   Version,
		"endpoints": "/api/endpoints",
		"chat":      s.deps.Chat != nil,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type endpoint struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
	Params      []string `json:"params,omitempty"`
}

func (s *Server) handleEndpoints(w http.ResponseWriter, _ *http.Request) {
	var out []endpoint
	for _, rt := range s.dataRoutes() {
		ep := endpoint{Path: rt.path, Methods: []string{http.MethodGet}, Description: rt.description}
		if !rt.getOnly {
			ep.Methods = append(ep.Methods, http.MethodPost)
			ep.Params = []string{"region"}
		}
		if rt.withMonth {
			ep.Params = append(ep.Params, "month")
		}
		out = append(out, ep)
	}
	if s.deps.Chat != nil {
		out = append(out, endpoint{
			Path:        "/api/chat",
			Methods:     []string{http.MethodPost},
			Description: "Conversational analysis of the harvest data",
			Params:      []string{"message", "conversation_id"},
		})
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: out, Message: "Available endpoints"})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Cache == nil {
		writeJSON(w, http.StatusNotFound, Envelope{Message: "cache disabled"})
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: s.deps.Cache.Stats(), Message: "Cache statistics"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !s.chatLimit.Allow() {
		writeJSON(w, http.StatusTooManyRequests, Envelope{Message: agent.BusyReply})
		return
	}
	var req agent.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{Message: "invalid JSON body"})
		return
	}

	reply, err := s.deps.Chat.Respond(r.Context(), req)
	if err != nil {
		s.log.Error("chat failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		if reply == nil {
			reply = &agent.Reply{ConversationID: req.ConversationID, Answer: agent.ErrorReply(err)}
		}
		writeJSON(w, http.StatusOK, Envelope{Data: reply, Message: reply.Answer})
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: reply, Message: "Chat response generated"})
}

// emptyIfNil turns a nil slice into an empty one so it encodes as [].
func emptyIfNil(v any) any {
	if v == nil {
		return []any{}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return []any{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

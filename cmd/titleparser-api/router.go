package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reportlib/titleparser/internal/cache"
	"github.com/reportlib/titleparser/internal/config"
	"github.com/reportlib/titleparser/internal/observability"
	"github.com/reportlib/titleparser/internal/pipeline"
)

// NewRouter builds the API router: unauthenticated health checks plus a
// single versioned endpoint wrapping pipeline.Pipeline.Run. Grounded on
// the teacher's chi middleware stack, trimmed of every handler that has
// no analogue once ingestion, retrieval, comparison, and drift detection
// are out of scope.
func NewRouter(logger *observability.Logger, p *pipeline.Pipeline, cfg *config.Config, resultCache cache.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors())
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"titleparser-api"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ready"}`))
	})

	h := &parseHandler{
		logger:    logger,
		pipeline:  p,
		budget:    cfg.Pipeline.PerTitleBudget,
		cache:     resultCache,
		resultTTL: cfg.Cache.ResultTTL,
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/parse", h.Parse)
	})

	return r
}

// cors allows requests from any origin; this is a read-only lookup
// service with no session state to protect.
func cors() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type parseHandler struct {
	logger    *observability.Logger
	pipeline  *pipeline.Pipeline
	budget    time.Duration
	cache     cache.Client
	resultTTL time.Duration
}

type parseRequest struct {
	Title string `json:"title"`
}

// Parse runs a single title through the C1-C5 pipeline and writes the
// resulting PipelineResult as JSON, bounding the run with the same
// per-title budget the CLI's worker pool uses (spec.md §5). Results are
// cached by a hash of the title (cache.TitleResultKey) since repeated
// titles are common in a bulk corpus; only StatusOK results are cached,
// since a timeout or invalid-input result carries no value to reuse.
func (h *parseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	reqLogger := h.logger
	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		ctx = observability.ContextWithTraceID(ctx, reqID)
		reqLogger = h.logger.WithContext(ctx)
	}

	key := cache.TitleResultKey(req.Title)
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, key); err == nil {
			var result pipeline.PipelineResult
			if json.Unmarshal(cached, &result) == nil {
				writeParseResult(w, result)
				return
			}
		}
	}

	budget := h.budget
	if budget <= 0 {
		budget = 250 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	result := h.pipeline.Run(ctx, req.Title)

	if h.cache != nil && result.Status == pipeline.StatusOK {
		if data, err := cache.MarshalResult(result); err == nil {
			if err := h.cache.Set(context.Background(), key, data, h.resultTTL); err != nil {
				reqLogger.Warn().Err(err).Msg("result cache write failed")
			}
		}
	}

	writeParseResult(w, result)
}

func writeParseResult(w http.ResponseWriter, result pipeline.PipelineResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status == pipeline.StatusInvalidInput {
		w.WriteHeader(http.StatusBadRequest)
	}
	_ = json.NewEncoder(w).Encode(result)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

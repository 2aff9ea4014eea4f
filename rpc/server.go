package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/exfury/gridiron-core/core"
	"github.com/exfury/gridiron-core/core/types"
)

const maxRequestBytes = 1 << 20

// Ledger is the application surface served over HTTP.
type Ledger interface {
	Execute(ctx context.Context, bctx core.BlockContext, msg *core.Msg) (*core.Result, error)
	QueryState(namespace, path string) (*core.QueryResult, error)
	Head() types.Head
}

// Config configures the HTTP server.
type Config struct {
	RateLimit RateLimit
	Logger    *slog.Logger
}

// Server exposes message submission and state queries.
type Server struct {
	ledger  Ledger
	logger  *slog.Logger
	limiter *RateLimiter
	handler http.Handler
}

// TxRequest is the body of POST /tx.
type TxRequest struct {
	Block core.BlockContext `json:"block"`
	Msg   json.RawMessage   `json:"msg"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func NewServer(ledger Ledger, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ledger:  ledger,
		logger:  logger.With("component", "rpc"),
		limiter: NewRateLimiter(cfg.RateLimit),
	}
	s.handler = otelhttp.NewHandler(s.routes(), "gridd")
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(gr chi.Router) {
		gr.Use(observe(s.logger, "tx"))
		gr.Use(s.limiter.Middleware("tx"))
		gr.Post("/tx", s.handleTx)
	})
	r.Group(func(gr chi.Router) {
		gr.Use(observe(s.logger, "query"))
		gr.Use(s.limiter.Middleware("query"))
		gr.Get("/head", s.handleHead)
		gr.Get("/query/{namespace}/*", s.handleQuery)
	})
	return r
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown rpc: %w", err)
		}
		return nil
	}
}

func (s *Server) handleTx(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var req TxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Msg) == 0 {
		writeError(w, r, http.StatusBadRequest, "msg required")
		return
	}
	msg, err := core.DecodeMsg(req.Msg)
	if err != nil {
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	result, err := s.ledger.Execute(r.Context(), req.Block, msg)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("execute message",
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("type", msg.Type),
				slog.Any("error", err))
		}
		writeError(w, r, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHead(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Head())
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	path := chi.URLParam(r, "*")
	result, err := s.ledger.QueryState(namespace, path)
	if err != nil {
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Value)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: RequestIDFromContext(r.Context())})
}

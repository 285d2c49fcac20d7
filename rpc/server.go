package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bridgechain/core"
	"bridgechain/native/bridge"
	"bridgechain/observability"
	"bridgechain/services/eventlog"
)

const (
	metricsModule   = "bridge"
	maxRequestBytes = 1 << 20 // 1 MiB
	shutdownTimeout = 10 * time.Second
)

// Backend is the bridge host the API drives. *core.Node satisfies it.
type Backend interface {
	SubmitWithdrawal(caller [20]byte, to common.Address, amount *big.Int) (*bridge.Receipt, error)
	SubmitDeposit(caller [20]byte, messageID [32]byte, from common.Address, to [20]byte, amount *big.Int) (*bridge.Receipt, error)
	ApproveTransfer(caller [20]byte, messageID [32]byte) (*bridge.Receipt, error)
	ConfirmTransfer(caller [20]byte, messageID [32]byte) (*bridge.Receipt, error)
	CancelTransfer(caller [20]byte, messageID [32]byte) (*bridge.Receipt, error)
	AddValidator(caller, account [20]byte) (*bridge.Receipt, error)
	RemoveValidator(caller, account [20]byte) (*bridge.Receipt, error)
	PauseBridge(caller [20]byte) (*bridge.Receipt, error)
	ResumeBridge(caller [20]byte) (*bridge.Receipt, error)

	Status() (*core.Status, error)
	Proposal(id bridge.ProposalID) (*bridge.Proposal, error)
	ProposalByMessage(hash [32]byte) (*bridge.Proposal, error)
	TransferMessage(hash [32]byte) (*bridge.TransferMessage, error)
	ValidatorMessage(hash [32]byte) (*bridge.ValidatorMessage, error)
	ValidatorMessageStatus(hash [32]byte) (bridge.Status, error)
	BridgeMessage(hash [32]byte) (*bridge.BridgeMessage, error)
	Validators() ([][20]byte, error)
	Account(account [20]byte) (*core.AccountBalance, error)
}

// EventArchive serves archived notifications.
type EventArchive interface {
	List(ctx context.Context, q eventlog.Query) ([]eventlog.Record, error)
}

// Config captures the dependencies required to construct the server.
type Config struct {
	ServiceName string
	Auth        AuthConfig
	RateLimit   RateLimit
	Events      EventArchive
	Logger      *slog.Logger
}

// Server exposes the bridge over HTTP.
type Server struct {
	backend Backend
	events  EventArchive
	auth    *Authenticator
	limiter *RateLimiter
	logger  *slog.Logger
	service string

	router http.Handler
}

// NewServer constructs the router with authentication, rate limiting and
// instrumentation.
func NewServer(backend Backend, cfg Config) (*Server, error) {
	if backend == nil {
		return nil, fmt.Errorf("rpc: backend must not be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auth, err := NewAuthenticator(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}
	service := cfg.ServiceName
	if service == "" {
		service = "bridged"
	}
	s := &Server{
		backend: backend,
		events:  cfg.Events,
		auth:    auth,
		limiter: NewRateLimiter(cfg.RateLimit),
		logger:  logger,
		service: service,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler exposes the instrumented HTTP router.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, s.service)
}

// Serve listens on addr until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: listen %s: %w", addr, err)
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener serves on an existing listener until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc server listening", slog.String("addr", listener.Addr().String()))
		errCh <- srv.Serve(listener)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("rpc: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(api chi.Router) {
		api.Use(s.observe)
		api.Use(s.auth.Middleware)
		api.Use(s.limiter.Middleware)

		api.Post("/withdrawals", s.handleSubmitWithdrawal)
		api.Post("/deposits", s.handleSubmitDeposit)
		api.Post("/messages/{id}/approve", s.handleApprove)
		api.Post("/messages/{id}/confirm", s.handleConfirm)
		api.Post("/messages/{id}/cancel", s.handleCancel)
		api.Post("/validators", s.handleAddValidator)
		api.Delete("/validators/{account}", s.handleRemoveValidator)
		api.Post("/bridge/pause", s.handlePause)
		api.Post("/bridge/resume", s.handleResume)

		api.Get("/status", s.handleStatus)
		api.Get("/proposals/{id}", s.handleGetProposal)
		api.Get("/messages/{id}", s.handleGetMessage)
		api.Get("/validators", s.handleListValidators)
		api.Get("/accounts/{account}", s.handleGetAccount)
		api.Get("/events", s.handleListEvents)
	})
	return r
}

// observe records per-route latency and status after routing resolves the
// pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span := trace.SpanFromContext(r.Context())
		span.SetName(r.Method + " " + pattern)
		span.SetAttributes(
			attribute.String("http.route", pattern),
			attribute.Int("http.status_code", status),
		)
		observability.ModuleMetrics().Observe(metricsModule, r.Method+" "+pattern, status, time.Since(start))
	})
}

package server

import (
	"QuorumKV/internal/platform/api/rest"
	"QuorumKV/internal/platform/config"
	"QuorumKV/internal/platform/metrics"
	"QuorumKV/internal/platform/server/handler/admin"
	"QuorumKV/internal/platform/server/handler/entities"
	"QuorumKV/internal/platform/server/handler/entity"
	"QuorumKV/internal/platform/server/handler/health"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

type Server struct {
	httpAddr string
	engine   *chi.Mux
	http     *http.Server
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewServer(cfg config.Config, entityHandler *entity.EntityHandler, entitiesHandler *entities.EntitiesHandler,
	adminHandler *admin.AdminHandler, m *metrics.Metrics, logger *zap.Logger) *Server {
	srv := &Server{
		engine:   chi.NewRouter(),
		httpAddr: cfg.HttpAddr(),
		metrics:  m,
		logger:   logger.Named("http"),
	}
	srv.engine.Use(middleware.RequestID)
	srv.engine.Use(middleware.Recoverer)
	srv.engine.Use(srv.traceContext)
	srv.engine.Use(srv.accessLog)
	srv.registerRoutes(entityHandler, entitiesHandler, adminHandler)
	srv.http = &http.Server{
		Addr:              srv.httpAddr,
		Handler:           srv.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks until the server is shut down.
func (s *Server) Run() error {
	s.logger.Info("server running", zap.String("address", s.httpAddr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes(entityHandler *entity.EntityHandler, entitiesHandler *entities.EntitiesHandler,
	adminHandler *admin.AdminHandler) {
	s.engine.Get(rest.StatusPath, health.CheckHandler)
	s.engine.Handle(rest.EntityPath, entityHandler)
	s.engine.Get(rest.EntitiesPath, entitiesHandler.GetEntities)
	s.engine.Post(rest.CompactPath, adminHandler.Compact)
	s.engine.Method(http.MethodGet, rest.MetricsPath, s.metrics.Handler())
}

func (s *Server) traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			elapsed := time.Since(start)
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			s.metrics.ObserveHTTP(route, r.Method, ww.Status(), elapsed)
			s.logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", elapsed),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Bool("proxy", r.Header.Get(rest.ProxyHeader) == "true"),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

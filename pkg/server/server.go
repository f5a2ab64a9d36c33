package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Geniuskaa/promo_registration/internal/config"
	"github.com/Geniuskaa/promo_registration/pkg/form"
	"github.com/Geniuskaa/promo_registration/pkg/metrics"
	"github.com/Geniuskaa/promo_registration/pkg/registration"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type registrar interface {
	Register(ctx context.Context, req registration.Request) (*registration.Result, error)
}

type Server struct {
	ctx     context.Context
	logger  *zap.Logger
	mux     *chi.Mux
	serv    *http.Server
	cfg     *config.Entity
	regServ registrar
	page    *form.Page
	metrics *metrics.Metrics
}

func NewServer(ctx context.Context, logger *zap.Logger, mux *chi.Mux, regServ registrar, page *form.Page,
	m *metrics.Metrics, conf *config.Entity) *Server {
	return &Server{ctx: ctx, logger: logger, mux: mux, regServ: regServ, page: page, metrics: m, cfg: conf}
}

func (s *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.mux.ServeHTTP(writer, request)
}

// Init mounts the routes. reg is exposed on /metrics.
func (s *Server) Init(reg *prometheus.Registry) {
	s.mux.Use(middleware.RequestID, middleware.RealIP, s.accessLog, s.recoverer, s.metrics.RequestsMetricsMiddleware)

	s.mux.Get("/health", s.health)
	s.mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	s.mux.Get("/", s.formPage)
	s.mux.Post("/", s.formSubmit)

	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/saveData", s.saveData)
	})

	s.serv = &http.Server{
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return s.ctx },
	}
}

// WatchConfig applies LOG_LEVEL changes of the config file to atom without a restart.
func (s *Server) WatchConfig(v *viper.Viper, atom zap.AtomicLevel) {
	if s.cfg.ConfigFile == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		s.logger.Info(fmt.Sprintf("Config file changed: %s", e.Name))

		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(v.GetString(config.LOG_LEVEL))); err != nil {
			s.logger.Warn("Config file has invalid log level", zap.Error(err))
			return
		}
		if lvl != atom.Level() {
			atom.SetLevel(lvl)
			s.logger.Info("Log level changed", zap.Stringer("level", lvl))
		}
	})
	v.WatchConfig()
}

// Start blocks until the server stops. Init must be called first.
func (s *Server) Start(addr string) error {
	s.serv.Addr = addr

	s.logger.Info("Service successfully started", zap.String("addr", addr))
	if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.serv == nil {
		return nil
	}
	return s.serv.Shutdown(ctx)
}

func (s *Server) recoverer(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				if strings.HasPrefix(request.URL.Path, "/api/") {
					writeJSON(writer, http.StatusInternalServerError, response{Message: msgStoreError})
				} else {
					http.Error(writer, msgRetry, http.StatusInternalServerError)
				}
				s.logger.Error("panic occurred", zap.Any("panic", err),
					zap.String("request_id", middleware.GetReqID(request.Context())))
			}
		}()
		handler.ServeHTTP(writer, request)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

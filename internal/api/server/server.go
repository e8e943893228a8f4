package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/quantumpay/internal/api/handler"
	"github.com/xela07ax/quantumpay/internal/engine"
	"github.com/xela07ax/quantumpay/internal/infra"
)

// Server собирает HTTP-фасад демо-стенда: три API маршрута и раздача клиента.
type Server struct {
	router  *chi.Mux
	logger  *zap.Logger
	cfg     infra.ServerConfig
	metrics *engine.Metrics
	limiter *rate.Limiter // nil: без ограничения

	bankHandler    *handler.BankHandler    // /api/banks
	connectHandler *handler.ConnectHandler // /api/connect
	eventHandler   *handler.EventHandler   // /api/events/recent
	static         http.Handler            // всё остальное
}

// New собирает роутер со всеми зависимостями
func New(
	cfg infra.ServerConfig,
	logger *zap.Logger,
	metrics *engine.Metrics,
	limiter *rate.Limiter,
	bankH *handler.BankHandler,
	connectH *handler.ConnectHandler,
	eventH *handler.EventHandler,
	static http.Handler,
) *Server {
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger.Named("http-api"),
		cfg:            cfg,
		metrics:        metrics,
		limiter:        limiter,
		bankHandler:    bankH,
		connectHandler: connectH,
		eventHandler:   eventH,
		static:         static,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(engine.AccessLog(s.logger, s.metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{s.cfg.AllowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", engine.TraceHeader},
		ExposedHeaders: []string{engine.TraceHeader},
		MaxAge:         300,
	}))

	r.Get("/health", handler.Health)

	// --- 2. API ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/banks", s.bankHandler.List)

		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(engine.RateLimit(s.limiter, s.metrics))
			}
			r.Post("/connect", s.connectHandler.Connect)
		})

		r.Get("/events/recent", s.eventHandler.Recent)

		r.NotFound(handler.NotFound)
	})

	// --- 3. Клиент (SPA fallback) ---
	if s.static != nil {
		r.Handle("/*", s.static)
	}
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

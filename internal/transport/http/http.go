package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dongwon38/print-agent/internal/service/models/printjob"
	"github.com/Dongwon38/print-agent/internal/transport/http/control"
	"github.com/Dongwon38/print-agent/internal/transport/http/docs"
	"github.com/Dongwon38/print-agent/internal/transport/http/login"
	"github.com/Dongwon38/print-agent/internal/transport/http/status"
	"github.com/Dongwon38/print-agent/internal/worker/poller"
	"github.com/Dongwon38/print-agent/pkg/http/middleware/trace"
	"github.com/Dongwon38/print-agent/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// agent is the poller as seen by the operator.
type agent interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() poller.Status
}

// journal lists recorded print attempts.
type journal interface {
	RecentJobs(ctx context.Context, limit uint64) ([]printjob.Job, error)
}

// HTTPTransport serves the operator control API.
type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	agent   agent
	journal journal
}

func NewHTTPTransport(agent agent, journal journal) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:  server,
		router:  router,
		agent:   agent,
		journal: journal,
	}
}

func (h *HTTPTransport) Run() error {
	slog.Info("Starting HTTP server", "address", h.server.Addr)

	return h.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Post("/start", h.start)
		r.Post("/stop", h.stop)
		r.Get("/status", h.status)
		r.Get("/jobs", h.jobs)
	})

	docs.SwaggerInfo.BasePath = "/"
	h.router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (h *HTTPTransport) login(w http.ResponseWriter, r *http.Request) {
	login.Login(w, r, h.agent)
}

func (h *HTTPTransport) logout(w http.ResponseWriter, r *http.Request) {
	control.Logout(w, r, h.agent)
}

func (h *HTTPTransport) start(w http.ResponseWriter, r *http.Request) {
	control.Start(w, r, h.agent)
}

func (h *HTTPTransport) stop(w http.ResponseWriter, r *http.Request) {
	control.Stop(w, r, h.agent)
}

func (h *HTTPTransport) status(w http.ResponseWriter, r *http.Request) {
	status.Status(w, r, h.agent)
}

func (h *HTTPTransport) jobs(w http.ResponseWriter, r *http.Request) {
	status.Jobs(w, r, h.journal)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	port := viper.GetString("server.http.port")
	if port == "" {
		port = "8080"
	}

	return &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

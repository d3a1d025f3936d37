package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/physiotrack/clinic-api/internal/handler"
	"github.com/physiotrack/clinic-api/internal/middleware"
)

// Handler registers public routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// AdminHandler registers admin-only routes on a group.
type AdminHandler interface {
	RegisterAdminRoutes(*gin.RouterGroup)
}

// AuthenticatedHandler registers routes that need a logged-in user.
type AuthenticatedHandler interface {
	RegisterAuthenticatedRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	CORS           middleware.CORSConfig
	MetricsPrefix  string
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	health  *handler.HealthHandler
	public  []Handler
	user    []AuthenticatedHandler
	admin   []AdminHandler
	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func newRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prefix,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "http_requests_total",
			Help:      "HTTP request count",
		}, []string{"method", "path", "status"}),
	}
}

func New(
	logger *zerolog.Logger,
	auth *middleware.AuthMiddleware,
	health *handler.HealthHandler,
	cfg Config,
	public []Handler,
	user []AuthenticatedHandler,
	admin []AdminHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:  engine,
		auth:    auth,
		health:  health,
		public:  public,
		user:    user,
		admin:   admin,
		metrics: newRouterMetrics(cfg.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.ErrorLogger(logger),
		r.metricsMiddleware(),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.CORS(cfg.CORS),
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	engine.Use(rateLimiter.RateLimit())

	return r
}

// Setup wires every route group. Public routes run an optional-auth pass so
// logged-in bookings attach to their account; user and admin groups require
// a valid token.
func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	r.health.RegisterRoutes(api)

	public := api.Group("")
	public.Use(r.auth.OptionalAuthenticate())
	for _, h := range r.public {
		h.RegisterRoutes(public)
	}

	authed := api.Group("")
	authed.Use(r.auth.Authenticate())
	for _, h := range r.user {
		h.RegisterAuthenticatedRoutes(authed)
	}

	admin := api.Group("/admin")
	admin.Use(r.auth.Authenticate(), r.auth.RequireAdmin())
	for _, h := range r.admin {
		h.RegisterAdminRoutes(admin)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

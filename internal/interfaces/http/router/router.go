package router

import (
	"github.com/erp/revrec/internal/infrastructure/logger"
	"github.com/erp/revrec/internal/interfaces/http/handler"
	"github.com/erp/revrec/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: "GET", path: path, handlers: handlers})
	return dg
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: "POST", path: path, handlers: handlers})
	return dg
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// JobRoutes exposes job submission and run status
func JobRoutes(h *handler.JobHandler) *DomainGroup {
	return NewDomainGroup("jobs", "/jobs").
		GET("", h.List).
		POST("/:name/runs", h.Submit).
		GET("/runs/:id", h.GetRun)
}

// HookRoutes exposes the save hooks
func HookRoutes(h *handler.HookHandler) *DomainGroup {
	return NewDomainGroup("hooks", "/hooks").
		POST("/rma", h.ReturnAuthorization).
		POST("/item-receipt", h.ItemReceipt).
		POST("/fso", h.SalesOrder).
		POST("/fulfillment", h.Fulfillment)
}

// EngineConfig configures the middleware stack
type EngineConfig struct {
	Release        bool
	TrustedProxies []string
	MaxBodySize    int64
	Tracing        middleware.TracingConfig
	// Metrics is applied when not nil
	Metrics gin.HandlerFunc
}

// Handlers are the admin API handlers
type Handlers struct {
	System *handler.SystemHandler
	Jobs   *handler.JobHandler
	Hooks  *handler.HookHandler
}

// NewEngine builds the gin engine with the middleware stack and all routes.
// Middleware order: request id, recovery, request log, tracing, metrics,
// security headers, body limit.
func NewEngine(cfg EngineConfig, h Handlers, log *zap.Logger) *gin.Engine {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Tracing), middleware.SpanEnricher())
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics)
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(JobRoutes(h.Jobs))
	r.Register(HookRoutes(h.Hooks))
	r.Setup()

	return engine
}

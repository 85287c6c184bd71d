package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes under the versioned API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
	middleware []gin.HandlerFunc
}

type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the prefix, "v1" by default
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Use adds middleware to every route under the versioned API prefix
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

// Setup mounts every registrar and returns the API base path
func (r *Router) Setup() string {
	api := r.engine.Group("/api/"+r.apiVersion, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return api.BasePath()
}

// DomainGroup collects the routes of one area of the API (auth, seller,
// admin, ...) before they are mounted
type DomainGroup struct {
	name       string
	prefix     string
	routes     []route
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware applied to this group and its subgroups
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) handle(method, p string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{method: method, path: p, handlers: handlers})
	return dg
}

func (dg *DomainGroup) GET(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, p, handlers)
}

func (dg *DomainGroup) POST(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, p, handlers)
}

func (dg *DomainGroup) PUT(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, p, handlers)
}

func (dg *DomainGroup) PATCH(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPatch, p, handlers)
}

func (dg *DomainGroup) DELETE(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodDelete, p, handlers)
}

// Group opens a subgroup. An empty prefix shares the parent's path and only
// separates middleware.
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, rt := range dg.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, sub := range dg.subgroups {
		sub.RegisterRoutes(group)
	}
}

func (dg *DomainGroup) Name() string { return dg.name }

// Routes lists "METHOD /path" for every route, relative to the API prefix
func (dg *DomainGroup) Routes() []string {
	return dg.collect("/")
}

func (dg *DomainGroup) collect(base string) []string {
	base = path.Join(base, dg.prefix)
	var out []string
	for _, rt := range dg.routes {
		full := base
		if rt.path != "" {
			full = path.Join(base, rt.path)
		}
		out = append(out, rt.method+" "+full)
	}
	for _, sub := range dg.subgroups {
		out = append(out, sub.collect(base)...)
	}
	return out
}

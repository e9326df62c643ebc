// Package router assembles the gin engine: global middleware, probes,
// documentation and the versioned billing API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Mounter attaches its routes below a parent group.
type Mounter interface {
	Mount(parent *gin.RouterGroup)
}

// API is the versioned /api/<version> tree. Middleware added with Use wraps
// every mounted resource and runs before the resource's own middleware.
type API struct {
	engine     *gin.Engine
	version    string
	middleware []gin.HandlerFunc
	resources  []Mounter
}

func NewAPI(engine *gin.Engine, version string) *API {
	return &API{engine: engine, version: version}
}

func (a *API) Use(middleware ...gin.HandlerFunc) *API {
	a.middleware = append(a.middleware, middleware...)
	return a
}

func (a *API) Mount(resources ...Mounter) *API {
	a.resources = append(a.resources, resources...)
	return a
}

// Build registers everything on the engine and returns the API group.
func (a *API) Build() *gin.RouterGroup {
	group := a.engine.Group("/api/"+a.version, a.middleware...)
	for _, r := range a.resources {
		r.Mount(group)
	}
	return group
}

// Resource declares the routes of one REST resource ahead of mounting, so
// the route table can be listed and tested without an engine.
type Resource struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	endpoints  []endpoint
	children   []*Resource
}

type endpoint struct {
	method string
	path   string
	chain  []gin.HandlerFunc
}

// RouteInfo is one entry of the route table.
type RouteInfo struct {
	Method string
	Path   string
}

func NewResource(name, prefix string) *Resource {
	return &Resource{name: name, prefix: prefix}
}

func (r *Resource) Name() string   { return r.name }
func (r *Resource) Prefix() string { return r.prefix }

// Use adds middleware for this resource and its children.
func (r *Resource) Use(middleware ...gin.HandlerFunc) *Resource {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Resource) Handle(method, path string, chain ...gin.HandlerFunc) *Resource {
	r.endpoints = append(r.endpoints, endpoint{method: method, path: path, chain: chain})
	return r
}

func (r *Resource) GET(path string, chain ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodGet, path, chain...)
}

func (r *Resource) POST(path string, chain ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodPost, path, chain...)
}

func (r *Resource) PUT(path string, chain ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodPut, path, chain...)
}

// Child nests a resource under this one's prefix.
func (r *Resource) Child(name, prefix string) *Resource {
	c := NewResource(name, prefix)
	r.children = append(r.children, c)
	return c
}

func (r *Resource) Mount(parent *gin.RouterGroup) {
	group := parent.Group(r.prefix, r.middleware...)
	for _, e := range r.endpoints {
		group.Handle(e.method, e.path, e.chain...)
	}
	for _, c := range r.children {
		c.Mount(group)
	}
}

// Routes lists the table relative to the parent group, children included.
func (r *Resource) Routes() []RouteInfo {
	var out []RouteInfo
	for _, e := range r.endpoints {
		out = append(out, RouteInfo{Method: e.method, Path: r.prefix + e.path})
	}
	for _, c := range r.children {
		for _, info := range c.Routes() {
			info.Path = r.prefix + info.Path
			out = append(out, info)
		}
	}
	return out
}

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func call(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func reply(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	products := NewDomainGroup("products", "/products")
	products.GET("/:id", reply("product"))
	buyer := NewDomainGroup("buyer", "/buyer")
	buyer.GET("/bids", reply("bids"))

	r.Register(products, buyer)
	assert.Len(t, r.registrars, 2)
	assert.Equal(t, "/api/v1", r.Setup())

	assert.Equal(t, "product", call(engine, http.MethodGet, "/api/v1/products/42").Body.String())
	assert.Equal(t, "bids", call(engine, http.MethodGet, "/api/v1/buyer/bids").Body.String())
	assert.Equal(t, http.StatusNotFound, call(engine, http.MethodGet, "/products/42").Code)
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-API", "bidhouse")
		c.Next()
	})

	group := NewDomainGroup("products", "/products")
	group.GET("", reply("list"))
	r.Register(group).Setup()
	engine.GET("/health", reply("ok"))

	assert.Equal(t, "bidhouse", call(engine, http.MethodGet, "/api/v1/products").Header().Get("X-API"))
	assert.Empty(t, call(engine, http.MethodGet, "/health").Header().Get("X-API"))
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("seller", "/seller")
	g.GET("/products", reply("get")).
		POST("/products", reply("post")).
		PUT("/products/:id", reply("put")).
		PATCH("/products/:id", reply("patch")).
		DELETE("/products/:id", reply("delete"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, "seller", g.Name())
	assert.Equal(t, []string{
		"GET /seller/products",
		"POST /seller/products",
		"PUT /seller/products/:id",
		"PATCH /seller/products/:id",
		"DELETE /seller/products/:id",
	}, g.Routes())

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/seller/products", "get"},
		{http.MethodPost, "/api/v1/seller/products", "post"},
		{http.MethodPut, "/api/v1/seller/products/1", "put"},
		{http.MethodPatch, "/api/v1/seller/products/1", "patch"},
		{http.MethodDelete, "/api/v1/seller/products/1", "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := call(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestDomainGroup_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	var seen []string
	tag := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			seen = append(seen, name)
			c.Next()
		}
	}

	auth := NewDomainGroup("auth", "/auth")
	open := auth.Group("credentials", "")
	open.Use(tag("limit"))
	open.POST("/login", reply("login"))
	session := auth.Group("session", "")
	session.Use(tag("authenticate"))
	session.GET("/me", reply("me"))
	auth.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, "login", call(engine, http.MethodPost, "/api/v1/auth/login").Body.String())
	assert.Equal(t, []string{"limit"}, seen)

	seen = nil
	assert.Equal(t, "me", call(engine, http.MethodGet, "/api/v1/auth/me").Body.String())
	assert.Equal(t, []string{"authenticate"}, seen)
	assert.Equal(t, []string{"POST /auth/login", "GET /auth/me"}, auth.Routes())
}

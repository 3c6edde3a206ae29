package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/MikeMC777/storefront/docs"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/user"
)

type catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	List(ctx context.Context, q product.Query) ([]product.Product, int, error)
	Categories(ctx context.Context) ([]string, error)
}

type accounts interface {
	httpx.Resolver
	Register(ctx context.Context, name, email, password string) (*user.User, string, error)
	Login(ctx context.Context, email, password string) (*user.User, string, error)
	Verify(ctx context.Context, token string) (*user.User, error)
}

type checkout interface {
	Create(ctx context.Context, userID string, lines []order.Line, ship order.Shipping) (*order.Order, error)
	List(ctx context.Context, userID string) ([]order.Order, error)
	Get(ctx context.Context, id, userID string) (*order.Order, error)
}

type deps struct {
	products    catalog
	accounts    accounts
	orders      checkout
	ping        func(ctx context.Context) error
	limiter     *httpx.IPLimiter
	staticDir   string
	corsOrigins []string
}

func newRouter(d deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), httpx.CORS(d.corsOrigins))

	r.GET("/healthz", healthHandler(d.ping))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", httpx.ValidateBody(httpx.MustSchema("register")), registerHandler(d.accounts))
	login := []gin.HandlerFunc{}
	if d.limiter != nil {
		login = append(login, d.limiter.Middleware())
	}
	login = append(login, httpx.ValidateBody(httpx.MustSchema("login")), loginHandler(d.accounts))
	auth.POST("/login", login...)
	auth.GET("/verify", verifyHandler(d.accounts))

	products := api.Group("/products")
	products.GET("", listProductsHandler(d.products))
	products.GET("/categories/list", categoriesHandler(d.products))
	products.GET("/:id", getProductHandler(d.products))

	orders := api.Group("/orders", httpx.Auth(d.accounts))
	orders.POST("", httpx.ValidateBody(httpx.MustSchema("create_order")), createOrderHandler(d.orders))
	orders.GET("", listOrdersHandler(d.orders))
	orders.GET("/:id", getOrderHandler(d.orders))

	r.NoRoute(staticHandler(d.staticDir))
	return r
}

// @Summary  Liveness and database reachability
// @Tags     health
// @Produce  json
// @Success  200 {object} map[string]string
// @Failure  503 {object} map[string]string
// @Router   /healthz [get]
func healthHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// staticHandler serves the single-page frontend for unknown GET paths
// outside /api when dir is set. Unknown files fall back to index.html.
func staticHandler(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if dir == "" || c.Request.Method != http.MethodGet || strings.HasPrefix(p, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		clean := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+p)))
		if fi, err := os.Stat(clean); err == nil && !fi.IsDir() {
			c.File(clean)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}

// Package server assembles the gin engine: middleware, API routes and the
// static frontend.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/categories"
	"storefront/internal/config"
	"storefront/internal/discounts"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/products"
	"storefront/internal/stats"
	"storefront/internal/users"
	"storefront/internal/wishlist"
)

type Handlers struct {
	Auth       *auth.Handler
	Products   *products.Handler
	Categories *categories.Handler
	Discounts  *discounts.Handler
	Cart       *cart.Handler
	Orders     *orders.Handler
	Users      *users.Handler
	Stats      *stats.Handler
	Wishlist   *wishlist.Handler
	Latency    *metrics.Latency
}

func New(cfg config.Config, tokens *auth.TokenManager, finder auth.UserFinder, h Handlers) *gin.Engine {
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	requireAuth := auth.RequireAuth(tokens, finder)
	requireAdmin := auth.RequireRole(models.RoleAdmin)

	api := r.Group("/api", h.Latency.Middleware())

	a := api.Group("/auth")
	{
		a.POST("/register", h.Auth.Register)
		a.POST("/login", h.Auth.Login)
		a.GET("/me", requireAuth, h.Auth.Me)
		a.PUT("/password", requireAuth, h.Auth.ChangePassword)
		a.PUT("/profile", requireAuth, h.Auth.UpdateProfile)
		a.POST("/avatar", requireAuth, h.Auth.UploadAvatar)
	}

	p := api.Group("/products")
	{
		p.GET("", h.Products.List)
		p.GET("/:id", h.Products.Get)
		p.POST("", requireAuth, requireAdmin, h.Products.Create)
		p.PUT("/:id", requireAuth, requireAdmin, h.Products.Update)
		p.DELETE("/:id", requireAuth, requireAdmin, h.Products.Delete)
		p.POST("/:id/image", requireAuth, requireAdmin, h.Products.UploadImage)
	}

	cat := api.Group("/categories")
	{
		cat.GET("", h.Categories.List)
		cat.GET("/:id", h.Categories.Get)
		cat.POST("", requireAuth, requireAdmin, h.Categories.Create)
		cat.PUT("/:id", requireAuth, requireAdmin, h.Categories.Update)
		cat.DELETE("/:id", requireAuth, requireAdmin, h.Categories.Delete)
	}

	d := api.Group("/discounts", requireAuth)
	{
		d.POST("/validate", h.Discounts.Validate)
		d.GET("", requireAdmin, h.Discounts.List)
		d.GET("/:id", requireAdmin, h.Discounts.Get)
		d.POST("", requireAdmin, h.Discounts.Create)
		d.PUT("/:id", requireAdmin, h.Discounts.Update)
		d.DELETE("/:id", requireAdmin, h.Discounts.Delete)
	}

	c := api.Group("/cart", requireAuth)
	{
		c.GET("", h.Cart.Get)
		c.POST("/items", h.Cart.AddItem)
		c.PUT("/items/:productId", h.Cart.UpdateItem)
		c.DELETE("/items/:productId", h.Cart.RemoveItem)
		c.DELETE("", h.Cart.Clear)
	}

	wl := api.Group("/wishlist", requireAuth)
	{
		wl.GET("", h.Wishlist.Get)
		wl.POST("", h.Wishlist.Add)
		wl.DELETE("/:productId", h.Wishlist.Remove)
	}

	o := api.Group("/orders", requireAuth)
	{
		o.POST("", h.Orders.Place)
		o.GET("", h.Orders.ListMine)
		o.GET("/:id", h.Orders.Get)
		o.POST("/:id/cancel", h.Orders.Cancel)
	}

	admin := api.Group("/admin", requireAuth, requireAdmin)
	{
		admin.GET("/orders", h.Orders.AdminList)
		admin.PUT("/orders/:id/status", h.Orders.AdminSetStatus)

		admin.GET("/users", h.Users.List)
		admin.GET("/users/:id", h.Users.Get)
		admin.PUT("/users/:id/role", h.Users.SetRole)
		admin.PUT("/users/:id/status", h.Users.SetStatus)
		admin.DELETE("/users/:id", h.Users.Delete)

		admin.GET("/stats", h.Stats.Get)
		admin.GET("/stats/latency", h.Latency.Handler)
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.Static("/uploads", cfg.UploadDir)

	web := http.FileServer(http.Dir(cfg.WebDir))
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
			return
		}
		web.ServeHTTP(c.Writer, c.Request)
	})
	return r
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/categories"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/discounts"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/products"
	"storefront/internal/server"
	"storefront/internal/stats"
	"storefront/internal/store"
	"storefront/internal/uploads"
	"storefront/internal/users"
	"storefront/internal/wishlist"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run returns instead of exiting so the deferred disconnect always runs.
func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()
	log.Printf("connecting to mongo database %s", cfg.Mongo.Database)
	client, database, err := db.Connect(ctx, cfg.Mongo.URL, cfg.Mongo.Database)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()

	if err := db.EnsureIndexes(ctx, database); err != nil {
		return fmt.Errorf("indexes: %w", err)
	}

	images, err := uploads.New(cfg.UploadDir, "/uploads", cfg.MaxUploadBytes())
	if err != nil {
		return fmt.Errorf("uploads: %w", err)
	}

	userRepo := users.NewRepo(database)
	productRepo := products.NewRepo(database)
	categoryRepo := categories.NewRepo(database)
	discountRepo := discounts.NewRepo(database)
	cartRepo := cart.NewRepo(database)
	orderRepo := orders.NewRepo(database)
	wishlistRepo := wishlist.NewRepo(database)

	if cfg.AdminEmail != "" {
		promoteAdmin(ctx, userRepo, cfg.AdminEmail)
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour)
	handlers := server.Handlers{
		Auth:       auth.NewHandler(userRepo, tokens, images),
		Products:   products.NewHandler(productRepo, categoryRepo, images),
		Categories: categories.NewHandler(categoryRepo, productRepo),
		Discounts:  discounts.NewHandler(discountRepo),
		Cart:       cart.NewHandler(cartRepo, productRepo),
		Orders:     orders.NewHandler(orders.NewService(orderRepo, cartRepo, productRepo, discountRepo)),
		Users:      users.NewHandler(userRepo, images, cartRepo, wishlistRepo),
		Stats:      stats.NewHandler(stats.NewRepo(database), userRepo),
		Wishlist:   wishlist.NewHandler(wishlistRepo, productRepo),
		Latency:    metrics.NewLatency(),
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(cfg, tokens, userRepo, handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	return serve(srv, stop)
}

// serve runs srv until it fails or a signal arrives on stop, then shuts it
// down with a 10s grace period.
func serve(srv *http.Server, stop <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http: %w", err)
	case <-stop:
	}

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// promoteAdmin gives the configured account the admin role. There is no
// other way to create the first admin.
func promoteAdmin(ctx context.Context, repo *users.Repo, email string) {
	u, err := repo.ByIdentifier(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("admin bootstrap: no user with email %s yet", email)
		return
	}
	if err != nil {
		log.Printf("admin bootstrap: %v", err)
		return
	}
	if u.IsAdmin() {
		return
	}
	if _, err := repo.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		log.Printf("admin bootstrap: %v", err)
		return
	}
	log.Printf("admin bootstrap: promoted %s", u.Username)
}

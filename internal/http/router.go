package http

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/auth"
	"github.com/fjod/go_shop/internal/upload"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Auth           *auth.Authenticator
	Catalog        CatalogService
	Orders         OrderService
	Images         ImageStore
	UploadDir      string
	DB             Pinger
	LoginLimiter   *LoginRateLimiter
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	authHandler := NewAuthHandler(cfg.Auth, cfg.RequestTimeout, log)
	productHandler := NewProductHandler(cfg.Catalog, cfg.Images, cfg.RequestTimeout, log)
	orderHandler := NewOrderHandler(cfg.Orders, cfg.RequestTimeout, log)

	requireAdmin := auth.RequireAdmin(cfg.Auth, func(w http.ResponseWriter, r *http.Request, err error) {
		handleServiceError(r.Context(), log, w, err)
	})

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if cfg.DB != nil {
			if err := cfg.DB.Ping(ctx); err != nil {
				log.WarnContext(ctx, "health check failed", "error", err)
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			if cfg.LoginLimiter != nil {
				r.With(cfg.LoginLimiter.Middleware).Post("/login", authHandler.Login)
			} else {
				r.Post("/login", authHandler.Login)
			}
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.With(requireAdmin).Post("/", productHandler.Create)
			r.With(requireAdmin).Put("/{id}", productHandler.Update)
			r.With(requireAdmin).Delete("/{id}", productHandler.Delete)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.PlaceOrder)
			r.With(requireAdmin).Get("/", orderHandler.ListOrders)
			r.With(requireAdmin).Put("/{id}", orderHandler.UpdateOrder)
		})
	})

	if cfg.UploadDir != "" {
		fileServer := http.StripPrefix(upload.URLPrefix, http.FileServer(noDirFS{http.Dir(cfg.UploadDir)}))
		r.Get(upload.URLPrefix+"*", fileServer.ServeHTTP)
	}

	return r
}

// noDirFS hides directory listings from the upload file server.
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

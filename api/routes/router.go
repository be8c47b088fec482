package routes

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface is wired to.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.Store
	Cookies  *middleware.SessionCookie
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics

	// MediaDir is served under /media when images live on local disk.
	MediaDir string

	Auth       auth.Service
	Register   auth.RegisterService
	Products   product.Service
	Categories categories.Service
	Cart       cart.Service
	Checkout   checkoutsvc.Service
	Orders     orders.Service
	Users      users.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTP),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	idempotent := middleware.Idempotency(idempotencyStore(deps.Redis), cfg.FeatureFlags.IdempotencyTTL, logg)
	withSession := middleware.Session(deps.Cookies, deps.Sessions, logg)
	loginPath := cfg.App.LoginPath
	maxUpload := cfg.Media.MaxUploadBytes()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readinessDeps(deps), logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if deps.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(mediaDir(deps.MediaDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(withSession)

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, rateLimiter(deps.Redis), logg)).Post("/login", controllers.AuthLogin(deps.Auth, deps.Cookies, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, rateLimiter(deps.Redis), logg), idempotent).Post("/register", controllers.AuthRegister(deps.Register, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, deps.Cookies, logg))
			r.Get("/me", controllers.AuthMe())
		})

		r.Get("/products", controllers.CatalogProducts(deps.Products, logg))
		r.Get("/products/{id}", controllers.CatalogProduct(deps.Products, logg))
		r.Get("/categories", controllers.CatalogCategories(deps.Categories, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.With(idempotent).Post("/items/{productId}", controllers.CartAddItem(deps.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Require(loginPath, logg, middleware.Authenticated))
			r.With(idempotent).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
			r.Get("/orders", controllers.OrderList(deps.Orders, logg))
			r.Get("/orders/{id}", controllers.OrderDetail(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(withSession)
		r.Use(middleware.Require(loginPath, logg, middleware.Admin))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(deps.Products, logg))
			r.With(idempotent).Post("/", controllers.AdminProductCreate(deps.Products, maxUpload, logg))
			r.Get("/{id}", controllers.CatalogProduct(deps.Products, logg))
			r.Put("/{id}", controllers.AdminProductUpdate(deps.Products, maxUpload, logg))
			r.Delete("/{id}", controllers.AdminProductDelete(deps.Products, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(deps.Users, logg))
			r.Get("/{id}", controllers.AdminUserDetail(deps.Users, logg))
			r.Put("/{id}", controllers.AdminUserUpdate(deps.Users, logg))
			r.Delete("/{id}", controllers.AdminUserDelete(deps.Users, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CatalogCategories(deps.Categories, logg))
			r.With(idempotent).Post("/", controllers.AdminCategoryCreate(deps.Categories, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
			r.Get("/{id}", controllers.OrderDetail(deps.Orders, logg))
			r.With(idempotent).Patch("/{id}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
		})

		r.Get("/reports", controllers.AdminReports(deps.Orders, logg))
	})

	return r
}

var errNotServed = os.ErrNotExist

// idempotencyStore and rateLimiter keep a nil client from becoming a non-nil interface.
func idempotencyStore(client *redis.Client) redis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}

func rateLimiter(client *redis.Client) middleware.RateLimiterStore {
	if client == nil {
		return nil
	}
	return client
}

func readinessDeps(deps Dependencies) map[string]db.Pinger {
	out := map[string]db.Pinger{}
	if deps.DB != nil {
		out["database"] = deps.DB
	}
	if deps.Redis != nil {
		out["redis"] = deps.Redis
	}
	return out
}

// mediaDir hides directory listings and dotfiles.
type mediaDir string

func (d mediaDir) Open(name string) (http.File, error) {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return nil, errNotServed
		}
	}
	f, err := http.Dir(d).Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, errNotServed
	}
	return f, nil
}

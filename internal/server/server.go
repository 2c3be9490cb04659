package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/kvstore"
	"storefront/internal/logger"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/order"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

// newBlobStore picks the key-value backend holding carts, sessions and orders
func newBlobStore(cfg *config.Config, db *sql.DB, redisClient *redis.Client) (kvstore.Store, error) {
	switch cfg.Store.KVBackend {
	case config.BackendMemory, "":
		return kvstore.NewMemory(), nil
	case config.BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("kv backend %q needs a redis client", cfg.Store.KVBackend)
		}
		return kvstore.NewRedis(redisClient, "storefront", cfg.Redis.TTL), nil
	case config.BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("kv backend %q needs a database", cfg.Store.KVBackend)
		}
		return kvstore.NewPostgres(db), nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.Store.KVBackend)
	}
}

type repositories struct {
	users      repository.UserRepository
	categories repository.CategoryRepository
	products   repository.ProductRepository
}

func newRepositories(cfg *config.Config, db *sql.DB) (repositories, error) {
	switch cfg.Store.CatalogBackend {
	case config.BackendMemory, "":
		return repositories{
			users:      repository.NewMemoryUserRepository(),
			categories: repository.NewMemoryCategoryRepository(),
			products:   repository.NewMemoryProductRepository(),
		}, nil
	case config.BackendPostgres:
		if db == nil {
			return repositories{}, fmt.Errorf("catalog backend %q needs a database", cfg.Store.CatalogBackend)
		}
		return repositories{
			users:      repository.NewUserRepository(db),
			categories: repository.NewCategoryRepository(db),
			products:   repository.NewProductRepository(db),
		}, nil
	default:
		return repositories{}, fmt.Errorf("unknown catalog backend %q", cfg.Store.CatalogBackend)
	}
}

// NewServer wires the storefront. db and redisClient may be nil when no
// configured backend needs them.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger, db *sql.DB, redisClient *redis.Client) (*Server, error) {
	blobs, err := newBlobStore(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}
	repos, err := newRepositories(cfg, db)
	if err != nil {
		return nil, err
	}

	// Initialize services
	userService := service.NewUserService(repos.users, cfg.JWT.Secret, time.Duration(cfg.JWT.AccessExpiry)*time.Minute)
	productService := service.NewProductService(repos.products, repos.categories, logger.Component(log, "catalog"))
	ledger := order.NewLedger(blobs, logger.Component(log, "orders"))
	carts := cart.NewManager(blobs, repos.products, ledger, cart.Pricing{
		FreeShippingThreshold: cfg.Cart.FreeShippingThreshold,
		ShippingCost:          cfg.Cart.ShippingCost,
	}, logger.Component(log, "cart"))
	sessions := service.NewSessionStore(blobs, userService, carts, logger.Component(log, "sessions"))

	if cfg.Store.SeedDemoData {
		if err := seedDemoData(ctx, userService, repos.users, repos.categories, repos.products, log); err != nil {
			return nil, err
		}
	}

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, sessions, log)
	productHandler := transport.NewProductHandler(productService, log)
	cartHandler := transport.NewCartHandler(carts, productService, cfg.Cart.MaxQuantity, log)
	orderHandler := transport.NewOrderHandler(ledger, log)

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack(requestTimeout)...)
	router.Use(custommiddleware.LoggingMiddleware(log))
	router.Use(custommiddleware.ErrorHandlingMiddleware(log))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{"status": "ok"}
		if db != nil {
			status["database"] = database.Health(r.Context(), db)
			if pending, err := database.PendingMigrations(r.Context(), db, cfg.Store.MigrationsDir); err == nil {
				status["migrations_pending"] = pending
			}
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, status)
	})

	authMiddleware := custommiddleware.AuthMiddleware(sessions, log)

	router.Route("/api", func(r chi.Router) {
		if cfg.RateLimit.Enabled && redisClient != nil {
			r.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "storefront:rate_limit",
			}, log))
		}

		userHandler.RegisterRoutes(r, authMiddleware)
		productHandler.RegisterRoutes(r, authMiddleware)
		cartHandler.RegisterRoutes(r, authMiddleware)
		orderHandler.RegisterRoutes(r, authMiddleware)
	})

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: requestTimeout + 5*time.Second,
		},
		config: cfg,
		logger: log,
		db:     db,
		redis:  redisClient,
	}, nil
}

// Close releases the database and redis connections
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

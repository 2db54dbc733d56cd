package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	schema "github.com/sbilibin2017/gw-exchange-engine/db"
	"github.com/sbilibin2017/gw-exchange-engine/internal/facades"
	"github.com/sbilibin2017/gw-exchange-engine/internal/handlers"
	"github.com/sbilibin2017/gw-exchange-engine/internal/jwt"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/middlewares"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/repositories"
	"github.com/sbilibin2017/gw-exchange-engine/internal/repositories/memory"
	"github.com/sbilibin2017/gw-exchange-engine/internal/services"
	pb "github.com/sbilibin2017/proto-exchange/exchange"
	"github.com/segmentio/kafka-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config holds every setting read by parseConfig.
type config struct {
	AppHost  string
	AppPort  string
	LogLevel string

	StorageDriver string // postgres or memory

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int
	PriceCacheTTL     time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	FeedHost    string
	FeedPort    string
	PriceSpread string

	JWTSecret string
	JWTExp    time.Duration

	LockTimeout   time.Duration
	OpTimeout     time.Duration
	RetryAttempts int
	AuditFailures bool

	RateLimitRPS   float64
	RateLimitBurst int

	BaseFiat    string
	WithdrawFee string
}

// @title gw-exchange-engine API
// @version 1.0.0
// @description Crypto/fiat exchange: wallets, orders, discounts and treasury administration
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s, Commit: %s, Build: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from an optional file and applies defaults.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}
	getDuration := func(key, defaultValue string) (time.Duration, error) {
		v, err := time.ParseDuration(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	cfg.StorageDriver = getEnv("STORAGE_DRIVER", "postgres")
	if cfg.StorageDriver != "postgres" && cfg.StorageDriver != "memory" {
		return cfg, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver)
	}

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	if cfg.PGPort, err = getInt("POSTGRES_PORT", "5432"); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", "16"); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", "8"); err != nil {
		return
	}

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisPort, err = getInt("REDIS_PORT", "6379"); err != nil {
		return
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return
	}
	if cfg.RedisPoolSize, err = getInt("REDIS_POOL_SIZE", "10"); err != nil {
		return
	}
	if cfg.RedisMinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", "2"); err != nil {
		return
	}
	if cfg.PriceCacheTTL, err = getDuration("PRICE_CACHE_TTL", "30s"); err != nil {
		return
	}

	// Kafka config
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "ledger-transactions")

	// Price feed config
	cfg.FeedHost = getEnv("GW_EXCHANGER_HOST", "localhost")
	cfg.FeedPort = getEnv("GW_EXCHANGER_PORT", "50051")
	cfg.PriceSpread = getEnv("PRICE_SPREAD_PERCENT", "0.5")

	// JWT config
	cfg.JWTSecret = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	if cfg.JWTExp, err = getDuration("JWT_EXP", "24h"); err != nil {
		return
	}

	// Engine config
	if cfg.LockTimeout, err = getDuration("LEDGER_LOCK_TIMEOUT", "5s"); err != nil {
		return
	}
	if cfg.OpTimeout, err = getDuration("LEDGER_OP_TIMEOUT", "10s"); err != nil {
		return
	}
	if cfg.RetryAttempts, err = getInt("LEDGER_RETRY_ATTEMPTS", "3"); err != nil {
		return
	}
	if cfg.AuditFailures, err = strconv.ParseBool(getEnv("AUDIT_FAILED_ORDERS", "false")); err != nil {
		return cfg, fmt.Errorf("AUDIT_FAILED_ORDERS: %w", err)
	}
	cfg.BaseFiat = getEnv("BASE_FIAT", "IRR")
	cfg.WithdrawFee = getEnv("WITHDRAW_FEE_PERCENT", "0.1")

	// Rate limit config
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64); err != nil {
		return cfg, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", "20"); err != nil {
		return
	}

	return cfg, nil
}

// serviceOptions translates cfg into the options shared by every ledger service.
func serviceOptions(cfg config, extra ...services.Option) []services.Option {
	opts := []services.Option{
		services.WithBaseFiat(cfg.BaseFiat),
		services.WithTimeout(cfg.OpTimeout),
		services.WithRetryAttempts(cfg.RetryAttempts),
		services.WithWithdrawFee(cfg.WithdrawFee),
		services.WithPriceSpread(cfg.PriceSpread),
	}
	if cfg.AuditFailures {
		opts = append(opts, services.WithFailedOrderAudit())
	}
	return append(opts, extra...)
}

// app bundles the services served over HTTP.
type app struct {
	auth       *services.AuthService
	orders     *services.OrderService
	wallets    *services.WalletService
	currencies *services.CurrencyService
	lifecycle  *services.LifecycleService
}

func newApp(store ledger.Store, tokens *jwt.JWT, opts []services.Option) (*app, error) {
	lifecycle := services.NewLifecycleService(store, opts...)
	wallets, err := services.NewWalletService(store, opts...)
	if err != nil {
		return nil, fmt.Errorf("wallet service: %w", err)
	}
	currencies, err := services.NewCurrencyService(store, lifecycle, opts...)
	if err != nil {
		return nil, fmt.Errorf("currency service: %w", err)
	}
	return &app{
		auth:       services.NewAuthService(store, lifecycle, tokens),
		lifecycle:  lifecycle,
		orders:     services.NewOrderService(store, opts...),
		wallets:    wallets,
		currencies: currencies,
	}, nil
}

// newRouter mounts the public, authenticated and admin routes under /api/v1.
func newRouter(a *app, tokens middlewares.Tokener, limiter *middlewares.RateLimiter, feed services.PriceFeed) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/register", handlers.NewRegisterHandler(a.auth))
		r.Post("/login", handlers.NewLoginHandler(a.auth))
		r.Get("/prices", handlers.NewGetPricesHandler(a.currencies))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(tokens))
			r.Use(limiter.Middleware)

			r.Post("/orders/buy", handlers.NewBuyHandler(a.orders))
			r.Post("/orders/sell", handlers.NewSellHandler(a.orders))
			r.Post("/orders/exchange", handlers.NewExchangeHandler(a.orders))
			r.Post("/orders/quote", handlers.NewQuoteHandler(a.orders))
			r.Get("/orders", handlers.NewListOrdersHandler(a.orders))
			r.Get("/orders/{number}", handlers.NewGetOrderHandler(a.orders))
			r.Post("/orders/{number}/cancel", handlers.NewCancelOrderHandler(a.orders))

			r.Get("/wallet/balance", handlers.NewGetBalanceHandler(a.wallets))
			r.Get("/wallet/portfolio", handlers.NewPortfolioHandler(a.wallets))
			r.Get("/wallet/transactions", handlers.NewTransactionsHandler(a.wallets))
			r.Post("/wallet/deposit", handlers.NewDepositHandler(a.wallets))
			r.Post("/wallet/withdraw", handlers.NewWithdrawHandler(a.wallets))
			r.Post("/wallet/transfer", handlers.NewTransferHandler(a.wallets))

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewares.RequireRole(models.RoleAdmin))

				r.Post("/currencies", handlers.NewCreateCurrencyHandler(a.currencies))
				r.Post("/currencies/{symbol}/activate", handlers.NewSetCurrencyActiveHandler(a.currencies, true))
				r.Post("/currencies/{symbol}/deactivate", handlers.NewSetCurrencyActiveHandler(a.currencies, false))
				r.Put("/currencies/{symbol}/pricing", handlers.NewUpdatePricingHandler(a.currencies))
				r.Post("/currencies/{symbol}/treasury", handlers.NewAdjustTreasuryHandler(a.currencies))
				r.Post("/discounts", handlers.NewCreateDiscountHandler(a.currencies))
				r.Get("/discounts", handlers.NewListDiscountsHandler(a.currencies))
				r.Patch("/discounts/{code}", handlers.NewUpdateDiscountHandler(a.currencies))
				r.Delete("/discounts/{code}", handlers.NewDeleteDiscountHandler(a.currencies))
				r.Put("/users/{id}/status", handlers.NewSetUserStatusHandler(a.lifecycle))
				r.Post("/prices/sync", handlers.NewSyncPricesHandler(a.currencies, feed))
				r.Get("/withdrawals", handlers.NewPendingWithdrawalsHandler(a.wallets))
				r.Post("/withdrawals/{id}/complete", handlers.NewCompleteWithdrawalHandler(a.wallets))
				r.Post("/withdrawals/{id}/reject", handlers.NewRejectWithdrawalHandler(a.wallets))
				r.Get("/orders", handlers.NewAllOrdersHandler(a.orders))
				r.Put("/orders/{number}/status", handlers.NewCorrectOrderStatusHandler(a.orders))
			})
		})
	})

	return r
}

// run initializes the logger, storage, cache, publisher and price feed, then
// serves HTTP until ctx is cancelled or a termination signal arrives.
func run(ctx context.Context, cfg config) error {
	if err := logger.Initialize(cfg.LogLevel,
		logger.WithFields("service", "gw-exchange-engine", "version", buildVersion),
	); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infow("logger initialized", "level", cfg.LogLevel)

	var store ledger.Store
	var extra []services.Option

	switch cfg.StorageDriver {
	case "memory":
		logger.Log.Warnw("using in-memory ledger, state is lost on restart")
		store = memory.New(memory.WithLockTimeout(cfg.LockTimeout))

	default:
		// Connect to PostgreSQL
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
		logger.Log.Infow("connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)

		db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.PGMaxOpenConns)
		db.SetMaxIdleConns(cfg.PGMaxIdleConns)

		if err := repositories.Migrate(db.DB, schema.Migrations, "migrations"); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store = repositories.NewStore(db, repositories.WithLockTimeout(cfg.LockTimeout))

		// Connect to Redis
		rdb := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Log.Warnw("redis unavailable, quotes read prices from the ledger", "error", err)
		} else {
			extra = append(extra, services.WithPriceCache(repositories.NewPriceCacheRepository(rdb, cfg.PriceCacheTTL)))
		}
	}

	// Kafka publisher
	if len(cfg.KafkaBrokers) > 0 {
		writer := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
		defer writer.Close()
		extra = append(extra, services.WithPublisher(services.NewKafkaPublisher(writer)))
		logger.Log.Infow("publishing transactions to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Price feed over gRPC; the connection is established lazily
	feedAddr := fmt.Sprintf("%s:%s", cfg.FeedHost, cfg.FeedPort)
	conn, err := grpc.NewClient(feedAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("price feed client %s: %w", feedAddr, err)
	}
	defer conn.Close()
	feed := facades.NewPriceFeedGRPCFacade(pb.NewExchangeServiceClient(conn))

	tokens := jwt.New(jwt.WithSecretKey(cfg.JWTSecret), jwt.WithExpiration(cfg.JWTExp))

	a, err := newApp(store, tokens, serviceOptions(cfg, extra...))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           newRouter(a, tokens, middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), feed),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infow("HTTP server listening", "addr", srv.Addr, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("shutdown signal received, stopping HTTP server")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}

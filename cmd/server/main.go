package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/cache"
	"ecoshop_back_end/internal/config"
	"ecoshop_back_end/internal/database"
	"ecoshop_back_end/internal/handlers"
	"ecoshop_back_end/internal/handlers/order"
	"ecoshop_back_end/internal/handlers/payment"
	"ecoshop_back_end/internal/handlers/product"
	"ecoshop_back_end/internal/handlers/user"
	"ecoshop_back_end/internal/logging"
	"ecoshop_back_end/internal/middleware"
	"ecoshop_back_end/internal/repository"
	"ecoshop_back_end/internal/repository/memory"
	"ecoshop_back_end/internal/repository/scylla"
	"ecoshop_back_end/internal/routes"
	"ecoshop_back_end/internal/services"
	"ecoshop_back_end/internal/utils"
)

type repositories struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	users     repository.UserRepository
	orders    repository.OrderRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := logging.New("ecoshop", cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if !cfg.DotEnvLoaded {
		logger.Info("no .env file, using process environment")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.UseJSONFieldNames()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	rdb, err := database.ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	checks := map[string]handlers.Check{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	repos, closeRepos, err := openRepositories(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeRepos()

	// Caches read-through devant les stores pour les lectures par id.
	users := cache.NewUserRepository(repos.users, rdb, logger)
	products := cache.NewProductRepository(repos.products, rdb, logger)

	es, err := database.ConnectElastic(cfg.Elastic, logger)
	if err != nil {
		return err
	}
	var search services.ProductSearch
	if es != nil {
		search = services.NewProductIndex(es, cfg.Elastic.Index)
		checks["elasticsearch"] = func(ctx context.Context) error {
			res, err := es.Ping(es.Ping.WithContext(ctx))
			if err != nil {
				return err
			}
			defer res.Body.Close()
			if res.IsError() {
				return errors.New(res.Status())
			}
			return nil
		}
	}

	mc, err := database.ConnectMinIO(ctx, cfg.MinIO, logger)
	if err != nil {
		return err
	}
	images := services.NewMinioImageStore(mc, cfg.MinIO, logger)

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return err
	}

	store := cache.NewStore(rdb)
	auth := services.NewAuthService(utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.ExpiresIn), store, users, logger)
	inventory := services.NewInventoryService(products, repos.movements, logger)
	productSvc := services.NewProductService(products, inventory, images, search, logger)
	reviews := services.NewReviewService(products, logger)
	userSvc := services.NewUserService(users, images, logger)
	events := services.NewEventBus(rdb, logger)

	var gateway *services.StripeGateway
	var payments services.PaymentVerifier
	if cfg.Stripe.SecretKey != "" {
		gateway = services.NewStripeGateway(cfg.Stripe, logger)
		if cfg.PaymentVerify {
			payments = gateway
		}
	} else {
		logger.Warn("stripe not configured, payment routes are disabled")
	}

	notifier := services.NewNotifier(mailer, users, logger)
	orders := services.NewOrderService(repos.orders, users, inventory, notifier, events, payments, logger)
	invoices := services.NewInvoiceService(orders, utils.NewChromePDFRenderer(), cfg.Invoice, logger)

	if providers := config.SetupOAuth(cfg); len(providers) > 0 {
		logger.Info("oauth providers enabled", zap.Strings("providers", providers))
	}

	deps := routes.Deps{
		Logger:  logger,
		Auth:    auth,
		Store:   store,
		Health:  handlers.NewHealthHandler(checks),
		Orders:  order.NewHandler(orders, invoices, events, cfg.FrontendURL),
		Product: product.NewHandler(productSvc, reviews, inventory, cfg.UploadDir),
		Users: user.NewHandler(userSvc, auth, user.Options{
			UploadDir:    cfg.UploadDir,
			CookieMaxAge: cfg.CookieMaxAge(),
			SecureCookie: cfg.IsProduction(),
			FrontendURL:  cfg.FrontendURL,
		}),
	}
	if gateway != nil {
		deps.Payment = payment.NewHandler(gateway)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           routes.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	notifier.Wait()
	logger.Info("http server stopped")
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger, checks map[string]handlers.Check) (repositories, func(), error) {
	if cfg.StorageBackend == config.BackendMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return repositories{
			products:  memory.NewProductRepository(),
			movements: memory.NewStockMovementRepository(),
			users:     memory.NewUserRepository(),
			orders:    memory.NewOrderRepository(),
		}, func() {}, nil
	}

	sm, err := database.NewScyllaManager(cfg.Scylla, logger)
	if err != nil {
		return repositories{}, nil, err
	}
	if cfg.Scylla.Migrate {
		if err := sm.Migrate(ctx); err != nil {
			sm.Close()
			return repositories{}, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	checks["scylla"] = sm.Ping
	return repositories{
		products:  scylla.NewProductRepository(sm.Products()),
		movements: scylla.NewStockMovementRepository(sm.Products()),
		users:     scylla.NewUserRepository(sm.Users()),
		orders:    scylla.NewOrderRepository(sm.Orders()),
	}, sm.Close, nil
}

// newMailer se rabat sur les logs quand aucun hôte SMTP n'est configuré.
func newMailer(cfg *config.Config, logger *zap.Logger) (utils.Mailer, error) {
	var next utils.Mailer
	if cfg.SMTP.Host == "" {
		logger.Warn("smtp not configured, emails are only logged")
		next = utils.NewLogMailer(logger)
	} else {
		smtp, err := utils.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("smtp mailer: %w", err)
		}
		next = smtp
	}
	return utils.NewBreakerMailer(next, utils.DefaultBreakerSettings(), logger), nil
}

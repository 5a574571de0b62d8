package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theleywin/talentnest-connections/src/connections"
	"github.com/theleywin/talentnest-connections/src/controllers"
	"github.com/theleywin/talentnest-connections/src/identity"
	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/middleware"
	"github.com/theleywin/talentnest-connections/src/routes"
)

func main() {
	cfg, err := lib.LoadConfig()
	if err != nil {
		// Logger is not up yet
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := lib.InitLogger(cfg.Env); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		lib.Log().Error("Server exited with error", zap.Error(err))
		lib.SyncLogger()
		os.Exit(1)
	}
	lib.SyncLogger()
}

// run wires the application and serves until ctx is cancelled
func run(ctx context.Context, cfg *lib.Config) error {
	// Connect to SQLite database
	db, err := lib.ConnectDB(cfg.DBPath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := lib.AutoMigrate(db); err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("connection store %s: %w", cfg.StoreDriver, err)
	}
	defer closeStore()

	manager, err := connections.NewManager(store)
	if err != nil {
		return fmt.Errorf("connection manager: %w", err)
	}
	resolver, err := connections.NewResolver(store)
	if err != nil {
		return fmt.Errorf("connection resolver: %w", err)
	}
	members, err := identity.NewGormDirectory(db)
	if err != nil {
		return fmt.Errorf("member directory: %w", err)
	}

	notifications := &controllers.NotificationController{DB: db, Members: members}
	protect := middleware.ProtectRoute(members, cfg.JWTSecret)

	app := fiber.New(fiber.Config{
		AppName:               "talentnest-connections",
		DisableStartupMessage: cfg.IsProduction(),
		Immutable:             true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Register routes
	routes.AuthRoutes(app, &controllers.AuthController{DB: db, Secret: cfg.JWTSecret, TTL: cfg.JWTTTL}, protect)
	routes.UserRoutes(app, &controllers.UserController{Members: members, Resolver: resolver}, protect)
	routes.NotificationRoutes(app, notifications, protect)
	routes.ConnectionRoutes(app, &controllers.ConnectionController{
		Manager:  manager,
		Resolver: resolver,
		Members:  members,
		Notifier: notifications,
	}, protect)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "store": cfg.StoreDriver})
	})

	go func() {
		<-ctx.Done()
		lib.Log().Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			lib.Log().Error("Server shutdown failed", zap.Error(err))
		}
	}()

	lib.Log().Info("Server is running", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// openStore builds the connection graph store selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *lib.Config, db *gorm.DB) (connections.Store, func(), error) {
	noop := func() {}

	switch cfg.StoreDriver {
	case lib.StoreDriverMemory:
		lib.Log().Warn("Using in-memory connection store, data is lost on restart")
		return connections.NewMemoryStore(), noop, nil

	case lib.StoreDriverMongo:
		client, database, err := lib.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, noop, err
		}
		disconnect := func() { disconnectMongo(client) }

		store, err := connections.NewMongoStore(database)
		if err != nil {
			disconnect()
			return nil, noop, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			disconnect()
			return nil, noop, err
		}
		return store, disconnect, nil

	default:
		store, err := connections.NewGormStore(db)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
}

func disconnectMongo(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		lib.Log().Warn("MongoDB disconnect failed", zap.Error(err))
	}
}

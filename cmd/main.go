package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recipehub/api/internal/config"
	"recipehub/api/internal/handler"
	"recipehub/api/internal/model"
	"recipehub/api/internal/repository"
	"recipehub/api/internal/server"
	"recipehub/api/internal/service"
)

func main() {
	cmd := &cli.Command{
		Name:  "recipehub",
		Usage: "serve the recipe collection over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "path to the YAML config file (missing file falls back to defaults)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "listen port, overrides server.port",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "recipe store backend: memory, postgres or redis",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("recipehub: %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	// 1. Load configuration
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("store") {
		cfg.Store.Backend = cmd.String("store")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// 3. Backends
	var redisClient *redis.Client
	redisFor := func() *redis.Client {
		if redisClient == nil {
			redisClient, err = config.NewRedisClient(cfg.Database.Redis)
			if err != nil {
				logger.Fatal("failed to connect to redis", zap.Error(err))
			}
		}
		return redisClient
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	var recipeRepo repository.RecipeRepository
	switch cfg.Store.Backend {
	case "postgres":
		db, err := config.NewPostgresDB(cfg.Database.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
		recipeRepo = repository.NewPGRecipeRepository(db)
	case "redis":
		recipeRepo = repository.NewRedisRecipeRepository(redisFor(), cfg.Store.KeyPrefix)
	default:
		recipeRepo = repository.NewMemoryRecipeRepository()
	}
	logger.Info("recipe store ready", zap.String("backend", cfg.Store.Backend))

	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		stateStore = repository.NewRedisStateStore(redisFor(), cfg.Store.KeyPrefix)
		logger.Info("using Redis state store")
	default:
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	}

	// 4. Services
	recipeService := service.NewRecipeService(recipeRepo)
	if cfg.Seed.Enabled {
		n, err := recipeService.Seed(ctx, seedInputs(cfg.Seed))
		if err != nil {
			logger.Fatal("failed to seed recipes", zap.Error(err))
		}
		logger.Info("seed completed", zap.Int("inserted", n))
	}

	// 5. Handlers and router
	recipeHandler := handler.NewRecipeHandler(recipeService, logger)
	healthHandler := handler.NewHealthHandler()
	router := handler.SetupRouter(cfg, logger, recipeHandler, healthHandler, stateStore)

	// 6. Start server with graceful shutdown
	srv, err := server.Start(cfg.Server, router, logger, server.WithReadiness(healthHandler))
	if err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		select {
		case err := <-srv.Done():
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		return srv.Stop(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	return nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

func seedInputs(cfg config.SeedConfig) []service.RecipeInput {
	if len(cfg.Recipes) == 0 {
		return service.DefaultSeedRecipes
	}
	inputs := make([]service.RecipeInput, 0, len(cfg.Recipes))
	for _, r := range cfg.Recipes {
		inputs = append(inputs, service.RecipeInput{Name: r.Name, Ingredients: r.Ingredients})
	}
	return inputs
}

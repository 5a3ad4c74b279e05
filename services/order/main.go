package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"
	"github.com/go-redis/redis/v8"

	"github.com/appetiteclub/delivery/pkg"
	"github.com/appetiteclub/delivery/pkg/auth"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/appetiteclub/delivery/pkg/grpchealth"
	"github.com/appetiteclub/delivery/pkg/mongodb"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/appetiteclub/delivery/services/order/internal/mongo"
	"github.com/appetiteclub/delivery/services/order/internal/order"
)

const (
	appNamespace = "ORDER"
	appName      = "order"
	appVersion   = "0.1.0"
)

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongodb.NewBaseRepo(config, logger, "delivery_order")
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	orderRepo := mongo.NewOrderRepo(db, baseRepo.Tx())
	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("%s(%s) cannot create indexes: %v", appName, appVersion, err)
	}

	bus, err := pkg.NewBus(config, pkg.BusConfig{Service: appName, Topics: event.AllTopics}, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to event bus: %v", appName, appVersion, err)
	}

	restaurantClient := order.NewHTTPRestaurantClient(
		config.GetStringOrDef("services.restaurant.url", "http://localhost:5006"),
		pkg.DurationOrDef(config, "services.restaurant.timeout", 10*time.Second),
	)

	// Idempotency-Key support is optional and needs Redis
	var idempotency order.IdempotencyStore
	lifecycles := []interface{}{
		aqm.LifecycleHooks{OnStop: baseRepo.Stop},
	}
	if redisURL, _ := config.GetString("redis.url"); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("%s(%s) invalid redis url: %v", appName, appVersion, err)
		}
		store := order.NewRedisIdempotencyStore(
			redis.NewClient(redisOpts),
			pkg.DurationOrDef(config, "idempotency.ttl", 24*time.Hour),
			pkg.DurationOrDef(config, "idempotency.pending_ttl", 2*time.Minute),
		)
		idempotency = store
		lifecycles = append(lifecycles, aqm.LifecycleHooks{OnStop: store.Stop})
		logger.Info("Idempotency keys enabled", "redis", redisOpts.Addr)
	}

	service := order.NewService(orderRepo, restaurantClient, idempotency, logger)
	handler := order.NewHandler(service, config, logger)
	subscriber := order.NewEventSubscriber(bus.Subscriber, service, logger)
	dispatcher := outbox.NewDispatcher(outbox.NewMongoStore(db), bus.Publisher, outbox.ConfigFrom(config), logger)
	health := grpchealth.NewServer(appName)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})
	verifier, err := auth.VerifierFrom(config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup auth: %v", appName, appVersion, err)
	}
	stack = append(stack, auth.Middleware(verifier))

	lifecycles = append(lifecycles,
		dispatcher,
		subscriber,
		health,
		aqm.LifecycleHooks{OnStop: bus.Stop},
	)

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", handler),
		aqm.WithGRPCServerModules("grpc.port", health),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
